package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/orgball2608/insta-downloader-api/internal/domain"
	"github.com/orgball2608/insta-downloader-api/pkg/logger"
)

// fetchToFile downloads one URL into destDir as baseName plus an extension
// inferred from the response content type or the URL path.
func (s *Service) fetchToFile(ctx context.Context, rawURL, destDir, baseName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Referer", "https://www.instagram.com/")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	ext := extensionFor(resp.Header.Get("Content-Type"), rawURL)
	dest := filepath.Join(destDir, baseName+ext)

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write media file: %w", err)
	}
	return dest, nil
}

func (s *Service) fetchMedia(ctx context.Context, m domain.Media, destDir, baseName string) (string, error) {
	path, err := s.fetchToFile(ctx, m.URL, destDir, baseName)
	if err != nil {
		return "", err
	}
	// Video URLs occasionally come without a usable extension in either the
	// content type or the path.
	if m.IsVideo && filepath.Ext(path) == ".jpg" {
		fixed := strings.TrimSuffix(path, ".jpg") + ".mp4"
		if renameErr := os.Rename(path, fixed); renameErr == nil {
			return fixed, nil
		}
	}
	return path, nil
}

func extensionFor(contentType, rawURL string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "webp"):
		return ".webp"
	case strings.Contains(ct, "gif"):
		return ".gif"
	case strings.Contains(ct, "mp4"), strings.Contains(ct, "video"):
		return ".mp4"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ".jpg"
	}
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(filepath.Ext(u.Path)); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	return ".jpg"
}

// flattenDir moves files out of immediate subdirectories of dir up one
// level and removes the then-empty subdirectories. The upstream library's
// per-post downloader nests its output; archive entries should not.
func flattenDir(dir string, log logger.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		nested, err := os.ReadDir(sub)
		if err != nil {
			continue
		}
		for _, item := range nested {
			if item.IsDir() {
				continue
			}
			from := filepath.Join(sub, item.Name())
			to := filepath.Join(dir, item.Name())
			if err := os.Rename(from, to); err != nil {
				log.Warn("Failed to flatten media file", "from", from, "error", err)
			}
		}
		if err := os.Remove(sub); err != nil {
			// Leave non-empty subfolders in place.
			log.Debug("Leaving subfolder in place", "dir", sub)
		}
	}
}
