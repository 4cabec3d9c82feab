package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/orgball2608/insta-downloader-api/internal/domain"
	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
	"github.com/panjf2000/ants/v2"
)

func postFolderName(takenAt time.Time, id string) string {
	return fmt.Sprintf("%s-%s", takenAt.Format("2006-01-02"), id)
}

// DownloadPosts materializes up to max posts under dir, one
// {date}-{shortcode} folder per post. Per-post failures are skipped and
// logged; the returned metadata covers only posts whose media landed on
// disk.
func (s *Service) DownloadPosts(ctx context.Context, username, dir string, max int, includeMetadata bool) ([]*domain.Post, error) {
	posts, err := s.ig.GetPosts(ctx, username, max)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create posts dir: %w", err)
	}

	pool, err := ants.NewPool(s.maxConcurrent)
	if err != nil {
		return nil, fmt.Errorf("create media pool: %w", err)
	}
	defer pool.Release()

	var downloaded []*domain.Post
	for _, post := range posts {
		if ctx.Err() != nil {
			return downloaded, ctx.Err()
		}
		folder := filepath.Join(dir, postFolderName(post.TakenAt, post.Shortcode))
		files, dlErr := s.downloadPostMedia(ctx, pool, post, folder)
		if dlErr != nil || len(files) == 0 {
			s.logger.Warn("Failed to download post, skipping",
				"username", username, "shortcode", post.Shortcode, "error", dlErr)
			_ = os.RemoveAll(folder)
			continue
		}
		if includeMetadata {
			if metaErr := writeMetadata(post, filepath.Join(folder, "metadata.txt")); metaErr != nil {
				s.logger.Warn("Failed to write post metadata",
					"shortcode", post.Shortcode, "error", metaErr)
			}
		}
		downloaded = append(downloaded, post)
	}
	return downloaded, nil
}

// DownloadPostByURL downloads a single post given a post/reel/TV/story link
// or a bare shortcode.
func (s *Service) DownloadPostByURL(ctx context.Context, urlOrShortcode, dir string, includeMetadata bool) (*domain.SinglePost, error) {
	shortcode, err := ExtractShortcode(urlOrShortcode)
	if err != nil {
		return nil, err
	}

	post, err := s.ig.GetPostByShortcode(ctx, shortcode)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(s.maxConcurrent)
	if err != nil {
		return nil, fmt.Errorf("create media pool: %w", err)
	}
	defer pool.Release()

	folder := filepath.Join(dir, postFolderName(post.TakenAt, post.Shortcode))
	files, err := s.downloadPostMedia(ctx, pool, post, folder)
	if err != nil {
		_ = os.RemoveAll(folder)
		return nil, apperrors.Download("Failed to download post media: " + err.Error())
	}
	if len(files) == 0 {
		_ = os.RemoveAll(folder)
		return nil, apperrors.NoContent("media")
	}
	if includeMetadata {
		if metaErr := writeMetadata(post, filepath.Join(folder, "metadata.txt")); metaErr != nil {
			s.logger.Warn("Failed to write post metadata", "shortcode", post.Shortcode, "error", metaErr)
		}
	}

	return &domain.SinglePost{
		Shortcode:  post.Shortcode,
		Owner:      post.Owner,
		MediaFiles: files,
		Folder:     folder,
		IsSidecar:  len(post.Media) > 1,
		Metadata:   post,
	}, nil
}

// downloadPostMedia fetches every media item of one post into folder,
// bounded by the worker pool, then flattens anything nested.
func (s *Service) downloadPostMedia(ctx context.Context, pool *ants.Pool, post *domain.Post, folder string) ([]string, error) {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create post folder: %w", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		files    []string
		firstErr error
	)
	for i, media := range post.Media {
		i, media := i, media
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			name := fmt.Sprintf("%s_%d", post.Shortcode, i+1)
			path, fetchErr := s.fetchMedia(ctx, media, folder, name)
			mu.Lock()
			defer mu.Unlock()
			if fetchErr != nil {
				if firstErr == nil {
					firstErr = fetchErr
				}
				return
			}
			files = append(files, path)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	flattenDir(folder, s.logger)

	if len(files) == 0 && firstErr != nil {
		return nil, firstErr
	}
	sort.Strings(files)
	return files, nil
}
