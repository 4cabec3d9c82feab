package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orgball2608/insta-downloader-api/internal/archive"
	"github.com/orgball2608/insta-downloader-api/internal/downloader"
	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
	"github.com/orgball2608/insta-downloader-api/pkg/formatter"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.renderJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"version":   s.config.App.Version,
		"timestamp": timestamp(),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	username, ok := s.pathUsername(w, r)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(r)
	defer cancel()

	svc, release, err := s.acquire(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	defer release()

	profile, err := svc.GetProfile(ctx, username)
	if err != nil {
		s.renderError(w, r, timeoutOr(ctx, err))
		return
	}
	s.renderJSON(w, http.StatusOK, profile)
}

func (s *Server) handleProfilePosts(w http.ResponseWriter, r *http.Request) {
	username, ok := s.pathUsername(w, r)
	if !ok {
		return
	}
	max, ok := s.queryInt(w, r, "max_posts", 12, 1, 50)
	if !ok {
		return
	}

	ctx, cancel := s.opContext(r)
	defer cancel()

	svc, release, err := s.acquire(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	defer release()

	list, err := svc.ListPosts(ctx, username, max)
	if err != nil {
		s.renderError(w, r, timeoutOr(ctx, err))
		return
	}
	s.renderJSON(w, http.StatusOK, list)
}

func (s *Server) handleDownloadAll(w http.ResponseWriter, r *http.Request) {
	username, ok := s.pathUsername(w, r)
	if !ok {
		return
	}
	max, ok := s.queryInt(w, r, "max_posts", 0, 1, 1000)
	if !ok {
		return
	}
	includeMetadata := queryBool(r, "include_metadata", true)

	s.withDownloadDir(w, r, username, func(ctx context.Context, svc *downloader.Service, dir string) error {
		start := time.Now()
		stats := svc.DownloadAll(ctx, username, dir, max, includeMetadata)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if stats.Posts == 0 && stats.Stories == 0 && !stats.ProfilePic {
			return apperrors.NoContent("content")
		}

		zipPath, err := archive.Create(dir, filepath.Base(dir), "")
		if err != nil {
			return apperrors.Download("Failed to package download: " + err.Error())
		}
		stats.TotalFiles = archive.CountFiles(dir)
		stats.ZipSizeBytes = archive.Size(zipPath)
		stats.DownloadTimeSeconds = time.Since(start).Seconds()
		s.logger.Info("Packaged full download",
			"username", username,
			"posts", stats.Posts,
			"stories", stats.Stories,
			"zip_size", formatter.ByteSize(stats.ZipSizeBytes),
		)

		w.Header().Set("X-Download-Stats-Posts", strconv.Itoa(stats.Posts))
		w.Header().Set("X-Download-Stats-Stories", strconv.Itoa(stats.Stories))
		w.Header().Set("X-Download-Stats-ProfilePic", strconv.FormatBool(stats.ProfilePic))
		setDownloadTime(w, start)

		s.serveZip(w, r, zipPath, username+".zip")
		return nil
	})
}

func (s *Server) handleDownloadPosts(w http.ResponseWriter, r *http.Request) {
	username, ok := s.pathUsername(w, r)
	if !ok {
		return
	}
	max, ok := s.queryInt(w, r, "max_posts", 0, 1, 1000)
	if !ok {
		return
	}
	includeMetadata := queryBool(r, "include_metadata", true)

	s.withDownloadDir(w, r, username, func(ctx context.Context, svc *downloader.Service, dir string) error {
		start := time.Now()
		posts, err := svc.DownloadPosts(ctx, username, filepath.Join(dir, "posts"), max, includeMetadata)
		if err != nil {
			return err
		}
		if len(posts) == 0 {
			return apperrors.NoContent("posts")
		}

		zipPath, err := archive.Create(dir, filepath.Base(dir), "")
		if err != nil {
			return apperrors.Download("Failed to package download: " + err.Error())
		}
		w.Header().Set("X-Download-Stats-Posts", strconv.Itoa(len(posts)))
		setDownloadTime(w, start)
		s.serveZip(w, r, zipPath, username+"_posts.zip")
		return nil
	})
}

func (s *Server) handleDownloadStories(w http.ResponseWriter, r *http.Request) {
	username, ok := s.pathUsername(w, r)
	if !ok {
		return
	}

	s.withDownloadDir(w, r, username, func(ctx context.Context, svc *downloader.Service, dir string) error {
		start := time.Now()
		count, err := svc.DownloadStories(ctx, username, filepath.Join(dir, "stories"))
		if err != nil {
			return err
		}
		if count == 0 {
			return apperrors.NoContent("active stories")
		}

		zipPath, err := archive.Create(dir, filepath.Base(dir), "")
		if err != nil {
			return apperrors.Download("Failed to package download: " + err.Error())
		}
		w.Header().Set("X-Download-Stats-Stories", strconv.Itoa(count))
		setDownloadTime(w, start)
		s.serveZip(w, r, zipPath, username+"_stories.zip")
		return nil
	})
}

func (s *Server) handleDownloadPost(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.renderValidation(w, "Query parameter 'url' is required.")
		return
	}
	includeMetadata := queryBool(r, "include_metadata", false)

	s.withDownloadDir(w, r, "post", func(ctx context.Context, svc *downloader.Service, dir string) error {
		result, err := svc.DownloadPostByURL(ctx, rawURL, dir, includeMetadata)
		if err != nil {
			return err
		}

		// A single image or video goes out raw; anything more is zipped.
		if len(result.MediaFiles) == 1 && !includeMetadata {
			s.serveFile(w, r, result.MediaFiles[0], filepath.Base(result.MediaFiles[0]))
			return nil
		}

		zipPath, err := archive.Create(result.Folder, result.Shortcode, dir)
		if err != nil {
			return apperrors.Download("Failed to package download: " + err.Error())
		}
		s.serveZip(w, r, zipPath, result.Shortcode+".zip")
		return nil
	})
}

func (s *Server) handleProfilePic(w http.ResponseWriter, r *http.Request) {
	username, ok := s.pathUsername(w, r)
	if !ok {
		return
	}

	if queryBool(r, "url_only", false) {
		ctx, cancel := s.opContext(r)
		defer cancel()

		svc, release, err := s.acquire(ctx)
		if err != nil {
			s.renderError(w, r, err)
			return
		}
		defer release()

		profile, err := svc.GetProfile(ctx, username)
		if err != nil {
			s.renderError(w, r, timeoutOr(ctx, err))
			return
		}
		picURL := profile.ProfilePicURLHD
		if picURL == "" {
			picURL = profile.ProfilePicURL
		}
		s.renderJSON(w, http.StatusOK, map[string]string{
			"username":        username,
			"profile_pic_url": picURL,
		})
		return
	}

	s.withDownloadDir(w, r, username, func(ctx context.Context, svc *downloader.Service, dir string) error {
		start := time.Now()
		path, err := svc.DownloadProfilePic(ctx, username, dir)
		if err != nil {
			return err
		}
		if path == "" {
			return apperrors.NoContent("profile picture")
		}
		setDownloadTime(w, start)
		s.serveFile(w, r, path, username+"_profile_pic"+filepath.Ext(path))
		return nil
	})
}

// withDownloadDir runs op with an allocated workspace directory, a pooled
// service and the operation timeout. On failure the directory is removed
// synchronously before the error is rendered; on success it is scheduled
// for deferred cleanup together with its sibling archive.
func (s *Server) withDownloadDir(w http.ResponseWriter, r *http.Request, subject string, op func(ctx context.Context, svc *downloader.Service, dir string) error) {
	dir, err := s.workspace.Allocate(subject)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	ctx, cancel := s.opContext(r)
	defer cancel()

	svc, release, err := s.acquire(ctx)
	if err != nil {
		_ = s.workspace.Remove(dir)
		s.renderError(w, r, err)
		return
	}
	defer release()

	if err := op(ctx, svc, dir); err != nil {
		_ = s.workspace.Remove(dir)
		s.renderError(w, r, timeoutOr(ctx, err))
		return
	}
	s.workspace.ScheduleCleanup(dir)
}

func (s *Server) opContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.config.DownloadTimeout())
}

// timeoutOr prefers the expired deadline over whatever downstream error it
// surfaced as, so deadline expiry always renders as a timeout.
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ctx.Err()
	}
	return err
}

func (s *Server) acquire(ctx context.Context) (*downloader.Service, func(), error) {
	svc, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	return svc, func() { s.pool.Release(svc) }, nil
}

func setDownloadTime(w http.ResponseWriter, start time.Time) {
	w.Header().Set("X-Download-Time-Seconds", fmt.Sprintf("%.2f", time.Since(start).Seconds()))
}

func (s *Server) serveZip(w http.ResponseWriter, r *http.Request, zipPath, downloadName string) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	http.ServeFile(w, r, zipPath)
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, path, downloadName string) {
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	http.ServeFile(w, r, path)
}

func (s *Server) pathUsername(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := chi.URLParam(r, "username")
	if !usernameRe.MatchString(username) {
		s.renderValidation(w, "Provide a valid Instagram username.")
		return "", false
	}
	return username, true
}

// queryInt validates an optional integer query parameter against [min, max].
func (s *Server) queryInt(w http.ResponseWriter, r *http.Request, name string, def, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		s.renderValidation(w, fmt.Sprintf("Parameter '%s' must be an integer between %d and %d.", name, min, max))
		return 0, false
	}
	return n, true
}

func queryBool(r *http.Request, name string, def bool) bool {
	switch r.URL.Query().Get(name) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return def
	}
}

func (s *Server) renderValidation(w http.ResponseWriter, message string) {
	s.renderJSON(w, http.StatusBadRequest, errorResponse{
		Success:   false,
		Error:     message,
		ErrorCode: "VALIDATION_ERROR",
		Timestamp: timestamp(),
	})
}
