package downloader

import (
	"context"
	"path/filepath"

	"github.com/orgball2608/insta-downloader-api/internal/domain"
	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
)

// DownloadAll composes profile picture, posts and (when the session allows)
// stories into one target directory. Sub-operation failures are recorded as
// strings in the statistics instead of aborting the remaining steps.
func (s *Service) DownloadAll(ctx context.Context, username, dir string, maxPosts int, includeMetadata bool) *domain.Stats {
	stats := &domain.Stats{Username: username}

	picPath, err := s.DownloadProfilePic(ctx, username, dir)
	if err != nil {
		stats.Errors = append(stats.Errors, "Profile picture: "+errMessage(err))
	} else {
		stats.ProfilePic = picPath != ""
	}

	posts, err := s.DownloadPosts(ctx, username, filepath.Join(dir, "posts"), maxPosts, includeMetadata)
	switch {
	case apperrors.IsKind(err, apperrors.KindPrivateProfile):
		stats.Errors = append(stats.Errors, "Posts: Profile is private")
	case err != nil:
		stats.Errors = append(stats.Errors, "Posts: "+errMessage(err))
	default:
		stats.Posts = len(posts)
	}

	if s.ig.Capabilities().Stories {
		count, err := s.DownloadStories(ctx, username, filepath.Join(dir, "stories"))
		if err != nil {
			stats.Errors = append(stats.Errors, "Stories: "+errMessage(err))
		} else {
			stats.Stories = count
		}
	}

	return stats
}

func errMessage(err error) string {
	if e, ok := apperrors.FromError(err); ok {
		return e.Message
	}
	return err.Error()
}
