package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/orgball2608/insta-downloader-api/internal/domain"
)

// DownloadStories fetches the subject's active stories into dir, one
// {date}-{mediaID} folder per item. Zero downloads is a valid result
// meaning "no active stories".
func (s *Service) DownloadStories(ctx context.Context, username, dir string) (int, error) {
	items, err := s.ig.GetStories(ctx, username)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create stories dir: %w", err)
	}

	count := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		folder := filepath.Join(dir, postFolderName(item.TakenAt, item.ID))
		if err := os.MkdirAll(folder, 0o755); err != nil {
			s.logger.Warn("Failed to create story folder", "story_id", item.ID, "error", err)
			continue
		}
		media := domain.Media{URL: item.MediaURL, IsVideo: item.IsVideo}
		if _, fetchErr := s.fetchMedia(ctx, media, folder, "story_"+item.ID); fetchErr != nil {
			s.logger.Warn("Failed to download story item, skipping",
				"username", username, "story_id", item.ID, "error", fetchErr)
			_ = os.RemoveAll(folder)
			continue
		}
		count++
	}
	return count, nil
}
