package instagramimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/orgball2608/insta-downloader-api/internal/domain"
	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
)

// GetStories fetches the subject's active stories. Requires an
// authenticated session; zero items is a valid result.
func (ig *IgImpl) GetStories(ctx context.Context, username string) ([]*domain.StoryItem, error) {
	if !ig.isAuthenticated() {
		return nil, apperrors.LoginRequired("stories download")
	}

	user, err := ig.visitProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	stories, err := user.Stories()
	if err != nil {
		return nil, classify(err, username)
	}
	if stories == nil || len(stories.Reel.Items) == 0 {
		return nil, nil
	}

	items := make([]*domain.StoryItem, 0, len(stories.Reel.Items))
	for _, item := range stories.Reel.Items {
		story := &domain.StoryItem{
			ID:      fmt.Sprint(item.ID),
			TakenAt: time.Unix(item.TakenAt, 0),
		}
		if len(item.Videos) > 0 {
			story.MediaURL = item.Videos[0].URL
			story.IsVideo = true
		} else if len(item.Images.Versions) > 0 {
			story.MediaURL = item.Images.Versions[0].URL
		}
		if story.MediaURL == "" {
			ig.Logger.Warn("Story item has no fetchable media, skipping", "story_id", story.ID)
			continue
		}
		items = append(items, story)
	}
	return items, nil
}
