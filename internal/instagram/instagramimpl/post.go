package instagramimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/Davincible/goinsta/v3"
	"github.com/orgball2608/insta-downloader-api/internal/domain"
	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
)

func (ig *IgImpl) GetPosts(ctx context.Context, username string, max int) ([]*domain.Post, error) {
	user, err := ig.visitProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.IsPrivate && !user.Friendship.Following {
		return nil, apperrors.PrivateProfile(username)
	}

	feed := user.Feed()
	var posts []*domain.Post
	for feed.Next() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		for _, item := range feed.Items {
			post, mapErr := ig.mapPost(item)
			if mapErr != nil {
				ig.Logger.Warn("Skipping unreadable post", "username", username, "error", mapErr)
				continue
			}
			posts = append(posts, post)
			if max > 0 && len(posts) >= max {
				return posts, nil
			}
		}
	}
	return posts, nil
}

func (ig *IgImpl) GetPostByShortcode(ctx context.Context, shortcode string) (*domain.Post, error) {
	mediaID, err := goinsta.MediaIDFromShortID(shortcode)
	if err != nil {
		return nil, apperrors.Download("Post not found or unreachable.")
	}

	var feed *goinsta.FeedMedia
	op := func() error {
		var opErr error
		feed, opErr = ig.Client.GetMedia(mediaID)
		if opErr != nil {
			return retryableOrPermanent(classify(opErr, shortcode))
		}
		return nil
	}
	if err := ig.do(ctx, "GetMedia", op); err != nil {
		return nil, err
	}
	if feed == nil || len(feed.Items) == 0 {
		return nil, apperrors.Download("Post not found or unreachable.")
	}

	item := feed.Items[0]
	if item.User.IsPrivate && !item.User.Friendship.Following {
		return nil, apperrors.PrivateProfile(item.User.Username)
	}
	return ig.mapPost(item)
}

// mapPost converts one library media item into display metadata plus the
// list of fetchable media URLs.
func (ig *IgImpl) mapPost(item *goinsta.Item) (*domain.Post, error) {
	if item.Code == "" {
		return nil, fmt.Errorf("media item has no shortcode")
	}

	caption := item.Caption.Text
	post := &domain.Post{
		Shortcode: item.Code,
		TakenAt:   time.Unix(item.TakenAt, 0),
		Caption:   caption,
		Hashtags:  domain.HashtagsFrom(caption),
		Owner:     item.User.Username,
		Likes:     item.Likes,
		Comments:  item.CommentCount,
		IsVideo:   len(item.Videos) > 0,
		Location:  item.Location.Name,
		PostURL:   fmt.Sprintf("https://www.instagram.com/p/%s/", item.Code),
	}
	if post.IsVideo {
		post.VideoViews = int(item.ViewCount)
	}
	if len(item.Images.Versions) > 0 {
		post.ThumbnailURL = item.Images.Versions[0].URL
	}

	if len(item.CarouselMedia) > 0 {
		for _, sub := range item.CarouselMedia {
			if media, ok := bestMedia(sub.Videos, sub.Images); ok {
				post.Media = append(post.Media, media)
			}
		}
	} else if media, ok := bestMedia(item.Videos, item.Images); ok {
		post.Media = append(post.Media, media)
	}
	return post, nil
}

func bestMedia(videos []goinsta.Video, images goinsta.Images) (domain.Media, bool) {
	if len(videos) > 0 && videos[0].URL != "" {
		return domain.Media{URL: videos[0].URL, IsVideo: true}, true
	}
	if len(images.Versions) > 0 && images.Versions[0].URL != "" {
		return domain.Media{URL: images.Versions[0].URL}, true
	}
	return domain.Media{}, false
}
