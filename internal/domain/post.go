package domain

import (
	"regexp"
	"time"
)

// Media is one downloadable media item belonging to a post.
type Media struct {
	URL     string
	IsVideo bool
}

// Post holds display metadata for a single Instagram post. Immutable once
// constructed from the upstream library's post object.
type Post struct {
	Shortcode    string    `json:"shortcode"`
	TakenAt      time.Time `json:"post_date"`
	Caption      string    `json:"caption,omitempty"`
	Hashtags     []string  `json:"hashtags"`
	Likes        int       `json:"likes"`
	Comments     int       `json:"comments"`
	IsVideo      bool      `json:"is_video"`
	VideoViews   int       `json:"video_view_count,omitempty"`
	Location     string    `json:"location,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	PostURL      string    `json:"post_url,omitempty"`

	Owner string  `json:"-"`
	Media []Media `json:"-"`
}

// PostList is the paged listing returned by the posts endpoint.
type PostList struct {
	Username      string  `json:"username"`
	TotalPosts    int     `json:"total_posts"`
	ReturnedPosts int     `json:"returned_posts"`
	Posts         []*Post `json:"posts"`
}

var hashtagRe = regexp.MustCompile(`#(\w+)`)

// HashtagsFrom extracts the hashtag set from a caption, without the '#'.
func HashtagsFrom(caption string) []string {
	matches := hashtagRe.FindAllStringSubmatch(caption, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var tags []string
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		tags = append(tags, m[1])
	}
	return tags
}
