package downloader

import (
	"fmt"
	"os"
	"strings"

	"github.com/orgball2608/insta-downloader-api/internal/domain"
)

// writeMetadata renders a human-readable metadata file next to the post's
// media.
func writeMetadata(post *domain.Post, path string) error {
	var b strings.Builder

	b.WriteString("Post Information\n")
	b.WriteString("==================\n\n")
	fmt.Fprintf(&b, "Shortcode: %s\n", post.Shortcode)
	fmt.Fprintf(&b, "Post Date: %s\n", post.TakenAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Likes: %d\n", post.Likes)
	fmt.Fprintf(&b, "Comments: %d\n", post.Comments)
	if post.IsVideo {
		b.WriteString("Video: Yes\n")
	} else {
		b.WriteString("Video: No\n")
	}
	if post.IsVideo && post.VideoViews > 0 {
		fmt.Fprintf(&b, "Video Views: %d\n", post.VideoViews)
	}
	if post.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", post.Location)
	}

	hashtags := "None"
	if len(post.Hashtags) > 0 {
		hashtags = strings.Join(post.Hashtags, ", ")
	}
	fmt.Fprintf(&b, "\nHashtags: %s\n", hashtags)

	caption := post.Caption
	if caption == "" {
		caption = "(No caption)"
	}
	fmt.Fprintf(&b, "\nCaption:\n%s\n%s\n", strings.Repeat("-", 40), caption)

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
