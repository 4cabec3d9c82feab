package downloader

import (
	"regexp"

	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
)

var (
	shortcodeURLRe  = regexp.MustCompile(`(?i)(?:instagram\.com/(?:p|reel|tv)/|/p/|/reel/|/tv/|/stories/[^/]+/)([A-Za-z0-9_-]{5,})`)
	shortcodeBareRe = regexp.MustCompile(`^[A-Za-z0-9_-]{5,}$`)
)

// ExtractShortcode pulls the shortcode out of a post/reel/TV/story link, or
// accepts a bare shortcode of at least 5 allowed characters as-is.
func ExtractShortcode(identifier string) (string, error) {
	if m := shortcodeURLRe.FindStringSubmatch(identifier); m != nil {
		return m[1], nil
	}
	if shortcodeBareRe.MatchString(identifier) {
		return identifier, nil
	}
	return "", apperrors.Download("Provide a valid Instagram link or shortcode.")
}
