package instagram

import (
	"context"

	"github.com/orgball2608/insta-downloader-api/internal/domain"
)

// Capabilities advertises which optional features the client instance can
// serve. Stories requires an authenticated session; proxy rotation requires
// a configured pool.
type Capabilities struct {
	Stories       bool
	ProxyRotation bool
}

// Client wraps the upstream scraping library. All methods may block on
// network I/O and are safe to invoke repeatedly.
type Client interface {
	// Login establishes a session from a saved session file or credentials.
	// A failed login leaves the client usable anonymously.
	Login(ctx context.Context) error

	GetProfile(ctx context.Context, username string) (*domain.Profile, error)

	// GetPosts returns up to max posts in the order the upstream yields
	// them (reverse-chronological). max <= 0 means all.
	GetPosts(ctx context.Context, username string, max int) ([]*domain.Post, error)

	GetPostByShortcode(ctx context.Context, shortcode string) (*domain.Post, error)

	GetStories(ctx context.Context, username string) ([]*domain.StoryItem, error)

	Capabilities() Capabilities
}
