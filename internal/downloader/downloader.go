package downloader

import (
	"context"
	"net/http"
	"time"

	"github.com/orgball2608/insta-downloader-api/internal/domain"
	"github.com/orgball2608/insta-downloader-api/internal/instagram"
	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
	"github.com/orgball2608/insta-downloader-api/pkg/logger"
)

const (
	defaultMaxListed = 12
	maxListed        = 50
)

// Service is the content-retrieval layer: it asks the Instagram client for
// metadata and media URLs and materializes the media on disk. One Service
// serves one request at a time; the Pool hands them out.
type Service struct {
	ig            instagram.Client
	http          *http.Client
	logger        logger.Logger
	userAgent     string
	maxConcurrent int
}

type Opts struct {
	Instagram     instagram.Client
	Logger        logger.Logger
	UserAgent     string
	MaxConcurrent int
	HTTPClient    *http.Client
}

func New(opts Opts) *Service {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}
	return &Service{
		ig:            opts.Instagram,
		http:          httpClient,
		logger:        opts.Logger,
		userAgent:     opts.UserAgent,
		maxConcurrent: maxConcurrent,
	}
}

func (s *Service) Capabilities() instagram.Capabilities {
	return s.ig.Capabilities()
}

// Login warms the underlying session; failures leave the service usable
// anonymously.
func (s *Service) Login(ctx context.Context) error {
	return s.ig.Login(ctx)
}

func (s *Service) GetProfile(ctx context.Context, username string) (*domain.Profile, error) {
	return s.ig.GetProfile(ctx, username)
}

// ListPosts returns display metadata with thumbnails for up to max recent
// posts, clamped to 1..50 with a default of 12.
func (s *Service) ListPosts(ctx context.Context, username string, max int) (*domain.PostList, error) {
	if max <= 0 {
		max = defaultMaxListed
	}
	if max > maxListed {
		max = maxListed
	}

	profile, err := s.ig.GetProfile(ctx, username)
	if err != nil {
		return nil, err
	}
	if profile.IsPrivate {
		return nil, apperrors.PrivateProfile(username)
	}

	posts, err := s.ig.GetPosts(ctx, username, max)
	if err != nil {
		return nil, err
	}
	return &domain.PostList{
		Username:      username,
		TotalPosts:    profile.PostCount,
		ReturnedPosts: len(posts),
		Posts:         posts,
	}, nil
}
