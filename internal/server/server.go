package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"

	"github.com/orgball2608/insta-downloader-api/internal/downloader"
	"github.com/orgball2608/insta-downloader-api/internal/ratelimit"
	"github.com/orgball2608/insta-downloader-api/internal/workspace"
	"github.com/orgball2608/insta-downloader-api/pkg/config"
	"github.com/orgball2608/insta-downloader-api/pkg/logger"
)

// Server owns the HTTP surface: routing, validation, envelope rendering and
// the wiring between request handlers, the service pool and the workspace.
type Server struct {
	pool      *downloader.Pool
	workspace *workspace.Manager
	config    *config.Config
	logger    logger.Logger
	limiter   ratelimit.Limiter
	http      *http.Client
}

type Opts struct {
	fx.In

	Pool      *downloader.Pool
	Workspace *workspace.Manager
	Config    *config.Config
	Logger    logger.Logger
}

func New(opts Opts) *Server {
	return &Server{
		pool:      opts.Pool,
		workspace: opts.Workspace,
		config:    opts.Config,
		logger:    opts.Logger,
		limiter: ratelimit.NewInMemoryLimiter(
			opts.Config.RateLimit.Requests,
			opts.Config.RateLimitPeriod(),
			opts.Config.RateLimit.Requests,
		),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Router assembles the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(s.cors)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Get("/profile/{username}", s.handleProfile)
		r.Get("/profile/{username}/posts", s.handleProfilePosts)

		r.Get("/download/all/{username}", s.handleDownloadAll)
		r.Get("/download/posts/{username}", s.handleDownloadPosts)
		r.Get("/download/stories/{username}", s.handleDownloadStories)
		r.Get("/download/post", s.handleDownloadPost)
		r.Get("/download/profile-pic/{username}", s.handleProfilePic)

		r.Get("/proxy/thumbnail", s.handleThumbnail)
	})

	s.mountStatic(r)

	return r
}

// Addr returns the listen address from configuration.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.config.App.Port)
}
