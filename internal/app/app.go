package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/fx"

	"github.com/orgball2608/insta-downloader-api/internal/downloader"
	"github.com/orgball2608/insta-downloader-api/internal/instagram"
	"github.com/orgball2608/insta-downloader-api/internal/instagram/instagramimpl"
	"github.com/orgball2608/insta-downloader-api/internal/server"
	"github.com/orgball2608/insta-downloader-api/internal/workspace"
	"github.com/orgball2608/insta-downloader-api/pkg/config"
	"github.com/orgball2608/insta-downloader-api/pkg/logger"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		workspace.New,
		newPool,
		server.New,
	),
	fx.Invoke(run),
)

// newPool builds the service pool. Each pooled service carries its own
// upstream client so sessions and proxy cursors are never shared between
// concurrent requests.
func newPool(cfg *config.Config, log logger.Logger) *downloader.Pool {
	factory := func() (*downloader.Service, error) {
		var ig instagram.Client = instagramimpl.New(instagramimpl.Opts{
			Config: cfg,
			Logger: log,
		})
		return downloader.New(downloader.Opts{
			Instagram:     ig,
			Logger:        log,
			UserAgent:     cfg.Instagram.UserAgent,
			MaxConcurrent: cfg.Download.MaxConcurrent,
		}), nil
	}
	return downloader.NewPool(cfg.Download.MaxConcurrent, factory)
}

func run(lc fx.Lifecycle, log logger.Logger, srv *server.Server, pool *downloader.Pool) {
	httpServer := &http.Server{
		Addr:              srv.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("Starting HTTP server", "addr", httpServer.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server failed", "error", err)
				}
			}()

			// Session warm-up must not block startup; anonymous access
			// still serves public profiles.
			go func() {
				warmCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()
				if err := pool.Warm(warmCtx); err != nil {
					log.Warn("Session warm-up failed, continuing anonymously", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down HTTP server")
			err := httpServer.Shutdown(ctx)
			sentry.Flush(2 * time.Second)
			return err
		},
	})
}
