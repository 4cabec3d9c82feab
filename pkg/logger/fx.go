package logger

import (
	"github.com/orgball2608/insta-downloader-api/pkg/config"
	"go.uber.org/fx"
)

var FxOption = fx.Annotate(
	func(cfg *config.Config) *Impl {
		return New(
			Opts{
				Env:       cfg.App.Env,
				SentryDSN: cfg.App.SentryURL,
			},
		)
	},
	fx.As(new(Logger)),
)
