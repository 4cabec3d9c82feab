package instagramimpl

import (
	"sync"
	"time"

	"github.com/Davincible/goinsta/v3"
	"github.com/orgball2608/insta-downloader-api/internal/instagram"
	"github.com/orgball2608/insta-downloader-api/pkg/config"
	"github.com/orgball2608/insta-downloader-api/pkg/logger"
	"github.com/orgball2608/insta-downloader-api/pkg/retry"
)

// IgImpl wraps one goinsta client. Instances are not shared across in-flight
// requests; the downloader pool hands each request its own.
type IgImpl struct {
	Client *goinsta.Instagram
	Logger logger.Logger
	Config *config.Config

	mu            sync.Mutex
	authenticated bool
	proxies       []string
	cursor        int

	retryCfg retry.Config
}

type Opts struct {
	Config *config.Config
	Logger logger.Logger
}

func New(opts Opts) *IgImpl {
	ig := &IgImpl{
		Client:  goinsta.New(opts.Config.Instagram.Username, opts.Config.Instagram.Password),
		Logger:  opts.Logger,
		Config:  opts.Config,
		proxies: opts.Config.Proxies(),
		retryCfg: retry.Config{
			MaxAttempts:         uint64(opts.Config.Proxy.RetryMax),
			InitialInterval:     time.Duration(opts.Config.Proxy.BackoffBaseSeconds * float64(time.Second)),
			MaxInterval:         60 * time.Second,
			Multiplier:          opts.Config.Proxy.BackoffBaseSeconds,
			RandomizationFactor: backoffJitterFactor(opts.Config),
		},
	}
	if ig.retryCfg.MaxAttempts == 0 {
		ig.retryCfg = retry.DefaultConfig()
	}
	if ig.rotationEnabled() {
		ig.applyNextProxy()
	}
	return ig
}

var _ instagram.Client = (*IgImpl)(nil)

func (ig *IgImpl) Capabilities() instagram.Capabilities {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	return instagram.Capabilities{
		Stories:       ig.authenticated,
		ProxyRotation: len(ig.proxies) > 0 && ig.Config.Proxy.Rotation,
	}
}

// retryConfig returns the backoff config with the proxy-rotation hook wired
// in, so the pool advances between attempts.
func (ig *IgImpl) retryConfig() retry.Config {
	cfg := ig.retryCfg
	if ig.rotationEnabled() {
		cfg.OnRetry = func(int) { ig.applyNextProxy() }
	}
	return cfg
}

func backoffJitterFactor(cfg *config.Config) float64 {
	if cfg.Proxy.BackoffBaseSeconds <= 0 {
		return 0.5
	}
	// The jitter env is configured in seconds; backoff wants a fraction of
	// the interval.
	f := cfg.Proxy.BackoffJitterSeconds / cfg.Proxy.BackoffBaseSeconds
	if f > 1 {
		f = 1
	}
	if f < 0 {
		f = 0
	}
	return f
}
