package config

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Name      string `env:"APP_NAME" env-default:"Instagram Downloader API"`
		Version   string `env:"APP_VERSION" env-default:"1.0.0"`
		Env       string `env:"APP_ENV" env-default:"development"`
		Port      int    `env:"APP_PORT" env-default:"8000"`
		Debug     bool   `env:"APP_DEBUG" env-default:"false"`
		WebDir    string `env:"APP_WEB_DIR" env-default:"web"`
		SentryURL string `env:"SENTRY_URL"`
	}
	Download struct {
		Dir            string `env:"DOWNLOAD_DIR" env-default:"/tmp/insta_downloads"`
		MaxConcurrent  int    `env:"DOWNLOAD_MAX_CONCURRENT" env-default:"3"`
		TimeoutSeconds int    `env:"DOWNLOAD_TIMEOUT_SECONDS" env-default:"300"`
	}
	RateLimit struct {
		Requests      int `env:"RATE_LIMIT_REQUESTS" env-default:"10"`
		PeriodSeconds int `env:"RATE_LIMIT_PERIOD_SECONDS" env-default:"60"`
	}
	Cleanup struct {
		Auto         bool `env:"AUTO_CLEANUP" env-default:"true"`
		AfterSeconds int  `env:"CLEANUP_AFTER_SECONDS" env-default:"300"`
	}
	Instagram struct {
		Username    string `env:"IG_USERNAME"`
		Password    string `env:"IG_PASSWORD"`
		SessionPath string `env:"IG_SESSION_PATH" env-default:"./goinsta-session"`
		UserAgent   string `env:"IG_USER_AGENT"`
	}
	Proxy struct {
		List                 string  `env:"PROXY_LIST"`
		Rotation             bool    `env:"PROXY_ROTATION" env-default:"true"`
		RetryMax             int     `env:"PROXY_RETRY_MAX" env-default:"3"`
		BackoffBaseSeconds   float64 `env:"PROXY_BACKOFF_BASE_SECONDS" env-default:"2"`
		BackoffJitterSeconds float64 `env:"PROXY_BACKOFF_JITTER_SECONDS" env-default:"1"`
	}
	Thumbnail struct {
		AllowedHosts string `env:"THUMBNAIL_ALLOWED_HOSTS" env-default:"cdninstagram.com;fbcdn.net"`
	}
}

var (
	once sync.Once
	cfg  *Config
	err  error
)

func New() (*Config, error) {
	once.Do(func() {
		cfg = &Config{}
		err = read(cfg)
	})
	return cfg, err
}

func read(c *Config) error {
	if _, statErr := os.Stat(".env"); statErr == nil {
		return cleanenv.ReadConfig(".env", c)
	}
	return cleanenv.ReadEnv(c)
}

// Proxies returns the configured proxy pool, semicolon separated in the env.
func (c *Config) Proxies() []string {
	return splitList(c.Proxy.List)
}

// ThumbnailHosts returns the allow-listed upstream hosts for the thumbnail relay.
func (c *Config) ThumbnailHosts() []string {
	return splitList(c.Thumbnail.AllowedHosts)
}

func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Download.TimeoutSeconds) * time.Second
}

func (c *Config) CleanupDelay() time.Duration {
	return time.Duration(c.Cleanup.AfterSeconds) * time.Second
}

func (c *Config) RateLimitPeriod() time.Duration {
	return time.Duration(c.RateLimit.PeriodSeconds) * time.Second
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
