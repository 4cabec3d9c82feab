package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/orgball2608/insta-downloader-api/pkg/logger"
)

type Config struct {
	// MaxAttempts is the total number of tries, including the first one.
	MaxAttempts         uint64
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	// OnRetry runs before each wait, after attempt attempts have failed.
	// The Instagram layer uses it to rotate proxies between tries.
	OnRetry func(attempt int)
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:         3,
		InitialInterval:     500 * time.Millisecond,
		MaxInterval:         5 * time.Second,
		Multiplier:          1.5,
		RandomizationFactor: 0.5,
	}
}

// Permanent marks err as not retryable; Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func Do(ctx context.Context, log logger.Logger, operationName string, operation func() error, cfg Config) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.Multiplier = cfg.Multiplier
	bo.RandomizationFactor = cfg.RandomizationFactor
	bo.MaxElapsedTime = 0
	bo.Reset()

	maxRetries := uint64(0)
	if cfg.MaxAttempts > 0 {
		maxRetries = cfg.MaxAttempts - 1
	}
	retryable := backoff.WithMaxRetries(bo, maxRetries)
	retryableWithContext := backoff.WithContext(retryable, ctx)

	attempt := 0
	notify := func(err error, t time.Duration) {
		attempt++
		log.Warn(
			"Operation failed, retrying...",
			"operation", operationName,
			"attempt", attempt,
			"error", err,
			"next_attempt_in", t.Round(time.Millisecond).String(),
		)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt)
		}
	}

	return backoff.RetryNotify(operation, retryableWithContext, notify)
}
