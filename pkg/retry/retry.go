// Package retry re-runs fallible browser steps a fixed number of times.
// Exhausted retries are logged and swallowed: callers get a zero value and
// false, never an error.
package retry

import (
	"context"
	"time"

	"github.com/linuxdo-automation/pkg/config"
	"github.com/linuxdo-automation/pkg/logger"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *logger.Logger
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		Logger:      logger.WithComponent("retry"),
	}
}

func FromConfig(cfg config.RetryConfig) Config {
	c := DefaultConfig()
	if cfg.MaxAttempts > 0 {
		c.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Delay >= 0 {
		c.Delay = cfg.Delay
	}
	return c
}

// Do calls op until it succeeds or MaxAttempts is reached. The bool reports
// whether a result was produced.
func Do[T any](ctx context.Context, cfg Config, name string, op func(ctx context.Context) (T, error)) (T, bool) {
	var zero T

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	log := cfg.Logger
	if log == nil {
		log = logger.WithComponent("retry")
	}

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, true
		}

		if attempt == cfg.MaxAttempts {
			log.Error("%s failed for good: %v", name, err)
		}
		log.Warn("%s attempt %d/%d failed: %v", name, attempt, cfg.MaxAttempts, err)

		if attempt == cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Warn("%s abandoned: %v", name, ctx.Err())
			return zero, false
		case <-timer.C:
		}
	}

	return zero, false
}

// Run is Do for operations without a result.
func Run(ctx context.Context, cfg Config, name string, op func(ctx context.Context) error) bool {
	_, ok := Do(ctx, cfg, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return ok
}
