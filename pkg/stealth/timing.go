package stealth

import (
	"context"
	"math/rand"
	"time"

	"github.com/linuxdo-automation/pkg/config"
	"github.com/linuxdo-automation/pkg/logger"
)

// TimingController owns the randomness behind every pause and dice roll of a
// run. It is not safe for concurrent use.
type TimingController struct {
	config *config.TimingConfig
	log    *logger.Logger
	rand   *rand.Rand
}

func NewTimingController(cfg *config.TimingConfig) *TimingController {
	return NewTimingControllerWithSeed(cfg, time.Now().UnixNano())
}

func NewTimingControllerWithSeed(cfg *config.TimingConfig, seed int64) *TimingController {
	return &TimingController{
		config: cfg,
		log:    logger.WithComponent("timing"),
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// RandomDelay returns a duration uniformly drawn from [min, max].
func (t *TimingController) RandomDelay(min, max time.Duration) time.Duration {
	if min >= max {
		return min
	}
	return min + time.Duration(t.rand.Int63n(int64(max-min)+1))
}

// IntBetween returns an int uniformly drawn from [min, max].
func (t *TimingController) IntBetween(min, max int) int {
	if min >= max {
		return min
	}
	return min + t.rand.Intn(max-min+1)
}

// Chance reports true with probability p.
func (t *TimingController) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return t.rand.Float64() < p
}

func (t *TimingController) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SleepBetween sleeps for a random duration in [min, max] and returns it.
func (t *TimingController) SleepBetween(ctx context.Context, min, max time.Duration) (time.Duration, error) {
	d := t.RandomDelay(min, max)
	t.log.Debug("Sleeping %v", d)
	return d, t.Sleep(ctx, d)
}

func (t *TimingController) SleepLoginStep(ctx context.Context) error {
	return t.Sleep(ctx, t.config.LoginStepPause)
}

func (t *TimingController) SleepLoginSettle(ctx context.Context) error {
	return t.Sleep(ctx, t.config.LoginSettle)
}

func (t *TimingController) ScrollPause() time.Duration {
	return t.RandomDelay(t.config.MinScrollPause, t.config.MaxScrollPause)
}

func (t *TimingController) LikePause() time.Duration {
	return t.RandomDelay(t.config.MinLikePause, t.config.MaxLikePause)
}

func (t *TimingController) UserDelay() time.Duration {
	return t.RandomDelay(t.config.MinUserDelay, t.config.MaxUserDelay)
}
