package stealth

import (
	"context"
	"math"

	"github.com/linuxdo-automation/pkg/config"
	"github.com/linuxdo-automation/pkg/logger"
)

type ScrollController struct {
	config *config.ScrollingConfig
	timing *TimingController
	log    *logger.Logger
}

func NewScrollController(cfg *config.ScrollingConfig, timing *TimingController) *ScrollController {
	return &ScrollController{
		config: cfg,
		timing: timing,
		log:    logger.WithComponent("scroll"),
	}
}

// NextDistance picks how far the next scroll moves, in pixels.
func (s *ScrollController) NextDistance() int {
	return s.timing.IntBetween(s.config.MinDistance, s.config.MaxDistance)
}

// Steps splits a scroll into ease-out chunks that sum to totalDelta. With
// smooth scrolling off the whole delta is a single step.
func (s *ScrollController) Steps(totalDelta int) []int {
	if !s.config.SmoothScrolling || totalDelta == 0 {
		return []int{totalDelta}
	}

	numSteps := int(math.Abs(float64(totalDelta)) / 20)
	if numSteps < 5 {
		numSteps = 5
	}
	if numSteps > 50 {
		numSteps = 50
	}

	steps := make([]int, numSteps)
	done := 0
	for i := 0; i < numSteps; i++ {
		if i == numSteps-1 {
			steps[i] = totalDelta - done
			break
		}
		t := float64(i+1) / float64(numSteps)
		eased := 1 - math.Pow(1-t, 3)
		target := int(math.Round(float64(totalDelta) * eased))
		steps[i] = target - done
		done = target
	}

	return steps
}

// Execute feeds the steps of totalDelta to scrollFn, pausing StepDelay
// between chunks when smooth scrolling is on.
func (s *ScrollController) Execute(ctx context.Context, scrollFn func(delta int) error, totalDelta int) error {
	steps := s.Steps(totalDelta)
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step == 0 {
			continue
		}
		if err := scrollFn(step); err != nil {
			return err
		}
		if i < len(steps)-1 {
			if err := s.timing.Sleep(ctx, s.config.StepDelay); err != nil {
				return err
			}
		}
	}
	s.log.Debug("Scrolled %d px in %d steps", totalDelta, len(steps))
	return nil
}
