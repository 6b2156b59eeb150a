// Package runner walks the configured accounts one after another, each in its
// own isolated session.
package runner

import (
	"context"
	"errors"

	"github.com/linuxdo-automation/pkg/config"
	"github.com/linuxdo-automation/pkg/logger"
	"github.com/linuxdo-automation/pkg/stealth"
)

// Session is one account's run. Close is called exactly once for every
// session the factory hands out, whatever Run returned.
type Session interface {
	Run(ctx context.Context) error
	Close()
}

// Factory builds the session for a credential. A factory that fails must
// release whatever it already started.
type Factory func(ctx context.Context, cred config.Credential) (Session, error)

type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// ExitCode is 0 when at least one account got through and 1 otherwise.
func (s Summary) ExitCode() int {
	if s.Total == 0 || s.Succeeded == 0 {
		return 1
	}
	return 0
}

type Runner struct {
	factory Factory
	timing  *stealth.TimingController
	log     *logger.Logger
}

func New(factory Factory, timing *stealth.TimingController) *Runner {
	return &Runner{
		factory: factory,
		timing:  timing,
		log:     logger.WithComponent("runner"),
	}
}

// Run processes creds in order. A failing account never stops the ones after
// it; only cancellation of ctx does.
func (r *Runner) Run(ctx context.Context, creds []config.Credential) Summary {
	summary := Summary{Total: len(creds)}

	for i, cred := range creds {
		if ctx.Err() != nil {
			r.log.Warn("Interrupted, %d account(s) not processed", len(creds)-i)
			summary.Failed += len(creds) - i
			break
		}

		if r.runOne(ctx, cred) {
			summary.Succeeded++
		} else {
			summary.Failed++
		}

		if i < len(creds)-1 {
			delay := r.timing.UserDelay()
			r.log.Info("Waiting %.2fs before the next account", delay.Seconds())
			// Cancellation is picked up at the top of the loop.
			_ = r.timing.Sleep(ctx, delay)
		}
	}

	return summary
}

func (r *Runner) runOne(ctx context.Context, cred config.Credential) bool {
	log := r.log.WithField("user", cred.Masked())
	log.Info("Starting session")

	session, err := r.factory(ctx, cred)
	if err != nil {
		log.Error("Could not start session: %v", err)
		return false
	}
	defer session.Close()

	if err := session.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Session interrupted")
		} else {
			log.Error("Session failed: %v", err)
		}
		return false
	}

	log.Success("Session finished")
	return true
}
