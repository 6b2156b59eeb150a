package forum

import (
	"context"
	"io"

	"github.com/linuxdo-automation/pkg/browser"
	"github.com/linuxdo-automation/pkg/config"
	"github.com/linuxdo-automation/pkg/stealth"
)

// Launch starts a fresh browser for cred and wraps it in a Session. On
// failure whatever was started is released before returning.
func Launch(ctx context.Context, cfg *config.Config, cred config.Credential, out io.Writer) (*Session, error) {
	timing := stealth.NewTimingController(&cfg.Stealth.Timing)
	scroll := stealth.NewScrollController(&cfg.Stealth.Scrolling, timing)
	typing := stealth.NewTypingController(&cfg.Stealth.Typing, timing)
	mouse := stealth.NewMouseController(&cfg.Stealth.Mouse)

	b := browser.New(browser.Options{
		Config:      cfg,
		Scroll:      scroll,
		Typing:      typing,
		Mouse:       mouse,
		Fingerprint: stealth.NewFingerprintManager(&cfg.Browser),
	})

	if err := b.Launch(ctx); err != nil {
		_ = b.Close()
		return nil, err
	}

	return New(Options{
		Credential: cred,
		Config:     cfg,
		Engine:     NewEngine(b),
		Timing:     timing,
		Scroll:     scroll,
		Out:        out,
	}), nil
}
