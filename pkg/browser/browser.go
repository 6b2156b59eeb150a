package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/linuxdo-automation/pkg/config"
	"github.com/linuxdo-automation/pkg/logger"
	rodstealth "github.com/linuxdo-automation/pkg/stealth"
)

// ResetDisplayEnv drops the variables that make Chromium try to reach a
// display server or a foreign dynamic loader path. It is process-wide.
func ResetDisplayEnv() {
	os.Unsetenv("DISPLAY")
	os.Unsetenv("DYLD_LIBRARY_PATH")
}

// Browser owns one Chromium process, its root CDP connection and a single
// incognito context that all pages of a session are opened in.
type Browser struct {
	config   *config.BrowserConfig
	launcher *launcher.Launcher
	rod      *rod.Browser
	context  *rod.Browser
	log      *logger.Logger
	scroll   *rodstealth.ScrollController
	typing   *rodstealth.TypingController
	mouse    *rodstealth.MouseController
	prints   *rodstealth.FingerprintManager
	window   rodstealth.Fingerprint
	closed   bool
}

// Options wires the stealth controllers into a Browser. Mouse and
// Fingerprint may be nil.
type Options struct {
	Config      *config.Config
	Scroll      *rodstealth.ScrollController
	Typing      *rodstealth.TypingController
	Mouse       *rodstealth.MouseController
	Fingerprint *rodstealth.FingerprintManager
}

func New(opts Options) *Browser {
	return &Browser{
		config: &opts.Config.Browser,
		log:    logger.WithComponent("browser"),
		scroll: opts.Scroll,
		typing: opts.Typing,
		mouse:  opts.Mouse,
		prints: opts.Fingerprint,
		window: rodstealth.DefaultFingerprint,
	}
}

func (b *Browser) Launch(ctx context.Context) error {
	b.log.Info("Launching browser (headless=%v)...", b.config.Headless)

	window := b.prints.Generate()
	l := launcher.New().Headless(b.config.Headless)
	for _, f := range rodstealth.LaunchFlags(window) {
		l = l.Set(flags.Flag(f.Name), f.Values...)
	}

	if b.config.Bin != "" {
		l = l.Bin(b.config.Bin)
	}
	if b.config.NoSandbox {
		l = l.NoSandbox(true)
	}

	url, err := b.launch(ctx, l)
	if err != nil {
		return err
	}
	b.launcher = l
	b.window = window

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	b.rod = browser

	incognito, err := browser.Incognito()
	if err != nil {
		return fmt.Errorf("failed to create browser context: %w", err)
	}
	b.context = incognito

	b.log.Info("Browser launched")
	return nil
}

// launch waits for the DevTools URL for at most LaunchTimeout.
func (b *Browser) launch(ctx context.Context, l *launcher.Launcher) (string, error) {
	type result struct {
		url string
		err error
	}

	done := make(chan result, 1)
	go func() {
		url, err := l.Launch()
		done <- result{url, err}
	}()

	var timeout <-chan time.Time
	if b.config.LaunchTimeout > 0 {
		timer := time.NewTimer(b.config.LaunchTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case r := <-done:
		if r.err != nil {
			l.Kill()
			return "", fmt.Errorf("failed to launch browser: %w", r.err)
		}
		return r.url, nil
	case <-timeout:
		l.Kill()
		return "", fmt.Errorf("browser launch timed out after %v", b.config.LaunchTimeout)
	case <-ctx.Done():
		l.Kill()
		return "", ctx.Err()
	}
}

// NewPage opens url in a fresh tab of the session context and waits for it
// to load.
func (b *Browser) NewPage(ctx context.Context, url string) (*Page, error) {
	if b.context == nil {
		return nil, fmt.Errorf("browser not launched")
	}

	var (
		page *rod.Page
		err  error
	)
	if b.config.Stealth {
		page, err = stealth.Page(b.context)
	} else {
		page, err = b.context.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.window.Width,
		Height:            b.window.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	p := &Page{
		page:           page,
		log:            b.log,
		scroll:         b.scroll,
		typing:         b.typing,
		mouse:          b.mouse,
		elementTimeout: b.config.ElementTimeout,
	}

	b.log.Debug("Navigating to %s", url)
	if err := page.Context(ctx).Navigate(url); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("page load failed for %s: %w", url, err)
	}

	return p, nil
}

// Close releases the context, the browser and the launched process. Every
// step runs even when an earlier one fails; the errors are joined.
func (b *Browser) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if b.rod != nil {
		if err := b.rod.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if b.launcher != nil {
		// Cleanup blocks until the process exits, so only a launcher
		// that actually started is stopped here.
		b.launcher.Kill()
		b.launcher.Cleanup()
	}

	return errors.Join(errs...)
}
