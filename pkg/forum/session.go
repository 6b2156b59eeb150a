// Package forum drives one account through a browsing session on a
// Discourse forum: log in, read the latest topics, like a few posts and print
// the connect status table.
package forum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/linuxdo-automation/pkg/config"
	"github.com/linuxdo-automation/pkg/logger"
	"github.com/linuxdo-automation/pkg/report"
	"github.com/linuxdo-automation/pkg/retry"
	"github.com/linuxdo-automation/pkg/stealth"
)

var ErrLoginFailed = errors.New("login failed")

type State int

const (
	StateCreated State = iota
	StateLoggedIn
	StateBrowsing
	StateConnectInfoPrinted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLoggedIn:
		return "logged_in"
	case StateBrowsing:
		return "browsing"
	case StateConnectInfoPrinted:
		return "connect_info_printed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type Session struct {
	cred   config.Credential
	site   *config.SiteConfig
	browse *config.BrowseConfig
	engine Engine
	home   Page
	timing *stealth.TimingController
	scroll *stealth.ScrollController
	retry  retry.Config
	out    io.Writer
	log    *logger.Logger
	state  State
}

type Options struct {
	Credential config.Credential
	Config     *config.Config
	Engine     Engine
	Timing     *stealth.TimingController
	Scroll     *stealth.ScrollController
	// Out receives the connect info table; stdout when nil.
	Out io.Writer
}

func New(opts Options) *Session {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	log := logger.WithComponent("session").WithField("user", opts.Credential.Masked())

	rc := retry.FromConfig(opts.Config.Retry)
	rc.Logger = log

	return &Session{
		cred:   opts.Credential,
		site:   &opts.Config.Site,
		browse: &opts.Config.Browse,
		engine: opts.Engine,
		timing: opts.Timing,
		scroll: opts.Scroll,
		retry:  rc,
		out:    out,
		log:    log,
		state:  StateCreated,
	}
}

func (s *Session) State() State {
	return s.state
}

// Run performs the whole session. A failed login ends it early with
// ErrLoginFailed; Close must still be called afterwards.
func (s *Session) Run(ctx context.Context) error {
	ok, err := s.Login(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !ok {
		s.log.Error("Login failed, skipping the rest of the session")
		return ErrLoginFailed
	}

	if err := s.ClickTopics(ctx); err != nil {
		return fmt.Errorf("browse topics: %w", err)
	}

	if err := s.PrintConnectInfo(ctx); err != nil {
		s.log.Warn("Could not print connect info: %v", err)
	}

	return nil
}

func (s *Session) Login(ctx context.Context) (bool, error) {
	s.log.Info("Logging in")

	if s.home == nil {
		page, err := s.engine.Open(ctx, s.site.HomeURL)
		if err != nil {
			return false, fmt.Errorf("open home page: %w", err)
		}
		s.home = page
	}

	sel := s.site.Selectors
	steps := []func() error{
		func() error { return s.home.Click(ctx, sel.LoginButton) },
		func() error { return s.timing.SleepLoginStep(ctx) },
		func() error { return s.home.Fill(ctx, sel.Username, s.cred.Username) },
		func() error { return s.timing.SleepLoginStep(ctx) },
		func() error { return s.home.Fill(ctx, sel.Password, s.cred.Password) },
		func() error { return s.timing.SleepLoginStep(ctx) },
		func() error { return s.home.Click(ctx, sel.Submit) },
		func() error { return s.timing.SleepLoginSettle(ctx) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return false, err
		}
	}

	if !s.home.Exists(sel.CurrentUser) {
		s.log.Error("Login failed: no current user marker")
		return false, nil
	}

	s.state = StateLoggedIn
	s.log.Success("Logged in")
	return true, nil
}

// ClickTopics visits every topic listed on the home page. A topic that keeps
// failing is skipped once its retries run out.
func (s *Session) ClickTopics(ctx context.Context) error {
	hrefs, err := s.home.Attributes(s.site.Selectors.TopicLinks, "href")
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}

	s.state = StateBrowsing
	s.log.Info("Found %d topics", len(hrefs))

	visited := 0
	for _, href := range hrefs {
		if err := ctx.Err(); err != nil {
			return err
		}

		href := href
		if retry.Run(ctx, s.retry, "visit topic "+href, func(ctx context.Context) error {
			return s.VisitTopic(ctx, href)
		}) {
			visited++
		}
	}

	s.log.Info("Visited %d/%d topics", visited, len(hrefs))
	return nil
}

// VisitTopic opens the topic in its own tab, maybe likes it, reads it and
// closes the tab again.
func (s *Session) VisitTopic(ctx context.Context, href string) error {
	target, err := s.topicURL(href)
	if err != nil {
		return err
	}

	page, err := s.engine.Open(ctx, target)
	if err != nil {
		return fmt.Errorf("open topic: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.log.Warn("Failed to close topic page: %v", err)
		}
	}()

	if s.timing.Chance(s.browse.LikeChance) {
		s.ClickLike(ctx, page)
	}

	_, err = s.ReadPost(ctx, page)
	return err
}

func (s *Session) topicURL(href string) (string, error) {
	base, err := url.Parse(s.site.HomeURL)
	if err != nil {
		return "", fmt.Errorf("invalid home URL: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid topic link %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// ClickLike likes the first post that has not been liked yet. It never
// fails the visit; the result only reports whether a like was clicked.
func (s *Session) ClickLike(ctx context.Context, page Page) bool {
	found, err := page.ClickFirst(ctx, s.site.Selectors.LikeButton)
	if err != nil {
		s.log.Error("Like failed: %v", err)
		return false
	}
	if !found {
		s.log.Info("Post is probably liked already")
		return false
	}

	s.log.Info("Liked post")
	if err := s.timing.Sleep(ctx, s.timing.LikePause()); err != nil {
		s.log.Warn("Pause after like interrupted: %v", err)
	}
	return true
}

// PrintConnectInfo renders the connect status table for the account.
func (s *Session) PrintConnectInfo(ctx context.Context) error {
	s.log.Info("Fetching connect info")

	page, err := s.engine.Open(ctx, s.site.ConnectURL)
	if err != nil {
		return fmt.Errorf("open connect page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.log.Warn("Failed to close connect page: %v", err)
		}
	}()

	rows, err := page.TableRows(s.site.Selectors.ConnectRows, s.site.Selectors.ConnectCells)
	if err != nil {
		return fmt.Errorf("read connect table: %w", err)
	}

	if err := report.Render(s.out, s.cred.Masked(), report.ParseRows(rows)); err != nil {
		return fmt.Errorf("render connect table: %w", err)
	}

	s.state = StateConnectInfoPrinted
	return nil
}

// Close releases the browser. Errors are logged; calling it again is a no-op.
func (s *Session) Close() {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed

	if s.engine == nil {
		return
	}
	if err := s.engine.Close(); err != nil {
		s.log.Error("Failed to release browser resources: %v", err)
	}
}
