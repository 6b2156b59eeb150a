package forum

import (
	"context"
	"fmt"
)

type ReadOutcome int

const (
	ReadCapReached ReadOutcome = iota
	ReadRandomExit
	ReadBottom
)

func (o ReadOutcome) String() string {
	switch o {
	case ReadRandomExit:
		return "random_exit"
	case ReadBottom:
		return "bottom"
	default:
		return "cap_reached"
	}
}

type ReadResult struct {
	Outcome ReadOutcome
	Scrolls int
}

// readState remembers the URL seen on the previous scroll. Reading is over
// once the page sits at the bottom and the URL did not move since then.
type readState struct {
	prevURL string
	seen    bool
}

func (r *readState) finished(currentURL string, atBottom bool) bool {
	if !r.seen || currentURL != r.prevURL {
		r.prevURL = currentURL
		r.seen = true
		return false
	}
	return atBottom
}

// ReadPost scrolls through a topic for at most MaxScrolls steps.
func (s *Session) ReadPost(ctx context.Context, page Page) (ReadResult, error) {
	var state readState

	for i := 1; i <= s.browse.MaxScrolls; i++ {
		distance := s.scroll.NextDistance()
		s.log.Info("Scrolling down %d px", distance)
		if err := page.ScrollBy(ctx, distance); err != nil {
			return ReadResult{Scrolls: i}, err
		}
		s.log.Info("Loaded page: %s", page.URL())

		if s.timing.Chance(s.browse.RandomExitChance) {
			s.log.Success("Leaving the topic at random")
			return ReadResult{Outcome: ReadRandomExit, Scrolls: i}, nil
		}

		atBottom, err := page.AtBottom()
		if err != nil {
			return ReadResult{Scrolls: i}, err
		}
		if state.finished(page.URL(), atBottom) {
			s.log.Success("Reached the bottom of the topic")
			return ReadResult{Outcome: ReadBottom, Scrolls: i}, nil
		}

		pause := s.timing.ScrollPause()
		s.log.Info("Waiting %.2fs", pause.Seconds())
		if err := s.timing.Sleep(ctx, pause); err != nil {
			return ReadResult{Scrolls: i}, fmt.Errorf("reading interrupted: %w", err)
		}
	}

	return ReadResult{Outcome: ReadCapReached, Scrolls: s.browse.MaxScrolls}, nil
}
