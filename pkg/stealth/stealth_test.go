package stealth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxdo-automation/pkg/config"
)

func newTestTiming() *TimingController {
	return NewTimingControllerWithSeed(&config.TimingConfig{
		MinScrollPause: 2 * time.Millisecond,
		MaxScrollPause: 4 * time.Millisecond,
		MinUserDelay:   5 * time.Millisecond,
		MaxUserDelay:   10 * time.Millisecond,
	}, 42)
}

func TestTimingDelays(t *testing.T) {
	timing := newTestTiming()

	t.Run("Random delay within range", func(t *testing.T) {
		min := 100 * time.Millisecond
		max := 500 * time.Millisecond
		for i := 0; i < 200; i++ {
			delay := timing.RandomDelay(min, max)
			if delay < min || delay > max {
				t.Errorf("Random delay %v out of range [%v, %v]", delay, min, max)
			}
		}
	})

	t.Run("Degenerate range", func(t *testing.T) {
		assert.Equal(t, time.Second, timing.RandomDelay(time.Second, time.Second))
		assert.Equal(t, time.Second, timing.RandomDelay(time.Second, time.Millisecond))
	})

	t.Run("Scroll pause within range", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			d := timing.ScrollPause()
			assert.GreaterOrEqual(t, d, 2*time.Millisecond)
			assert.LessOrEqual(t, d, 4*time.Millisecond)
		}
	})

	t.Run("User delay within range", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			d := timing.UserDelay()
			assert.GreaterOrEqual(t, d, 5*time.Millisecond)
			assert.LessOrEqual(t, d, 10*time.Millisecond)
		}
	})

	t.Run("Int between is inclusive", func(t *testing.T) {
		seen := map[int]bool{}
		for i := 0; i < 500; i++ {
			v := timing.IntBetween(1, 3)
			require.GreaterOrEqual(t, v, 1)
			require.LessOrEqual(t, v, 3)
			seen[v] = true
		}
		assert.Len(t, seen, 3)
	})
}

func TestChance(t *testing.T) {
	timing := newTestTiming()

	for i := 0; i < 100; i++ {
		assert.False(t, timing.Chance(0))
		assert.True(t, timing.Chance(1))
	}

	hits := 0
	for i := 0; i < 10000; i++ {
		if timing.Chance(0.3) {
			hits++
		}
	}
	assert.InDelta(t, 3000, hits, 300)
}

func TestSleep(t *testing.T) {
	timing := newTestTiming()

	t.Run("Sleep between within range", func(t *testing.T) {
		d, err := timing.SleepBetween(context.Background(), 2*time.Millisecond, 4*time.Millisecond)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, 2*time.Millisecond)
		assert.LessOrEqual(t, d, 4*time.Millisecond)
	})

	t.Run("Cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := timing.Sleep(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Zero duration", func(t *testing.T) {
		assert.NoError(t, timing.Sleep(context.Background(), 0))
	})
}

func TestScrollDistance(t *testing.T) {
	cfg := &config.ScrollingConfig{MinDistance: 550, MaxDistance: 650}
	scroll := NewScrollController(cfg, newTestTiming())

	for i := 0; i < 500; i++ {
		d := scroll.NextDistance()
		if d < 550 || d > 650 {
			t.Fatalf("Scroll distance %d out of range [550, 650]", d)
		}
	}
}

func TestScrollSteps(t *testing.T) {
	tests := []struct {
		name   string
		smooth bool
		delta  int
	}{
		{"Single step when not smooth", false, 600},
		{"Smooth down", true, 600},
		{"Smooth up", true, -600},
		{"Smooth tiny", true, 7},
		{"Smooth long", true, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.ScrollingConfig{MinDistance: 550, MaxDistance: 650, SmoothScrolling: tt.smooth}
			scroll := NewScrollController(cfg, newTestTiming())

			steps := scroll.Steps(tt.delta)
			sum := 0
			for _, s := range steps {
				sum += s
			}
			assert.Equal(t, tt.delta, sum)

			if !tt.smooth {
				assert.Len(t, steps, 1)
			} else {
				assert.GreaterOrEqual(t, len(steps), 5)
				assert.LessOrEqual(t, len(steps), 50)
			}
		})
	}
}

func TestScrollExecute(t *testing.T) {
	cfg := &config.ScrollingConfig{MinDistance: 550, MaxDistance: 650, SmoothScrolling: true}
	scroll := NewScrollController(cfg, newTestTiming())

	t.Run("Delivers the full distance", func(t *testing.T) {
		total := 0
		err := scroll.Execute(context.Background(), func(delta int) error {
			total += delta
			return nil
		}, 600)
		require.NoError(t, err)
		assert.Equal(t, 600, total)
	})

	t.Run("Stops on error", func(t *testing.T) {
		calls := 0
		boom := errors.New("evaluate failed")
		err := scroll.Execute(context.Background(), func(delta int) error {
			calls++
			return boom
		}, 600)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}

func TestTypingKeystrokes(t *testing.T) {
	cfg := &config.TypingConfig{
		Enabled:          true,
		MinKeyDelay:      time.Millisecond,
		MaxKeyDelay:      2 * time.Millisecond,
		TypoChance:       0.2,
		CorrectionDelay:  time.Millisecond,
		ThinkPauseChance: 0,
	}
	typing := NewTypingController(cfg, newTestTiming())

	t.Run("Generate keystrokes", func(t *testing.T) {
		text := "Hello, World!"
		keystrokes := typing.GenerateKeystrokes(text)

		assert.GreaterOrEqual(t, len(keystrokes), len(text))
		for i, ks := range keystrokes {
			if ks.Delay < 0 {
				t.Errorf("Keystroke %d has negative delay: %v", i, ks.Delay)
			}
		}
	})

	t.Run("Typing reproduces the text", func(t *testing.T) {
		var typed []rune
		err := typing.ExecuteTyping(context.Background(),
			func(char rune) error {
				typed = append(typed, char)
				return nil
			},
			func() error {
				typed = typed[:len(typed)-1]
				return nil
			},
			"correct horse battery staple",
		)
		require.NoError(t, err)
		assert.Equal(t, "correct horse battery staple", string(typed))
	})

	t.Run("Typing duration", func(t *testing.T) {
		duration := typing.TypingDuration("Test")
		assert.GreaterOrEqual(t, duration, cfg.MinKeyDelay*7/10*4)
	})
}

func TestNeighbourKey(t *testing.T) {
	timing := newTestTiming()

	typo, ok := neighbourKey('s', timing)
	require.True(t, ok)
	assert.Contains(t, []rune{'a', 'd'}, typo)

	typo, ok = neighbourKey('Q', timing)
	require.True(t, ok)
	assert.Equal(t, 'W', typo)

	_, ok = neighbourKey('#', timing)
	assert.False(t, ok)
}
