package stealth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxdo-automation/pkg/config"
)

func newTestMouse(enabled bool) *MouseController {
	return NewMouseControllerWithSeed(&config.MouseConfig{
		Enabled:    enabled,
		MinSpeed:   1000,
		MaxSpeed:   2000,
		Overshoot:  true,
		Jitter:     true,
		Complexity: 2,
	}, 3)
}

func TestMousePath(t *testing.T) {
	start := Point{X: 10, Y: 20}
	end := Point{X: 400, Y: 300}

	t.Run("Disabled is a straight jump", func(t *testing.T) {
		m := newTestMouse(false)
		assert.Equal(t, []Point{start, end}, m.Path(start, end))
		assert.Zero(t, m.Duration(m.Path(start, end)))
	})

	t.Run("Nil controller is disabled", func(t *testing.T) {
		var m *MouseController
		assert.False(t, m.Enabled())
	})

	t.Run("Endpoints are exact", func(t *testing.T) {
		m := newTestMouse(true)
		for i := 0; i < 50; i++ {
			path := m.Path(start, end)
			require.GreaterOrEqual(t, len(path), 21)
			assert.Equal(t, start, path[0])
			assert.Equal(t, end, path[len(path)-1])
		}
	})

	t.Run("Path stays near the segment", func(t *testing.T) {
		m := newTestMouse(true)
		path := m.Path(start, end)
		d := distance(start, end)
		for _, p := range path {
			assert.Less(t, distance(start, p), d*1.5)
		}
	})

	t.Run("Zero distance", func(t *testing.T) {
		m := newTestMouse(true)
		assert.Equal(t, []Point{start, start}, m.Path(start, start))
	})
}

func TestMouseDuration(t *testing.T) {
	m := newTestMouse(true)
	m.config.Jitter = false
	m.config.Overshoot = false

	path := m.Path(Point{}, Point{X: 1000})
	d := m.Duration(path)

	// roughly 1000px at 1000-2000 px/s
	assert.GreaterOrEqual(t, d, 450*time.Millisecond)
	assert.LessOrEqual(t, d, 1500*time.Millisecond)

	assert.Zero(t, m.Duration([]Point{{X: 1}}))
}

func TestBinomial(t *testing.T) {
	assert.Equal(t, 1, binomial(3, 0))
	assert.Equal(t, 3, binomial(3, 1))
	assert.Equal(t, 6, binomial(4, 2))
	assert.Equal(t, 10, binomial(5, 3))
}
