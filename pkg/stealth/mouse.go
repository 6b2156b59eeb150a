package stealth

import (
	"math"
	"math/rand"
	"time"

	"github.com/linuxdo-automation/pkg/config"
)

type Point struct {
	X float64
	Y float64
}

// MouseController plans cursor paths towards click targets. Paths follow a
// Bezier curve with randomised control points and may overshoot the target
// before settling on it.
type MouseController struct {
	config *config.MouseConfig
	rand   *rand.Rand
}

func NewMouseController(cfg *config.MouseConfig) *MouseController {
	return NewMouseControllerWithSeed(cfg, time.Now().UnixNano())
}

func NewMouseControllerWithSeed(cfg *config.MouseConfig, seed int64) *MouseController {
	return &MouseController{
		config: cfg,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

func (m *MouseController) Enabled() bool {
	return m != nil && m.config.Enabled
}

// Path returns the points from start to end, both included. The last point
// is always exactly end.
func (m *MouseController) Path(start, end Point) []Point {
	if !m.Enabled() || distance(start, end) == 0 {
		return []Point{start, end}
	}

	steps := int(distance(start, end) / 3)
	if steps < 20 {
		steps = 20
	}
	if steps > 150 {
		steps = 150
	}

	path := m.curve(start, end, steps)

	if m.config.Overshoot && m.rand.Float64() < 0.3 {
		path = m.overshoot(path, start, end)
	}
	if m.config.Jitter {
		m.jitter(path)
	}

	return path
}

func (m *MouseController) curve(start, end Point, steps int) []Point {
	controls := m.controlPoints(start, end)

	path := make([]Point, 0, steps+1)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		// smoothstep: slow start, slow finish
		t = t * t * (3 - 2*t)
		path = append(path, bezier(controls, t))
	}
	path[len(path)-1] = end
	return path
}

func (m *MouseController) controlPoints(start, end Point) []Point {
	n := m.config.Complexity
	if n < 1 {
		n = 1
	}

	dx, dy := end.X-start.X, end.Y-start.Y
	d := distance(start, end)

	points := make([]Point, n+2)
	points[0] = start
	points[n+1] = end
	for i := 1; i <= n; i++ {
		progress := float64(i) / float64(n+1)
		offset := d * 0.3 * (m.rand.Float64() - 0.5)
		points[i] = Point{
			X: start.X + dx*progress - dy/d*offset,
			Y: start.Y + dy*progress + dx/d*offset,
		}
	}
	return points
}

// overshoot replaces the tail of path with a point past the target and a
// short correction back onto it.
func (m *MouseController) overshoot(path []Point, start, end Point) []Point {
	past := 0.05 + m.rand.Float64()*0.1
	beyond := Point{
		X: end.X + (end.X-start.X)*past,
		Y: end.Y + (end.Y-start.Y)*past,
	}

	path = append(path[:len(path)-1], beyond)
	correction := m.curve(beyond, end, 10)
	return append(path, correction[1:]...)
}

// jitter shakes every interior point by up to a pixel.
func (m *MouseController) jitter(path []Point) {
	for i := 1; i < len(path)-1; i++ {
		path[i].X += (m.rand.Float64() - 0.5) * 2
		path[i].Y += (m.rand.Float64() - 0.5) * 2
	}
}

// Duration is how long moving along path should take.
func (m *MouseController) Duration(path []Point) time.Duration {
	if !m.Enabled() || len(path) < 2 {
		return 0
	}

	total := 0.0
	for i := 1; i < len(path); i++ {
		total += distance(path[i-1], path[i])
	}

	speed := m.config.MinSpeed
	if m.config.MaxSpeed > speed {
		speed += m.rand.Float64() * (m.config.MaxSpeed - m.config.MinSpeed)
	}
	if speed <= 0 {
		return 0
	}

	return time.Duration(total / speed * float64(time.Second))
}

func bezier(points []Point, t float64) Point {
	n := len(points) - 1
	var x, y float64
	for i, p := range points {
		b := float64(binomial(n, i)) * math.Pow(t, float64(i)) * math.Pow(1-t, float64(n-i))
		x += p.X * b
		y += p.Y * b
	}
	return Point{X: x, Y: y}
}

func binomial(n, k int) int {
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
	}
	return result
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
