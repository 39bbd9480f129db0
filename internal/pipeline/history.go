package pipeline

import "github.com/rusenback/hostmon/internal/model"

// DefaultHistorySize is the number of points kept when no size is given
const DefaultHistorySize = 120

// Point is one history entry
type Point struct {
	Sample   model.Sample
	RateKBps float64
}

// History is a fixed-capacity buffer of the most recent points.
// It is not safe for concurrent use; Pipeline serializes access.
type History struct {
	points   []Point
	capacity int
}

// NewHistory creates a History holding at most capacity points.
// A non-positive capacity uses DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		points:   make([]Point, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a point, evicting the oldest once full
func (h *History) Push(s model.Sample, rate float64) {
	if len(h.points) == h.capacity {
		copy(h.points, h.points[1:])
		h.points = h.points[:len(h.points)-1]
	}
	h.points = append(h.points, Point{Sample: s, RateKBps: rate})
}

// Snapshot returns a copy of the points, oldest first
func (h *History) Snapshot() []Point {
	out := make([]Point, len(h.points))
	copy(out, h.points)
	return out
}

func (h *History) Len() int { return len(h.points) }

func (h *History) Cap() int { return h.capacity }

// Latest returns the newest point
func (h *History) Latest() (Point, bool) {
	if len(h.points) == 0 {
		return Point{}, false
	}
	return h.points[len(h.points)-1], true
}

// Series helpers used for charting

func CPU(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Sample.CPUPercent
	}
	return out
}

func Mem(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Sample.MemPercent
	}
	return out
}

func Rates(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.RateKBps
	}
	return out
}
