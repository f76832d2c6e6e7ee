// Package arrow animates the quick-trend arrow that slides across the last
// few readings towards the prediction.
package arrow

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/wattcast/wattcast/pkg/types"
)

const (
	// DefaultInterval is the delay between two frames.
	DefaultInterval = 30 * time.Millisecond
	// DefaultStep is how far the arrow moves per frame, in chart points.
	DefaultStep = 0.05

	tailLength = 5
)

// ErrNotEnoughHistory is returned when there are fewer than two readings.
var ErrNotEnoughHistory = errors.New("at least two readings are required")

// Point is one point on the arrow's path.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is the last readings followed by the prediction. Direction is decided
// once when the path is built.
type Path struct {
	Points    []Point              `json:"points"`
	Direction types.TrendDirection `json:"direction"`
	// End is the position at which the animation stops.
	End float64 `json:"end"`
}

// NewPath builds the path from the last five readings plus prediction.
func NewPath(history []float64, prediction float64) (Path, error) {
	if len(history) < 2 {
		return Path{}, ErrNotEnoughHistory
	}
	tail := history[max(0, len(history)-tailLength):]
	p := Path{
		Points:    make([]Point, 0, len(tail)+1),
		Direction: types.TrendDirectionDown,
		End:       float64(min(len(history), tailLength)),
	}
	for i, v := range tail {
		p.Points = append(p.Points, Point{X: float64(i + 1), Y: v})
	}
	p.Points = append(p.Points, Point{X: float64(len(tail) + 1), Y: prediction})
	if prediction > history[len(history)-1] {
		p.Direction = types.TrendDirectionUp
	}
	return p, nil
}

// At returns the interpolated value at position pos, where position i is
// Points[i]. Positions outside the path are clamped.
func (p Path) At(pos float64) float64 {
	if len(p.Points) == 0 {
		return 0
	}
	last := len(p.Points) - 1
	pos = math.Min(math.Max(pos, 0), float64(last))
	idx := int(math.Floor(pos))
	next := min(idx+1, last)
	frac := pos - float64(idx)
	return p.Points[idx].Y + frac*(p.Points[next].Y-p.Points[idx].Y)
}

// Bounds returns the lowest and highest Y on the path.
func (p Path) Bounds() (float64, float64) {
	if len(p.Points) == 0 {
		return 0, 0
	}
	lo, hi := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points[1:] {
		lo = math.Min(lo, pt.Y)
		hi = math.Max(hi, pt.Y)
	}
	return lo, hi
}

// Frame is one rendered arrow position. Left and Bottom are fractions of the
// chart's width and height.
type Frame struct {
	Seq       int                  `json:"seq"`
	Pos       float64              `json:"pos"`
	Y         float64              `json:"y"`
	Left      float64              `json:"left"`
	Bottom    float64              `json:"bottom"`
	Direction types.TrendDirection `json:"direction"`
	Done      bool                 `json:"done"`
}

func (p Path) frame(seq int, pos float64) Frame {
	y := p.At(pos)
	f := Frame{
		Seq:       seq,
		Pos:       pos,
		Y:         y,
		Direction: p.Direction,
		Done:      pos >= p.End,
	}
	if n := len(p.Points) - 1; n > 0 {
		f.Left = pos / float64(n)
	}
	if lo, hi := p.Bounds(); hi > lo {
		f.Bottom = (y - lo) / (hi - lo)
	}
	return f
}

// Animator emits frames on a fixed tick until the arrow reaches the end of
// its path.
type Animator struct {
	Interval time.Duration
	Step     float64
}

// NewAnimator returns an Animator with the default tick and step.
func NewAnimator() Animator {
	return Animator{Interval: DefaultInterval, Step: DefaultStep}
}

// Run emits the first frame immediately and one more per tick. It returns nil
// once the final frame was emitted, ctx.Err() if ctx ends first, or the first
// error returned by emit. The ticker never outlives Run.
func (a Animator) Run(ctx context.Context, p Path, emit func(Frame) error) error {
	interval, step := a.Interval, a.Step
	if interval <= 0 {
		interval = DefaultInterval
	}
	if step <= 0 {
		step = DefaultStep
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for seq := 0; ; seq++ {
		// multiply instead of accumulating so the last frame lands on End
		pos := math.Min(float64(seq)*step, p.End)
		f := p.frame(seq, pos)
		if err := emit(f); err != nil {
			return err
		}
		if f.Done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
