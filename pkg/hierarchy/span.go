package hierarchy

import (
	"fmt"
	"math"
)

// FullAngle is the angular extent of the whole partition.
const FullAngle = 2 * math.Pi

// Span is a node's normalized extent: X is angular in [0, 2π], Y is radial
// (or depth) in [0, 1].
type Span struct {
	X0, X1 float64
	Y0, Y1 float64
}

// Width returns the angular extent.
func (s Span) Width() float64 {
	return s.X1 - s.X0
}

// Thickness returns the radial extent.
func (s Span) Thickness() float64 {
	return s.Y1 - s.Y0
}

// Lerp interpolates linearly towards to; t=0 yields s, t=1 yields to.
func (s Span) Lerp(to Span, t float64) Span {
	return Span{
		X0: s.X0 + (to.X0-s.X0)*t,
		X1: s.X1 + (to.X1-s.X1)*t,
		Y0: s.Y0 + (to.Y0-s.Y0)*t,
		Y1: s.Y1 + (to.Y1-s.Y1)*t,
	}
}

func (s Span) String() string {
	return fmt.Sprintf("x[%.4f,%.4f] y[%.4f,%.4f]", s.X0, s.X1, s.Y0, s.Y1)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Relative re-normalizes s against the focus span f: the focus' angular
// range expands to the full circle and depths shift so the focus starts at 0.
func (s Span) Relative(f Span) Span {
	w := f.Width()
	var x0, x1 float64
	if w > 0 {
		x0 = clamp01((s.X0-f.X0)/w) * FullAngle
		x1 = clamp01((s.X1-f.X0)/w) * FullAngle
	}
	return Span{
		X0: x0,
		X1: x1,
		Y0: math.Max(0, s.Y0-f.Y0),
		Y1: math.Max(0, s.Y1-f.Y0),
	}
}
