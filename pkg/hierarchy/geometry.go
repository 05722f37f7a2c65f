package hierarchy

import (
	"fmt"
	"math"
	"unicode"
)

// Default visibility thresholds, in radians. Labels need a wider slice than
// arcs to stay legible.
const (
	DefaultArcMinAngle   = 0.01
	DefaultLabelMinAngle = 0.05
)

// depthEpsilon absorbs rounding in depth fractions such as 5/3 - 2/3.
const depthEpsilon = 1e-9

// Visible reports whether a span lies inside the unit radial window, has a
// radial extent and is wider than minAngle. Widening a span never makes it
// invisible.
func Visible(s Span, minAngle float64) bool {
	return s.Y0 >= 0 && s.Y1 <= 1+depthEpsilon && s.Y1 > s.Y0 && s.Width() > minAngle
}

// Arc is the annular sector drawn for a span. Angles follow the d3
// convention: 0 at twelve o'clock, increasing clockwise.
type Arc struct {
	StartAngle  float64
	EndAngle    float64
	PadAngle    float64
	PadRadius   float64
	InnerRadius float64
	OuterRadius float64
}

// ArcGeometry maps a span onto a circle of the given radius, leaving a one
// pixel gap between rings and a small angular pad between siblings.
func ArcGeometry(s Span, radius float64) Arc {
	return Arc{
		StartAngle:  s.X0,
		EndAngle:    s.X1,
		PadAngle:    math.Min(s.Width()/2, 0.005),
		PadRadius:   radius * 1.5,
		InnerRadius: s.Y0 * radius,
		OuterRadius: math.Max(s.Y0*radius, s.Y1*radius-1),
	}
}

// Inset returns the padded angular range at radius r. When the pad would
// consume the whole arc, both angles collapse to the midpoint.
func (a Arc) Inset(r float64) (float64, float64) {
	if r <= 0 || a.PadAngle <= 0 {
		return a.StartAngle, a.EndAngle
	}
	p := math.Asin(math.Min(1, a.PadRadius/r*math.Sin(a.PadAngle/2)))
	if a.EndAngle-a.StartAngle > 2*p {
		return a.StartAngle + p, a.EndAngle - p
	}
	mid := (a.StartAngle + a.EndAngle) / 2
	return mid, mid
}

// Polar converts a d3-style angle and radius into cartesian coordinates
// around the origin, y pointing down.
func Polar(angle, r float64) (float64, float64) {
	return r * math.Sin(angle), -r * math.Cos(angle)
}

// Label is the placement of a sunburst label at the middle of its span.
type Label struct {
	Angle  float64 // degrees, 0 at twelve o'clock
	Radius float64
	Flip   bool // true in the left hemisphere so text stays upright
}

// LabelPlacement computes the label position for a span.
func LabelPlacement(s Span, radius float64) Label {
	angle := (s.X0 + s.X1) / 2 / math.Pi * 180
	return Label{
		Angle:  angle,
		Radius: (s.Y0 + s.Y1) / 2 * radius,
		Flip:   angle >= 180,
	}
}

// String renders the placement as an SVG transform attribute.
func (l Label) String() string {
	flip := 0
	if l.Flip {
		flip = 180
	}
	return fmt.Sprintf("rotate(%g) translate(%g,0) rotate(%d)", l.Angle-90, l.Radius, flip)
}

// Point returns the label anchor in cartesian coordinates around the origin.
func (l Label) Point() (float64, float64) {
	return Polar(l.Angle*math.Pi/180, l.Radius)
}

// Rotation returns the text rotation in degrees, including the flip.
func (l Label) Rotation() float64 {
	r := l.Angle - 90
	if l.Flip {
		r += 180
	}
	return r
}

// LabelFontSize scales label text with the angular width of its span, capped
// at 10px.
func LabelFontSize(s Span, radius float64) float64 {
	return math.Min(10, s.Width()*radius/2*10)
}

// Rect is the rectangle drawn for a span in linear (treemap/icicle) mode.
type Rect struct {
	X, Y, W, H float64
}

// RectGeometry maps a span onto a w×h box: the angular axis runs left to
// right, the depth axis top to bottom.
func RectGeometry(s Span, w, h float64) Rect {
	return Rect{
		X: s.X0 / FullAngle * w,
		Y: s.Y0 * h,
		W: s.Width() / FullAngle * w,
		H: s.Thickness() * h,
	}
}

// SplitWords breaks a name at lower-to-upper camel-case boundaries, the way
// treemap labels wrap ("SouthAfrica" becomes "South", "Africa").
func SplitWords(name string) []string {
	runes := []rune(name)
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && i+1 < len(runes) && !unicode.IsUpper(runes[i+1]) {
			out = append(out, string(runes[start:i]))
			start = i
		}
	}
	return append(out, string(runes[start:]))
}
