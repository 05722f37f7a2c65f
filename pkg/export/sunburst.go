package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/hierarchy"
	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// Sunburst defaults.
const (
	DefaultSunburstSize  = 932
	DefaultRadiusFactor  = 0.95
	sunburstLabelMaxRune = 18
)

// SunburstOptions controls sunburst snapshot export.
type SunburstOptions struct {
	Path         string // format inferred from extension when Format is empty
	Format       string // "svg" or "png"
	Title        string
	View         *hierarchy.View
	Width        int
	Height       int
	RadiusFactor float64 // share of half the shorter side used by the outer ring
}

func (o *SunburstOptions) defaults() {
	if o.Width <= 0 {
		o.Width = DefaultSunburstSize
	}
	if o.Height <= 0 {
		o.Height = DefaultSunburstSize
	}
	if o.RadiusFactor <= 0 || o.RadiusFactor > 1 {
		o.RadiusFactor = DefaultRadiusFactor
	}
}

func (o SunburstOptions) radius() float64 {
	return math.Min(float64(o.Width), float64(o.Height)) / 2 * o.RadiusFactor
}

// SaveSunburst renders the current frame of a sunburst view: every visible
// arc around the focus, their labels, and the focus as the centre disc.
func SaveSunburst(opts SunburstOptions) error {
	defer metrics.Timer(metrics.SnapshotRender)()
	if opts.View == nil {
		return fmt.Errorf("sunburst: %w", ErrNoView)
	}
	opts.defaults()
	path, format, err := resolveOutput(opts.Path, opts.Format)
	if err != nil {
		return err
	}
	opts.Path = path
	debug.Log("export: sunburst %s (%s) focus=%d", path, format, opts.View.Focus())

	if format == FormatPNG {
		return renderSunburstPNG(opts)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create svg: %w", err)
	}
	defer f.Close()
	return WriteSunburstSVG(f, opts)
}

// WriteSunburstSVG writes the sunburst frame as SVG to w.
func WriteSunburstSVG(w io.Writer, opts SunburstOptions) error {
	if opts.View == nil {
		return fmt.Errorf("sunburst: %w", ErrNoView)
	}
	opts.defaults()
	v := opts.View
	t := v.Tree()
	radius := opts.radius()

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	canvas.Rect(0, 0, opts.Width, opts.Height, fmt.Sprintf("fill:%s", css(colorBG)))
	canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", opts.Width/2, opts.Height/2))

	visible := v.Visible()
	for _, id := range visible {
		st := v.NodeState(id)
		arc := hierarchy.ArcGeometry(st.Current, radius)
		canvas.Path(sectorPath(0, 0, arc),
			fmt.Sprintf("fill:%s;fill-opacity:%.2f", css(branchColor(t, id)), st.Opacity))
	}

	for _, id := range visible {
		st := v.NodeState(id)
		if st.LabelOpacity == 0 {
			continue
		}
		l := hierarchy.LabelPlacement(st.Current, radius)
		size := hierarchy.LabelFontSize(st.Current, radius)
		canvas.Gtransform(l.String())
		canvas.Text(0, 0, truncate(t.Node(id).Name, sunburstLabelMaxRune),
			`dy="0.35em"`, `text-anchor="middle"`,
			fmt.Sprintf("fill:%s;fill-opacity:%g;font-size:%.1fpx;font-family:sans-serif", css(colorText), st.LabelOpacity, size))
		canvas.Gend()
	}

	focus := v.Focus()
	inner := v.Current(focus).Y1 * radius
	canvas.Circle(0, 0, int(math.Round(inner)), fmt.Sprintf("fill:%s;fill-opacity:0", css(colorBG)))
	canvas.Text(0, 0, truncate(t.Node(focus).Name, sunburstLabelMaxRune),
		`dy="0.35em"`, `text-anchor="middle"`,
		fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif;font-weight:bold", css(colorText)))

	canvas.Gend()
	canvas.End()
	return nil
}

// sectorPath traces an annular sector around (cx, cy). A full ring is split
// into two halves because a single SVG arc cannot close on itself.
func sectorPath(cx, cy float64, arc hierarchy.Arc) string {
	if arc.EndAngle-arc.StartAngle >= hierarchy.FullAngle-1e-9 && arc.PadAngle == 0 {
		mid := (arc.StartAngle + arc.EndAngle) / 2
		a, b := arc, arc
		a.EndAngle = mid
		b.StartAngle = mid
		return sectorPath(cx, cy, a) + " " + sectorPath(cx, cy, b)
	}

	o0, o1 := arc.Inset(arc.OuterRadius)
	var b strings.Builder
	x0, y0 := hierarchy.Polar(o0, arc.OuterRadius)
	x1, y1 := hierarchy.Polar(o1, arc.OuterRadius)
	fmt.Fprintf(&b, "M%.2f,%.2f A%.2f,%.2f 0 %d 1 %.2f,%.2f",
		cx+x0, cy+y0, arc.OuterRadius, arc.OuterRadius, largeArc(o0, o1), cx+x1, cy+y1)

	if arc.InnerRadius > 0 {
		i0, i1 := arc.Inset(arc.InnerRadius)
		x2, y2 := hierarchy.Polar(i1, arc.InnerRadius)
		x3, y3 := hierarchy.Polar(i0, arc.InnerRadius)
		fmt.Fprintf(&b, " L%.2f,%.2f A%.2f,%.2f 0 %d 0 %.2f,%.2f",
			cx+x2, cy+y2, arc.InnerRadius, arc.InnerRadius, largeArc(i0, i1), cx+x3, cy+y3)
	} else {
		fmt.Fprintf(&b, " L%.2f,%.2f", cx, cy)
	}
	b.WriteString(" Z")
	return b.String()
}

func largeArc(a0, a1 float64) int {
	if a1-a0 > math.Pi {
		return 1
	}
	return 0
}

func renderSunburstPNG(opts SunburstOptions) error {
	v := opts.View
	t := v.Tree()
	radius := opts.radius()
	cx, cy := float64(opts.Width)/2, float64(opts.Height)/2

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(colorBG)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	visible := v.Visible()
	for _, id := range visible {
		st := v.NodeState(id)
		drawSector(dc, cx, cy, hierarchy.ArcGeometry(st.Current, radius))
		dc.SetColor(withAlpha(branchColor(t, id), st.Opacity))
		dc.Fill()
	}

	dc.SetColor(colorText)
	for _, id := range visible {
		st := v.NodeState(id)
		if st.LabelOpacity == 0 {
			continue
		}
		l := hierarchy.LabelPlacement(st.Current, radius)
		x, y := l.Point()
		dc.Push()
		dc.RotateAbout(l.Rotation()*math.Pi/180, cx+x, cy+y)
		dc.DrawStringAnchored(truncate(t.Node(id).Name, sunburstLabelMaxRune), cx+x, cy+y, 0.5, 0.5)
		dc.Pop()
	}

	focus := v.Focus()
	dc.DrawStringAnchored(truncate(t.Node(focus).Name, sunburstLabelMaxRune), cx, cy, 0.5, 0.5)

	if err := dc.SavePNG(opts.Path); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	return nil
}

// drawSector adds an annular sector to the current path. gg measures angles
// from three o'clock, a quarter turn before the d3 origin.
func drawSector(dc *gg.Context, cx, cy float64, arc hierarchy.Arc) {
	const quarter = math.Pi / 2
	o0, o1 := arc.Inset(arc.OuterRadius)
	dc.NewSubPath()
	dc.DrawArc(cx, cy, arc.OuterRadius, o0-quarter, o1-quarter)
	if arc.InnerRadius > 0 {
		i0, i1 := arc.Inset(arc.InnerRadius)
		dc.DrawArc(cx, cy, arc.InnerRadius, i1-quarter, i0-quarter)
	} else {
		dc.LineTo(cx, cy)
	}
	dc.ClosePath()
}
