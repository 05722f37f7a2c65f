package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/metrics"
	"github.com/vanderheijden86/vizsync/pkg/timeline"
)

// Timeline chart defaults.
const (
	DefaultTimelineWidth  = 960
	DefaultTimelineHeight = 500
	maxYearTicks          = 10
	yTicks                = 5
)

var timelineMargin = struct{ top, right, bottom, left int }{30, 150, 40, 60}

// TimelineOptions controls timeline chart export. Only SVG is rendered.
type TimelineOptions struct {
	Path   string
	Format string
	Title  string
	Chart  *timeline.Chart
	Year   int // cursor year; 0 uses the chart's current end year
	Width  int
	Height int
}

func (o *TimelineOptions) defaults() {
	if o.Width <= 0 {
		o.Width = DefaultTimelineWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultTimelineHeight
	}
	if o.Year == 0 && o.Chart != nil {
		o.Year = o.Chart.EndYear()
	}
}

// SaveTimeline renders the line chart truncated at the cursor year.
func SaveTimeline(opts TimelineOptions) error {
	defer metrics.Timer(metrics.SnapshotRender)()
	if opts.Chart == nil {
		return fmt.Errorf("timeline: %w", ErrNoView)
	}
	opts.defaults()
	path, format, err := resolveOutput(opts.Path, opts.Format)
	if err != nil {
		return err
	}
	if format != FormatSVG {
		return fmt.Errorf("timeline: %w %q (want svg)", ErrUnsupportedFormat, format)
	}
	debug.Log("export: timeline %s year=%d", path, opts.Year)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create svg: %w", err)
	}
	defer f.Close()
	return WriteTimelineSVG(f, opts)
}

type yearScale struct {
	min, max     int
	x0, x1       float64
	extent       float64
	yTop, yBottom float64
}

func (s yearScale) x(year int) float64 {
	span := float64(s.max - s.min)
	if span <= 0 {
		span = 1
	}
	return s.x0 + float64(year-s.min)/span*(s.x1-s.x0)
}

func (s yearScale) y(v float64) float64 {
	return s.yBottom - v/s.extent*(s.yBottom-s.yTop)
}

// WriteTimelineSVG writes the chart as SVG to w.
func WriteTimelineSVG(w io.Writer, opts TimelineOptions) error {
	if opts.Chart == nil {
		return fmt.Errorf("timeline: %w", ErrNoView)
	}
	opts.defaults()
	c := opts.Chart
	m := timelineMargin

	lo, hi := c.Domain(opts.Year)
	extent := c.Extent(c.Table().MaxYear)
	if extent <= 0 {
		extent = 1
	}
	sc := yearScale{
		min: lo, max: hi,
		x0: float64(m.left), x1: float64(opts.Width - m.right),
		extent: extent,
		yTop:   float64(m.top), yBottom: float64(opts.Height - m.bottom),
	}

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	canvas.Rect(0, 0, opts.Width, opts.Height, fmt.Sprintf("fill:%s", css(colorBG)))

	axis := fmt.Sprintf("stroke:%s;stroke-width:1", css(colorAxis))
	tick := fmt.Sprintf("fill:%s;font-size:11px;font-family:sans-serif", css(colorSubtle))
	canvas.Line(int(sc.x0), int(sc.yBottom), int(sc.x1), int(sc.yBottom), axis)
	canvas.Line(int(sc.x0), int(sc.yTop), int(sc.x0), int(sc.yBottom), axis)

	step := (hi-lo)/maxYearTicks + 1
	for year := lo; year <= hi; year += step {
		x := int(sc.x(year))
		canvas.Line(x, int(sc.yBottom), x, int(sc.yBottom)+5, axis)
		canvas.Text(x, int(sc.yBottom)+18, strconv.Itoa(year), `text-anchor="middle"`, tick)
	}
	for i := 0; i <= yTicks; i++ {
		v := extent * float64(i) / yTicks
		y := int(sc.y(v))
		canvas.Line(int(sc.x0)-5, y, int(sc.x0), y, axis)
		canvas.Text(int(sc.x0)-8, y, strconv.FormatFloat(v, 'g', 4, 64), `text-anchor="end"`, `dy="0.35em"`, tick)
	}

	for _, s := range c.Truncated(opts.Year) {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]int, len(s.Points))
		ys := make([]int, len(s.Points))
		for i, p := range s.Points {
			xs[i] = int(math.Round(sc.x(p.Year)))
			ys[i] = int(math.Round(sc.y(p.Value)))
		}
		canvas.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:2;stroke-opacity:%g",
			css(parseColor(s.Color)), c.Opacity(s.Key)))
	}

	cursor := int(sc.x(opts.Year))
	canvas.Line(cursor, int(sc.yTop), cursor, int(sc.yBottom),
		fmt.Sprintf("stroke:%s;stroke-width:1;stroke-dasharray:4,3", css(colorSubtle)))
	canvas.Text(int(sc.x1), m.top-10, strconv.Itoa(opts.Year), `text-anchor="end"`,
		fmt.Sprintf("fill:%s;font-size:16px;font-family:sans-serif;font-weight:bold", css(colorText)))

	lx := opts.Width - m.right + 16
	for i, r := range c.RelativeRates(opts.Year) {
		y := m.top + 10 + i*22
		op := c.Opacity(r.Key)
		col := css(parseColor(r.Color))
		canvas.Rect(lx, y-6, 12, 12, fmt.Sprintf("fill:%s;fill-opacity:%g", col, op))
		canvas.Text(lx+18, y, fmt.Sprintf("%s %+.1f%%", r.Key, r.Percent), `dy="0.35em"`,
			fmt.Sprintf("fill:%s;fill-opacity:%g;font-size:12px;font-family:sans-serif", col, op))
	}

	canvas.End()
	return nil
}
