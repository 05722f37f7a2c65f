package export

import (
	"fmt"
	"io"
	"math"
	"os"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"github.com/dustin/go-humanize"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/hierarchy"
	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// Treemap defaults.
const (
	DefaultTreemapWidth  = 954
	DefaultTreemapHeight = 924
	HeaderHeight         = 30.0
)

// TreemapOptions controls treemap snapshot export.
type TreemapOptions struct {
	Path   string
	Format string
	Title  string
	View   *hierarchy.View
	Width  int
	Height int
}

func (o *TreemapOptions) defaults() {
	if o.Width <= 0 {
		o.Width = DefaultTreemapWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultTreemapHeight
	}
}

// Tile is the rectangle of one node below the treemap header.
type Tile struct {
	ID     hierarchy.NodeID
	Depth  int // 1 for children of the focus
	X0, Y0 float64
	X1, Y1 float64
}

// W returns the tile width.
func (t Tile) W() float64 { return t.X1 - t.X0 }

// H returns the tile height.
func (t Tile) H() float64 { return t.Y1 - t.Y0 }

// TreemapTiles lays the descendants of the view's focus out in a w×h box
// with binary tiling, nesting up to the view's depth. Parents come before
// their children.
func TreemapTiles(v *hierarchy.View, w, h float64) []Tile {
	maxDepth := v.Levels() - 1
	if maxDepth < 1 {
		maxDepth = 1
	}
	t := v.Tree()
	var out []Tile
	var tile func(parent hierarchy.NodeID, depth int, x0, y0, x1, y1 float64)
	tile = func(parent hierarchy.NodeID, depth int, x0, y0, x1, y1 float64) {
		children := t.Children(parent)
		if len(children) == 0 || depth > maxDepth {
			return
		}
		values := make([]float64, len(children))
		for i, c := range children {
			values[i] = t.Node(c).Value
		}
		for i, r := range binaryTile(values, x0, y0, x1, y1) {
			out = append(out, Tile{ID: children[i], Depth: depth, X0: r[0], Y0: r[1], X1: r[2], Y1: r[3]})
			tile(children[i], depth+1, r[0], r[1], r[2], r[3])
		}
	}
	tile(v.Focus(), 1, 0, 0, w, h)
	return out
}

// binaryTile splits the box recursively so that each half holds about half
// the value, cutting across the longer side. Rectangles are returned in the
// order of values as [x0, y0, x1, y1].
func binaryTile(values []float64, x0, y0, x1, y1 float64) [][4]float64 {
	n := len(values)
	out := make([][4]float64, n)
	if n == 0 {
		return out
	}
	sums := make([]float64, n+1)
	for i, v := range values {
		sums[i+1] = sums[i] + v
	}

	var split func(i, j int, value, x0, y0, x1, y1 float64)
	split = func(i, j int, value, x0, y0, x1, y1 float64) {
		if i >= j-1 {
			out[i] = [4]float64{x0, y0, x1, y1}
			return
		}
		offset := sums[i]
		target := value/2 + offset
		k, hi := i+1, j-1
		for k < hi {
			mid := (k + hi) / 2
			if sums[mid] < target {
				k = mid + 1
			} else {
				hi = mid
			}
		}
		if target-sums[k-1] < sums[k]-target && i+1 < k {
			k--
		}
		left := sums[k] - offset
		right := value - left

		if x1-x0 > y1-y0 {
			xk := x1
			if value > 0 {
				xk = (x0*right + x1*left) / value
			}
			split(i, k, left, x0, y0, xk, y1)
			split(k, j, right, xk, y0, x1, y1)
			return
		}
		yk := y1
		if value > 0 {
			yk = (y0*right + y1*left) / value
		}
		split(i, k, left, x0, y0, x1, yk)
		split(k, j, right, x0, yk, x1, y1)
	}
	split(0, n, sums[n], x0, y0, x1, y1)
	return out
}

// treemapLines is the label of a tile: the camel-case words of the name and
// the value with thousands separators.
func treemapLines(n hierarchy.Node) []string {
	return append(hierarchy.SplitWords(n.Name), humanize.Comma(int64(math.Round(n.Value))))
}

func headerText(v *hierarchy.View) string {
	t := v.Tree()
	focus := v.Focus()
	return fmt.Sprintf("%s  %s", t.Path(focus), humanize.Comma(int64(math.Round(t.Node(focus).Value))))
}

// SaveTreemap renders the treemap frame: a header bar naming the focus path,
// then the focus descendants tiled by value.
func SaveTreemap(opts TreemapOptions) error {
	defer metrics.Timer(metrics.SnapshotRender)()
	if opts.View == nil {
		return fmt.Errorf("treemap: %w", ErrNoView)
	}
	opts.defaults()
	path, format, err := resolveOutput(opts.Path, opts.Format)
	if err != nil {
		return err
	}
	opts.Path = path
	debug.Log("export: treemap %s (%s) focus=%d", path, format, opts.View.Focus())

	if format == FormatPNG {
		return renderTreemapPNG(opts)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create svg: %w", err)
	}
	defer f.Close()
	return WriteTreemapSVG(f, opts)
}

// WriteTreemapSVG writes the treemap frame as SVG to w.
func WriteTreemapSVG(w io.Writer, opts TreemapOptions) error {
	if opts.View == nil {
		return fmt.Errorf("treemap: %w", ErrNoView)
	}
	opts.defaults()
	v := opts.View
	t := v.Tree()

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	if opts.Title != "" {
		canvas.Title(opts.Title)
	}
	canvas.Rect(0, 0, opts.Width, int(HeaderHeight),
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorHeader), css(colorBorder)))
	canvas.Text(6, int(HeaderHeight/2), headerText(v), `dy="0.35em"`,
		fmt.Sprintf("fill:%s;font-size:13px;font-family:sans-serif;font-weight:bold", css(colorText)))

	canvas.Gtransform(fmt.Sprintf("translate(0,%d)", int(HeaderHeight)))
	for _, tl := range TreemapTiles(v, float64(opts.Width), float64(opts.Height)-HeaderHeight) {
		stroke, width := colorBorder, 1
		if v.Highlighted(tl.ID) {
			stroke, width = colorHighlight, 3
		}
		canvas.Rect(int(math.Round(tl.X0)), int(math.Round(tl.Y0)), int(math.Round(tl.W())), int(math.Round(tl.H())),
			fmt.Sprintf("fill:%s;fill-opacity:%.2f;stroke:%s;stroke-width:%d", css(branchColor(t, tl.ID)), tileOpacity(tl), css(stroke), width))
		if tl.Depth != 1 {
			continue
		}
		lines := treemapLines(t.Node(tl.ID))
		for i, line := range lines {
			style := fmt.Sprintf("fill:%s;font-size:11px;font-family:sans-serif", css(colorText))
			if i == len(lines)-1 {
				style += ";fill-opacity:0.7"
			}
			canvas.Text(int(tl.X0)+4, int(tl.Y0)+14+i*13, line, style)
		}
	}
	canvas.Gend()
	canvas.End()
	return nil
}

// tileOpacity fades deeper tiles so nesting stays readable.
func tileOpacity(tl Tile) float64 {
	if tl.Depth <= 1 {
		return 0.6
	}
	return 0.4
}

func renderTreemapPNG(opts TreemapOptions) error {
	v := opts.View
	t := v.Tree()

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetColor(colorBG)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorHeader)
	dc.DrawRectangle(0, 0, float64(opts.Width), HeaderHeight)
	dc.Fill()
	dc.SetColor(colorText)
	dc.DrawStringAnchored(headerText(v), 6, HeaderHeight/2, 0, 0.5)

	for _, tl := range TreemapTiles(v, float64(opts.Width), float64(opts.Height)-HeaderHeight) {
		y0 := tl.Y0 + HeaderHeight
		dc.SetColor(withAlpha(branchColor(t, tl.ID), tileOpacity(tl)))
		dc.DrawRectangle(tl.X0, y0, tl.W(), tl.H())
		dc.Fill()

		stroke, width := colorBorder, 1.0
		if v.Highlighted(tl.ID) {
			stroke, width = colorHighlight, 3
		}
		dc.SetColor(stroke)
		dc.SetLineWidth(width)
		dc.DrawRectangle(tl.X0, y0, tl.W(), tl.H())
		dc.Stroke()

		if tl.Depth != 1 {
			continue
		}
		dc.SetColor(colorText)
		for i, line := range treemapLines(t.Node(tl.ID)) {
			dc.DrawStringAnchored(line, tl.X0+4, y0+10+float64(i)*13, 0, 0.5)
		}
	}

	if err := dc.SavePNG(opts.Path); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	return nil
}
