// Package export writes static snapshots of the views: sunburst and treemap
// frames, the timeline chart as SVG, and the network graphs as node/link JSON.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/vanderheijden86/vizsync/pkg/hierarchy"
)

// Snapshot formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ErrUnsupportedFormat is returned for formats other than svg and png, or for
// png where only svg is rendered.
var ErrUnsupportedFormat = errors.New("unsupported format")

// ErrNoView is returned when a snapshot is requested without a view.
var ErrNoView = errors.New("nothing to render")

// resolveOutput infers the format from the extension when format is empty
// and creates the parent directory. A path without extension gets ".svg".
func resolveOutput(path, format string) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = FormatSVG
		case ".png":
			format = FormatPNG
		default:
			format = FormatSVG
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if format != FormatSVG && format != FormatPNG {
		return "", "", fmt.Errorf("%w %q (want svg or png)", ErrUnsupportedFormat, format)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", fmt.Errorf("create parent dir: %w", err)
	}
	return path, format, nil
}

var (
	colorBG        = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorText      = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	colorSubtle    = color.RGBA{R: 0x4b, G: 0x55, B: 0x63, A: 0xff}
	colorAxis      = color.RGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
	colorHeader    = color.RGBA{R: 0xcb, G: 0xd5, B: 0xe1, A: 0xff}
	colorHighlight = color.RGBA{R: 0xff, G: 0xff, B: 0x00, A: 0xff}
	colorBorder    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// branchColor colours a node after its top-level ancestor, spreading the
// root's children around the hue wheel.
func branchColor(t *hierarchy.Tree, id hierarchy.NodeID) color.RGBA {
	path := t.Ancestry(id)
	if len(path) < 2 {
		return colorHeader
	}
	top := path[1]
	siblings := t.Children(t.Root())
	idx := 0
	for i, c := range siblings {
		if c == top {
			idx = i
			break
		}
	}
	hue := float64(idx) * 360 / float64(len(siblings)+1)
	return rgba(colorful.Hsv(hue, 0.55, 0.85))
}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// parseColor accepts a hex code or one of the named series colours.
func parseColor(s string) color.RGBA {
	if c, err := colorful.Hex(s); err == nil {
		return rgba(c)
	}
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c
	}
	return colorSubtle
}

var namedColors = map[string]color.RGBA{
	"purple": {R: 0x80, G: 0x00, B: 0x80, A: 0xff},
	"red":    {R: 0xff, G: 0x00, B: 0x00, A: 0xff},
	"blue":   {R: 0x00, G: 0x00, B: 0xff, A: 0xff},
	"green":  {R: 0x00, G: 0x80, B: 0x00, A: 0xff},
	"orange": {R: 0xff, G: 0xa5, B: 0x00, A: 0xff},
	"yellow": {R: 0xff, G: 0xff, B: 0x00, A: 0xff},
	"grey":   {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"gray":   {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"black":  {R: 0x00, G: 0x00, B: 0x00, A: 0xff},
}

func withAlpha(c color.RGBA, opacity float64) color.NRGBA {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(opacity*255 + 0.5)}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
