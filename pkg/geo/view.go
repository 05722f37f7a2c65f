// Package geo holds the state of the world map: markers coloured by the
// timeline year and regions styled by the shared selection.
package geo

import (
	"sort"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/selection"
	"github.com/vanderheijden86/vizsync/pkg/timeline"
)

// Region opacities.
const (
	OpacityIdle     = 0.9
	OpacityDimmed   = 0.5
	OpacitySelected = 1.0
)

// Style is the fill of one region.
type Style struct {
	Color   colorful.Color
	Opacity float64
}

// Point is a marker resolved for the current year.
type Point struct {
	Name        string
	Parent      string
	Lon, Lat    float64
	Value       float64
	OK          bool
	Color       colorful.Color
	Highlighted bool
}

// View is safe for concurrent use.
type View struct {
	markers []loader.Marker
	regions []string
	palette map[string]int

	mu        sync.RWMutex
	year      int
	highlight string
}

// NewView creates a map over table positioned at its latest year.
func NewView(table *loader.MarkerTable) *View {
	v := &View{markers: table.Markers, palette: make(map[string]int)}
	if n := len(table.Years); n > 0 {
		v.year = table.Years[n-1]
	}

	seen := make(map[string]bool)
	for _, m := range table.Markers {
		for _, name := range []string{m.Name, m.Parent} {
			if name != "" && !seen[name] {
				seen[name] = true
				v.regions = append(v.regions, name)
			}
		}
	}
	sort.Strings(v.regions)
	for i, r := range v.regions {
		v.palette[r] = i
	}
	return v
}

// Markers returns the raw markers.
func (v *View) Markers() []loader.Marker {
	return v.markers
}

// Regions returns the sorted unique area and parent names, the option list of
// the entity picker.
func (v *View) Regions() []string {
	return v.regions
}

// Year returns the year markers are coloured for.
func (v *View) Year() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.year
}

// SetYear recolours the markers for year and clears the highlight.
func (v *View) SetYear(year int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.year == year {
		return
	}
	v.year = year
	v.highlight = ""
	debug.Log("geo: year %d", year)
}

// Highlight selects a region by exact name. An empty name clears it.
func (v *View) Highlight(name string) {
	v.mu.Lock()
	v.highlight = name
	v.mu.Unlock()
}

// Highlighted returns the selected region.
func (v *View) Highlighted() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.highlight
}

// BaseColor returns the ordinal fill of a region.
func (v *View) BaseColor(name string) colorful.Color {
	i, ok := v.palette[name]
	if !ok {
		i = len(v.palette)
	}
	return Palette(i)
}

// RegionStyle returns the fill of a region under the current selection: the
// selected region is red and opaque, the others fade while a selection is
// active.
func (v *View) RegionStyle(name string) Style {
	sel := v.Highlighted()
	switch {
	case sel == "":
		return Style{Color: v.BaseColor(name), Opacity: OpacityIdle}
	case sel == name:
		return Style{Color: Selected, Opacity: OpacitySelected}
	default:
		return Style{Color: v.BaseColor(name), Opacity: OpacityDimmed}
	}
}

// Points resolves every marker for the current year.
func (v *View) Points() []Point {
	v.mu.RLock()
	year, sel := v.year, v.highlight
	v.mu.RUnlock()

	out := make([]Point, len(v.markers))
	for i, m := range v.markers {
		val, ok := m.ValueFor(year)
		out[i] = Point{
			Name:        m.Name,
			Parent:      m.Parent,
			Lon:         m.Lon,
			Lat:         m.Lat,
			Value:       val,
			OK:          ok,
			Color:       MarkerColor(val, ok),
			Highlighted: sel != "" && (m.Name == sel || m.Parent == sel),
		}
	}
	return out
}

// Top returns the n points with the largest value for the current year,
// missing values last.
func (v *View) Top(n int) []Point {
	pts := v.Points()
	sort.SliceStable(pts, func(i, j int) bool {
		if pts[i].OK != pts[j].OK {
			return pts[i].OK
		}
		return pts[i].Value > pts[j].Value
	})
	if n >= 0 && n < len(pts) {
		pts = pts[:n]
	}
	return pts
}

// Bind makes the map follow the timeline cursor and the shared selection.
// The returned function unbinds both.
func (v *View) Bind(ctrl *timeline.Controller, sel *selection.Broadcaster) func() {
	var unbind []func()
	if ctrl != nil {
		v.SetYear(ctrl.Year())
		unbind = append(unbind, ctrl.Subscribe("map", func(st timeline.State) {
			v.SetYear(st.Year)
		}))
	}
	if sel != nil {
		unbind = append(unbind, sel.Subscribe("map", func(name string) error {
			v.Highlight(name)
			return nil
		}))
	}
	return func() {
		for _, fn := range unbind {
			fn()
		}
	}
}
