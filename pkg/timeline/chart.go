package timeline

import (
	"sync"

	"github.com/vanderheijden86/vizsync/pkg/loader"
)

// Rate is the relative change of one series between the first year and the
// cursor, in percent.
type Rate struct {
	Key     string
	Color   string
	Percent float64
}

// Reading is one series value under the hover cursor. OK is false when the
// series has no sample for the year.
type Reading struct {
	Key   string
	Color string
	Value float64
	OK    bool
}

// Chart holds the year-dependent view of the age-band line chart.
type Chart struct {
	table *loader.SeriesTable

	mu      sync.RWMutex
	endYear int
	active  string
}

// NewChart creates a chart showing every year of table.
func NewChart(table *loader.SeriesTable) *Chart {
	return &Chart{
		table:   table,
		endYear: table.MaxYear,
		active:  AllSeries,
	}
}

// Table returns the underlying series table.
func (c *Chart) Table() *loader.SeriesTable {
	return c.table
}

// EndYear returns the year the chart is truncated at.
func (c *Chart) EndYear() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endYear
}

// ActiveSeries returns the highlighted series key.
func (c *Chart) ActiveSeries() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Opacity returns the draw opacity of a series line and legend entry.
func (c *Chart) Opacity(key string) float64 {
	return seriesOpacity(c.ActiveSeries(), key)
}

// Bind makes the chart follow ctrl. The returned function unbinds it.
func (c *Chart) Bind(ctrl *Controller) func() {
	c.apply(ctrl.State())
	return ctrl.Subscribe("chart", c.apply)
}

func (c *Chart) apply(st State) {
	c.mu.Lock()
	c.endYear = st.Year
	c.active = st.ActiveSeries
	c.mu.Unlock()
}

// Domain returns the x axis domain for endYear.
func (c *Chart) Domain(endYear int) (int, int) {
	return c.table.MinYear, endYear
}

// Truncated returns every series cut to the points up to and including
// endYear.
func (c *Chart) Truncated(endYear int) []loader.Series {
	out := make([]loader.Series, len(c.table.Series))
	for i, s := range c.table.Series {
		out[i] = loader.Series{Key: s.Key, Color: s.Color}
		for _, p := range s.Points {
			if p.Year <= endYear {
				out[i].Points = append(out[i].Points, p)
			}
		}
	}
	return out
}

// RelativeRates computes (end-start)/start*100 per series, where start is
// the value at the first year and end the value at endYear. A missing or zero
// start counts as 1 and a missing end as 0.
func (c *Chart) RelativeRates(endYear int) []Rate {
	out := make([]Rate, len(c.table.Series))
	for i, s := range c.table.Series {
		start, ok := s.ValueAt(c.table.MinYear)
		if !ok || start == 0 {
			start = 1
		}
		end, _ := s.ValueAt(endYear)
		out[i] = Rate{Key: s.Key, Color: s.Color, Percent: (end - start) / start * 100}
	}
	return out
}

// Hover returns the value of every series at year.
func (c *Chart) Hover(year int) []Reading {
	out := make([]Reading, len(c.table.Series))
	for i, s := range c.table.Series {
		v, ok := s.ValueAt(year)
		out[i] = Reading{Key: s.Key, Color: s.Color, Value: v, OK: ok}
	}
	return out
}

// Extent returns the largest value over every series up to endYear, for the
// y axis.
func (c *Chart) Extent(endYear int) float64 {
	var hi float64
	for _, s := range c.table.Series {
		for _, p := range s.Points {
			if p.Year <= endYear && p.Value > hi {
				hi = p.Value
			}
		}
	}
	return hi
}
