package loader

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// YearColumn is the key column of the timeline dataset.
const YearColumn = "Year"

// SeriesSpec names one value column of the timeline dataset and the colour
// its line is drawn with.
type SeriesSpec struct {
	Key   string `yaml:"key"`
	Color string `yaml:"color"`
}

// DefaultSeries are the age groups of the tuberculosis death-rate dataset.
var DefaultSeries = []SeriesSpec{
	{Key: "< 5", Color: "purple"},
	{Key: "> 70", Color: "red"},
	{Key: "5 - 14", Color: "blue"},
	{Key: "15 - 49", Color: "green"},
	{Key: "50 - 69", Color: "orange"},
}

// Point is one (year, value) sample.
type Point struct {
	Year  int
	Value float64
}

// Series is a named per-year line.
type Series struct {
	Key    string
	Color  string
	Points []Point
}

// ValueAt returns the value recorded for year.
func (s Series) ValueAt(year int) (float64, bool) {
	for _, p := range s.Points {
		if p.Year == year {
			return p.Value, true
		}
	}
	return 0, false
}

// SeriesTable is the parsed timeline dataset.
type SeriesTable struct {
	Series   []Series
	MinYear  int
	MaxYear  int
	Warnings []string
}

// Keys returns the series keys in configured order.
func (t *SeriesTable) Keys() []string {
	keys := make([]string, len(t.Series))
	for i, s := range t.Series {
		keys[i] = s.Key
	}
	return keys
}

// ParseSeries reads a CSV with a Year column and one column per spec. Rows
// with an unparsable year are skipped; unparsable values become 0. Points are
// sorted by year.
func ParseSeries(r io.Reader, specs []SeriesSpec, opts ParseOptions) (*SeriesTable, error) {
	if len(specs) == 0 {
		specs = DefaultSeries
	}
	tbl, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := tbl.require(YearColumn); err != nil {
		return nil, err
	}

	out := &SeriesTable{Series: make([]Series, len(specs))}
	for i, spec := range specs {
		out.Series[i] = Series{Key: spec.Key, Color: spec.Color}
		if !tbl.has(spec.Key) {
			opts.warn(&out.Warnings, "column %q not found; series defaults to 0", spec.Key)
		}
	}

	out.MinYear, out.MaxYear = math.MaxInt, math.MinInt
	for line, row := range tbl.rows {
		yf, ok := parseNumber(tbl.cell(row, YearColumn))
		if !ok {
			opts.warn(&out.Warnings, "row %d: invalid year %q, skipped", line+2, tbl.cell(row, YearColumn))
			continue
		}
		year := int(yf)
		out.MinYear = min(out.MinYear, year)
		out.MaxYear = max(out.MaxYear, year)

		for i, spec := range specs {
			v, ok := parseNumber(tbl.cell(row, spec.Key))
			if !ok && tbl.has(spec.Key) {
				opts.warn(&out.Warnings, "row %d: missing value for %q in %d, using 0", line+2, spec.Key, year)
			}
			out.Series[i].Points = append(out.Series[i].Points, Point{Year: year, Value: v})
		}
	}
	if out.MinYear > out.MaxYear {
		return nil, fmt.Errorf("timeline has no rows with a valid %s", YearColumn)
	}

	for i := range out.Series {
		pts := out.Series[i].Points
		sort.SliceStable(pts, func(a, b int) bool { return pts[a].Year < pts[b].Year })
	}
	return out, nil
}

// LoadSeries reads the timeline dataset at path.
func LoadSeries(path string, specs []SeriesSpec, opts ParseOptions) (*SeriesTable, error) {
	defer metrics.Timer(metrics.DatasetLoad)()

	f, err := openDataset(DatasetTimeline, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ParseSeries(f, specs, opts)
	if err != nil {
		return nil, &LoadError{Dataset: DatasetTimeline, Path: path, Err: err}
	}
	return t, nil
}
