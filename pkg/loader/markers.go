package loader

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// Geo dataset columns.
const (
	ColName    = "geoAreaName"
	ColParent  = "parentName"
	ColLon     = "X"
	ColLat     = "Y"
	ColLatest  = "value_latest_year"
	yearPrefix = "value_"
)

// Marker is one geo-tagged row: an area, its parent region, a coordinate and
// its per-year values.
type Marker struct {
	Name   string
	Parent string
	Lon    float64
	Lat    float64
	Latest float64
	// Values holds only the years with a parsable cell; a missing year is
	// absent rather than zero so the map can grey it out.
	Values map[int]float64
}

// ValueFor returns the value recorded for year.
func (m Marker) ValueFor(year int) (float64, bool) {
	v, ok := m.Values[year]
	return v, ok
}

// MarkerTable is the parsed geo dataset.
type MarkerTable struct {
	Markers  []Marker
	Years    []int
	Warnings []string
}

// ParseMarkers reads the geo CSV. Rows without an area name are skipped.
func ParseMarkers(r io.Reader, opts ParseOptions) (*MarkerTable, error) {
	tbl, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := tbl.require(ColName); err != nil {
		return nil, err
	}

	yearCols := make(map[int]string)
	for _, col := range tbl.header {
		if !strings.HasPrefix(col, yearPrefix) {
			continue
		}
		y, err := strconv.Atoi(strings.TrimPrefix(col, yearPrefix))
		if err != nil {
			continue
		}
		yearCols[y] = col
	}

	out := &MarkerTable{}
	for y := range yearCols {
		out.Years = append(out.Years, y)
	}
	sort.Ints(out.Years)

	for line, row := range tbl.rows {
		name := tbl.cell(row, ColName)
		if name == "" {
			opts.warn(&out.Warnings, "row %d: empty %s, skipped", line+2, ColName)
			continue
		}
		m := Marker{
			Name:   name,
			Parent: tbl.cell(row, ColParent),
			Values: make(map[int]float64, len(yearCols)),
		}
		var ok bool
		if m.Lon, ok = parseNumber(tbl.cell(row, ColLon)); !ok && tbl.has(ColLon) {
			opts.warn(&out.Warnings, "row %d: %s has no longitude", line+2, name)
		}
		if m.Lat, ok = parseNumber(tbl.cell(row, ColLat)); !ok && tbl.has(ColLat) {
			opts.warn(&out.Warnings, "row %d: %s has no latitude", line+2, name)
		}
		if m.Latest, ok = parseNumber(tbl.cell(row, ColLatest)); !ok && tbl.has(ColLatest) {
			opts.warn(&out.Warnings, "row %d: %s has no latest value, using 0", line+2, name)
		}
		for y, col := range yearCols {
			if v, ok := parseNumber(tbl.cell(row, col)); ok {
				m.Values[y] = v
			}
		}
		out.Markers = append(out.Markers, m)
	}
	return out, nil
}

// LoadMarkers reads the geo dataset at path.
func LoadMarkers(path string, opts ParseOptions) (*MarkerTable, error) {
	defer metrics.Timer(metrics.DatasetLoad)()

	f, err := openDataset(DatasetGeo, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ParseMarkers(f, opts)
	if err != nil {
		return nil, &LoadError{Dataset: DatasetGeo, Path: path, Err: err}
	}
	return t, nil
}
