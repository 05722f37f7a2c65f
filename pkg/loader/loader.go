// Package loader reads the static datasets behind the visualizations: the
// nested JSON tree used by the sunburst and treemap, the per-year series CSV
// used by the timeline, the geo-tagged CSV used by the map and region graph,
// and the genotype CSV.
//
// Missing or malformed numeric cells never abort a load. They are recorded as
// warnings and default to zero. Only I/O and structural failures are returned
// as errors, always wrapped in *LoadError.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Dataset names used in LoadError and log output.
const (
	DatasetTree     = "tree"
	DatasetTimeline = "timeline"
	DatasetGeo      = "geo"
	DatasetGenotype = "genotype"
)

// LoadError reports a dataset that could not be fetched or parsed. The view
// backed by that dataset stays unrendered.
type LoadError struct {
	Dataset string
	Path    string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s dataset: %v", e.Dataset, e.Err)
	}
	return fmt.Sprintf("load %s dataset %s: %v", e.Dataset, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadFailure reports whether err wraps a *LoadError.
func IsLoadFailure(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// ParseOptions configures the parsers.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g. a non-numeric
	// cell). If nil, warnings are only collected on the returned table.
	WarningHandler func(string)
}

func (o ParseOptions) warn(sink *[]string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	*sink = append(*sink, msg)
	if o.WarningHandler != nil {
		o.WarningHandler(msg)
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readAll reads r and strips a leading UTF-8 BOM, which spreadsheet exports
// commonly prepend.
func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return bytes.TrimPrefix(data, utf8BOM), nil
}

func openDataset(dataset, path string) (*os.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &LoadError{Dataset: dataset, Err: errors.New("no path configured")}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Dataset: dataset, Path: path, Err: err}
	}
	return f, nil
}

// parseNumber coerces a cell leniently: surrounding whitespace and thousands
// separators are ignored, and an empty cell is reported as missing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
