// Package datasource locates dataset files for vizsync. It discovers the
// candidate files for each dataset in a data directory, validates them, and
// selects the freshest valid one. A path set explicitly in the configuration
// always outranks a discovered file.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/vizsync/pkg/loader"
)

// SourceType says how a candidate was found.
type SourceType string

const (
	// SourceTypeConfigured is a path named in the configuration.
	SourceTypeConfigured SourceType = "configured"
	// SourceTypeCanonical is a file with the dataset's published file name.
	SourceTypeCanonical SourceType = "canonical"
	// SourceTypeAlias is a file with the short file name (tree.json, ...).
	SourceTypeAlias SourceType = "alias"
)

// Priority values for source types (higher = more authoritative)
const (
	PriorityConfigured = 100
	PriorityCanonical  = 80
	PriorityAlias      = 50
)

// fileNames lists the conventional names per dataset: the published file
// name first, then the short alias.
var fileNames = map[string][2]string{
	loader.DatasetTree:     {"treemap-dataset.json", "tree.json"},
	loader.DatasetTimeline: {"tb-death-rate-by-year.csv", "timeline.csv"},
	loader.DatasetGeo:      {"data_with_coordinates.csv", "geo.csv"},
	loader.DatasetGenotype: {"genotypes-forced-directed-layout.csv", "genotype.csv"},
}

// Datasets lists the dataset names in load order.
var Datasets = []string{
	loader.DatasetTree,
	loader.DatasetTimeline,
	loader.DatasetGeo,
	loader.DatasetGenotype,
}

// DataSource is one candidate file for a dataset.
type DataSource struct {
	Dataset  string     `json:"dataset"`
	Type     SourceType `json:"type"`
	Path     string     `json:"path"`
	Priority int        `json:"priority"`
	ModTime  time.Time  `json:"mod_time"`
	Size     int64      `json:"size"`
	// Valid and ValidationError are set by ValidateSource.
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	// Records counts tree nodes, timeline years, markers or strains.
	Records int `json:"records"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s %s (%s, priority=%d, mod=%s, records=%d, %s)",
		s.Dataset, s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.Records, status)
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// Dir is the data directory. Empty means the current directory.
	Dir string
	// Configured holds explicit paths; relative ones resolve against Dir.
	Configured loader.Paths
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Logger receives progress messages. Nil discards them.
	Logger func(msg string)
}

// DiscoverSources finds every candidate file for every dataset, ordered per
// dataset from most to least preferred.
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	dir := opts.Dir
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	opts.Logger(fmt.Sprintf("Discovering datasets in: %s", dir))

	var sources []DataSource
	for _, ds := range Datasets {
		if p := configuredPath(opts.Configured, ds); p != "" {
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			sources = append(sources, statSource(ds, p, SourceTypeConfigured, PriorityConfigured, opts))
		}
		names := fileNames[ds]
		sources = appendIfExists(sources, ds, filepath.Join(dir, names[0]), SourceTypeCanonical, PriorityCanonical, opts)
		sources = appendIfExists(sources, ds, filepath.Join(dir, names[1]), SourceTypeAlias, PriorityAlias, opts)
	}

	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
		if !opts.IncludeInvalid {
			valid := sources[:0]
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	sortSources(sources)
	opts.Logger(fmt.Sprintf("Discovered %d sources", len(sources)))
	return sources, nil
}

// sortSources groups by dataset in load order. Within a dataset a configured
// path comes first, then the newest file, then the higher priority.
func sortSources(sources []DataSource) {
	order := make(map[string]int, len(Datasets))
	for i, ds := range Datasets {
		order[ds] = i
	}
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if a.Dataset != b.Dataset {
			return order[a.Dataset] < order[b.Dataset]
		}
		ac, bc := a.Type == SourceTypeConfigured, b.Type == SourceTypeConfigured
		if ac != bc {
			return ac
		}
		if a.ModTime.Equal(b.ModTime) {
			return a.Priority > b.Priority
		}
		return a.ModTime.After(b.ModTime)
	})
}

func configuredPath(p loader.Paths, dataset string) string {
	switch dataset {
	case loader.DatasetTree:
		return strings.TrimSpace(p.Tree)
	case loader.DatasetTimeline:
		return strings.TrimSpace(p.Timeline)
	case loader.DatasetGeo:
		return strings.TrimSpace(p.Geo)
	case loader.DatasetGenotype:
		return strings.TrimSpace(p.Genotype)
	}
	return ""
}

// statSource records a configured path even when it is missing, so that
// validation can report why it was skipped.
func statSource(dataset, path string, typ SourceType, prio int, opts DiscoveryOptions) DataSource {
	s := DataSource{Dataset: dataset, Type: typ, Path: path, Priority: prio}
	if info, err := os.Stat(path); err == nil {
		s.ModTime = info.ModTime()
		s.Size = info.Size()
	}
	opts.Logger(fmt.Sprintf("Found %s %s: %s", typ, dataset, path))
	return s
}

func appendIfExists(sources []DataSource, dataset, path string, typ SourceType, prio int, opts DiscoveryOptions) []DataSource {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return sources
	}
	opts.Logger(fmt.Sprintf("Found %s %s: %s (mod=%s)", typ, dataset, path, info.ModTime().Format(time.RFC3339)))
	return append(sources, DataSource{
		Dataset:  dataset,
		Type:     typ,
		Path:     path,
		Priority: prio,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	})
}
