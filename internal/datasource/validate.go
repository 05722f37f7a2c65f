package datasource

import (
	"errors"
	"fmt"
	"os"

	"github.com/vanderheijden86/vizsync/pkg/loader"
)

// ErrNoValidSource is returned when a dataset has no usable candidate.
var ErrNoValidSource = errors.New("no valid source")

// ValidateSource parses the candidate with the loader for its dataset and
// records the outcome on s.
func ValidateSource(s *DataSource) error {
	err := validate(s)
	s.Valid = err == nil
	if err != nil {
		s.ValidationError = err.Error()
	} else {
		s.ValidationError = ""
	}
	return err
}

func validate(s *DataSource) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	var opts loader.ParseOptions
	switch s.Dataset {
	case loader.DatasetTree:
		root, err := loader.ParseTree(f)
		if err != nil {
			return err
		}
		s.Records = root.Count()
	case loader.DatasetTimeline:
		t, err := loader.ParseSeries(f, nil, opts)
		if err != nil {
			return err
		}
		s.Records = t.MaxYear - t.MinYear + 1
	case loader.DatasetGeo:
		m, err := loader.ParseMarkers(f, opts)
		if err != nil {
			return err
		}
		s.Records = len(m.Markers)
	case loader.DatasetGenotype:
		strains, _, err := loader.ParseStrains(f, opts)
		if err != nil {
			return err
		}
		s.Records = len(strains)
	default:
		return fmt.Errorf("unknown dataset %q", s.Dataset)
	}
	return nil
}

// SelectBestSource returns the first valid source for dataset. sources must
// be ordered as DiscoverSources orders them.
func SelectBestSource(sources []DataSource, dataset string) (DataSource, error) {
	for _, s := range sources {
		if s.Dataset == dataset && s.Valid {
			return s, nil
		}
	}
	return DataSource{}, fmt.Errorf("%s: %w", dataset, ErrNoValidSource)
}

// Resolve discovers and validates every dataset and returns the selected
// path for each. A dataset without a valid candidate gets an empty path, so
// its view stays absent. The full candidate list is returned for reporting.
func Resolve(opts DiscoveryOptions) (loader.Paths, []DataSource, error) {
	opts.ValidateAfterDiscovery = true
	opts.IncludeInvalid = true
	sources, err := DiscoverSources(opts)
	if err != nil {
		return loader.Paths{}, nil, err
	}

	var paths loader.Paths
	for _, ds := range Datasets {
		best, err := SelectBestSource(sources, ds)
		if err != nil {
			continue
		}
		switch ds {
		case loader.DatasetTree:
			paths.Tree = best.Path
		case loader.DatasetTimeline:
			paths.Timeline = best.Path
		case loader.DatasetGeo:
			paths.Geo = best.Path
		case loader.DatasetGenotype:
			paths.Genotype = best.Path
		}
	}
	return paths, sources, nil
}
