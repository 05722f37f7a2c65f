package loader

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/vizsync/pkg/debug"
)

// Paths locates each dataset. An empty path means the dataset is not
// configured and its view is simply absent.
type Paths struct {
	Tree     string `yaml:"tree,omitempty"`
	Timeline string `yaml:"timeline,omitempty"`
	Geo      string `yaml:"geo,omitempty"`
	Genotype string `yaml:"genotype,omitempty"`
}

// Bundle holds whatever datasets loaded successfully. A nil field means the
// dataset was not configured or failed; Failures says which.
type Bundle struct {
	Tree     *TreeNode
	Series   *SeriesTable
	Markers  *MarkerTable
	Strains  []Strain
	Warnings []string
	Failures []error
}

// Failed reports whether dataset failed to load.
func (b *Bundle) Failed(dataset string) bool {
	for _, err := range b.Failures {
		var le *LoadError
		if errors.As(err, &le) && le.Dataset == dataset {
			return true
		}
	}
	return false
}

// LoadBundle loads every configured dataset concurrently. One failing dataset
// never cancels the others: each failure is logged, recorded in
// Bundle.Failures and joined into the returned error, and the rest of the
// bundle is still usable.
func LoadBundle(ctx context.Context, paths Paths, specs []SeriesSpec) (*Bundle, error) {
	var (
		mu sync.Mutex
		b  Bundle
		g  errgroup.Group
	)

	record := func(err error, warnings []string) {
		mu.Lock()
		defer mu.Unlock()
		b.Warnings = append(b.Warnings, warnings...)
		if err != nil {
			debug.Warn("%v", err)
			b.Failures = append(b.Failures, err)
		}
	}

	start := func(dataset, path string, load func() ([]string, error)) {
		if strings.TrimSpace(path) == "" {
			return
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				record(&LoadError{Dataset: dataset, Path: path, Err: err}, nil)
				return nil
			}
			warnings, err := load()
			record(err, warnings)
			return nil
		})
	}

	start(DatasetTree, paths.Tree, func() ([]string, error) {
		root, err := LoadTree(paths.Tree)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		b.Tree = &root
		mu.Unlock()
		return nil, nil
	})
	start(DatasetTimeline, paths.Timeline, func() ([]string, error) {
		t, err := LoadSeries(paths.Timeline, specs, ParseOptions{})
		if err != nil {
			return nil, err
		}
		mu.Lock()
		b.Series = t
		mu.Unlock()
		return t.Warnings, nil
	})
	start(DatasetGeo, paths.Geo, func() ([]string, error) {
		t, err := LoadMarkers(paths.Geo, ParseOptions{})
		if err != nil {
			return nil, err
		}
		mu.Lock()
		b.Markers = t
		mu.Unlock()
		return t.Warnings, nil
	})
	start(DatasetGenotype, paths.Genotype, func() ([]string, error) {
		strains, warnings, err := LoadStrains(paths.Genotype, ParseOptions{})
		if err != nil {
			return nil, err
		}
		mu.Lock()
		b.Strains = strains
		mu.Unlock()
		return warnings, nil
	})

	_ = g.Wait()
	return &b, errors.Join(b.Failures...)
}
