package watcher

import (
	"fmt"
	"sort"
)

// Set watches several dataset files and reports changes by dataset name.
type Set struct {
	watchers map[string]*Watcher
	events   chan string
}

// NewSet creates one watcher per entry of files, keyed by dataset name.
// Entries with an empty path are skipped. opts apply to every watcher; the
// change callback is owned by the set.
func NewSet(files map[string]string, opts ...WatcherOption) (*Set, error) {
	s := &Set{watchers: make(map[string]*Watcher, len(files))}
	s.events = make(chan string, 2*len(files)+1)

	for name, path := range files {
		if path == "" {
			continue
		}
		name := name
		wopts := append(append([]WatcherOption{}, opts...), WithOnChange(func() {
			select {
			case s.events <- name:
			default:
			}
		}))
		w, err := NewWatcher(path, wopts...)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", name, err)
		}
		s.watchers[name] = w
	}
	return s, nil
}

// Start starts every watcher. On failure the ones already started are
// stopped again.
func (s *Set) Start() error {
	var started []*Watcher
	for _, name := range s.Names() {
		w := s.watchers[name]
		if err := w.Start(); err != nil {
			for _, sw := range started {
				sw.Stop()
			}
			return fmt.Errorf("watching %s: %w", name, err)
		}
		started = append(started, w)
	}
	return nil
}

// Stop stops every watcher.
func (s *Set) Stop() {
	for _, w := range s.watchers {
		w.Stop()
	}
}

// Events delivers the name of each dataset whose file changed.
func (s *Set) Events() <-chan string {
	return s.events
}

// Names lists the watched datasets in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.watchers))
	for name := range s.watchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Watcher returns the watcher for a dataset, or nil.
func (s *Set) Watcher(name string) *Watcher {
	return s.watchers[name]
}
