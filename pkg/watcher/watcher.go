// Package watcher reloads datasets when their files change on disk. It
// watches the containing directory through fsnotify so atomic saves are seen,
// and falls back to stat polling on network filesystems or on request.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/vizsync/pkg/debug"
)

// DefaultPollInterval is the stat interval in polling mode.
const DefaultPollInterval = 2 * time.Second

// EnvForcePoll forces polling mode for every watcher when truthy.
const EnvForcePoll = "VIZSYNC_FORCE_POLL"

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Mode is how a watcher learns about changes.
type Mode int

const (
	ModeNotify Mode = iota
	ModePoll
)

func (m Mode) String() string {
	if m == ModePoll {
		return "poll"
	}
	return "notify"
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the quiet period before a change is reported.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat interval used in polling mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.pollEvery = d }
}

// WithOnChange sets the callback run after a debounced change.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback run on removal, permission or watch errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll selects polling mode regardless of the filesystem.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) { w.forcePoll = force }
}

// stamp is what polling compares between ticks.
type stamp struct {
	mod  time.Time
	size int64
}

func (s stamp) exists() bool { return !s.mod.IsZero() }

func statStamp(path string) (stamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}, err
	}
	return stamp{mod: info.ModTime(), size: info.Size()}, nil
}

// Watcher monitors one dataset file.
type Watcher struct {
	path      string
	debounce  time.Duration
	pollEvery time.Duration
	onChange  func()
	onError   func(error)
	forcePoll bool

	mu      sync.RWMutex
	started bool
	mode    Mode
	fsType  FilesystemType
	last    stamp
	notify  *fsnotify.Watcher
	cancel  context.CancelFunc

	debouncer *Debouncer
	changed   chan struct{}
}

// NewWatcher creates a stopped watcher for path.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:      abs,
		debounce:  DefaultDebounceDuration,
		pollEvery: DefaultPollInterval,
		onChange:  func() {},
		onError:   func(error) {},
		changed:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounce)
	return w, nil
}

// Start begins watching. A file that does not exist yet is picked up once
// it is created.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	last, err := statStamp(w.path)
	if errors.Is(err, fs.ErrPermission) {
		return ErrPermission
	}
	w.last = last
	w.fsType = DetectFilesystemType(w.path)
	w.mode = ModePoll
	if !w.forcePoll && !envBool(EnvForcePoll) && !isRemoteFilesystem(w.fsType) {
		if nw, err := w.openNotify(); err == nil {
			w.notify = nw
			w.mode = ModeNotify
		} else {
			debug.Log("watcher: fsnotify unavailable for %s: %v", w.path, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	if w.mode == ModeNotify {
		debug.Log("watcher: fsnotify on %s", filepath.Dir(w.path))
		go w.runNotify(ctx, w.notify.Events, w.notify.Errors)
	} else {
		debug.Log("watcher: polling %s every %v (fs=%s)", w.path, w.pollEvery, w.fsType)
		go w.runPoll(ctx)
	}
	w.started = true
	return nil
}

// openNotify watches the parent directory so renames onto the file count.
func (w *Watcher) openNotify() (*fsnotify.Watcher, error) {
	nw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := nw.Add(filepath.Dir(w.path)); err != nil {
		nw.Close()
		return nil, err
	}
	return nw, nil
}

// Stop stops watching and drops a pending change. Stopping twice is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.notify != nil {
		w.notify.Close()
		w.notify = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// Mode reports how changes are detected. Only meaningful after Start.
func (w *Watcher) Mode() Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mode
}

// IsPolling reports whether the watcher fell back to polling.
func (w *Watcher) IsPolling() bool { return w.Mode() == ModePoll }

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed receives once per debounced change. It is never closed.
func (w *Watcher) Changed() <-chan struct{} { return w.changed }

// Path returns the absolute watched path.
func (w *Watcher) Path() string { return w.path }

// FilesystemType returns the filesystem classification made by Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval.
func (w *Watcher) PollInterval() time.Duration { return w.pollEvery }

var truthy = map[string]bool{"1": true, "true": true, "yes": true, "y": true, "on": true}

func envBool(name string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(os.Getenv(name)))]
}

func (w *Watcher) runNotify(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	base := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Has(fsnotify.Remove) {
				debug.Warn("watcher: %s removed", w.path)
				w.onError(ErrFileRemoved)
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.debouncer.Trigger(w.fire)
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) runPoll(ctx context.Context) {
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur, err := statStamp(w.path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			w.mu.RLock()
			existed := w.last.exists()
			w.mu.RUnlock()
			if existed {
				w.onError(ErrFileRemoved)
			}
			continue
		case errors.Is(err, fs.ErrPermission):
			w.onError(ErrPermission)
			continue
		case err != nil:
			w.onError(err)
			continue
		}

		w.mu.Lock()
		moved := cur.mod.After(w.last.mod) || cur.size != w.last.size
		if moved {
			w.last = cur
		}
		w.mu.Unlock()
		if moved {
			w.debouncer.Trigger(w.fire)
		}
	}
}

// fire runs the change callback and signals Changed without blocking.
func (w *Watcher) fire() {
	if !w.IsStarted() {
		return
	}
	debug.Log("watcher: %s changed", filepath.Base(w.path))
	w.onChange()
	select {
	case w.changed <- struct{}{}:
	default:
	}
}
