// Package timeline owns the year cursor shared by the line chart and the map.
//
// A Controller is a small state machine (stopped or playing) over a year in
// [Min, Max]. It is driven deterministically by Tick; a Player wraps it with
// a real-time ticker for interactive use. Every state change is pushed to
// subscribers synchronously, in registration order.
package timeline

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vanderheijden86/vizsync/pkg/debug"
	"github.com/vanderheijden86/vizsync/pkg/metrics"
)

// DefaultPeriod is the time between year increments while playing.
const DefaultPeriod = 500 * time.Millisecond

// AllSeries is the active-series value that shows every line at full
// opacity.
const AllSeries = "all"

// Dimmed is the opacity of series other than the active one.
const Dimmed = 0.1

var (
	ErrInvalidRange   = errors.New("invalid year range")
	ErrAlreadyRunning = errors.New("player already running")
)

// State is a snapshot of the controller.
type State struct {
	Year         int
	Min          int
	Max          int
	Playing      bool
	ActiveSeries string
}

// Option configures a Controller.
type Option func(*Controller)

// WithPeriod sets the play period. Non-positive values keep the default.
func WithPeriod(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.period = d
		}
	}
}

type subscriber struct {
	id  uint64
	key string
	fn  func(State)
}

// Controller is safe for concurrent use. Subscribers are called without the
// lock held, so they may query or drive the controller.
type Controller struct {
	mu      sync.Mutex
	min     int
	max     int
	year    int
	playing bool
	acc     time.Duration
	period  time.Duration
	active  string
	subs    []subscriber
	subSeq  uint64
}

// NewController creates a stopped controller positioned at maxYear.
func NewController(minYear, maxYear int, opts ...Option) (*Controller, error) {
	if minYear > maxYear {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRange, minYear, maxYear)
	}
	c := &Controller{
		min:    minYear,
		max:    maxYear,
		year:   maxYear,
		period: DefaultPeriod,
		active: AllSeries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Period returns the play period.
func (c *Controller) Period() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.period
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Year returns the cursor.
func (c *Controller) Year() int {
	return c.State().Year
}

// Playing reports whether playback is running.
func (c *Controller) Playing() bool {
	return c.State().Playing
}

func (c *Controller) stateLocked() State {
	return State{
		Year:         c.year,
		Min:          c.min,
		Max:          c.max,
		Playing:      c.playing,
		ActiveSeries: c.active,
	}
}

// update runs fn under the lock and, if it reports a change, notifies
// subscribers with the resulting state.
func (c *Controller) update(fn func() bool) {
	c.mu.Lock()
	changed := fn()
	st := c.stateLocked()
	subs := append([]subscriber(nil), c.subs...)
	c.mu.Unlock()

	if changed {
		notify(subs, st)
	}
}

func notify(subs []subscriber, st State) {
	for _, s := range subs {
		s.fn(st)
	}
}

// SetYear moves the cursor, clamping to [Min, Max], and stops playback the
// way dragging the slider does.
func (c *Controller) SetYear(year int) {
	c.update(func() bool {
		clamped := min(max(year, c.min), c.max)
		if clamped != year {
			debug.Log("timeline: year %d out of range [%d,%d], using %d", year, c.min, c.max, clamped)
		}
		c.year = clamped
		c.playing = false
		c.acc = 0
		return true
	})
}

// Step moves the cursor by delta years and stops playback.
func (c *Controller) Step(delta int) {
	c.SetYear(c.Year() + delta)
}

// Play starts playback. It is a no-op while already playing. Starting at Max
// rewinds to Min first so the animation has somewhere to go.
func (c *Controller) Play() {
	c.update(func() bool {
		if c.playing {
			return false
		}
		if c.year >= c.max {
			c.year = c.min
		}
		c.playing = true
		c.acc = 0
		return true
	})
}

// Pause stops playback. No increment happens after Pause returns.
func (c *Controller) Pause() {
	c.update(func() bool {
		if !c.playing {
			return false
		}
		c.playing = false
		c.acc = 0
		return true
	})
}

// Toggle plays when stopped and pauses when playing.
func (c *Controller) Toggle() {
	if c.Playing() {
		c.Pause()
		return
	}
	c.Play()
}

// Tick advances playback by dt. Each full period moves the cursor one year;
// moving past Max stops playback with the cursor left at Max. It reports
// whether playback is still running.
func (c *Controller) Tick(dt time.Duration) bool {
	defer metrics.Timer(metrics.TimelineTick)()

	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return false
	}
	c.acc += dt
	var states []State
	for c.playing && c.acc >= c.period {
		c.acc -= c.period
		if c.year+1 > c.max {
			c.playing = false
			c.acc = 0
		} else {
			c.year++
		}
		states = append(states, c.stateLocked())
	}
	playing := c.playing
	subs := append([]subscriber(nil), c.subs...)
	c.mu.Unlock()

	for _, st := range states {
		notify(subs, st)
	}
	return playing
}

// Reset rebounds the controller after a dataset reload. The cursor returns to
// the new Max and playback stops.
func (c *Controller) Reset(minYear, maxYear int) error {
	if minYear > maxYear {
		return fmt.Errorf("%w: %d > %d", ErrInvalidRange, minYear, maxYear)
	}
	c.update(func() bool {
		c.min, c.max = minYear, maxYear
		c.year = maxYear
		c.playing = false
		c.acc = 0
		return true
	})
	return nil
}

// ToggleSeries makes key the active series, or restores AllSeries when key
// is already active.
func (c *Controller) ToggleSeries(key string) {
	c.update(func() bool {
		if c.active == key {
			c.active = AllSeries
		} else {
			c.active = key
		}
		return true
	})
}

// SeriesOpacity returns 1 for the active series (or every series when all
// are active) and Dimmed otherwise.
func (c *Controller) SeriesOpacity(key string) float64 {
	st := c.State()
	return seriesOpacity(st.ActiveSeries, key)
}

func seriesOpacity(active, key string) float64 {
	if active == AllSeries || active == key {
		return 1
	}
	return Dimmed
}

// Subscribe registers fn under key. Subscribing an existing key replaces its
// callback in place. The returned function unregisters this registration
// only; it does nothing once the key has been subscribed again.
func (c *Controller) Subscribe(key string, fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subSeq++
	id := c.subSeq
	for i := range c.subs {
		if c.subs[i].key == key {
			c.subs[i].fn = fn
			c.subs[i].id = id
			return c.unsubscriber(id)
		}
	}
	c.subs = append(c.subs, subscriber{id: id, key: key, fn: fn})
	return c.unsubscriber(id)
}

func (c *Controller) unsubscriber(id uint64) func() {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i := range c.subs {
			if c.subs[i].id == id {
				c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
				return
			}
		}
	}
}
