package timeline

import (
	"errors"
	"testing"
	"time"
)

func newTestController(t *testing.T, minYear, maxYear int) *Controller {
	t.Helper()
	c, err := NewController(minYear, maxYear, WithPeriod(100*time.Millisecond))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func TestNewController(t *testing.T) {
	c, err := NewController(1990, 2017)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	want := State{Year: 2017, Min: 1990, Max: 2017, ActiveSeries: AllSeries}
	if got := c.State(); got != want {
		t.Errorf("State() = %+v, want %+v", got, want)
	}
	if c.Period() != DefaultPeriod {
		t.Errorf("Period() = %v, want %v", c.Period(), DefaultPeriod)
	}

	if _, err := NewController(2000, 1999); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("NewController(2000, 1999) = %v, want ErrInvalidRange", err)
	}
	if _, err := NewController(2000, 2000); err != nil {
		t.Errorf("single-year range should be valid: %v", err)
	}
}

func TestPlayThroughToEnd(t *testing.T) {
	c := newTestController(t, 1990, 2017)
	var years []int
	var stops int
	c.Subscribe("log", func(st State) {
		if st.Playing {
			years = append(years, st.Year)
		} else {
			stops++
		}
	})

	c.Play()
	if c.Year() != 1990 || !c.Playing() {
		t.Fatalf("Play at max should rewind: %+v", c.State())
	}

	for i := 0; i < 27; i++ {
		if !c.Tick(100 * time.Millisecond) {
			t.Fatalf("stopped early at %d", c.Year())
		}
	}
	if c.Year() != 2017 {
		t.Fatalf("Year() = %d after 27 ticks, want 2017", c.Year())
	}
	if c.Tick(100 * time.Millisecond) {
		t.Error("tick past max should stop playback")
	}
	if c.Year() != 2017 || c.Playing() {
		t.Errorf("after end: %+v, want stopped at 2017", c.State())
	}

	// The Play notification plus 27 increments.
	if len(years) != 28 || years[0] != 1990 || years[27] != 2017 {
		t.Errorf("notified years = %v", years)
	}
	if stops != 1 {
		t.Errorf("stop notifications = %d, want 1", stops)
	}
}

func TestTickAccumulates(t *testing.T) {
	c := newTestController(t, 2000, 2010)
	c.SetYear(2000)
	c.Play()

	c.Tick(60 * time.Millisecond)
	if c.Year() != 2000 {
		t.Errorf("partial period advanced to %d", c.Year())
	}
	c.Tick(60 * time.Millisecond)
	if c.Year() != 2001 {
		t.Errorf("Year() = %d, want 2001", c.Year())
	}
	c.Tick(250 * time.Millisecond)
	if c.Year() != 2003 {
		t.Errorf("Year() = %d after catch-up, want 2003", c.Year())
	}
}

func TestTickWhileStopped(t *testing.T) {
	c := newTestController(t, 2000, 2010)
	c.SetYear(2005)
	if c.Tick(time.Second) {
		t.Error("Tick while stopped should report false")
	}
	if c.Year() != 2005 {
		t.Errorf("Year() = %d, want 2005", c.Year())
	}
}

func TestSetYearClampsAndStops(t *testing.T) {
	c := newTestController(t, 1990, 2017)
	c.Play()

	tests := []struct {
		in, want int
	}{
		{2000, 2000},
		{1800, 1990},
		{2050, 2017},
	}
	for _, tt := range tests {
		c.SetYear(tt.in)
		if c.Year() != tt.want {
			t.Errorf("SetYear(%d) -> %d, want %d", tt.in, c.Year(), tt.want)
		}
		if c.Playing() {
			t.Errorf("SetYear(%d) should stop playback", tt.in)
		}
	}

	c.Step(-3)
	if c.Year() != 2014 {
		t.Errorf("Step(-3) -> %d, want 2014", c.Year())
	}
}

func TestPlayIsIdempotent(t *testing.T) {
	c := newTestController(t, 2000, 2010)
	c.SetYear(2003)
	calls := 0
	c.Subscribe("count", func(State) { calls++ })

	c.Play()
	c.Play()
	if calls != 1 {
		t.Errorf("second Play notified: calls = %d, want 1", calls)
	}
	if c.Year() != 2003 {
		t.Errorf("Play mid-range moved cursor to %d", c.Year())
	}
}

func TestPauseStopsIncrements(t *testing.T) {
	c := newTestController(t, 2000, 2010)
	c.SetYear(2000)
	c.Play()
	c.Tick(50 * time.Millisecond)
	c.Pause()
	c.Pause()

	c.Play()
	c.Tick(50 * time.Millisecond)
	if c.Year() != 2000 {
		t.Errorf("accumulator survived Pause: year %d, want 2000", c.Year())
	}
}

func TestToggle(t *testing.T) {
	c := newTestController(t, 2000, 2010)
	c.Toggle()
	if !c.Playing() {
		t.Error("Toggle should start playback")
	}
	c.Toggle()
	if c.Playing() {
		t.Error("Toggle should pause playback")
	}
}

func TestReset(t *testing.T) {
	c := newTestController(t, 2000, 2010)
	c.Play()
	if err := c.Reset(1995, 2020); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	want := State{Year: 2020, Min: 1995, Max: 2020, ActiveSeries: AllSeries}
	if got := c.State(); got != want {
		t.Errorf("State() = %+v, want %+v", got, want)
	}
	if err := c.Reset(3000, 1); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Reset(3000, 1) = %v, want ErrInvalidRange", err)
	}
}

func TestToggleSeries(t *testing.T) {
	c := newTestController(t, 2000, 2010)

	c.ToggleSeries("> 70")
	if got := c.State().ActiveSeries; got != "> 70" {
		t.Errorf("ActiveSeries = %q, want > 70", got)
	}
	if c.SeriesOpacity("> 70") != 1 || c.SeriesOpacity("< 5") != Dimmed {
		t.Errorf("opacity = %v/%v, want 1/%v", c.SeriesOpacity("> 70"), c.SeriesOpacity("< 5"), Dimmed)
	}

	c.ToggleSeries("< 5")
	if got := c.State().ActiveSeries; got != "< 5" {
		t.Errorf("ActiveSeries = %q, want < 5", got)
	}

	c.ToggleSeries("< 5")
	if got := c.State().ActiveSeries; got != AllSeries {
		t.Errorf("ActiveSeries = %q, want %q", got, AllSeries)
	}
	if c.SeriesOpacity("< 5") != 1 {
		t.Error("every series should be opaque when all are active")
	}
}

func TestSubscribeReplaceAndUnsubscribe(t *testing.T) {
	c := newTestController(t, 2000, 2010)
	var order []string
	c.Subscribe("a", func(State) { order = append(order, "a1") })
	c.Subscribe("b", func(State) { order = append(order, "b") })
	c.Subscribe("a", func(State) { order = append(order, "a2") })
	unsubscribe := c.Subscribe("c", func(State) { order = append(order, "c") })
	unsubscribe()

	c.SetYear(2005)
	if len(order) != 2 || order[0] != "a2" || order[1] != "b" {
		t.Errorf("order = %v, want [a2 b]", order)
	}
}

func TestStaleUnsubscribeKeepsReplacement(t *testing.T) {
	c := newTestController(t, 2000, 2010)
	var calls []string
	stale := c.Subscribe("map", func(State) { calls = append(calls, "old") })
	current := c.Subscribe("map", func(State) { calls = append(calls, "new") })
	stale()

	c.SetYear(2003)
	if len(calls) != 1 || calls[0] != "new" {
		t.Fatalf("calls = %v, want [new]", calls)
	}
	current()
	c.SetYear(2004)
	if len(calls) != 1 {
		t.Errorf("unsubscribed callback still ran: %v", calls)
	}
}

func TestSubscriberMayQueryController(t *testing.T) {
	c := newTestController(t, 2000, 2010)
	var seen int
	c.Subscribe("reentrant", func(State) { seen = c.Year() })
	c.SetYear(2004)
	if seen != 2004 {
		t.Errorf("subscriber saw %d, want 2004", seen)
	}
}
