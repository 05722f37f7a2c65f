package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPlayerPlaysToEnd(t *testing.T) {
	c, err := NewController(2000, 2005, WithPeriod(2*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	p := NewPlayer(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	c.Play()
	waitFor(t, "playback to finish", func() bool { return !c.Playing() })
	if c.Year() != 2005 {
		t.Errorf("Year() = %d, want 2005", c.Year())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if p.Running() {
		t.Error("Running() should be false after Run returns")
	}
}

func TestPlayerSingleRunLoop(t *testing.T) {
	c, err := NewController(2000, 2005, WithPeriod(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	p := NewPlayer(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	waitFor(t, "player to start", p.Running)

	if err := p.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	<-done
}

func TestPlayerPauseHoldsYear(t *testing.T) {
	c, err := NewController(1900, 2100, WithPeriod(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	p := NewPlayer(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	c.Play()
	waitFor(t, "an increment", func() bool { return c.Year() > 1900 })
	c.Pause()
	held := c.Year()
	time.Sleep(10 * time.Millisecond)
	if c.Year() != held {
		t.Errorf("year moved from %d to %d after Pause", held, c.Year())
	}

	cancel()
	<-done
}

func TestPlayerFirstIncrementWaitsFullPeriod(t *testing.T) {
	const period = 200 * time.Millisecond
	c, err := NewController(2000, 2010, WithPeriod(period))
	if err != nil {
		t.Fatal(err)
	}
	c.SetYear(2000)
	p := NewPlayer(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	waitFor(t, "player to start", p.Running)

	// Land Play late in the running interval.
	time.Sleep(170 * time.Millisecond)
	c.Play()
	started := time.Now()
	waitFor(t, "the first increment", func() bool { return c.Year() > 2000 })
	if elapsed := time.Since(started); elapsed < period-30*time.Millisecond {
		t.Errorf("first increment %v after Play, want about %v", elapsed, period)
	}

	c.Pause()
	cancel()
	<-done
}
