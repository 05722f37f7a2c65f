package timeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vanderheijden86/vizsync/pkg/debug"
)

// Player drives a Controller in real time. At most one Run loop is active per
// Player, so there is never more than one interval timer.
type Player struct {
	ctrl    *Controller
	running atomic.Bool
}

// NewPlayer creates a Player for ctrl.
func NewPlayer(ctrl *Controller) *Player {
	return &Player{ctrl: ctrl}
}

// Running reports whether Run is active.
func (p *Player) Running() bool {
	return p.running.Load()
}

// Run ticks the controller every period until ctx is cancelled. Ticks while
// the controller is stopped are ignored, so Play and Pause take effect
// without restarting the loop. The interval restarts whenever playback
// starts, so the first increment lands one full period after Play.
func (p *Player) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	restart := make(chan struct{}, 1)
	var playing atomic.Bool
	playing.Store(p.ctrl.Playing())
	unsubscribe := p.ctrl.Subscribe("player", func(st State) {
		if st.Playing && !playing.Swap(true) {
			select {
			case restart <- struct{}{}:
			default:
			}
		}
		if !st.Playing {
			playing.Store(false)
		}
	})
	defer unsubscribe()

	period := p.ctrl.Period()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	debug.Log("timeline: player started, period %v", period)

	resetTicker := func() {
		ticker.Reset(period)
		select {
		case <-ticker.C:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			debug.Log("timeline: player stopped")
			return nil
		case <-restart:
			resetTicker()
		case <-ticker.C:
			// Play may have landed just before this tick was delivered.
			select {
			case <-restart:
				resetTicker()
				continue
			default:
			}
			p.ctrl.Tick(period)
		}
	}
}
