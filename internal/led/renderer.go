package led

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/hybridz/stripalerts/internal/alerts"
)

// Renderer drains the alert queue and drives the strip. It is the only
// component that touches the actuator. When the queue is empty it shows an
// idle visual: the active window color if one is set, otherwise the ambient
// animation. Actuator faults switch it into a degraded mode that keeps
// draining the queue without touching the strip, so the polling side is
// never blocked by broken hardware.
type Renderer struct {
	Strip   Strip
	Queue   *alerts.Dispatcher
	Ambient string        // ambient animation name, shown while idle
	Grace   time.Duration // cap on finishing the current alert at shutdown

	// IdleRecheck bounds how often the idle visual is re-evaluated, so an
	// expiring color window falls back to ambient without a new alert.
	IdleRecheck time.Duration

	degraded atomic.Bool
	rendered atomic.Uint64
	dropped  atomic.Uint64
	lastIdle string
}

// Rendered returns the number of alerts played on the strip.
func (r *Renderer) Rendered() uint64 { return r.rendered.Load() }

// Dropped returns the number of alerts discarded in degraded mode.
func (r *Renderer) Dropped() uint64 { return r.dropped.Load() }

// Degraded reports whether an actuator fault has disabled output.
func (r *Renderer) Degraded() bool { return r.degraded.Load() }

// Run drives the strip until ctx is cancelled, then finishes the current
// alert (capped at Grace) and clears the strip. It blocks only on the queue
// and on alert timing, never on network I/O.
func (r *Renderer) Run(ctx context.Context) error {
	r.applyIdle(true)

	idle := time.NewTicker(r.IdleRecheck)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return r.shutdown(ctx)
		case <-idle.C:
			r.applyIdle(false)
		case <-r.Queue.Ready():
			r.drain(ctx)
			if ctx.Err() != nil {
				return r.shutdown(ctx)
			}
			r.applyIdle(true)
		}
	}
}

// drain plays queued alerts back to back with no idle gap between them.
func (r *Renderer) drain(ctx context.Context) {
	for {
		a, ok := r.Queue.Next()
		if !ok {
			return
		}
		r.play(ctx, a)
		if ctx.Err() != nil {
			return
		}
	}
}

func (r *Renderer) play(ctx context.Context, a alerts.Alert) {
	if r.degraded.Load() {
		r.dropped.Add(1)
		log.Printf("renderer: degraded, dropping %s alert %s (event %s)", a.Tier, a.ID, a.SourceID)
		return
	}

	var err error
	switch a.Tier {
	case alerts.TierColor:
		if err = r.Strip.SetColor(a.Color); err == nil {
			err = r.Strip.PlayAnimation(a.Animation, a.Duration)
		}
	default:
		err = r.Strip.PlayAnimation(a.Animation, a.Duration)
	}
	if err != nil {
		r.fault(err, a)
		return
	}
	r.rendered.Add(1)

	// Hold the alert for its duration. On shutdown the remaining time is
	// capped at the grace period.
	t := time.NewTimer(a.Duration)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		select {
		case <-t.C:
		case <-time.After(r.Grace):
		}
	}
}

// fault switches the renderer into degraded mode. The queue keeps draining
// so producers are unaffected; only output stops.
func (r *Renderer) fault(err error, a alerts.Alert) {
	r.dropped.Add(1)
	if r.degraded.CompareAndSwap(false, true) {
		log.Printf("renderer: actuator fault, entering degraded mode: %v", err)
	}
	log.Printf("renderer: dropping %s alert %s (event %s)", a.Tier, a.ID, a.SourceID)
}

// applyIdle shows the idle visual: the active window color when one is set,
// otherwise the ambient animation. Reapplied only when it changes unless
// force is true.
func (r *Renderer) applyIdle(force bool) {
	if r.degraded.Load() {
		return
	}

	key := "ambient"
	color, hasColor := r.Queue.ActiveColor()
	if hasColor {
		key = "color:" + color.Name
	}
	if key == r.lastIdle && !force {
		return
	}

	var err error
	if hasColor {
		err = r.Strip.SetColor(color)
	} else {
		err = r.Strip.PlayAnimation(r.Ambient, 0)
	}
	if err != nil {
		if r.degraded.CompareAndSwap(false, true) {
			log.Printf("renderer: actuator fault, entering degraded mode: %v", err)
		}
		return
	}
	r.lastIdle = key
}

// shutdown clears the strip before exit. A clear failure is logged, not fatal.
func (r *Renderer) shutdown(ctx context.Context) error {
	if err := r.Strip.Clear(); err != nil {
		log.Printf("renderer: clear on shutdown failed: %v", err)
	} else {
		log.Printf("renderer: stopped, strip cleared")
	}
	return ctx.Err()
}
