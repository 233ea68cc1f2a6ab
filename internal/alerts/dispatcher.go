package alerts

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Dispatcher owns the alert queue and the color window. The polling side
// enqueues through Dispatch; the render loop pops through Next and waits on
// Ready. The queue is the only state shared between the two activities.
type Dispatcher struct {
	QueueDepth  int
	ColorWindow time.Duration

	mu          sync.Mutex
	queue       []Alert
	windowUntil time.Time
	activeColor Color
	hasColor    bool

	ready      chan struct{}
	now        func() time.Time
	dispatched atomic.Uint64
	coalesced  atomic.Uint64
}

// NewDispatcher creates a dispatcher. A queueDepth of 0 disables coalescing.
func NewDispatcher(queueDepth int, colorWindow time.Duration) *Dispatcher {
	return &Dispatcher{
		QueueDepth:  queueDepth,
		ColorWindow: colorWindow,
		ready:       make(chan struct{}, 1),
		now:         time.Now,
	}
}

// Dispatched returns the number of alerts enqueued so far.
func (d *Dispatcher) Dispatched() uint64 { return d.dispatched.Load() }

// Coalesced returns the number of standard alerts dropped under queue pressure.
func (d *Dispatcher) Coalesced() uint64 { return d.coalesced.Load() }

// Dispatch enqueues an alert for rendering. NONE-tier alerts are dropped.
// A COLOR alert backed by a tip opens (or renews) the color window; a
// chat-originated COLOR alert only updates the active color. When the queue
// exceeds the configured depth the oldest pending STANDARD alert is dropped;
// COLOR alerts are never dropped, only deferred.
func (d *Dispatcher) Dispatch(a Alert) {
	if a.Tier == TierNone {
		return
	}

	d.mu.Lock()
	if a.Tier == TierColor {
		d.activeColor = a.Color
		d.hasColor = true
		if a.TipTokens > 0 {
			d.windowUntil = d.now().Add(d.ColorWindow)
		}
	}

	d.queue = append(d.queue, a)
	if d.QueueDepth > 0 && len(d.queue) > d.QueueDepth {
		d.dropOldestStandardLocked()
	}
	d.mu.Unlock()

	d.dispatched.Add(1)

	select {
	case d.ready <- struct{}{}:
	default:
	}
}

// dropOldestStandardLocked removes the oldest STANDARD alert from the queue.
// If every queued alert is COLOR the queue is allowed to exceed its depth.
func (d *Dispatcher) dropOldestStandardLocked() {
	for i, a := range d.queue {
		if a.Tier == TierStandard {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			d.coalesced.Add(1)
			log.Printf("dispatcher: queue full, coalescing standard alert %s (event %s)", a.ID, a.SourceID)
			return
		}
	}
}

// Next pops the oldest pending alert, if any.
func (d *Dispatcher) Next() (Alert, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) == 0 {
		return Alert{}, false
	}
	a := d.queue[0]
	d.queue = d.queue[1:]
	return a, true
}

// Ready signals that at least one alert has been enqueued since the last
// drain. Consumers should pop with Next until it returns false.
func (d *Dispatcher) Ready() <-chan struct{} {
	return d.ready
}

// Len returns the number of pending alerts.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// WindowOpen reports whether the color window is currently active.
func (d *Dispatcher) WindowOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now().Before(d.windowUntil)
}

// ActiveColor returns the color requested by the most recent COLOR alert.
// It is only valid while the color window is open.
func (d *Dispatcher) ActiveColor() (Color, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasColor || !d.now().Before(d.windowUntil) {
		return Color{}, false
	}
	return d.activeColor, true
}
