package feed

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Poller long-polls the events API and emits each new event exactly once.
// The cursor is the nextUrl returned by the API; it only advances on a
// successful fetch, so failed attempts never skip or redeliver events.
type Poller struct {
	Client       *Client
	StartURL     string
	InitialRetry time.Duration
	MaxRetry     time.Duration
	RetryFactor  int

	seen       sync.Map // event ID → struct{}
	fetched    atomic.Uint64
	duplicates atomic.Uint64
}

// Fetched returns the number of unique events emitted so far.
func (p *Poller) Fetched() uint64 { return p.fetched.Load() }

// Duplicates returns the number of already-seen events skipped.
func (p *Poller) Duplicates() uint64 { return p.duplicates.Load() }

// Run polls the feed until ctx is cancelled, sending each new event to out.
// Transport errors back off exponentially up to MaxRetry; 5xx responses are
// treated as routine long-poll turnover and retried at the initial delay.
// Cancellation is checked between attempts, never mid-backoff-cycle beyond
// the in-flight request (which carries ctx itself).
func (p *Poller) Run(ctx context.Context, out chan<- Event) error {
	url := p.StartURL
	delay := p.InitialRetry

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		page, err := p.Client.FetchEvents(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			if IsServerError(err) {
				delay = p.InitialRetry
			} else {
				delay = min(delay*time.Duration(p.RetryFactor), p.MaxRetry)
			}
			if delay >= p.MaxRetry {
				log.Printf("poller: %v, retrying at %s interval", ErrSourceUnavailable, delay)
			} else {
				log.Printf("poller: fetch failed: %v, retrying in %s", err, delay)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		delay = p.InitialRetry
		if page.NextURL != "" {
			url = page.NextURL
		}

		for _, ev := range page.Events {
			if _, loaded := p.seen.LoadOrStore(ev.ID, struct{}{}); loaded {
				p.duplicates.Add(1)
				log.Printf("poller: skipping duplicate event %s", ev.ID)
				continue
			}
			p.fetched.Add(1)

			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// StartCleanup periodically clears the dedup set to bound memory usage.
// For simplicity the entire set is cleared; the worst case is one duplicate
// event right after cleanup, which the cursor makes unlikely.
func (p *Poller) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.seen.Range(func(key, _ interface{}) bool {
				p.seen.Delete(key)
				return true
			})
		}
	}
}
