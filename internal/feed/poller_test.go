package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// scriptedFeed serves a fixed sequence of responses and records the request
// paths it saw.
type scriptedFeed struct {
	mu    sync.Mutex
	step  int
	paths []string
	srv   *httptest.Server
	pages func(step int, host string) (int, FeedResponse)
}

func newScriptedFeed(t *testing.T, pages func(step int, host string) (int, FeedResponse)) *scriptedFeed {
	t.Helper()
	f := &scriptedFeed{pages: pages}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.step++
		step := f.step
		f.paths = append(f.paths, r.URL.Path)
		f.mu.Unlock()

		status, page := f.pages(step, f.srv.URL)
		if status != http.StatusOK {
			http.Error(w, "simulated failure", status)
			return
		}
		json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *scriptedFeed) requestPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func collectEvents(t *testing.T, p *Poller, want int) []Event {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan Event, want)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	var got []Event
	timeout := time.After(5 * time.Second)
	for len(got) < want {
		select {
		case ev := <-out:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(got), want)
		}
	}

	cancel()
	<-done
	return got
}

func tipEvent(id string, tokens int) Event {
	return Event{
		Method: MethodTip,
		ID:     id,
		Object: &EventObject{Tip: &Tip{Tokens: tokens}},
	}
}

// TestPollerRecoversFromTransportFailure simulates three consecutive fetch
// failures followed by success: no events are lost, the cursor is unaffected
// by the failed attempts, and backoff delays are observed between attempts.
func TestPollerRecoversFromTransportFailure(t *testing.T) {
	feed := newScriptedFeed(t, func(step int, host string) (int, FeedResponse) {
		switch {
		case step <= 3:
			return http.StatusServiceUnavailable, FeedResponse{}
		case step == 4:
			return http.StatusOK, FeedResponse{
				Events:  []Event{tipEvent("e1", 10), tipEvent("e2", 20)},
				NextURL: host + "/page2",
			}
		default:
			return http.StatusOK, FeedResponse{
				Events:  []Event{tipEvent("e3", 30)},
				NextURL: host + "/tail",
			}
		}
	})

	const retry = 15 * time.Millisecond
	p := &Poller{
		Client:       NewClient(time.Second),
		StartURL:     feed.srv.URL + "/start",
		InitialRetry: retry,
		MaxRetry:     time.Second,
		RetryFactor:  2,
	}

	start := time.Now()
	got := collectEvents(t, p, 3)
	elapsed := time.Since(start)

	for i, want := range []string{"e1", "e2", "e3"} {
		if got[i].ID != want {
			t.Errorf("event %d = %s, want %s", i, got[i].ID, want)
		}
	}

	paths := feed.requestPaths()
	// The first four requests must all hit the start URL: failures never
	// advance the cursor.
	for i := 0; i < 4; i++ {
		if paths[i] != "/start" {
			t.Errorf("request %d went to %s, want /start", i, paths[i])
		}
	}
	if paths[4] != "/page2" {
		t.Errorf("request 4 went to %s, want /page2", paths[4])
	}

	// Three failures at the initial delay (5xx does not escalate).
	if elapsed < 3*retry {
		t.Errorf("elapsed %s, want at least %s of backoff", elapsed, 3*retry)
	}
}

func TestPollerExponentialBackoffOnClientErrors(t *testing.T) {
	feed := newScriptedFeed(t, func(step int, host string) (int, FeedResponse) {
		if step <= 3 {
			return http.StatusTooManyRequests, FeedResponse{}
		}
		return http.StatusOK, FeedResponse{
			Events:  []Event{tipEvent("e1", 5)},
			NextURL: host + "/tail",
		}
	})

	const retry = 10 * time.Millisecond
	p := &Poller{
		Client:       NewClient(time.Second),
		StartURL:     feed.srv.URL + "/start",
		InitialRetry: retry,
		MaxRetry:     time.Second,
		RetryFactor:  2,
	}

	start := time.Now()
	collectEvents(t, p, 1)
	elapsed := time.Since(start)

	// Delays double each failure: 20ms + 40ms + 80ms.
	if want := 140 * time.Millisecond; elapsed < want {
		t.Errorf("elapsed %s, want at least %s of escalating backoff", elapsed, want)
	}
}

// TestPollerNeverRedelivers feeds a page that repeats an already-delivered
// event ID and checks it is emitted exactly once.
func TestPollerNeverRedelivers(t *testing.T) {
	feed := newScriptedFeed(t, func(step int, host string) (int, FeedResponse) {
		switch step {
		case 1:
			return http.StatusOK, FeedResponse{
				Events:  []Event{tipEvent("e1", 10), tipEvent("e2", 20)},
				NextURL: host + "/page2",
			}
		case 2:
			return http.StatusOK, FeedResponse{
				Events:  []Event{tipEvent("e2", 20), tipEvent("e3", 30)},
				NextURL: host + "/tail",
			}
		default:
			return http.StatusOK, FeedResponse{NextURL: host + "/tail"}
		}
	})

	p := &Poller{
		Client:       NewClient(time.Second),
		StartURL:     feed.srv.URL + "/start",
		InitialRetry: 10 * time.Millisecond,
		MaxRetry:     time.Second,
		RetryFactor:  2,
	}

	got := collectEvents(t, p, 3)

	seen := map[string]int{}
	for _, ev := range got {
		seen[ev.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("event %s delivered %d times", id, n)
		}
	}
	if p.Duplicates() != 1 {
		t.Errorf("Duplicates() = %d, want 1", p.Duplicates())
	}
	if p.Fetched() != 3 {
		t.Errorf("Fetched() = %d, want 3", p.Fetched())
	}
}
