package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/hybridz/stripalerts/internal/feed"
)

// Mock events-feed server for exercising the daemon without real credentials.
// Serves the same page shape as the events API and fabricates a tip event on
// an interval.
func main() {
	addr := flag.String("addr", ":8781", "listen address")
	status := flag.Int("status", 200, "response status to return (non-200 simulates feed failure)")
	tipEvery := flag.Duration("tip-every", 10*time.Second, "interval between fabricated tip events")
	tokens := flag.Int("tokens", 35, "token amount of fabricated tips")
	message := flag.String("message", "red", "message attached to fabricated tips")
	flag.Parse()

	gen := &generator{tokens: *tokens, message: *message}
	go gen.run(*tipEvery)

	http.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
		if *status != http.StatusOK {
			http.Error(w, "simulated failure", *status)
			return
		}

		page := feed.FeedResponse{
			Events:  gen.take(),
			NextURL: nextURL(r),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	})

	log.Printf("mock feed listening on %s (status=%d, tip every %s)", *addr, *status, *tipEvery)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

// generator fabricates tip events on an interval. Pending events are handed
// out once, like the real feed.
type generator struct {
	tokens  int
	message string

	mu      sync.Mutex
	pending []feed.Event
	seq     int
}

func (g *generator) run(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		g.mu.Lock()
		g.seq++
		g.pending = append(g.pending, feed.Event{
			Method: feed.MethodTip,
			ID:     fmt.Sprintf("%d-%d", time.Now().Unix(), g.seq),
			Object: &feed.EventObject{
				User: &feed.User{Username: "myFavoriteTipper"},
				Tip:  &feed.Tip{Tokens: g.tokens, Message: g.message},
			},
		})
		g.mu.Unlock()
	}
}

func (g *generator) take() []feed.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	events := g.pending
	g.pending = nil
	return events
}

func nextURL(r *http.Request) string {
	return fmt.Sprintf("http://%s%s?i=%d&timeout=10", r.Host, r.URL.Path, time.Now().Unix())
}
