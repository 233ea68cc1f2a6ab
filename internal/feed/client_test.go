package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFeedURL(t *testing.T) {
	got := FeedURL("https://example.com/events/", "alice", "tok/en", 10)
	want := "https://example.com/events/alice/tok%2Fen/?timeout=10"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(FeedResponse{
			Events: []Event{
				{
					Method: MethodTip,
					ID:     "e1",
					Object: &EventObject{Tip: &Tip{Tokens: 35, Message: "red"}},
				},
			},
			NextURL: "https://example.com/next",
		})
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	page, err := client.FetchEvents(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(page.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(page.Events))
	}
	ev := page.Events[0]
	if ev.Method != MethodTip || ev.Object == nil || ev.Object.Tip == nil {
		t.Fatalf("tip event not parsed: %+v", ev)
	}
	if ev.Object.Tip.Tokens != 35 {
		t.Errorf("tokens = %d, want 35", ev.Object.Tip.Tokens)
	}
	if page.NextURL != "https://example.com/next" {
		t.Errorf("nextUrl = %q", page.NextURL)
	}
}

func TestFetchEventsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.FetchEvents(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !IsServerError(err) {
		t.Errorf("IsServerError = false for %v", err)
	}
}

func TestFetchEventsClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.FetchEvents(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if IsServerError(err) {
		t.Errorf("IsServerError = true for %v", err)
	}
}

func TestFetchEventsCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := NewClient(5 * time.Second)
	if _, err := client.FetchEvents(ctx, srv.URL); err == nil {
		t.Fatal("expected error when context is cancelled mid-request")
	}
}
