package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

// Stats is a snapshot of the pipeline counters exposed by /status.
type Stats struct {
	EventsFetched    uint64 `json:"events_fetched"`
	EventsDuplicate  uint64 `json:"events_duplicate"`
	EventsMalformed  uint64 `json:"events_malformed"`
	AlertsQueued     int    `json:"alerts_queued"`
	AlertsDispatched uint64 `json:"alerts_dispatched"`
	AlertsCoalesced  uint64 `json:"alerts_coalesced"`
	AlertsRendered   uint64 `json:"alerts_rendered"`
	AlertsDropped    uint64 `json:"alerts_dropped"`
	ColorWindowOpen  bool   `json:"color_window_open"`
	Degraded         bool   `json:"degraded"`
}

// Server is a small HTTP server exposing daemon health and pipeline counters.
type Server struct {
	Addr  string
	Stats func() Stats
}

// Run starts the status server and blocks until ctx is cancelled, at which
// point the server is gracefully shut down.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/status", s.handleStatus)

	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("control listen: %w", err)
	}
	log.Printf("control server listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("control serve: %w", err)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Stats()); err != nil {
		log.Printf("control: encode status: %v", err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}
