// Package health exposes the HTTP status endpoint used by external uptime
// monitors.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/froosterton/lookup/scrape"
)

// StatusSource reports the crawler state rendered by the endpoint.
type StatusSource interface {
	Snapshot() scrape.Snapshot
}

type Server struct {
	srv    *http.Server
	source StatusSource
}

type statusResponse struct {
	Status      string `json:"status"`
	Scraping    bool   `json:"scraping"`
	TotalLogged int    `json:"totalLogged"`
	Timestamp   string `json:"timestamp"`
}

func NewServer(port int, source StatusSource) *Server {
	s := &Server{source: source}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatus)
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(statusResponse{
		Status:      "healthy",
		Scraping:    snap.Crawling,
		TotalLogged: snap.TotalMatches,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		slog.Error("failed to write status response", slog.String("err", err.Error()))
	}
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health server stopped", slog.String("err", err.Error()))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
