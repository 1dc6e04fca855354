// Package api serves archived telemetry over HTTP: run and lap listings
// plus per-channel sample reads.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/trackside-labs/stint/pkg/store"
)

// Server implements the HTTP API server
type Server struct {
	store  *store.Store
	addr   string
	server *http.Server
}

// NewServer creates a new API server
func NewServer(addr string, s *store.Store) *Server {
	return &Server{
		store: s,
		addr:  addr,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Register handlers
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/laps", s.handleLaps)
	mux.HandleFunc("/api/v1/channels", s.handleChannels)
	mux.HandleFunc("/api/v1/samples", s.handleSamples)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleRuns lists archived run IDs
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{
		"runs": s.store.Runs(),
	})
}

// handleLaps lists a run's archived lap indices
func (s *Server) handleLaps(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "Missing run parameter", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run":  runID,
		"laps": s.store.Laps(runID),
	})
}

// handleChannels lists one lap's channel names
func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	runID, lap, ok := lapParams(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run":      runID,
		"lap":      lap,
		"channels": s.store.ChannelNames(runID, lap),
	})
}

// handleSamples returns one archived channel with its samples
func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	runID, lap, ok := lapParams(w, r)
	if !ok {
		return
	}

	name := r.URL.Query().Get("channel")
	if name == "" {
		http.Error(w, "Missing channel parameter", http.StatusBadRequest)
		return
	}

	ch, err := s.store.Channel(runID, lap, name)
	if err != nil {
		http.Error(w, fmt.Sprintf("Read failed: %v", err), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run":       runID,
		"lap":       lap,
		"channel":   ch.Name,
		"unit":      ch.Unit,
		"frequency": ch.Frequency,
		"samples":   ch.Samples,
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

// lapParams parses the run and lap query parameters shared by the per-lap
// endpoints.
func lapParams(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	runID := r.URL.Query().Get("run")
	if runID == "" {
		http.Error(w, "Missing run parameter", http.StatusBadRequest)
		return "", 0, false
	}

	lapStr := r.URL.Query().Get("lap")
	if lapStr == "" {
		http.Error(w, "Missing lap parameter", http.StatusBadRequest)
		return "", 0, false
	}

	lap, err := strconv.Atoi(lapStr)
	if err != nil {
		http.Error(w, "Invalid lap parameter", http.StatusBadRequest)
		return "", 0, false
	}

	return runID, lap, true
}
