// Package webui provides the optional HTTP status and metrics surface for
// the bot process.
package webui

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"replybot/pkg/config"
	"replybot/pkg/logx"
	"replybot/pkg/metrics"
	"replybot/pkg/version"
)

// Server exposes health, status, and Prometheus metrics over HTTP.
type Server struct {
	cfg     config.Config
	query   *metrics.QueryService // may be nil when no Prometheus URL is configured
	logger  *logx.Logger
	started time.Time
}

// StatusResponse is the payload of GET /status.
type StatusResponse struct {
	Status        string          `json:"status"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Provider      string          `json:"provider"`
	Model         string          `json:"model"`
	MinRating     int             `json:"min_rating"`
	Totals        *metrics.Totals `json:"totals,omitempty"`
}

// NewServer creates a status server for cfg. query may be nil.
func NewServer(cfg config.Config, query *metrics.QueryService) *Server {
	return &Server{
		cfg:     cfg,
		query:   query,
		logger:  logx.NewLogger("webui"),
		started: time.Now(),
	}
}

// RegisterRoutes sets up HTTP routes.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())
}

// handleHealth implements GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]string{
		"status":  "ok",
		"version": version.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleStatus implements GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := StatusResponse{
		Status:        "running",
		Version:       version.Version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Provider:      s.cfg.Generation.Provider,
		Model:         s.cfg.Generation.Model,
		MinRating:     s.cfg.MinRating,
	}

	// Aggregates are best effort: a Prometheus outage must not break status.
	if s.query != nil {
		totals, err := s.query.GetTotals(r.Context())
		if err != nil {
			s.logger.Warn("Failed to query totals: %v", err)
		} else {
			response.Totals = totals
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode status response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// StartServer starts the HTTP server in the background and shuts it down
// when ctx is cancelled.
func (s *Server) StartServer(ctx context.Context) error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              s.cfg.Web.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting status server on %s", s.cfg.Web.Addr)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down status server")
		// Parent context is cancelled; shutdown needs a fresh one.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown failed: %v", err)
		}
	}()

	return nil
}
