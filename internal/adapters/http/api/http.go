// Package api serves the status endpoints of a running pipeline.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/guildsnap/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the status routes.
type Server struct {
	health *HealthHandler
}

// NewServer creates a status server reading run state from status.
func NewServer(status StatusProvider) *Server {
	return &Server{health: NewHealthHandler(status)}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
