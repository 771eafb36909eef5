package http

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/archon-research/stl/vault-solver/internal/ports/inbound"
)

// HealthHandler serves the deployment probes.
//
// Endpoints:
//   - /health/ready - 200 once the solver accepts requests (readiness probe)
//   - /health/live  - 200 while the chain endpoint answers reads (liveness probe)
//   - /health       - combined status for monitoring
//
// Every probe answers 503 once shuttingDown is set so that the load balancer
// drains the task before the server stops.
type HealthHandler struct {
	checker      inbound.HealthChecker
	shuttingDown *atomic.Bool
	logger       *slog.Logger
}

// NewHealthHandler creates a new health handler. A nil shuttingDown flag is
// treated as never shutting down.
func NewHealthHandler(checker inbound.HealthChecker, shuttingDown *atomic.Bool, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if shuttingDown == nil {
		shuttingDown = new(atomic.Bool)
	}
	return &HealthHandler{
		checker:      checker,
		shuttingDown: shuttingDown,
		logger:       logger,
	}
}

// RegisterRoutes registers the probe routes with mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health/ready", h.handleReady)
	mux.HandleFunc("GET /health/live", h.handleLive)
	mux.HandleFunc("GET /health", h.handleHealth)
}

func (h *HealthHandler) handleReady(w http.ResponseWriter, _ *http.Request) {
	switch {
	case h.shuttingDown.Load():
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
	case h.checker.IsReady():
		writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ready"})
	default:
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
	}
}

func (h *HealthHandler) handleLive(w http.ResponseWriter, _ *http.Request) {
	switch {
	case h.shuttingDown.Load():
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
	case h.checker.IsHealthy():
		writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "healthy"})
	default:
		writeJSON(w, h.logger, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	shuttingDown := h.shuttingDown.Load()
	ready := !shuttingDown && h.checker.IsReady()
	healthy := !shuttingDown && h.checker.IsHealthy()

	status, code := "ok", http.StatusOK
	switch {
	case shuttingDown:
		status, code = "shutting_down", http.StatusServiceUnavailable
	case !ready || !healthy:
		status, code = "degraded", http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, code, map[string]any{
		"status":       status,
		"ready":        ready,
		"healthy":      healthy,
		"shuttingDown": shuttingDown,
	})
}
