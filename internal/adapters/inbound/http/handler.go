// Package http exposes the solver over HTTP:
//   - POST /solve: settle a batch auction
//   - GET /health, /health/ready, /health/live: deployment probes
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/archon-research/stl/vault-solver/internal/domain/entity"
	"github.com/archon-research/stl/vault-solver/internal/ports/inbound"
)

// SolveHandlerConfig holds configuration for the solve endpoint.
type SolveHandlerConfig struct {
	// MaxTimeLimit caps the time_limit a caller may request and is the
	// deadline used when none is given.
	MaxTimeLimit time.Duration

	// MaxBodyBytes limits the size of a batch auction document.
	MaxBodyBytes int64

	Logger *slog.Logger
}

func solveHandlerConfigDefaults() SolveHandlerConfig {
	return SolveHandlerConfig{
		MaxTimeLimit: 30 * time.Second,
		MaxBodyBytes: 16 << 20,
		Logger:       slog.Default(),
	}
}

// SolveHandler decodes batch auctions and returns settlements.
type SolveHandler struct {
	solver inbound.Solver
	config SolveHandlerConfig
	logger *slog.Logger
}

// NewSolveHandler creates a new solve handler.
func NewSolveHandler(solver inbound.Solver, config SolveHandlerConfig) *SolveHandler {
	defaults := solveHandlerConfigDefaults()
	if config.MaxTimeLimit <= 0 {
		config.MaxTimeLimit = defaults.MaxTimeLimit
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	return &SolveHandler{
		solver: solver,
		config: config,
		logger: config.Logger.With("component", "solve-handler"),
	}
}

// RegisterRoutes registers the solve route with mux.
func (h *SolveHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /solve", h.Solve)
}

// Solve handles POST /solve?time_limit=<seconds>.
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	timeLimit, err := h.parseTimeLimit(r.URL.Query().Get("time_limit"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var batch entity.BatchAuction
	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&batch); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid batch auction: %v", err))
		return
	}

	// Continue the caller's trace when the driver sends traceparent.
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, cancel := context.WithTimeout(ctx, timeLimit)
	defer cancel()

	settlement, err := h.solver.Solve(ctx, &batch)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		h.logger.Error("solve failed",
			"auction", batch.AuctionLabel(),
			"orders", len(batch.Orders),
			"timeLimit", timeLimit,
			"error", err)
		h.respondError(w, status, err.Error())
		return
	}

	writeJSON(w, h.logger, http.StatusOK, settlement)
}

// parseTimeLimit parses whole seconds; empty means MaxTimeLimit.
func (h *SolveHandler) parseTimeLimit(raw string) (time.Duration, error) {
	if raw == "" {
		return h.config.MaxTimeLimit, nil
	}
	seconds, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || seconds == 0 {
		return 0, fmt.Errorf("invalid time_limit %q: must be a positive number of seconds", raw)
	}
	return min(time.Duration(seconds)*time.Second, h.config.MaxTimeLimit), nil
}

func (h *SolveHandler) respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, h.logger, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}
