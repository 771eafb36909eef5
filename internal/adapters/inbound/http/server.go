package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/archon-research/stl/vault-solver/internal/ports/inbound"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g., ":8080").
	Addr string

	Logger *slog.Logger

	ReadTimeout time.Duration

	// WriteTimeout must exceed Solve.MaxTimeLimit or long solves are cut off.
	WriteTimeout time.Duration

	Solve SolveHandlerConfig
}

// ServerConfigDefaults returns a config with default values.
func ServerConfigDefaults() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		Logger:       slog.Default(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
		Solve:        solveHandlerConfigDefaults(),
	}
}

// Server hosts the solve endpoint and the health probes.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new server. shuttingDown is shared with the process so
// probes fail as soon as shutdown begins.
func NewServer(config ServerConfig, solver inbound.Solver, checker inbound.HealthChecker, shuttingDown *atomic.Bool) *Server {
	defaults := ServerConfigDefaults()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.Solve.Logger == nil {
		config.Solve.Logger = config.Logger
	}

	logger := config.Logger.With("component", "http-server")

	mux := http.NewServeMux()
	NewSolveHandler(solver, config.Solve).RegisterRoutes(mux)
	NewHealthHandler(checker, shuttingDown, logger).RegisterRoutes(mux)

	return &Server{
		server: &http.Server{
			Addr:         config.Addr,
			Handler:      mux,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		logger: logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves in the background.
// Listen errors are returned; serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("starting http server", "addr", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server, waiting up to timeout for in-flight
// solves.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
