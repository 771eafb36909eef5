package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/archon-research/stl/vault-solver/internal/testutil"
)

type stubHealthChecker struct {
	ready   bool
	healthy bool
}

func (s *stubHealthChecker) IsReady() bool   { return s.ready }
func (s *stubHealthChecker) IsHealthy() bool { return s.healthy }

func probe(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding %s response: %v", path, err)
	}
	return w.Code, body
}

func TestHealthProbes(t *testing.T) {
	tests := []struct {
		name         string
		ready        bool
		healthy      bool
		shuttingDown bool
		path         string
		wantCode     int
		wantStatus   string
	}{
		{name: "ready", ready: true, healthy: true, path: "/health/ready", wantCode: http.StatusOK, wantStatus: "ready"},
		{name: "not ready", healthy: true, path: "/health/ready", wantCode: http.StatusServiceUnavailable, wantStatus: "not_ready"},
		{name: "ready while draining", ready: true, healthy: true, shuttingDown: true, path: "/health/ready", wantCode: http.StatusServiceUnavailable, wantStatus: "shutting_down"},
		{name: "live", ready: true, healthy: true, path: "/health/live", wantCode: http.StatusOK, wantStatus: "healthy"},
		{name: "chain unreachable", ready: true, path: "/health/live", wantCode: http.StatusServiceUnavailable, wantStatus: "unhealthy"},
		{name: "live while draining", ready: true, healthy: true, shuttingDown: true, path: "/health/live", wantCode: http.StatusServiceUnavailable, wantStatus: "shutting_down"},
		{name: "combined ok", ready: true, healthy: true, path: "/health", wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "combined not ready", healthy: true, path: "/health", wantCode: http.StatusServiceUnavailable, wantStatus: "degraded"},
		{name: "combined unhealthy", ready: true, path: "/health", wantCode: http.StatusServiceUnavailable, wantStatus: "degraded"},
		{name: "combined draining", ready: true, healthy: true, shuttingDown: true, path: "/health", wantCode: http.StatusServiceUnavailable, wantStatus: "shutting_down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var shuttingDown atomic.Bool
			shuttingDown.Store(tt.shuttingDown)

			mux := http.NewServeMux()
			NewHealthHandler(&stubHealthChecker{ready: tt.ready, healthy: tt.healthy}, &shuttingDown, testutil.DiscardLogger()).RegisterRoutes(mux)

			code, body := probe(t, mux, tt.path)
			if code != tt.wantCode {
				t.Errorf("status code = %d, want %d", code, tt.wantCode)
			}
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %q", body["status"], tt.wantStatus)
			}
			if tt.path == "/health" {
				if body["ready"] != (tt.ready && !tt.shuttingDown) {
					t.Errorf("ready = %v", body["ready"])
				}
				if body["healthy"] != (tt.healthy && !tt.shuttingDown) {
					t.Errorf("healthy = %v", body["healthy"])
				}
				if body["shuttingDown"] != tt.shuttingDown {
					t.Errorf("shuttingDown = %v", body["shuttingDown"])
				}
			}
		})
	}
}

func TestHealthHandler_NilShutdownFlag(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(&stubHealthChecker{ready: true, healthy: true}, nil, nil).RegisterRoutes(mux)

	if code, _ := probe(t, mux, "/health/ready"); code != http.StatusOK {
		t.Errorf("status code = %d, want 200", code)
	}
}
