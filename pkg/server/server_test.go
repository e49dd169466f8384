package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samsk/proxystats/pkg/config"
	"github.com/samsk/proxystats/pkg/telemetry/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mcfg := &config.MetricsConfig{
		Enabled:       true,
		Namespace:     "test",
		MaxSeries:     64,
		Shards:        4,
		WorkerStripes: 4,
	}
	registry := metrics.NewRegistry(mcfg, testLogger())
	c := registry.NewCounter("requests_total", "Total requests.", nil)
	if err := c.Inc(nil, 1, nil); err != nil {
		t.Fatalf("inc failed: %v", err)
	}

	scfg := config.NewDefaultConfig().Server
	return NewServer(&scfg, metrics.NewExposer(registry, testLogger()), testLogger())
}

func TestServer_MetricsRoute(t *testing.T) {
	s := newTestServer(t)
	handler := s.setupRoutes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_requests_total 1") {
		t.Errorf("expected metric sample in body:\n%s", rec.Body.String())
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected request id header on response")
	}
}

func TestServer_HealthzRoute(t *testing.T) {
	s := newTestServer(t)
	handler := s.setupRoutes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok\n" {
		t.Errorf("expected ok body, got %q", rec.Body.String())
	}
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Error("expected generated request id visible to handler")
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Error("expected same id echoed on response")
	}
}

func TestRequestID_PreservesCallerID(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "caller-supplied" {
		t.Errorf("expected caller id preserved, got %q", got)
	}
}
