package health

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/samsk/proxystats/pkg/config"
	"github.com/samsk/proxystats/pkg/telemetry/metrics"
)

func newReachableGauge(t *testing.T) *metrics.Gauge {
	t.Helper()
	r := metrics.NewRegistry(&config.MetricsConfig{
		Enabled:       true,
		MaxSeries:     16,
		Shards:        4,
		WorkerStripes: 4,
	}, testLogger())
	return r.NewGauge("datastore_reachable", "Datastore reachability.", nil)
}

func gaugeValue(t *testing.T, g *metrics.Gauge) float64 {
	t.Helper()
	var out float64
	found := false
	g.Each(func(_ []string, v float64) bool {
		out = v
		found = true
		return false
	})
	if !found {
		t.Fatal("expected gauge to have a value")
	}
	return out
}

func TestOpenDatastore_UnsupportedDriver(t *testing.T) {
	_, err := OpenDatastore(&config.DatastoreConfig{Driver: "postgres", Path: "x"})
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestSQLProbe_Probe(t *testing.T) {
	probe, err := OpenDatastore(&config.DatastoreConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "gateway.db"),
		ProbeTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to open datastore: %v", err)
	}
	defer probe.Close()

	if err := probe.Probe(context.Background()); err != nil {
		t.Errorf("expected probe to succeed against a fresh database: %v", err)
	}
}

// errProbe always fails.
type errProbe struct{}

func (errProbe) Probe(ctx context.Context) error { return fmt.Errorf("connection refused") }

// okProbe always succeeds.
type okProbe struct{}

func (okProbe) Probe(ctx context.Context) error { return nil }

func TestProbeHook_SetsGauge(t *testing.T) {
	g := newReachableGauge(t)

	hook := ProbeHook(okProbe{}, g, testLogger())
	if err := hook(context.Background()); err != nil {
		t.Fatalf("hook failed: %v", err)
	}
	if got := gaugeValue(t, g); got != 1 {
		t.Errorf("expected reachable gauge 1, got %v", got)
	}

	hook = ProbeHook(errProbe{}, g, testLogger())
	if err := hook(context.Background()); err != nil {
		t.Fatalf("expected probe failure to degrade, not fail the hook: %v", err)
	}
	if got := gaugeValue(t, g); got != 0 {
		t.Errorf("expected reachable gauge 0 after failed probe, got %v", got)
	}
}
