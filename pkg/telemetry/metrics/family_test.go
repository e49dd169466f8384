package metrics

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/samsk/proxystats/pkg/config"
)

func TestCounter_Inc(t *testing.T) {
	r := newTestRegistry(t)
	c := r.NewCounter("requests_total", "Total requests.", []string{"code"})

	if err := c.Inc(nil, 1, []string{"200"}); err != nil {
		t.Fatalf("inc failed: %v", err)
	}
	if err := c.Inc(nil, 2, []string{"200"}); err != nil {
		t.Fatalf("inc failed: %v", err)
	}
	if err := c.Inc(nil, 1, []string{"500"}); err != nil {
		t.Fatalf("inc failed: %v", err)
	}

	got := make(map[string]float64)
	c.Each(func(lvs []string, v float64) bool {
		got[lvs[0]] = v
		return true
	})
	if got["200"] != 3 {
		t.Errorf("expected 3 for code 200, got %v", got["200"])
	}
	if got["500"] != 1 {
		t.Errorf("expected 1 for code 500, got %v", got["500"])
	}
}

func TestCounter_IncErrors(t *testing.T) {
	r := newTestRegistry(t)
	c := r.NewCounter("requests_total", "Total requests.", []string{"code"})

	if err := c.Inc(nil, 1, nil); !errors.Is(err, ErrLabelArity) {
		t.Errorf("expected ErrLabelArity for missing labels, got %v", err)
	}
	if err := c.Inc(nil, 1, []string{"200", "extra"}); !errors.Is(err, ErrLabelArity) {
		t.Errorf("expected ErrLabelArity for extra labels, got %v", err)
	}
	if err := c.Inc(nil, -1, []string{"200"}); !errors.Is(err, ErrNegativeIncrement) {
		t.Errorf("expected ErrNegativeIncrement, got %v", err)
	}

	// A rejected update must not create the series.
	count := 0
	c.Each(func([]string, float64) bool { count++; return true })
	if count != 0 {
		t.Errorf("expected no series after rejected updates, got %d", count)
	}
}

func TestCounter_LabelSliceReuse(t *testing.T) {
	r := newTestRegistry(t)
	c := r.NewCounter("requests_total", "Total requests.", []string{"code"})

	buf := make([]string, 1)
	buf[0] = "200"
	if err := c.Inc(nil, 1, buf); err != nil {
		t.Fatalf("inc failed: %v", err)
	}
	buf[0] = "500"
	if err := c.Inc(nil, 1, buf); err != nil {
		t.Fatalf("inc failed: %v", err)
	}

	got := make(map[string]float64)
	c.Each(func(lvs []string, v float64) bool {
		got[lvs[0]] = v
		return true
	})
	if got["200"] != 1 || got["500"] != 1 {
		t.Errorf("expected one increment per code after buffer reuse, got %v", got)
	}
}

func TestDisabledRegistryFamilies(t *testing.T) {
	r := NewRegistry(&config.MetricsConfig{Enabled: false}, discardLogger())
	c := r.NewCounter("requests_total", "Total requests.", []string{"code"})
	g := r.NewGauge("up", "Up.", nil)
	h := r.NewHistogram("latency_seconds", "Latency.", nil, []float64{1})

	if err := c.Inc(nil, 1, []string{"200"}); !errors.Is(err, ErrRegistryDisabled) {
		t.Errorf("expected ErrRegistryDisabled from counter, got %v", err)
	}
	if err := g.Set(1, nil); !errors.Is(err, ErrRegistryDisabled) {
		t.Errorf("expected ErrRegistryDisabled from gauge, got %v", err)
	}
	if err := h.Observe(nil, 0.5, nil); !errors.Is(err, ErrRegistryDisabled) {
		t.Errorf("expected ErrRegistryDisabled from histogram, got %v", err)
	}

	// Iteration and reset are safe no-ops.
	c.Each(func([]string, float64) bool { t.Error("unexpected series"); return true })
	h.Each(func([]string, HistogramSnapshot) bool { t.Error("unexpected series"); return true })
	c.Reset()
}

func TestGauge_SetOverwrites(t *testing.T) {
	r := newTestRegistry(t)
	g := r.NewGauge("connections", "Connections.", []string{"state"})

	if err := g.Set(5, []string{"active"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := g.Set(2, []string{"active"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var got float64
	g.Each(func(lvs []string, v float64) bool {
		got = v
		return true
	})
	if got != 2 {
		t.Errorf("expected gauge to hold last value 2, got %v", got)
	}
}

func TestHistogram_ObserveCumulativeBuckets(t *testing.T) {
	r := newTestRegistry(t)
	h := r.NewHistogram("latency_seconds", "Latency.", []string{"svc"}, []float64{0.1, 1, 10})

	for _, v := range []float64{0.05, 0.5, 5, 50} {
		if err := h.Observe(nil, v, []string{"api"}); err != nil {
			t.Fatalf("observe(%v) failed: %v", v, err)
		}
	}

	var snap HistogramSnapshot
	found := false
	h.Each(func(lvs []string, s HistogramSnapshot) bool {
		if lvs[0] == "api" {
			snap = s
			found = true
		}
		return true
	})
	if !found {
		t.Fatal("expected a series for svc=api")
	}

	// Buckets are cumulative: le=0.1 sees 0.05; le=1 adds 0.5; le=10 adds 5.
	wantCounts := []uint64{1, 2, 3}
	for i, want := range wantCounts {
		if snap.Counts[i] != want {
			t.Errorf("bucket %d: expected %d, got %d", i, want, snap.Counts[i])
		}
	}
	if snap.Count != 4 {
		t.Errorf("expected total count 4, got %d", snap.Count)
	}
	if math.Abs(snap.Sum-55.55) > 1e-9 {
		t.Errorf("expected sum 55.55, got %v", snap.Sum)
	}
}

func TestHistogram_ObserveArity(t *testing.T) {
	r := newTestRegistry(t)
	h := r.NewHistogram("latency_seconds", "Latency.", []string{"svc"}, []float64{1})

	if err := h.Observe(nil, 0.5, nil); !errors.Is(err, ErrLabelArity) {
		t.Errorf("expected ErrLabelArity, got %v", err)
	}
}

func TestHistogram_EachSortedSeries(t *testing.T) {
	r := newTestRegistry(t)
	h := r.NewHistogram("latency_seconds", "Latency.", []string{"svc"}, []float64{1})

	for _, svc := range []string{"zeta", "alpha", "mid"} {
		if err := h.Observe(nil, 0.5, []string{svc}); err != nil {
			t.Fatalf("observe failed: %v", err)
		}
	}

	var order []string
	h.Each(func(lvs []string, _ HistogramSnapshot) bool {
		order = append(order, lvs[0])
		return true
	})
	if len(order) != 3 {
		t.Fatalf("expected 3 series, got %d", len(order))
	}
	if !sort.StringsAreSorted(order) {
		t.Errorf("expected series in sorted order, got %v", order)
	}
}

func TestFamily_ResetThenRecreate(t *testing.T) {
	r := newTestRegistry(t)
	c := r.NewCounter("requests_total", "Total requests.", []string{"code"})
	other := r.NewCounter("errors_total", "Total errors.", []string{"code"})

	if err := c.Inc(nil, 5, []string{"200"}); err != nil {
		t.Fatalf("inc failed: %v", err)
	}
	if err := other.Inc(nil, 1, []string{"500"}); err != nil {
		t.Fatalf("inc failed: %v", err)
	}

	c.Reset()

	count := 0
	c.Each(func([]string, float64) bool { count++; return true })
	if count != 0 {
		t.Errorf("expected no series after reset, got %d", count)
	}

	// Reset is per-family: the sibling keeps its series.
	otherCount := 0
	other.Each(func([]string, float64) bool { otherCount++; return true })
	if otherCount != 1 {
		t.Errorf("expected sibling family untouched, got %d series", otherCount)
	}

	// Accumulation restarts from zero.
	if err := c.Inc(nil, 1, []string{"200"}); err != nil {
		t.Fatalf("inc after reset failed: %v", err)
	}
	var got float64
	c.Each(func(_ []string, v float64) bool { got = v; return true })
	if got != 1 {
		t.Errorf("expected fresh series value 1 after reset, got %v", got)
	}
}

func TestHistogram_ResetClearsAllComponents(t *testing.T) {
	r := newTestRegistry(t)
	h := r.NewHistogram("latency_seconds", "Latency.", []string{"svc"}, []float64{0.1, 1})

	if err := h.Observe(nil, 0.5, []string{"api"}); err != nil {
		t.Fatalf("observe failed: %v", err)
	}
	h.Reset()

	count := 0
	h.Each(func([]string, HistogramSnapshot) bool { count++; return true })
	if count != 0 {
		t.Errorf("expected no series after reset, got %d", count)
	}
	if r.Substrate().Len() != 0 {
		t.Errorf("expected all accumulator entries removed, got %d", r.Substrate().Len())
	}
}
