package metrics

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/samsk/proxystats/pkg/config"
)

// Registry is the process-wide collection of metric families. It is
// created once at startup; families are registered during initialization
// and never added or removed afterward (a family's contents may be reset,
// its existence may not).
//
// When the backing substrate cannot be created the registry comes up
// disabled: family updates return ErrRegistryDisabled and are safe no-ops,
// and scrapes answer with an error response instead of crashing.
type Registry struct {
	namespace string
	sub       *Substrate
	logger    *slog.Logger

	families []Family
	byName   map[string]Family
}

// NewRegistry creates a registry and its backing substrate from the
// metrics configuration. A substrate creation failure is logged at error
// severity and yields a disabled registry rather than an error return;
// callers can keep wiring the rest of the system against it.
func NewRegistry(cfg *config.MetricsConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "metrics.registry")

	r := &Registry{
		namespace: cfg.Namespace,
		logger:    logger,
		byName:    make(map[string]Family),
	}

	if !cfg.Enabled {
		logger.Warn("metrics collection disabled by configuration")
		return r
	}

	sub, err := NewSubstrate(SubstrateConfig{
		MaxEntries: cfg.MaxSeries,
		Shards:     cfg.Shards,
		Stripes:    cfg.WorkerStripes,
		Buffered:   cfg.FlushInterval > 0,
	}, logger)
	if err != nil {
		logger.Error("failed to create aggregation substrate, metrics are disabled",
			"error", err,
		)
		return r
	}

	r.sub = sub
	return r
}

// Disabled reports whether the registry failed to initialize. Updates on
// a disabled registry's families are no-ops returning ErrRegistryDisabled.
func (r *Registry) Disabled() bool { return r.sub == nil }

// Substrate returns the shared aggregation substrate, or nil when the
// registry is disabled.
func (r *Registry) Substrate() *Substrate { return r.sub }

// RegisterWorker allocates a per-worker substrate handle, or nil when the
// registry is disabled. Nil workers are accepted by every update path.
func (r *Registry) RegisterWorker() *Worker {
	if r.sub == nil {
		return nil
	}
	return r.sub.RegisterWorker()
}

// fqName prefixes a family name with the registry namespace.
func (r *Registry) fqName(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + "_" + name
}

// register adds a family under its fully-qualified name. Registration
// happens once at startup; a duplicate name is a programming error and
// panics, matching prometheus client conventions.
func (r *Registry) register(f Family) {
	if _, dup := r.byName[f.Name()]; dup {
		panic(fmt.Errorf("%w: %s", ErrDuplicateFamily, f.Name()))
	}
	r.families = append(r.families, f)
	r.byName[f.Name()] = f
}

// NewCounter creates and registers a counter family.
func (r *Registry) NewCounter(name, help string, labels []string) *Counter {
	c := &Counter{family: newFamily(r.fqName(name), help, labels, r.sub)}
	r.register(c)
	return c
}

// NewGauge creates and registers a gauge family.
func (r *Registry) NewGauge(name, help string, labels []string) *Gauge {
	g := &Gauge{family: newFamily(r.fqName(name), help, labels, r.sub)}
	r.register(g)
	return g
}

// NewHistogram creates and registers a histogram family with the given
// ascending bucket upper bounds. Bounds are copied and immutable
// afterward.
func (r *Registry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	if len(buckets) == 0 || len(buckets) > 99 {
		panic(fmt.Errorf("histogram %s: bucket count %d out of range 1-99", name, len(buckets)))
	}
	if !sort.Float64sAreSorted(buckets) {
		panic(fmt.Errorf("histogram %s: bucket bounds must be ascending", name))
	}

	bounds := make([]float64, len(buckets))
	copy(bounds, buckets)

	h := &Histogram{
		family:       newFamily(r.fqName(name), help, labels, r.sub),
		bounds:       bounds,
		bucketSuffix: bucketSuffixes(len(bounds)),
	}
	r.register(h)
	return h
}

// Families returns every registered family in registration order. The
// returned slice is a copy.
func (r *Registry) Families() []Family {
	out := make([]Family, len(r.families))
	copy(out, r.families)
	return out
}

// Lookup returns the family registered under the fully-qualified name.
func (r *Registry) Lookup(name string) (Family, bool) {
	f, ok := r.byName[name]
	return f, ok
}
