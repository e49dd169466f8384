package metrics

import (
	"fmt"
	"sort"
)

// FamilyType identifies a metric family variant.
type FamilyType string

const (
	CounterType   FamilyType = "counter"
	GaugeType     FamilyType = "gauge"
	HistogramType FamilyType = "histogram"
)

// Family is the capability set shared by every metric family variant:
// identity, reset, and iteration. Updates are variant-specific and live on
// the concrete types.
type Family interface {
	// Name returns the fully-qualified (namespaced) family name.
	Name() string

	// Help returns the family's help text.
	Help() string

	// Type returns the family variant.
	Type() FamilyType

	// LabelNames returns the declared label names in order. The slice
	// must not be modified.
	LabelNames() []string

	// Reset clears every label-vector accumulator for the family,
	// returning it to the empty state without removing the family.
	Reset()
}

// family carries the state common to all variants.
type family struct {
	name   string
	help   string
	labels []string
	prefix string
	sub    *Substrate
}

func newFamily(name, help string, labels []string, sub *Substrate) family {
	return family{
		name:   name,
		help:   help,
		labels: labels,
		prefix: name + labelSep,
		sub:    sub,
	}
}

func (f *family) Name() string         { return f.name }
func (f *family) Help() string         { return f.help }
func (f *family) LabelNames() []string { return f.labels }

func (f *family) Reset() {
	if f.sub == nil {
		return
	}
	f.sub.DeletePrefix(f.prefix)
}

// checkArity validates the label vector length against the declared label
// count. Label slot counts are fixed at family creation.
func (f *family) checkArity(lvs []string) error {
	if len(lvs) != len(f.labels) {
		return fmt.Errorf("%w: %s expects %d labels, got %d",
			ErrLabelArity, f.name, len(f.labels), len(lvs))
	}
	return nil
}

// Counter is a metric family of monotonically non-decreasing values, one
// per label vector.
type Counter struct {
	family
}

func (c *Counter) Type() FamilyType { return CounterType }

// Inc adds delta to the accumulator for the given label vector, creating
// it at zero on first use. The label slice is copied out before Inc
// returns; callers may reuse it.
//
// Inc fails with ErrLabelArity on a wrong-length label vector, with
// ErrNegativeIncrement for delta < 0, with ErrCapacityExhausted when the
// series cannot be created, and with ErrRegistryDisabled on a disabled
// registry's family.
func (c *Counter) Inc(w *Worker, delta float64, lvs []string) error {
	if c.sub == nil {
		return ErrRegistryDisabled
	}
	if err := c.checkArity(lvs); err != nil {
		return err
	}
	if delta < 0 {
		return fmt.Errorf("%w: %s delta %v", ErrNegativeIncrement, c.name, delta)
	}

	key := seriesKey(c.name, lvs)
	if w != nil {
		return w.Add(key, delta)
	}
	return c.sub.Add(key, 0, delta)
}

// Each calls fn for every series of the family with its merged value as
// of the call, in unspecified order. fn returning false stops the
// iteration. Each may be called repeatedly; every call observes the
// current state.
func (c *Counter) Each(fn func(lvs []string, value float64) bool) {
	if c.sub == nil {
		return
	}
	c.sub.RangePrefix(c.prefix, func(key string, value float64) bool {
		return fn(splitSeriesKey(key, c.prefix), value)
	})
}

// Gauge is a metric family of last-set values, one per label vector.
type Gauge struct {
	family
}

func (g *Gauge) Type() FamilyType { return GaugeType }

// Set overwrites the accumulator for the given label vector
// unconditionally, creating it on first use. The label slice is copied
// out before Set returns.
func (g *Gauge) Set(value float64, lvs []string) error {
	if g.sub == nil {
		return ErrRegistryDisabled
	}
	if err := g.checkArity(lvs); err != nil {
		return err
	}
	return g.sub.Set(seriesKey(g.name, lvs), value)
}

// Each calls fn for every series of the family with its value as of the
// call. See Counter.Each for iteration semantics.
func (g *Gauge) Each(fn func(lvs []string, value float64) bool) {
	if g.sub == nil {
		return
	}
	g.sub.RangePrefix(g.prefix, func(key string, value float64) bool {
		return fn(splitSeriesKey(key, g.prefix), value)
	})
}

// Histogram is a metric family of bucketed observation counts plus a
// running sum, one set per label vector. Bucket upper bounds are fixed and
// ascending; counts are stored cumulatively (each bucket includes all
// observations at or below its bound) and an implicit overflow bucket
// counts every observation.
type Histogram struct {
	family
	bounds []float64

	// precomputed component suffixes, one per bucket
	bucketSuffix []string
}

const (
	histInfComponent = "inf"
	histSumComponent = "sum"
)

func (h *Histogram) Type() FamilyType { return HistogramType }

// Buckets returns the configured bucket upper bounds. The slice must not
// be modified.
func (h *Histogram) Buckets() []float64 { return h.bounds }

// Observe records one observation: every bucket whose upper bound is at
// least value is incremented, the overflow bucket is always incremented,
// and value is added to the running sum. The label slice is copied out
// before Observe returns.
func (h *Histogram) Observe(w *Worker, value float64, lvs []string) error {
	if h.sub == nil {
		return ErrRegistryDisabled
	}
	if err := h.checkArity(lvs); err != nil {
		return err
	}

	base := seriesKey(h.name, lvs)
	var firstErr error
	record := func(component string, delta float64) {
		key := base + componentSep + component
		var err error
		if w != nil {
			err = w.Add(key, delta)
		} else {
			err = h.sub.Add(key, 0, delta)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for i, bound := range h.bounds {
		if value <= bound {
			record(h.bucketSuffix[i], 1)
		}
	}
	record(histInfComponent, 1)
	record(histSumComponent, value)
	return firstErr
}

// HistogramSnapshot is the accumulated state of one histogram series.
type HistogramSnapshot struct {
	// Counts holds the cumulative observation count per configured
	// bucket, parallel to Buckets.
	Counts []uint64

	// Count is the overflow bucket count, i.e. the total number of
	// observations.
	Count uint64

	// Sum is the running sum of observed values.
	Sum float64
}

// Each calls fn for every series of the family with a snapshot of its
// bucket counts and sum as of the call. Snapshots of a series observed
// mid-update may be momentarily skewed between buckets; successive calls
// converge. See Counter.Each for iteration semantics.
func (h *Histogram) Each(fn func(lvs []string, snap HistogramSnapshot) bool) {
	if h.sub == nil {
		return
	}

	snaps := make(map[string]*HistogramSnapshot)
	order := make([]string, 0, 8)

	h.sub.RangePrefix(h.prefix, func(key string, value float64) bool {
		series, component, ok := splitComponent(key)
		if !ok {
			return true
		}
		snap := snaps[series]
		if snap == nil {
			snap = &HistogramSnapshot{Counts: make([]uint64, len(h.bounds))}
			snaps[series] = snap
			order = append(order, series)
		}
		switch component {
		case histInfComponent:
			snap.Count = uint64(value)
		case histSumComponent:
			snap.Sum = value
		default:
			if i := bucketIndex(component); i >= 0 && i < len(h.bounds) {
				snap.Counts[i] = uint64(value)
			}
		}
		return true
	})

	sort.Strings(order)
	for _, series := range order {
		if !fn(splitSeriesKey(series, h.prefix), *snaps[series]) {
			return
		}
	}
}

// bucketSuffixes precomputes "bNN" component names for n buckets.
func bucketSuffixes(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("b%02d", i)
	}
	return out
}

// bucketIndex decodes a "bNN" component name, returning -1 for anything
// else.
func bucketIndex(component string) int {
	if len(component) != 3 || component[0] != 'b' {
		return -1
	}
	i := 0
	for _, c := range component[1:] {
		if c < '0' || c > '9' {
			return -1
		}
		i = i*10 + int(c-'0')
	}
	return i
}
