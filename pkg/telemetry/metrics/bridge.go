package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Bridge adapts a Registry to the prometheus.Collector interface so that
// embedders with an existing client_golang registry can merge the engine's
// families into it (alongside process and Go runtime collectors) and serve
// everything through one promhttp handler.
//
// The bridge emits const metrics built from the substrate's merged state
// at collect time; it holds no client_golang state of its own.
type Bridge struct {
	registry *Registry
}

// NewBridge creates a collector over the registry.
func NewBridge(r *Registry) *Bridge {
	return &Bridge{registry: r}
}

// Describe sends no descriptors, making this an unchecked collector:
// families only exist at collect time, mirroring the reconciler's
// rebuild-per-scrape behavior.
func (b *Bridge) Describe(chan<- *prometheus.Desc) {}

// Collect emits every family's current series. A disabled registry
// collects nothing.
func (b *Bridge) Collect(ch chan<- prometheus.Metric) {
	if b.registry.Disabled() {
		return
	}
	b.registry.Substrate().FlushWorkers()

	for _, f := range b.registry.Families() {
		switch fam := f.(type) {
		case *Counter:
			desc := prometheus.NewDesc(fam.Name(), fam.Help(), fam.LabelNames(), nil)
			fam.Each(func(lvs []string, v float64) bool {
				ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, v, lvs...)
				return true
			})
		case *Gauge:
			desc := prometheus.NewDesc(fam.Name(), fam.Help(), fam.LabelNames(), nil)
			fam.Each(func(lvs []string, v float64) bool {
				ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, lvs...)
				return true
			})
		case *Histogram:
			desc := prometheus.NewDesc(fam.Name(), fam.Help(), fam.LabelNames(), nil)
			bounds := fam.Buckets()
			fam.Each(func(lvs []string, snap HistogramSnapshot) bool {
				buckets := make(map[float64]uint64, len(bounds))
				for i, bound := range bounds {
					buckets[bound] = snap.Counts[i]
				}
				ch <- prometheus.MustNewConstHistogram(desc, snap.Count, snap.Sum, buckets, lvs...)
				return true
			})
		}
	}
}
