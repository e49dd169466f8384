// Package metrics implements the metric registry and exposition engine at
// the heart of proxystats: typed metric families with label-vector
// identity, a shared aggregation substrate that many concurrent workers
// update without coordination on the hot path, and a Prometheus text
// exposition serializer for the cold scrape path.
//
// # Architecture
//
// The Substrate is the only cross-worker-mutable resource. It is a sharded
// table of accumulator entries; counter entries stripe their value across
// cells so concurrent workers rarely touch the same cache line, and reads
// merge all stripes into the series value. Families (Counter, Gauge,
// Histogram) own their key namespace within the substrate and translate
// label vectors into substrate keys.
//
// The Registry is created once at startup and owns every family. If its
// substrate cannot be created, the registry comes up disabled: updates are
// safe logging no-ops and scrapes answer with an error, never a crash.
//
// # Hot path vs scrape path
//
// Updates (Inc, Set, Observe) complete in bounded time with no I/O and no
// locks visible to the caller once a series exists. The scrape path (the
// Exposer's hooks, worker-buffer flushes, and WriteText) is infrequent
// and may block; blocking collaborators (datastore probes, upstream
// enumeration) are confined to it.
//
// # Worker handles
//
// Each request-handling worker registers a Worker at startup and passes it
// into updates. With buffering enabled (metrics.flush_interval > 0) the
// per-request cost drops to a private map update; deltas commit on the
// next flush, and scrapes flush all workers first, so a scrape observes
// every update recorded before it started.
//
// # Interop
//
// Bridge adapts the Registry to prometheus.Collector for embedders that
// already run a client_golang registry; the native Exposer handler remains
// the canonical scrape surface.
package metrics
