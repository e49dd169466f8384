package metrics

import (
	"github.com/samsk/proxystats/pkg/config"
)

// GatewayMetrics groups every metric family describing gateway traffic and
// gateway health. All families are created once by NewGatewayMetrics during
// initialization.
//
// Families:
//   - <ns>_http_requests_total: status counter by service, route, code
//   - <ns>_bandwidth_bytes_total: ingress/egress byte counter
//   - <ns>_request_latency_seconds: total request time histogram
//   - <ns>_upstream_latency_seconds: upstream wait time histogram
//   - <ns>_internal_latency_seconds: internal processing time histogram
//   - <ns>_param_requests_total / <ns>_location_requests_total: custom
//     URL dimension counters
//   - consumer-labelled variants of the counters above
//   - <ns>_upstream_target_health: per-address health state gauge
//   - <ns>_datastore_reachable: datastore probe gauge
//   - <ns>_shared_memory_bytes / <ns>_worker_heap_bytes: memory gauges
//   - <ns>_connections: connection state gauge
type GatewayMetrics struct {
	// Status counts completed requests by status code.
	Status         *Counter
	ConsumerStatus *Counter

	// Bandwidth counts request and response bytes. The direction label
	// is "ingress" or "egress".
	Bandwidth         *Counter
	ConsumerBandwidth *Counter

	// Latency histograms, all in seconds.
	RequestLatency  *Histogram
	UpstreamLatency *Histogram
	InternalLatency *Histogram

	// Custom URL dimension counters.
	Param            *Counter
	ConsumerParam    *Counter
	Location         *Counter
	ConsumerLocation *Counter

	// TargetHealth is rebuilt from scratch on every scrape by the health
	// reconciler.
	TargetHealth *Gauge

	// DatastoreReachable is 1 when the datastore probe succeeds, 0 when
	// it fails.
	DatastoreReachable *Gauge

	// Memory gauges refreshed on every scrape.
	SharedMemory *Gauge
	WorkerHeap   *Gauge

	// Connections tracks scrape-server connection states.
	Connections *Gauge
}

// Bandwidth direction label values.
const (
	DirectionIngress = "ingress"
	DirectionEgress  = "egress"
)

// NewGatewayMetrics creates and registers every gateway family on the
// registry. Call it exactly once after NewRegistry.
func NewGatewayMetrics(cfg *config.MetricsConfig, r *Registry) *GatewayMetrics {
	buckets := cfg.LatencyBuckets
	if len(buckets) == 0 {
		buckets = config.DefaultLatencyBuckets()
	}

	return &GatewayMetrics{
		Status: r.NewCounter("http_requests_total",
			"Total number of requests completed, by service, route and status code.",
			[]string{"service", "route", "code"}),
		ConsumerStatus: r.NewCounter("http_consumer_requests_total",
			"Total number of requests completed per consumer, by service, route and status code.",
			[]string{"service", "route", "code", "consumer"}),

		Bandwidth: r.NewCounter("bandwidth_bytes_total",
			"Total bytes transferred, by direction, service and route.",
			[]string{"direction", "service", "route"}),
		ConsumerBandwidth: r.NewCounter("consumer_bandwidth_bytes_total",
			"Total bytes transferred per consumer, by direction, service and route.",
			[]string{"direction", "service", "route", "consumer"}),

		RequestLatency: r.NewHistogram("request_latency_seconds",
			"Total time spent on a request, in seconds.",
			[]string{"service", "route"}, buckets),
		UpstreamLatency: r.NewHistogram("upstream_latency_seconds",
			"Time spent waiting on the upstream, in seconds.",
			[]string{"service", "route"}, buckets),
		InternalLatency: r.NewHistogram("internal_latency_seconds",
			"Time spent in internal processing, in seconds.",
			[]string{"service", "route"}, buckets),

		Param: r.NewCounter("param_requests_total",
			"Total number of requests carrying the configured URL parameter, by extracted value.",
			[]string{"service", "route", "param"}),
		ConsumerParam: r.NewCounter("consumer_param_requests_total",
			"Total number of requests carrying the configured URL parameter per consumer, by extracted value.",
			[]string{"service", "route", "param", "consumer"}),
		Location: r.NewCounter("location_requests_total",
			"Total number of requests by extracted URL location.",
			[]string{"service", "route", "location"}),
		ConsumerLocation: r.NewCounter("consumer_location_requests_total",
			"Total number of requests by extracted URL location per consumer.",
			[]string{"service", "route", "location", "consumer"}),

		TargetHealth: r.NewGauge("upstream_target_health",
			"Health state of each upstream target address; exactly one state is 1 per address.",
			[]string{"upstream", "target", "address", "state"}),

		DatastoreReachable: r.NewGauge("datastore_reachable",
			"Whether the gateway datastore answered the last connectivity probe (1 reachable, 0 unreachable).",
			nil),

		SharedMemory: r.NewGauge("shared_memory_bytes",
			"Memory held by shared aggregation segments, by segment and kind (allocated or capacity).",
			[]string{"segment", "kind"}),
		WorkerHeap: r.NewGauge("worker_heap_bytes",
			"Heap bytes attributed to each worker.",
			[]string{"worker"}),

		Connections: r.NewGauge("connections",
			"Scrape server connections, by state.",
			[]string{"state"}),
	}
}
