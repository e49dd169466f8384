package config

import "time"

// Config is the root configuration structure for proxystats.
// It contains all configuration sections for the metrics engine, the
// event recorder, the scrape server, upstream topology, and telemetry.
type Config struct {
	// Server contains HTTP scrape server configuration including listen
	// address, timeouts, and connection limits.
	Server ServerConfig `yaml:"server"`

	// Metrics contains configuration for the metric registry and the
	// shared aggregation substrate backing it.
	Metrics MetricsConfig `yaml:"metrics"`

	// Recorder contains configuration for translating completed request
	// events into metric updates.
	Recorder RecorderConfig `yaml:"recorder"`

	// Upstreams declares the upstream topology whose target health is
	// rebuilt on every scrape.
	Upstreams []UpstreamConfig `yaml:"upstreams"`

	// Datastore configures the gateway datastore whose reachability is
	// probed on the scrape path.
	Datastore DatastoreConfig `yaml:"datastore"`

	// Maintenance configures background maintenance jobs (datastore probe
	// refresh, cardinality audits).
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Telemetry contains observability configuration for the engine
	// itself (logging).
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP scrape server.
type ServerConfig struct {
	// ListenAddress is the address and port the scrape endpoint listens on.
	// Format: "host:port" (e.g., "127.0.0.1:9542").
	// Default: "127.0.0.1:9542"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Scrapes of large label spaces may take several seconds.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight scrapes are abandoned.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// MetricsConfig contains configuration for the metric registry and the
// shared aggregation substrate.
type MetricsConfig struct {
	// Enabled controls whether metric collection is active. When false,
	// recording and scraping are no-ops.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the prefix applied to every exposed metric name.
	// Default: "proxystats"
	Namespace string `yaml:"namespace"`

	// MaxSeries bounds the number of distinct label-vector series the
	// substrate will hold across all families. New series beyond the
	// bound are rejected and logged; existing series keep updating.
	// Default: 16384
	MaxSeries int `yaml:"max_series"`

	// Shards is the number of hash-partitioned shards in the substrate.
	// Must be a power of two. Higher values reduce lock contention on
	// series creation.
	// Default: 16
	Shards int `yaml:"shards"`

	// WorkerStripes is the number of per-series accumulator cells the
	// substrate stripes counter updates across. Concurrent workers map
	// onto stripes; reads merge all stripes. Must be a power of two.
	// Default: 16
	WorkerStripes int `yaml:"worker_stripes"`

	// FlushInterval is how often worker-local delta buffers are flushed
	// into the substrate. Zero disables buffering and writes through on
	// every update.
	// Default: 0 (write-through)
	FlushInterval time.Duration `yaml:"flush_interval"`

	// LatencyBuckets are the upper bounds, in seconds, for the latency
	// histogram families. Must be ascending.
	// Default: see DefaultLatencyBuckets
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// RecorderConfig contains configuration for the event recorder.
type RecorderConfig struct {
	// PerConsumer enables the per-consumer counter variants for status,
	// bandwidth, parameter, and location families. Consumer-labelled
	// series are only written when the event carries a consumer identity.
	// Default: false
	PerConsumer bool `yaml:"per_consumer"`

	// Params is an ordered list of query parameter names. The first
	// parameter present on an event (with a single scalar value) is
	// recorded in the parameter counter family.
	Params []string `yaml:"params"`

	// ParamPattern is an optional regular expression applied to the
	// extracted parameter value. The group named "param" is used if
	// present, else the first capture group, else the whole match.
	// A non-matching value skips the observation.
	ParamPattern string `yaml:"param_pattern"`

	// LocationEnabled records the request path as a distinct "location"
	// counter dimension.
	// Default: false
	LocationEnabled bool `yaml:"location_enabled"`

	// LocationPattern is an optional regular expression applied to the
	// request path, with the same group semantics as ParamPattern.
	LocationPattern string `yaml:"location_pattern"`
}

// UpstreamConfig declares one upstream and its targets for health
// reconciliation.
type UpstreamConfig struct {
	// Name is the upstream name exposed in the "upstream" label.
	Name string `yaml:"name"`

	// Targets are the host:port targets belonging to this upstream.
	Targets []TargetConfig `yaml:"targets"`

	// Healthchecks controls whether active health state is reported for
	// this upstream's targets. When false, resolved addresses are
	// reported with the healthchecks_off state.
	// Default: false
	Healthchecks bool `yaml:"healthchecks"`
}

// TargetConfig declares a single upstream target.
type TargetConfig struct {
	// Host is the target hostname or IP address.
	Host string `yaml:"host"`

	// Port is the target port.
	Port int `yaml:"port"`
}

// DatastoreConfig configures the datastore connectivity probe.
type DatastoreConfig struct {
	// Driver selects the datastore driver. Currently only "sqlite" is
	// supported.
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the datastore location (file path for sqlite).
	// Default: "data/gateway.db"
	Path string `yaml:"path"`

	// ProbeTimeout bounds a single connectivity probe.
	// Default: 2s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// MaintenanceConfig configures background maintenance jobs.
type MaintenanceConfig struct {
	// ProbeSchedule is a cron expression for refreshing the datastore
	// reachability probe between scrapes. Empty disables the job.
	// Default: "@every 1m"
	ProbeSchedule string `yaml:"probe_schedule"`

	// AuditSchedule is a cron expression for the cardinality audit job,
	// which logs per-family series counts and substrate utilization.
	// Empty disables the job.
	// Default: "@every 5m"
	AuditSchedule string `yaml:"audit_schedule"`
}

// TelemetryConfig contains observability configuration for the engine.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json", "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}
