package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9542"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Metrics defaults
	DefaultMetricsEnabled = true
	DefaultNamespace      = "proxystats"
	DefaultMaxSeries      = 16384
	DefaultShards         = 16
	DefaultWorkerStripes  = 16

	// Datastore defaults
	DefaultDatastoreDriver = "sqlite"
	DefaultDatastorePath   = "data/gateway.db"
	DefaultProbeTimeout    = 2 * time.Second

	// Maintenance defaults
	DefaultProbeSchedule = "@every 1m"
	DefaultAuditSchedule = "@every 5m"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// DefaultLatencyBuckets returns the default latency histogram bucket upper
// bounds in seconds. The ladder covers sub-millisecond internal processing
// through slow multi-second upstream calls.
func DefaultLatencyBuckets() []float64 {
	return []float64{
		0.001, 0.002, 0.005,
		0.01, 0.025, 0.05,
		0.1, 0.25, 0.5,
		1, 2.5, 5,
		10, 30,
	}
}

// ApplyDefaults fills in default values for any unset configuration fields.
// It is called automatically by LoadConfig, but can be used directly when
// constructing a Config programmatically.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Metrics defaults
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultNamespace
	}
	if cfg.Metrics.MaxSeries == 0 {
		cfg.Metrics.MaxSeries = DefaultMaxSeries
	}
	if cfg.Metrics.Shards == 0 {
		cfg.Metrics.Shards = DefaultShards
	}
	if cfg.Metrics.WorkerStripes == 0 {
		cfg.Metrics.WorkerStripes = DefaultWorkerStripes
	}
	if len(cfg.Metrics.LatencyBuckets) == 0 {
		cfg.Metrics.LatencyBuckets = DefaultLatencyBuckets()
	}

	// Datastore defaults
	if cfg.Datastore.Driver == "" {
		cfg.Datastore.Driver = DefaultDatastoreDriver
	}
	if cfg.Datastore.Path == "" {
		cfg.Datastore.Path = DefaultDatastorePath
	}
	if cfg.Datastore.ProbeTimeout == 0 {
		cfg.Datastore.ProbeTimeout = DefaultProbeTimeout
	}

	// Maintenance defaults
	if cfg.Maintenance.ProbeSchedule == "" {
		cfg.Maintenance.ProbeSchedule = DefaultProbeSchedule
	}
	if cfg.Maintenance.AuditSchedule == "" {
		cfg.Maintenance.AuditSchedule = DefaultAuditSchedule
	}

	// Logging defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
}

// NewDefaultConfig returns a Config populated entirely with default values.
// Metrics collection is enabled by default.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}
