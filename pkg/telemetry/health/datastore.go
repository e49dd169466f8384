package health

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/samsk/proxystats/pkg/config"
	"github.com/samsk/proxystats/pkg/telemetry/metrics"
)

// Probe checks connectivity to the gateway datastore.
type Probe interface {
	Probe(ctx context.Context) error
}

// SQLProbe probes a database/sql datastore with a bounded ping.
type SQLProbe struct {
	db      *sql.DB
	timeout time.Duration
}

// OpenDatastore opens the configured datastore for probing. The
// connection is lazy; the first probe establishes it.
func OpenDatastore(cfg *config.DatastoreConfig) (*SQLProbe, error) {
	if cfg.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported datastore driver %q", cfg.Driver)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore %q: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)

	return &SQLProbe{db: db, timeout: cfg.ProbeTimeout}, nil
}

// Probe pings the datastore within the configured timeout.
func (p *SQLProbe) Probe(ctx context.Context) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.db.PingContext(ctx)
}

// Close releases the datastore connection.
func (p *SQLProbe) Close() error {
	return p.db.Close()
}

// ProbeHook returns a scrape hook that runs the probe and sets the
// reachability gauge: 1 on success, 0 on failure. A failed probe is a
// degraded state, not a scrape failure, so the hook never returns an
// error for it.
func ProbeHook(probe Probe, reachable *metrics.Gauge, logger *slog.Logger) metrics.ScrapeHook {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "health.datastore")

	return func(ctx context.Context) error {
		var v float64 = 1
		if err := probe.Probe(ctx); err != nil {
			v = 0
			logger.Error("datastore probe failed", "error", err)
		}
		if err := reachable.Set(v, nil); err != nil {
			return fmt.Errorf("failed to set datastore gauge: %w", err)
		}
		return nil
	}
}
