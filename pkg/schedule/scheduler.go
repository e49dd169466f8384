// Package schedule runs background maintenance jobs for the metrics
// engine: a periodic datastore probe refresh and a cardinality audit,
// both cron-scheduled.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/samsk/proxystats/pkg/config"
	"github.com/samsk/proxystats/pkg/telemetry/health"
	"github.com/samsk/proxystats/pkg/telemetry/metrics"
)

// Maintenance owns the cron scheduler and its jobs.
type Maintenance struct {
	cfg      *config.MaintenanceConfig
	registry *metrics.Registry
	gw       *metrics.GatewayMetrics
	probe    health.Probe
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewMaintenance creates the maintenance scheduler. probe may be nil when
// no datastore is configured; the probe job is then skipped.
func NewMaintenance(
	cfg *config.MaintenanceConfig,
	registry *metrics.Registry,
	gw *metrics.GatewayMetrics,
	probe health.Probe,
	logger *slog.Logger,
) *Maintenance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintenance{
		cfg:      cfg,
		registry: registry,
		gw:       gw,
		probe:    probe,
		cron:     cron.New(),
		logger:   logger.With("component", "schedule"),
	}
}

// Start registers the configured jobs and begins the scheduler. It
// returns an error only for invalid cron expressions; an empty schedule
// disables its job.
func (m *Maintenance) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("maintenance scheduler already running")
	}

	if m.cfg.ProbeSchedule != "" && m.probe != nil {
		hook := health.ProbeHook(m.probe, m.gw.DatastoreReachable, m.logger)
		if _, err := m.cron.AddFunc(m.cfg.ProbeSchedule, func() {
			// Hook errors only cover gauge writes; already logged.
			_ = hook(ctx)
		}); err != nil {
			return fmt.Errorf("invalid probe schedule %q: %w", m.cfg.ProbeSchedule, err)
		}
	}

	if m.cfg.AuditSchedule != "" {
		if _, err := m.cron.AddFunc(m.cfg.AuditSchedule, m.runAudit); err != nil {
			return fmt.Errorf("invalid audit schedule %q: %w", m.cfg.AuditSchedule, err)
		}
	}

	m.cron.Start()
	m.running = true
	m.logger.Info("maintenance scheduler started",
		"probe_schedule", m.cfg.ProbeSchedule,
		"audit_schedule", m.cfg.AuditSchedule,
	)

	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	return nil
}

// Stop halts the scheduler, waiting for a running job to finish.
func (m *Maintenance) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	<-m.cron.Stop().Done()
	m.running = false
	m.logger.Info("maintenance scheduler stopped")
}

// runAudit logs substrate occupancy and per-family series counts so
// cardinality growth is visible before the capacity bound bites.
func (m *Maintenance) runAudit() {
	if m.registry.Disabled() {
		return
	}

	stats := m.registry.Substrate().Stats()
	m.logger.Info("cardinality audit",
		"entries", stats.Entries,
		"max_entries", stats.MaxEntries,
		"allocated_bytes", stats.AllocatedBytes,
		"dropped_series", stats.DroppedSeries,
	)

	for _, f := range m.registry.Families() {
		count := 0
		switch fam := f.(type) {
		case *metrics.Counter:
			fam.Each(func([]string, float64) bool { count++; return true })
		case *metrics.Gauge:
			fam.Each(func([]string, float64) bool { count++; return true })
		case *metrics.Histogram:
			fam.Each(func([]string, metrics.HistogramSnapshot) bool { count++; return true })
		}
		if count > 0 {
			m.logger.Debug("family cardinality",
				"family", f.Name(),
				"series", count,
			)
		}
	}
}
