// Package telemetry groups the observability subsystems of proxystats:
//
//   - metrics: the metric registry, shared aggregation substrate, and
//     Prometheus text exposition engine
//   - health: scrape-path collectors (target health reconciliation,
//     datastore probe, memory and connection gauges)
//   - logging: structured logging setup over log/slog
package telemetry
