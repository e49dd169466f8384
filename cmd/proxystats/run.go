package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/samsk/proxystats/pkg/config"
	"github.com/samsk/proxystats/pkg/schedule"
	"github.com/samsk/proxystats/pkg/server"
	"github.com/samsk/proxystats/pkg/telemetry/health"
	"github.com/samsk/proxystats/pkg/telemetry/logging"
	"github.com/samsk/proxystats/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	watch         bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the proxystats scrape server",
	Long: `Start the proxystats scrape server with the specified configuration.

The server exposes the metrics snapshot on GET /metrics and a liveness
probe on GET /healthz.

Request events are recorded by applications that embed the recorder
package in their request path; the standalone server only aggregates and
exposes. See examples/embedded-recorder for the embedding surface,
including hot-reload of recorder options via recorder.Settings.

Examples:
  # Start with default config
  proxystats run

  # Start with custom config
  proxystats run --config /etc/proxystats/config.yaml

  # Override listen address
  proxystats run --listen 0.0.0.0:9542

  # Validate config without starting the server
  proxystats run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", true, "reload configuration on file changes")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(&cfg.Telemetry.Logging, nil)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Registry and families. A substrate failure leaves the registry
	// disabled; the server still starts and answers scrapes with 500.
	registry := metrics.NewRegistry(&cfg.Metrics, logger)
	gw := metrics.NewGatewayMetrics(&cfg.Metrics, registry)

	exposer := metrics.NewExposer(registry, logger)

	// Health reconciliation from the configured upstream topology.
	if len(cfg.Upstreams) > 0 {
		resolver, err := health.NewDNSResolver()
		if err != nil {
			logger.Error("failed to create DNS resolver, target health disabled", "error", err)
		} else {
			topo := health.NewConfigTopology(cfg.Upstreams, resolver)
			exposer.OnScrape("target_health", health.NewReconciler(gw.TargetHealth, topo, logger).Hook())
		}
	}

	// Datastore probe.
	var probe *health.SQLProbe
	probe, err = health.OpenDatastore(&cfg.Datastore)
	if err != nil {
		logger.Error("failed to open datastore, reachability probe disabled", "error", err)
		probe = nil
	} else {
		defer probe.Close()
		exposer.OnScrape("datastore", health.ProbeHook(probe, gw.DatastoreReachable, logger))
	}

	srv := server.NewServer(&cfg.Server, exposer, logger)
	exposer.OnScrape("memory", health.MemoryHook(registry.Substrate(), gw))
	exposer.OnScrape("connections", health.ConnectionsHook(srv.Tracker(), gw))

	// Background jobs: worker buffer flusher, maintenance scheduler,
	// config watcher.
	if !registry.Disabled() && cfg.Metrics.FlushInterval > 0 {
		go registry.Substrate().RunFlusher(ctx, cfg.Metrics.FlushInterval)
	}

	var probeIface health.Probe
	if probe != nil {
		probeIface = probe
	}
	maint := schedule.NewMaintenance(&cfg.Maintenance, registry, gw, probeIface, logger)
	if err := maint.Start(ctx); err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	defer maint.Stop()

	if runFlags.watch {
		watcher := config.NewWatcher(cfgFile, logger)
		go func() {
			err := watcher.Watch(ctx, func(newCfg *config.Config) {
				applyReload(newCfg, logger)
			})
			if err != nil {
				logger.Error("config watcher stopped", "error", err)
			}
		}()
	}

	printBanner(cfg, logger)

	return srv.Start(ctx)
}

// applyReload applies the parts of a freshly reloaded configuration that
// can change at runtime. Embedding applications additionally swap their
// recorder options here via recorder.Settings.Store.
func applyReload(cfg *config.Config, logger *slog.Logger) {
	if err := logging.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
		logger.Warn("reloaded log level rejected", "error", err)
		return
	}
	logger.Info("applied reloaded configuration",
		"log_level", cfg.Telemetry.Logging.Level,
	)
}

func printBanner(cfg *config.Config, logger *slog.Logger) {
	logger.Info("proxystats starting",
		"version", Version,
		"listen_address", cfg.Server.ListenAddress,
		"namespace", cfg.Metrics.Namespace,
		"max_series", cfg.Metrics.MaxSeries,
		"flush_interval", cfg.Metrics.FlushInterval.String(),
		"upstreams", len(cfg.Upstreams),
	)
}
