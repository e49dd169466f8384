package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "proxystats",
	Short: "proxystats - gateway metrics aggregation and exposition engine",
	Long: `Proxystats accumulates counters, gauges, and histograms describing gateway
request traffic and exposes them in the Prometheus text exposition format.

It provides:
  - Low-overhead per-request metric recording across concurrent workers
  - A bounded shared aggregation substrate with lock-free hot-path updates
  - Upstream target health rebuilt from the live topology on every scrape
  - Datastore reachability, memory, and connection self-telemetry`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
