// Proxystats is a metrics aggregation and exposition engine for gateway
// request traffic.
//
// It accumulates counters, gauges, and histograms describing request
// traffic (status codes, latency, bandwidth, custom URL dimensions) and
// publishes point-in-time snapshots in the Prometheus text exposition
// format, rebuilding upstream target health from the live topology on
// every scrape.
//
// Usage:
//
//	# Start the scrape server with default configuration
//	proxystats run
//
//	# Start with a custom configuration file
//	proxystats run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	proxystats validate --config /path/to/config.yaml
//
//	# Show version information
//	proxystats version
package main

func main() {
	Execute()
}
