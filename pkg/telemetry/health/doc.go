// Package health supplies the scrape-path collectors that describe
// gateway health: the upstream target health reconciler, the datastore
// connectivity probe, and memory/connection gauges.
//
// The reconciler rebuilds the target health family from scratch every
// scrape (reset, then full repopulation from the live topology) so stale
// series vanish the moment their backing target does. Every collector in
// this package may block and therefore runs only as an exposer scrape
// hook, never on the request hot path.
package health
