// Package recorder translates completed request events into a bounded set
// of metric updates: a status counter, ingress/egress bandwidth counters,
// up to three latency observations, and optional URL parameter and
// location counters with regex extraction.
//
// Recording sits on the request hot path, so the package is built around
// two rules: a Recorder is worker-confined (reusable label buffer, no
// locks), and nothing recorded here can affect the request outcome: any
// extraction or update failure logs and degrades to skipping that one
// sub-metric.
//
// Event fields that may be absent use explicit optional types; see Event.
package recorder
