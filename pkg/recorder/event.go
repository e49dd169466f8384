package recorder

import "net/url"

// Optional field types. Event fields that may legitimately be absent are
// modeled as explicit optionals rather than zero-value sentinels, so every
// consumer handles the absent case deliberately: a response size of 0 and
// a response size that was never measured are different values.

// OptionalString holds a string that may be absent.
type OptionalString struct {
	value   string
	present bool
}

// String returns a present OptionalString.
func String(v string) OptionalString {
	return OptionalString{value: v, present: true}
}

// Get returns the value and whether it is present.
func (o OptionalString) Get() (string, bool) { return o.value, o.present }

// OrEmpty returns the value, or "" when absent.
func (o OptionalString) OrEmpty() string { return o.value }

// OptionalInt64 holds an int64 that may be absent.
type OptionalInt64 struct {
	value   int64
	present bool
}

// Int64 returns a present OptionalInt64.
func Int64(v int64) OptionalInt64 {
	return OptionalInt64{value: v, present: true}
}

// Get returns the value and whether it is present.
func (o OptionalInt64) Get() (int64, bool) { return o.value, o.present }

// OptionalSeconds holds a duration in seconds that may be absent.
type OptionalSeconds struct {
	value   float64
	present bool
}

// Seconds returns a present OptionalSeconds.
func Seconds(v float64) OptionalSeconds {
	return OptionalSeconds{value: v, present: true}
}

// Get returns the value and whether it is present.
func (o OptionalSeconds) Get() (float64, bool) { return o.value, o.present }

// Latencies carries the per-dimension timings of a completed request.
// Each dimension is recorded independently; an absent or negative value
// skips only that dimension.
type Latencies struct {
	// Total is the full request time.
	Total OptionalSeconds

	// Upstream is the time spent waiting on the upstream.
	Upstream OptionalSeconds

	// Internal is the time spent in internal processing.
	Internal OptionalSeconds
}

// Event describes one completed request or session as handed over by the
// request pipeline. The pipeline produces one Event per finished request.
type Event struct {
	// Service is the resolved service identity. Events without a service
	// are skipped entirely.
	Service OptionalString

	// Route is the resolved route identity, optional.
	Route OptionalString

	// Consumer is the authenticated consumer identity, optional.
	// Consumer-labelled series are only recorded when present and
	// per-consumer tracking is enabled.
	Consumer OptionalString

	// Status is the response status code.
	Status int

	// RequestSize and ResponseSize are body sizes in bytes. Absent or
	// non-positive sizes are skipped.
	RequestSize  OptionalInt64
	ResponseSize OptionalInt64

	// Latency carries the request timings in seconds.
	Latency Latencies

	// QueryParams holds the raw request query parameters.
	QueryParams url.Values

	// Path is the raw request path.
	Path string
}
