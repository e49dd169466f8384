package server

import (
	"net"
	"net/http"
	"sync"
)

// ConnTracker counts scrape-server connections by state via the
// http.Server ConnState callback. Counts feed the connections gauge on
// each scrape. The scrape endpoint sees a handful of connections, so a
// mutex-protected state map is plenty.
type ConnTracker struct {
	mu       sync.Mutex
	states   map[net.Conn]http.ConnState
	accepted int64
	handled  int64
	requests int64
}

// NewConnTracker creates an empty tracker.
func NewConnTracker() *ConnTracker {
	return &ConnTracker{states: map[net.Conn]http.ConnState{}}
}

// ConnState is installed as the http.Server ConnState callback.
func (t *ConnTracker) ConnState(c net.Conn, state http.ConnState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch state {
	case http.StateNew:
		// The server never refuses a connection it accepted, so
		// handled tracks accepted.
		t.accepted++
		t.handled++
		t.states[c] = state
	case http.StateActive:
		t.requests++
		t.states[c] = state
	case http.StateIdle:
		t.states[c] = state
	case http.StateClosed, http.StateHijacked:
		delete(t.states, c)
	}
}

// Counters returns the current counts keyed by state label value:
// cumulative accepted/handled/total plus instantaneous active/waiting.
// Read and write phases are not observable through ConnState, so
// reading and writing always report zero.
func (t *ConnTracker) Counters() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var active, waiting float64
	for _, st := range t.states {
		switch st {
		case http.StateIdle:
			waiting++
		default:
			active++
		}
	}
	return map[string]float64{
		"accepted": float64(t.accepted),
		"handled":  float64(t.handled),
		"total":    float64(t.requests),
		"active":   active,
		"reading":  0,
		"writing":  0,
		"waiting":  waiting,
	}
}
