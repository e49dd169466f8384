package metrics

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ScrapeHook is a collector invoked on the scrape path before
// serialization. Hooks refresh externally-sourced families: the health
// reconciler, the datastore probe, memory and connection gauges. Hooks may
// block; they never run on the request hot path.
//
// A hook error marks the scrape as degraded and is logged, but the scrape
// still completes with the data it has.
type ScrapeHook func(ctx context.Context) error

type scrapeHook struct {
	name string
	fn   ScrapeHook
}

// Exposer produces the exposition payload: it flushes worker buffers, runs
// the registered scrape hooks, and serializes the registry.
type Exposer struct {
	registry *Registry
	logger   *slog.Logger
	hooks    []scrapeHook
}

// NewExposer creates an exposer over the registry.
func NewExposer(r *Registry, logger *slog.Logger) *Exposer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exposer{
		registry: r,
		logger:   logger.With("component", "metrics.exposer"),
	}
}

// OnScrape registers a named hook to run on every scrape, in registration
// order. Not safe to call concurrently with scrapes; register everything
// during initialization.
func (e *Exposer) OnScrape(name string, fn ScrapeHook) {
	e.hooks = append(e.hooks, scrapeHook{name: name, fn: fn})
}

// Collect writes the exposition payload to w. It returns
// ErrRegistryDisabled if the registry never initialized; hook failures
// degrade the payload but do not fail the collection.
func (e *Exposer) Collect(ctx context.Context, w *bytes.Buffer) error {
	if e.registry.Disabled() {
		return ErrRegistryDisabled
	}

	start := time.Now()
	e.registry.Substrate().FlushWorkers()

	for _, h := range e.hooks {
		if err := h.fn(ctx); err != nil {
			e.logger.Error("scrape hook failed, continuing with partial data",
				"hook", h.name,
				"error", err,
			)
		}
	}

	if err := e.registry.WriteText(w); err != nil {
		return err
	}

	e.logger.Debug("scrape collected",
		"duration_ms", time.Since(start).Milliseconds(),
		"bytes", w.Len(),
	)
	return nil
}

// Handler returns the scrape endpoint. The payload is buffered before any
// byte is written so a failed collection yields a clean 500 instead of a
// truncated 200.
func (e *Exposer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := e.Collect(r.Context(), &buf); err != nil {
			e.logger.Error("failed to collect metrics snapshot", "error", err)
			http.Error(w, "failed to collect metrics", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	})
}
