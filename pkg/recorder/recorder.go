package recorder

import (
	"log/slog"
	"regexp"
	"strconv"
	"sync/atomic"

	"github.com/samsk/proxystats/pkg/config"
	"github.com/samsk/proxystats/pkg/telemetry/metrics"
)

// Options is a compiled, immutable snapshot of the recorder configuration.
// Recorders read the current snapshot through a shared Settings holder, so
// a config reload swaps behavior for all workers atomically.
type Options struct {
	perConsumer bool
	params      []string
	paramRe     *regexp.Regexp
	location    bool
	locationRe  *regexp.Regexp

	// paramsOff is set when the param pattern failed to compile; parameter
	// observations are skipped until a valid configuration arrives.
	paramsOff   bool
	locationOff bool
}

// CompileOptions compiles the recorder configuration. An invalid
// extraction pattern disables its dimension and is logged; it never fails
// request recording.
func CompileOptions(cfg *config.RecorderConfig, logger *slog.Logger) *Options {
	if logger == nil {
		logger = slog.Default()
	}

	opts := &Options{
		perConsumer: cfg.PerConsumer,
		params:      append([]string(nil), cfg.Params...),
		location:    cfg.LocationEnabled,
	}

	if cfg.ParamPattern != "" {
		re, err := regexp.Compile(cfg.ParamPattern)
		if err != nil {
			logger.Error("invalid param extraction pattern, parameter recording disabled",
				"pattern", cfg.ParamPattern,
				"error", err,
			)
			opts.paramsOff = true
		} else {
			opts.paramRe = re
		}
	}
	if cfg.LocationPattern != "" {
		re, err := regexp.Compile(cfg.LocationPattern)
		if err != nil {
			logger.Error("invalid location extraction pattern, location recording disabled",
				"pattern", cfg.LocationPattern,
				"error", err,
			)
			opts.locationOff = true
		} else {
			opts.locationRe = re
		}
	}

	return opts
}

// Settings holds the current recorder Options and supports atomic
// replacement on config reload. One Settings instance is shared by every
// worker's Recorder.
type Settings struct {
	p atomic.Pointer[Options]
}

// NewSettings creates a Settings holder with the given initial options.
func NewSettings(opts *Options) *Settings {
	s := &Settings{}
	s.p.Store(opts)
	return s
}

// Store replaces the current options.
func (s *Settings) Store(opts *Options) { s.p.Store(opts) }

// load returns the current options.
func (s *Settings) load() *Options { return s.p.Load() }

// Recorder translates completed request events into metric updates. One
// Recorder is created per request-handling worker; it owns a reusable
// label buffer and the worker's substrate handle, and must not be shared
// between goroutines.
//
// Recording never affects request outcome: every failure path logs and
// moves on to the remaining updates for the same event.
type Recorder struct {
	gw       *metrics.GatewayMetrics
	worker   *metrics.Worker
	settings *Settings
	logger   *slog.Logger

	// buf is the reusable label-vector buffer. Families copy the labels
	// they need before their update calls return, so reuse across events
	// is safe.
	buf []string
}

// New creates a per-worker Recorder. worker may be nil when the registry
// is disabled; updates then no-op.
func New(gw *metrics.GatewayMetrics, worker *metrics.Worker, settings *Settings, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		gw:       gw,
		worker:   worker,
		settings: settings,
		logger:   logger.With("component", "recorder"),
		buf:      make([]string, 0, 5),
	}
}

// Record applies one completed event to the metric families. An event
// without a service identity is skipped entirely; every other absent or
// malformed field skips only its own sub-metric.
func (r *Recorder) Record(ev *Event) {
	service, ok := ev.Service.Get()
	if !ok {
		return
	}

	opts := r.settings.load()
	route := ev.Route.OrEmpty()
	consumer, hasConsumer := ev.Consumer.Get()
	useConsumer := opts.perConsumer && hasConsumer

	r.recordStatus(ev, service, route, consumer, useConsumer)
	r.recordBandwidth(ev, service, route, consumer, useConsumer)
	r.recordLatency(ev, service, route)
	r.recordParam(ev, opts, service, route, consumer, useConsumer)
	r.recordLocation(ev, opts, service, route, consumer, useConsumer)
}

func (r *Recorder) recordStatus(ev *Event, service, route, consumer string, useConsumer bool) {
	code := strconv.Itoa(ev.Status)
	r.buf = append(r.buf[:0], service, route, code)
	if useConsumer {
		r.inc(r.gw.ConsumerStatus, 1, append(r.buf, consumer))
		return
	}
	r.inc(r.gw.Status, 1, r.buf)
}

func (r *Recorder) recordBandwidth(ev *Event, service, route, consumer string, useConsumer bool) {
	record := func(direction string, size OptionalInt64) {
		v, ok := size.Get()
		if !ok || v <= 0 {
			return
		}
		r.buf = append(r.buf[:0], direction, service, route)
		if useConsumer {
			r.inc(r.gw.ConsumerBandwidth, float64(v), append(r.buf, consumer))
			return
		}
		r.inc(r.gw.Bandwidth, float64(v), r.buf)
	}

	record(metrics.DirectionIngress, ev.RequestSize)
	record(metrics.DirectionEgress, ev.ResponseSize)
}

func (r *Recorder) recordLatency(ev *Event, service, route string) {
	observe := func(h *metrics.Histogram, d OptionalSeconds) {
		v, ok := d.Get()
		if !ok || v < 0 {
			return
		}
		r.buf = append(r.buf[:0], service, route)
		if err := h.Observe(r.worker, v, r.buf); err != nil {
			r.logger.Error("failed to record latency observation",
				"family", h.Name(),
				"error", err,
			)
		}
	}

	observe(r.gw.RequestLatency, ev.Latency.Total)
	observe(r.gw.UpstreamLatency, ev.Latency.Upstream)
	observe(r.gw.InternalLatency, ev.Latency.Internal)
}

func (r *Recorder) recordParam(ev *Event, opts *Options, service, route, consumer string, useConsumer bool) {
	if opts.paramsOff || len(opts.params) == 0 {
		return
	}
	raw, ok := firstScalarParam(ev.QueryParams, opts.params)
	if !ok {
		return
	}
	value, ok := applyPattern(opts.paramRe, raw)
	if !ok {
		return
	}

	r.buf = append(r.buf[:0], service, route, value)
	if useConsumer {
		r.inc(r.gw.ConsumerParam, 1, append(r.buf, consumer))
		return
	}
	r.inc(r.gw.Param, 1, r.buf)
}

func (r *Recorder) recordLocation(ev *Event, opts *Options, service, route, consumer string, useConsumer bool) {
	if !opts.location || opts.locationOff || ev.Path == "" {
		return
	}
	value, ok := applyPattern(opts.locationRe, ev.Path)
	if !ok {
		return
	}

	r.buf = append(r.buf[:0], service, route, value)
	if useConsumer {
		r.inc(r.gw.ConsumerLocation, 1, append(r.buf, consumer))
		return
	}
	r.inc(r.gw.Location, 1, r.buf)
}

// inc applies a counter update, logging failures without propagating them.
func (r *Recorder) inc(c *metrics.Counter, delta float64, lvs []string) {
	if err := c.Inc(r.worker, delta, lvs); err != nil {
		r.logger.Error("failed to record counter update",
			"family", c.Name(),
			"error", err,
		)
	}
}
