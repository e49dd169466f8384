package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/samsk/proxystats/pkg/telemetry/metrics"
)

// State is the health state of one upstream target address. States are
// mutually exclusive: for a given (upstream, target, address) triple
// exactly one state series is 1 and the rest are 0.
type State string

const (
	// StateHealthy marks an address passing health checks.
	StateHealthy State = "healthy"

	// StateUnhealthy marks an address failing health checks.
	StateUnhealthy State = "unhealthy"

	// StateHealthchecksOff marks an address whose upstream has health
	// checking disabled.
	StateHealthchecksOff State = "healthchecks_off"

	// StateDNSError marks a target that resolved to zero addresses. The
	// row carries an empty address.
	StateDNSError State = "dns_error"
)

// allStates enumerates every state series written per triple.
var allStates = [...]State{StateHealthy, StateUnhealthy, StateHealthchecksOff, StateDNSError}

// Address is one resolved target address with its health state.
type Address struct {
	IP    string
	Port  int
	State State
}

// Topology enumerates the live upstream/target/address space. The request
// pipeline's health-check subsystem supplies the production
// implementation; ConfigTopology provides a configuration-driven one for
// standalone deployments.
type Topology interface {
	// Upstreams returns the known upstreams as a name to id mapping.
	Upstreams(ctx context.Context) (map[string]string, error)

	// TargetHealth returns the addresses of every target in the
	// upstream. A target present with zero addresses failed resolution.
	TargetHealth(ctx context.Context, id string) (map[string][]Address, error)
}

// Reconciler rebuilds the upstream target health family on every scrape.
//
// The rebuild is total: the family's entire label space is discarded and
// reconstructed from the current topology enumeration, so entities removed
// since the last scrape disappear exactly when their backing entity does,
// a property incremental updates cannot provide without removal tracking.
type Reconciler struct {
	health *metrics.Gauge
	topo   Topology
	logger *slog.Logger
}

// NewReconciler creates a reconciler writing into the target health family.
func NewReconciler(health *metrics.Gauge, topo Topology, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		health: health,
		topo:   topo,
		logger: logger.With("component", "health.reconciler"),
	}
}

// Rebuild clears the health family and repopulates it from the topology.
// A failed upstream enumeration leaves the family empty for this scrape; a
// failed per-upstream lookup skips only that upstream.
func (r *Reconciler) Rebuild(ctx context.Context) error {
	r.health.Reset()

	upstreams, err := r.topo.Upstreams(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate upstreams: %w", err)
	}

	for name, id := range upstreams {
		targets, err := r.topo.TargetHealth(ctx, id)
		if err != nil {
			r.logger.Warn("failed to fetch target health, skipping upstream",
				"upstream", name,
				"error", err,
			)
			continue
		}

		for target, addrs := range targets {
			if len(addrs) == 0 {
				r.setStates(name, target, "", StateDNSError)
				continue
			}
			for _, addr := range addrs {
				hostport := net.JoinHostPort(addr.IP, strconv.Itoa(addr.Port))
				r.setStates(name, target, hostport, addr.State)
			}
		}
	}
	return nil
}

// setStates writes the full state vector for one triple: 1 for the active
// state, 0 for the rest.
func (r *Reconciler) setStates(upstream, target, address string, active State) {
	for _, s := range allStates {
		var v float64
		if s == active {
			v = 1
		}
		err := r.health.Set(v, []string{upstream, target, address, string(s)})
		if err != nil {
			r.logger.Error("failed to write target health state",
				"upstream", upstream,
				"target", target,
				"address", address,
				"state", s,
				"error", err,
			)
		}
	}
}

// Hook adapts the reconciler to the exposer's scrape hook interface.
func (r *Reconciler) Hook() metrics.ScrapeHook {
	return r.Rebuild
}
