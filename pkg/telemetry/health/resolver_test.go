package health

import (
	"context"
	"fmt"
	"testing"

	"github.com/samsk/proxystats/pkg/config"
)

// fakeResolver maps hostnames to fixed answers.
type fakeResolver struct {
	answers map[string][]string
	calls   []string
}

func (f *fakeResolver) Lookup(ctx context.Context, host string) ([]string, error) {
	f.calls = append(f.calls, host)
	ips, ok := f.answers[host]
	if !ok {
		return nil, fmt.Errorf("no such host %q", host)
	}
	return ips, nil
}

func TestConfigTopology_Upstreams(t *testing.T) {
	topo := NewConfigTopology([]config.UpstreamConfig{
		{Name: "api"},
		{Name: "admin"},
	}, &fakeResolver{})

	ups, err := topo.Upstreams(context.Background())
	if err != nil {
		t.Fatalf("upstreams failed: %v", err)
	}
	if len(ups) != 2 {
		t.Fatalf("expected 2 upstreams, got %d", len(ups))
	}
	// Ids equal names for configuration-driven topologies.
	if ups["api"] != "api" || ups["admin"] != "admin" {
		t.Errorf("expected name-keyed ids, got %v", ups)
	}
}

func TestConfigTopology_TargetHealthResolves(t *testing.T) {
	resolver := &fakeResolver{answers: map[string][]string{
		"backend.internal": {"10.0.0.1", "10.0.0.2"},
	}}
	topo := NewConfigTopology([]config.UpstreamConfig{{
		Name:         "api",
		Healthchecks: true,
		Targets: []config.TargetConfig{
			{Host: "backend.internal", Port: 8080},
		},
	}}, resolver)

	targets, err := topo.TargetHealth(context.Background(), "api")
	if err != nil {
		t.Fatalf("target health failed: %v", err)
	}

	addrs := targets["backend.internal:8080"]
	if len(addrs) != 2 {
		t.Fatalf("expected 2 resolved addresses, got %d", len(addrs))
	}
	for _, a := range addrs {
		if a.Port != 8080 {
			t.Errorf("expected port 8080, got %d", a.Port)
		}
		if a.State != StateHealthy {
			t.Errorf("expected healthy state with healthchecks on, got %s", a.State)
		}
	}
}

func TestConfigTopology_HealthchecksOffState(t *testing.T) {
	topo := NewConfigTopology([]config.UpstreamConfig{{
		Name: "api",
		Targets: []config.TargetConfig{
			{Host: "10.0.0.9", Port: 80},
		},
	}}, &fakeResolver{})

	targets, err := topo.TargetHealth(context.Background(), "api")
	if err != nil {
		t.Fatalf("target health failed: %v", err)
	}
	addrs := targets["10.0.0.9:80"]
	if len(addrs) != 1 || addrs[0].State != StateHealthchecksOff {
		t.Errorf("expected healthchecks_off state, got %v", addrs)
	}
}

func TestConfigTopology_IPLiteralSkipsResolution(t *testing.T) {
	resolver := &fakeResolver{}
	topo := NewConfigTopology([]config.UpstreamConfig{{
		Name: "api",
		Targets: []config.TargetConfig{
			{Host: "192.168.1.5", Port: 443},
		},
	}}, resolver)

	targets, err := topo.TargetHealth(context.Background(), "api")
	if err != nil {
		t.Fatalf("target health failed: %v", err)
	}
	if len(resolver.calls) != 0 {
		t.Errorf("expected no resolver calls for IP literal, got %v", resolver.calls)
	}
	addrs := targets["192.168.1.5:443"]
	if len(addrs) != 1 || addrs[0].IP != "192.168.1.5" {
		t.Errorf("expected IP literal passed through, got %v", addrs)
	}
}

func TestConfigTopology_ResolutionFailureYieldsZeroAddresses(t *testing.T) {
	topo := NewConfigTopology([]config.UpstreamConfig{{
		Name: "api",
		Targets: []config.TargetConfig{
			{Host: "gone.internal", Port: 80},
		},
	}}, &fakeResolver{})

	targets, err := topo.TargetHealth(context.Background(), "api")
	if err != nil {
		t.Fatalf("target health failed: %v", err)
	}

	addrs, present := targets["gone.internal:80"]
	if !present {
		t.Fatal("expected unresolvable target present in enumeration")
	}
	if len(addrs) != 0 {
		t.Errorf("expected zero addresses for failed resolution, got %v", addrs)
	}
}

func TestConfigTopology_UnknownUpstream(t *testing.T) {
	topo := NewConfigTopology(nil, &fakeResolver{})
	if _, err := topo.TargetHealth(context.Background(), "nope"); err == nil {
		t.Error("expected error for unknown upstream id")
	}
}
