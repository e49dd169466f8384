package health

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/samsk/proxystats/pkg/config"
)

// Resolver resolves a target hostname to its current addresses.
type Resolver interface {
	Lookup(ctx context.Context, host string) ([]string, error)
}

// DNSResolver resolves hostnames by querying nameservers directly over
// UDP. Querying the servers ourselves (instead of the system resolver)
// keeps resolution results and failures observable per server and avoids
// cgo resolver behavior differences across platforms.
type DNSResolver struct {
	servers []string
	timeout time.Duration
}

// NewDNSResolver creates a resolver over the given "host:port"
// nameservers. With no servers, the list is read from /etc/resolv.conf.
func NewDNSResolver(servers ...string) (*DNSResolver, error) {
	if len(servers) == 0 {
		cc, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil {
			return nil, fmt.Errorf("failed to read resolver configuration: %w", err)
		}
		for _, s := range cc.Servers {
			servers = append(servers, net.JoinHostPort(s, cc.Port))
		}
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("no nameservers available")
	}
	return &DNSResolver{
		servers: servers,
		timeout: 800 * time.Millisecond,
	}, nil
}

// Lookup queries each configured server in order and returns the first
// successful A-record answer.
func (r *DNSResolver) Lookup(ctx context.Context, host string) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	c := &dns.Client{Net: "udp", Timeout: r.timeout}

	var lastErr error
	for _, server := range r.servers {
		resp, _, err := c.ExchangeContext(ctx, m, server)
		if err != nil || resp == nil || resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("dns query to %s failed: %v", server, err)
			continue
		}
		ips := make([]string, 0, len(resp.Answer))
		for _, ans := range resp.Answer {
			if a, ok := ans.(*dns.A); ok {
				ips = append(ips, a.A.String())
			}
		}
		if len(ips) > 0 {
			return ips, nil
		}
		lastErr = fmt.Errorf("no A records for %q from %s", host, server)
	}
	return nil, lastErr
}

// ConfigTopology is a Topology built from static upstream configuration,
// resolving target hostnames through a Resolver on every enumeration.
// Resolution happens on the scrape path only.
//
// Without an active health-check subsystem, resolved addresses report
// StateHealthy for upstreams with health checking enabled and
// StateHealthchecksOff otherwise; a pipeline embedding proxystats supplies
// its own Topology carrying real check results.
type ConfigTopology struct {
	upstreams map[string]config.UpstreamConfig
	resolver  Resolver
}

// NewConfigTopology creates a topology over the configured upstreams.
func NewConfigTopology(upstreams []config.UpstreamConfig, resolver Resolver) *ConfigTopology {
	byName := make(map[string]config.UpstreamConfig, len(upstreams))
	for _, up := range upstreams {
		byName[up.Name] = up
	}
	return &ConfigTopology{upstreams: byName, resolver: resolver}
}

// Upstreams returns the configured upstream names; ids equal names.
func (t *ConfigTopology) Upstreams(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(t.upstreams))
	for name := range t.upstreams {
		out[name] = name
	}
	return out, nil
}

// TargetHealth resolves every target of the upstream. Targets that fail
// resolution are present with zero addresses, producing a dns_error row.
func (t *ConfigTopology) TargetHealth(ctx context.Context, id string) (map[string][]Address, error) {
	up, ok := t.upstreams[id]
	if !ok {
		return nil, fmt.Errorf("unknown upstream %q", id)
	}

	state := StateHealthchecksOff
	if up.Healthchecks {
		state = StateHealthy
	}

	out := make(map[string][]Address, len(up.Targets))
	for _, target := range up.Targets {
		name := net.JoinHostPort(target.Host, fmt.Sprintf("%d", target.Port))

		// IP literals need no resolution.
		if net.ParseIP(target.Host) != nil {
			out[name] = []Address{{IP: target.Host, Port: target.Port, State: state}}
			continue
		}

		ips, err := t.resolver.Lookup(ctx, target.Host)
		if err != nil || len(ips) == 0 {
			out[name] = nil
			continue
		}
		addrs := make([]Address, 0, len(ips))
		for _, ip := range ips {
			addrs = append(addrs, Address{IP: ip, Port: target.Port, State: state})
		}
		out[name] = addrs
	}
	return out, nil
}
