package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNSClass is a coarse verdict on whether a host name resolves.
type DNSClass string

const (
	DNSResolves     DNSClass = "RESOLVES"
	DNSNXDomain     DNSClass = "NXDOMAIN"
	DNSNoARecord    DNSClass = "NO_A_RECORD"
	DNSServFail     DNSClass = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName  DNSClass = "INVALID_NAME"
	defaultDNSLimit          = 3 * time.Second
)

// DNSStatus explains a host lookup. It is attached to transport failures as
// a hint and never changes a probe outcome.
type DNSStatus struct {
	Host          string   `json:"host"`
	Class         DNSClass `json:"class"`
	IPs           []string `json:"ips,omitempty"`
	Nameservers   []string `json:"nameservers,omitempty"`
	ResolverError string   `json:"resolver_error,omitempty"`
}

// Resolver is the subset of *net.Resolver used by DiagnoseHost.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// HostOf returns the host name of target, or target itself when it does not
// parse.
func HostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Hostname() == "" {
		return target
	}
	return u.Hostname()
}

// DiagnoseHost classifies host using r (the OS resolver when nil).
func DiagnoseHost(ctx context.Context, r Resolver, host string) DNSStatus {
	s := DNSStatus{Host: strings.TrimSpace(host)}
	if s.Host == "" || strings.Contains(s.Host, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if ip := net.ParseIP(s.Host); ip != nil {
		s.Class = DNSResolves
		s.IPs = []string{ip.String()}
		return s
	}
	if r == nil {
		r = net.DefaultResolver
	}
	ctx, cancel := context.WithTimeout(ctx, defaultDNSLimit)
	defer cancel()

	addrs, err := r.LookupIPAddr(ctx, s.Host)
	switch {
	case err == nil && len(addrs) > 0:
		for _, a := range addrs {
			s.IPs = append(s.IPs, a.IP.String())
		}
		s.Class = DNSResolves
		return s
	case err != nil:
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) && (de.IsTemporary || de.IsTimeout) {
			s.Class = DNSServFail
		} else {
			s.Class = DNSNXDomain
		}
	default:
		s.Class = DNSNXDomain
	}

	if ns, err := r.LookupNS(ctx, s.Host); err == nil && len(ns) > 0 {
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if s.Class == DNSNXDomain {
			s.Class = DNSNoARecord
		}
	}
	return s
}
