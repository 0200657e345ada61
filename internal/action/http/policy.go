package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// IPResolver resolves a host name. *net.Resolver satisfies it.
type IPResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// HostPolicy restricts which hosts a Dispatcher may contact. The zero value
// allows every host.
type HostPolicy struct {
	// AllowedHosts lists permitted hosts. "*.example.com" matches any
	// subdomain of example.com. Empty allows all hosts.
	AllowedHosts []string

	// BlockPrivateIPs rejects hosts that are, or resolve to, loopback,
	// private, link-local or unspecified addresses.
	BlockPrivateIPs bool

	// Resolver is used by BlockPrivateIPs (default: net.DefaultResolver).
	Resolver IPResolver
}

// Enabled reports whether the policy restricts anything.
func (p HostPolicy) Enabled() bool {
	return len(p.AllowedHosts) > 0 || p.BlockPrivateIPs
}

// Check validates the target of u. It returns a *BlockedHostError for a
// rejected host and a *TransportError when the host cannot be resolved.
func (p HostPolicy) Check(ctx context.Context, u *url.URL) error {
	if !p.Enabled() {
		return nil
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return &BlockedHostError{Host: host, Reason: "url has no host"}
	}

	if len(p.AllowedHosts) > 0 && !p.allowed(host) {
		return &BlockedHostError{Host: host, Reason: "not in allowed hosts"}
	}

	if !p.BlockPrivateIPs {
		return nil
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return &BlockedHostError{Host: host, Reason: "private address " + ip.String()}
		}
		return nil
	}

	resolver := p.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return &TransportError{URL: u.Redacted(), Err: fmt.Errorf("resolving %s: %w", host, err)}
	}
	for _, addr := range addrs {
		if isPrivateIP(addr.IP) {
			return &BlockedHostError{Host: host, Reason: "resolves to private address " + addr.IP.String()}
		}
	}
	return nil
}

// CheckRedirect applies the policy to each redirect target. It chains to
// next when the target is allowed.
func (p HostPolicy) CheckRedirect(next func(*http.Request, []*http.Request) error) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if err := p.Check(req.Context(), req.URL); err != nil {
			return err
		}
		if next != nil {
			return next(req, via)
		}
		return nil
	}
}

func (p HostPolicy) allowed(host string) bool {
	for _, pattern := range p.AllowedHosts {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if host == pattern {
			return true
		}
		if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(host, pattern[1:]) {
			return true
		}
	}
	return false
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
