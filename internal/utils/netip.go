// Package utils resolves request hosts and client addresses.
package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyHeaders are consulted in order when the proxy is trusted.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// HostWithoutPort strips the port of "host:port" or "[v6]:port". Values
// without a port are returned unchanged.
func HostWithoutPort(s string) string {
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// parseAddr accepts an address with or without port. IPv4-mapped IPv6
// addresses are unmapped so they match IPv4 rules.
func parseAddr(s string) (netip.Addr, bool) {
	s = strings.TrimSpace(s)
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return a.WithZone("").Unmap(), true
	}
	return netip.Addr{}, false
}

// ClientIP resolves the client address of r. With trustProxy, the first
// valid value among CF-Connecting-IP, the left-most X-Forwarded-For entry
// and X-Real-IP wins; otherwise only RemoteAddr is used. Unparseable
// values yield the raw host of RemoteAddr.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v, _, _ := strings.Cut(r.Header.Get(h), ",")
			if a, ok := parseAddr(v); ok {
				return a.String()
			}
		}
	}
	if a, ok := parseAddr(r.RemoteAddr); ok {
		return a.String()
	}
	return HostWithoutPort(r.RemoteAddr)
}

// IPMatcher matches addresses against a list of prefixes. A bare address
// is a single-address prefix.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher parses list, skipping blank and invalid entries.
func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if a, ok := parseAddr(s); ok {
			m.prefixes = append(m.prefixes, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return m
}

// Len is the number of valid rules.
func (m *IPMatcher) Len() int {
	return len(m.prefixes)
}

// Allow reports whether ip falls within one of the prefixes.
func (m *IPMatcher) Allow(ip string) bool {
	a, ok := parseAddr(ip)
	if !ok {
		return false
	}
	for _, p := range m.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
