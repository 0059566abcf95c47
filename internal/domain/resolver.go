package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatchingService is returned when no catalog entry owns a request.
var ErrNoMatchingService = errors.New("no matching service")

// Resolve walks the ordered services and returns the first one whose
// subdomain and route prefix both accept the request. A service without a
// subdomain accepts any host; one without a prefix accepts any path.
func Resolve(services []*Service, rc RequestContext) (*Service, error) {
	baseHost := BaseHost(rc.Host)
	path := strings.ToLower(rc.Path)

	for _, svc := range services {
		if svc.HasSubdomain() && !MatchesSubdomain(baseHost, svc.Subdomain()) {
			continue
		}
		if svc.HasRoutePrefix() && !MatchesRoutePrefix(path, svc.RoutePrefix()) {
			continue
		}
		return svc, nil
	}

	return nil, fmt.Errorf("%w: host=%q path=%q", ErrNoMatchingService, rc.Host, rc.Path)
}

// BaseHost lower-cases the host and strips a leading "www.".
// Example: "WWW.Shop.example.com" -> "shop.example.com"
func BaseHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// MatchesSubdomain reports whether baseHost starts with subdomain. The
// subdomain is compared as configured, so one holding upper-case letters
// never matches a lower-cased host.
func MatchesSubdomain(baseHost, subdomain string) bool {
	return strings.HasPrefix(baseHost, subdomain)
}

// MatchesRoutePrefix reports whether path holds one or more slashes
// immediately followed by prefix, anywhere in the path. Comparison is
// case-insensitive.
// Example: prefix "admin" matches "/admin/x", "//admin" and "/shop/administration".
func MatchesRoutePrefix(path, prefix string) bool {
	path = strings.ToLower(path)
	prefix = strings.ToLower(prefix)
	if prefix == "" {
		return true
	}

	for i := 0; i < len(path); i++ {
		if path[i] != '/' {
			continue
		}
		if strings.HasPrefix(path[i+1:], prefix) {
			return true
		}
	}
	return false
}
