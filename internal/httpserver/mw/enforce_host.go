package mw

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/tenancy/internal/logger"
	"github.com/MrSnakeDoc/tenancy/internal/utils"
)

// EnforceHost answers 403 unless the request host, port stripped, matches
// one of patterns (see MatchHost). No patterns means no restriction.
func EnforceHost(patterns []string, log logger.Logger) Middleware {
	if len(patterns) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	log.Debug("host allow list enabled", logger.Strings("patterns", patterns))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := utils.HostWithoutPort(r.Host)
			for _, pattern := range patterns {
				if MatchHost(host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Debug("host rejected", logger.String("host", host))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// MatchHost checks host against a domain pattern, case-insensitively:
//   - "shop.example.com" matches exactly
//   - "*.example.com" matches any subdomain of example.com
//   - "shop*" matches any host starting with "shop"
//   - "" matches every host
func MatchHost(host, pattern string) bool {
	host = strings.ToLower(host)
	pattern = strings.ToLower(pattern)

	switch {
	case pattern == "":
		return true
	case host == pattern:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(host, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
