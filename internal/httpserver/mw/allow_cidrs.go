package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/tenancy/internal/logger"
	"github.com/MrSnakeDoc/tenancy/internal/utils"
)

// AllowOnlyCIDRS answers 403 to clients outside allowed. An empty or fully
// invalid list lets every client through. trustProxy resolves the client
// from proxy headers.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) Middleware {
	m := utils.NewIPMatcher(allowed)
	if m.Len() == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	log.Debug("client allow list enabled", logger.Int("rules", m.Len()), logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Debug("client rejected",
					logger.String("ip", ip),
					logger.String("host", r.Host),
					logger.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
