package mw

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/tenancy/internal/logger"
)

// Middleware is the chi/net/http middleware shape.
type Middleware = func(http.Handler) http.Handler

// Options configures the built-in named middleware.
type Options struct {
	AllowedCIDRS   []string
	AllowedHosts   []string
	TrustProxy     bool
	RateBurst      int
	RatePerMinute  int
	CompressLevel  int
	ThrottleLimit  int
	ThrottleWindow time.Duration
}

// Registry maps the middleware identifiers services declare to instances.
// Instances are built once, so stateful middleware (rate limiting) is
// shared by every router that mounts it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Middleware
}

// NewRegistry returns a registry holding the built-in middleware:
// log, nocache, realip, strip_slashes, compress, allow_cidrs, enforce_host,
// ratelimit and throttle.
func NewRegistry(log logger.Logger, opts Options) *Registry {
	if opts.CompressLevel <= 0 {
		opts.CompressLevel = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 60
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 60
	}
	if opts.ThrottleLimit <= 0 {
		opts.ThrottleLimit = 100
	}
	if opts.ThrottleWindow <= 0 {
		opts.ThrottleWindow = 10 * time.Second
	}

	r := &Registry{entries: make(map[string]Middleware)}
	r.Register("log", Log(log))
	r.Register("nocache", middleware.NoCache)
	r.Register("realip", middleware.RealIP)
	r.Register("strip_slashes", middleware.StripSlashes)
	r.Register("compress", middleware.Compress(opts.CompressLevel))
	r.Register("allow_cidrs", AllowOnlyCIDRS(opts.AllowedCIDRS, opts.TrustProxy, log))
	r.Register("enforce_host", EnforceHost(opts.AllowedHosts, log))
	r.Register("ratelimit", RateLimit(RateLimitConfig{
		Burst:        opts.RateBurst,
		RefillPerMin: opts.RatePerMinute,
		TrustProxy:   opts.TrustProxy,
		KeyFunc:      HostAndIP,
	}))
	r.Register("throttle", middleware.ThrottleBacklog(opts.ThrottleLimit, opts.ThrottleLimit, opts.ThrottleWindow))
	return r
}

// Register adds or replaces a named middleware.
func (r *Registry) Register(name string, m Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = m
}

// Lookup returns the middleware registered under name.
func (r *Registry) Lookup(name string) (Middleware, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.entries[name]
	return m, ok
}

// Names lists the registered identifiers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for n := range r.entries {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
