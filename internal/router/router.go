// Package router mounts the routes files of services onto chi muxes.
//
// Each mount is scoped by its descriptor: routes are grouped under the
// service's path prefix, wrapped in the service's middleware, and bound to
// the mux of the descriptor's domain. A request is served by the mux whose
// domain pattern matches its host, falling back to the host-less mux.
package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tenancy/internal/controller"
	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tenancy/internal/logger"
	"github.com/MrSnakeDoc/tenancy/internal/utils"
)

var (
	ErrUnknownHandler    = errors.New("unknown handler")
	ErrUnknownMiddleware = errors.New("unknown middleware")
	ErrUnknownRoute      = errors.New("unknown route")
	ErrInvalidRoute      = errors.New("invalid route")
	ErrMissingParam      = errors.New("missing route parameter")
)

// FileReader reads routes files.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// HandlerLookup resolves a handler reference inside a controller namespace.
type HandlerLookup func(namespace, name string) (http.Handler, bool)

// MiddlewareLookup resolves a named middleware.
type MiddlewareLookup func(name string) (mw.Middleware, bool)

// Options wires a Router to its collaborators.
type Options struct {
	FS         FileReader
	Handlers   HandlerLookup    // defaults to controller.Lookup
	Middleware MiddlewareLookup // nil: every named middleware is unknown
	Log        logger.Logger
}

// RouteInfo describes one mounted route.
type RouteInfo struct {
	Service    string   `json:"service"`
	Method     string   `json:"method"`
	Pattern    string   `json:"pattern"`
	Name       string   `json:"name,omitempty"`
	Domain     string   `json:"domain,omitempty"`
	Handler    string   `json:"handler"`
	Middleware []string `json:"middleware,omitempty"`
}

// Router is a set of per-domain chi muxes plus a named-route table.
// It implements domain.Mounter.
type Router struct {
	opts Options

	mu      sync.RWMutex
	muxes   map[string]*chi.Mux // domain pattern -> mux, "" for any host
	domains []string            // wildcard patterns in mount order
	names   map[string]string   // route name -> pattern
	routes  []RouteInfo
}

var _ domain.Mounter = (*Router)(nil)

// New returns an empty router.
func New(opts Options) *Router {
	if opts.Handlers == nil {
		opts.Handlers = controller.Lookup
	}
	if opts.Log == nil {
		opts.Log = logger.NewNop()
	}
	return &Router{
		opts:  opts,
		muxes: make(map[string]*chi.Mux),
		names: make(map[string]string),
	}
}

type prepared struct {
	info    RouteInfo
	handler http.Handler
	mws     []mw.Middleware
}

// Mount loads the descriptor's routes file and mounts every route it
// declares. Every reference is resolved before the mux is touched, so a
// failing mount leaves the router unchanged.
func (rt *Router) Mount(d domain.MountDescriptor) (err error) {
	if rt.opts.FS == nil {
		return fmt.Errorf("mount %s: no filesystem", d.Service)
	}
	data, err := rt.opts.FS.ReadFile(d.RoutesFile)
	if err != nil {
		return fmt.Errorf("mount %s: read %s: %w", d.Service, d.RoutesFile, err)
	}
	file, err := ParseRoutes(data)
	if err != nil {
		return fmt.Errorf("mount %s: %s: %w", d.Service, d.RoutesFile, err)
	}

	group, err := rt.middleware(d.Middleware)
	if err != nil {
		return fmt.Errorf("mount %s: %w", d.Service, err)
	}

	routes := make([]prepared, 0, len(file.Routes))
	for i, def := range file.Routes {
		p, err := rt.prepare(d, def)
		if err != nil {
			return fmt.Errorf("mount %s: route #%d: %w", d.Service, i, err)
		}
		routes = append(routes, p)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	// chi panics on malformed patterns (bad regexp, duplicate keys).
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mount %s: %w: %v", d.Service, ErrInvalidRoute, r)
		}
	}()

	mux := rt.muxFor(d.Domain)
	mux.Group(func(g chi.Router) {
		g.Use(group...)
		for _, p := range routes {
			h := withRouteName(p.handler, p.info.Name)
			sub := g.With(p.mws...)
			if p.info.Method == MethodAny {
				sub.Handle(p.info.Pattern, h)
			} else {
				sub.Method(p.info.Method, p.info.Pattern, h)
			}
		}
	})

	for _, p := range routes {
		if p.info.Name != "" {
			rt.names[p.info.Name] = p.info.Pattern
		}
		rt.routes = append(rt.routes, p.info)
	}

	rt.opts.Log.Debug("routes mounted",
		logger.String("service", d.Service),
		logger.String("domain", d.Domain),
		logger.String("prefix", d.PathPrefix),
		logger.Int("routes", len(routes)),
	)
	return nil
}

func (rt *Router) prepare(d domain.MountDescriptor, def RouteDefinition) (prepared, error) {
	method, err := normalizeMethod(def.Method)
	if err != nil {
		return prepared{}, err
	}
	if def.Handler == "" {
		return prepared{}, fmt.Errorf("%w: %s %s: handler is required", ErrInvalidRoute, method, def.Path)
	}

	h, ok := rt.opts.Handlers(d.ControllerNamespace, def.Handler)
	if !ok {
		return prepared{}, fmt.Errorf("%w: %s (namespace %s)", ErrUnknownHandler, def.Handler, d.ControllerNamespace)
	}
	mws, err := rt.middleware(def.Middleware)
	if err != nil {
		return prepared{}, err
	}

	info := RouteInfo{
		Service:    d.Service,
		Method:     method,
		Pattern:    JoinPattern(d.PathPrefix, def.Path),
		Domain:     d.Domain,
		Handler:    def.Handler,
		Middleware: append(append([]string{}, d.Middleware...), def.Middleware...),
	}
	if def.Name != "" {
		info.Name = d.NamePrefix + def.Name
	}
	if len(info.Middleware) == 0 {
		info.Middleware = nil
	}
	return prepared{info: info, handler: h, mws: mws}, nil
}

func (rt *Router) middleware(names []string) ([]mw.Middleware, error) {
	out := make([]mw.Middleware, 0, len(names))
	for _, name := range names {
		if rt.opts.Middleware == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMiddleware, name)
		}
		m, ok := rt.opts.Middleware(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMiddleware, name)
		}
		out = append(out, m)
	}
	return out, nil
}

// muxFor returns the mux of a domain pattern, creating it. Callers hold mu.
func (rt *Router) muxFor(pattern string) *chi.Mux {
	pattern = strings.ToLower(pattern)
	if m, ok := rt.muxes[pattern]; ok {
		return m
	}
	m := chi.NewRouter()
	rt.muxes[pattern] = m
	if pattern != "" {
		rt.domains = append(rt.domains, pattern)
	}
	return m
}

// match selects the mux serving host: exact domain first, then wildcard
// patterns in mount order, then the host-less mux.
func (rt *Router) match(host string) *chi.Mux {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	candidates := hostCandidates(host)
	for _, c := range candidates {
		if m, ok := rt.muxes[c]; ok && c != "" {
			return m
		}
	}
	for _, pattern := range rt.domains {
		for _, c := range candidates {
			if mw.MatchHost(c, pattern) {
				return rt.muxes[pattern]
			}
		}
	}
	return rt.muxes[""]
}

// hostCandidates lists the spellings of host a domain may be declared
// with: as received, without port, without a leading "www.".
func hostCandidates(host string) []string {
	host = strings.ToLower(host)
	noPort := utils.HostWithoutPort(host)

	out := make([]string, 0, 4)
	seen := make(map[string]bool, 4)
	for _, c := range []string{host, noPort, domain.BaseHost(host), domain.BaseHost(noPort)} {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// ServeHTTP dispatches to the mux owning the request host.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := rt.match(r.Host)
	if mux == nil {
		http.NotFound(w, r)
		return
	}
	mux.ServeHTTP(w, r)
}

// Routes lists the mounted routes in mount order.
func (rt *Router) Routes() []RouteInfo {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	out := make([]RouteInfo, len(rt.routes))
	copy(out, rt.routes)
	return out
}

// HasRoute reports whether a route is registered under name.
func (rt *Router) HasRoute(name string) bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	_, ok := rt.names[name]
	return ok
}

// URL builds the path of the named route, filling its parameters.
func (rt *Router) URL(name string, params map[string]string) (string, error) {
	rt.mu.RLock()
	pattern, ok := rt.names[name]
	rt.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, name)
	}
	url, err := Expand(pattern, params)
	if err != nil {
		return "", fmt.Errorf("route %s: %w", name, err)
	}
	return url, nil
}
