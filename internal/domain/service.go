package domain

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MrSnakeDoc/tenancy/internal/config"
)

// Service is one declared sub-application of the catalog.
//
// A Service is uniquely identified by its Name, which is also the root of
// its route names. Identity attributes never change after construction;
// everything else (paths, namespace, route names) is derived on demand from
// the global configuration.
type Service struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	name         string
	routePrefix  string
	subdomain    string
	middleware   []string
	relativePath string

	// ─────────────────────────────
	// Collaborators
	// ─────────────────────────────

	cfg *config.Global
	fs  FileSystem
}

// NewService builds a service from its definition.
func NewService(cfg *config.Global, def config.ServiceDefinition, fs FileSystem) *Service {
	rel := def.RelativePath
	if rel == "" {
		rel = def.Name
	}
	mws := make([]string, len(def.Middleware))
	copy(mws, def.Middleware)

	return &Service{
		name:         def.Name,
		routePrefix:  def.RoutePrefix,
		subdomain:    def.Subdomain,
		middleware:   mws,
		relativePath: rel,
		cfg:          cfg,
		fs:           fs,
	}
}

func (s *Service) Name() string        { return s.name }
func (s *Service) RoutePrefix() string { return s.routePrefix }
func (s *Service) Subdomain() string   { return s.subdomain }

// Middleware returns a copy of the configured middleware identifiers.
func (s *Service) Middleware() []string {
	out := make([]string, len(s.middleware))
	copy(out, s.middleware)
	return out
}

func (s *Service) HasRoutePrefix() bool { return s.routePrefix != "" }
func (s *Service) HasSubdomain() bool   { return s.subdomain != "" }

// ControllerNamespace is the lookup namespace of the service's handlers,
// e.g. "services/shop/controllers" becomes "Services.shop.controllers".
func (s *Service) ControllerNamespace() string {
	joined := path.Join(
		filepath.ToSlash(s.cfg.BasePath),
		filepath.ToSlash(s.relativePath),
		filepath.ToSlash(s.cfg.ControllersDir),
	)
	joined = strings.Trim(joined, "/")
	ns := strings.NewReplacer("/", ".", `\`, ".").Replace(joined)
	return upperFirst(ns)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// BasePath joins fragments under the directory holding every service.
func (s *Service) BasePath(fragment ...string) string {
	return join(s.cfg.AbsBasePath(), fragment)
}

// Path joins fragments under this service's own directory.
func (s *Service) Path(fragment ...string) string {
	return join(s.BasePath(s.relativePath), fragment)
}

func (s *Service) ControllerPath(fragment ...string) string {
	return join(s.Path(s.cfg.ControllersDir), fragment)
}

func (s *Service) ProviderPath(fragment ...string) string {
	return join(s.Path(s.cfg.ProvidersDir), fragment)
}

func (s *Service) RoutePath(fragment ...string) string {
	return join(s.Path(s.cfg.RoutesDir), fragment)
}

func (s *Service) FeaturePath(fragment ...string) string {
	return join(s.Path(s.cfg.FeaturesDir), fragment)
}

func (s *Service) ResourcePath(fragment ...string) string {
	return join(s.Path(s.cfg.ResourcesDir), fragment)
}

func (s *Service) RequestPath(fragment ...string) string {
	return join(s.Path(s.cfg.RequestsDir), fragment)
}

// RoutesFile is the absolute path of the service's routes file.
func (s *Service) RoutesFile() string {
	return s.RoutePath(s.cfg.RoutesFile)
}

// ServiceConfigFile is the absolute path of the per-service config file.
func (s *Service) ServiceConfigFile() string {
	return s.Path(s.cfg.ServiceConfigFile)
}

// Directories lists the six scaffolded directories in a fixed order.
func (s *Service) Directories() []string {
	return []string{
		s.ControllerPath(),
		s.ProviderPath(),
		s.RoutePath(),
		s.FeaturePath(),
		s.ResourcePath(),
		s.RequestPath(),
	}
}

func join(base string, fragment []string) string {
	parts := make([]string, 0, len(fragment)+1)
	parts = append(parts, base)
	for _, f := range fragment {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return filepath.Join(parts...)
}

// RouteName namespaces a route name under the service: the subdomain
// without its trailing dot, the route prefix and name, empty parts omitted.
// Example: subdomain "shop.", prefix "admin", name "index" -> "shop.admin.index"
func (s *Service) RouteName(name string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{strings.TrimSuffix(s.subdomain, "."), s.routePrefix, name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// Domain is the lower-cased host of the request, or "" when unknown.
func (s *Service) Domain(rc RequestContext) string {
	return strings.ToLower(rc.Host)
}
