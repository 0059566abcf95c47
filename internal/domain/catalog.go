package domain

import (
	"cmp"
	"slices"

	"github.com/MrSnakeDoc/tenancy/internal/config"
)

// Catalog is the ordered, immutable list of declared services.
type Catalog struct {
	cfg      *config.Global
	services []*Service
	byName   map[string]*Service
}

// NewCatalog builds the services of cfg and orders them by specificity.
// An empty configuration yields an empty catalog; the problem surfaces at
// resolution time.
func NewCatalog(cfg *config.Global, fs FileSystem) *Catalog {
	services := make([]*Service, 0, len(cfg.Services))
	byName := make(map[string]*Service, len(cfg.Services))
	for _, def := range cfg.Services {
		svc := NewService(cfg, def, fs)
		services = append(services, svc)
		byName[svc.Name()] = svc
	}

	Order(services)

	return &Catalog{
		cfg:      cfg,
		services: services,
		byName:   byName,
	}
}

// Order sorts services in place by (has subdomain desc, has prefix desc),
// keeping declaration order between services that tie on both.
func Order(services []*Service) {
	slices.SortStableFunc(services, func(a, b *Service) int {
		return cmp.Compare(specificity(a), specificity(b))
	})
}

// specificity ranks a service: lower sorts first.
func specificity(s *Service) int {
	rank := 0
	if !s.HasSubdomain() {
		rank += 2
	}
	if !s.HasRoutePrefix() {
		rank++
	}
	return rank
}

// Services returns the ordered services. The slice is a copy.
func (c *Catalog) Services() []*Service {
	return slices.Clone(c.services)
}

// Lookup finds a service by name.
func (c *Catalog) Lookup(name string) (*Service, bool) {
	svc, ok := c.byName[name]
	return svc, ok
}

// Len returns the number of services.
func (c *Catalog) Len() int {
	return len(c.services)
}

// Config returns the configuration the catalog was built from.
func (c *Catalog) Config() *config.Global {
	return c.cfg
}

// Resolve selects the service owning the request.
func (c *Catalog) Resolve(rc RequestContext) (*Service, error) {
	return Resolve(c.services, rc)
}
