package domain

import "fmt"

// MountDescriptor describes how a service's routes file is mounted.
type MountDescriptor struct {
	Service             string   // owning service name
	NamePrefix          string   // prepended to every route name, "<service>."
	PathPrefix          string   // optional URL prefix
	Domain              string   // optional host constraint, "shop*" style wildcard allowed
	Middleware          []string // optional named middleware
	ControllerNamespace string   // handler lookup namespace
	RoutesFile          string   // absolute path of the routes file
}

// Mounter loads a routes file and mounts it under the descriptor's scope.
type Mounter interface {
	Mount(d MountDescriptor) error
}

// MountDescriptor builds the descriptor of this service for the given request.
// A subdomain-bound service is constrained to the concrete request host when
// known, otherwise to the subdomain followed by a wildcard.
func (s *Service) MountDescriptor(rc RequestContext) MountDescriptor {
	d := MountDescriptor{
		Service:             s.name,
		NamePrefix:          s.name + ".",
		PathPrefix:          s.routePrefix,
		ControllerNamespace: s.ControllerNamespace(),
		RoutesFile:          s.RoutesFile(),
	}
	if s.HasSubdomain() {
		if host := s.Domain(rc); host != "" {
			d.Domain = host
		} else {
			d.Domain = s.subdomain + "*"
		}
	}
	if len(s.middleware) > 0 {
		d.Middleware = s.Middleware()
	}
	return d
}

func (s *Service) routesReadable() bool {
	_, err := s.fs.ReadFile(s.RoutesFile())
	return err == nil
}

// RegisterRoutes hands the service's routes to the mounter and reports
// whether it did. A missing or unreadable routes file mounts nothing.
func (s *Service) RegisterRoutes(m Mounter, rc RequestContext) (bool, error) {
	if !s.routesReadable() {
		return false, nil
	}
	if err := m.Mount(s.MountDescriptor(rc)); err != nil {
		return false, fmt.Errorf("service %s: mount routes: %w", s.name, err)
	}
	return true, nil
}
