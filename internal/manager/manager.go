// Package manager bootstraps the service owning a request: it resolves the
// current service once, registers its providers and aliases, and mounts
// routes for the current service or, from the console, for every service.
package manager

import (
	"fmt"
	"sort"

	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/helper"
	"github.com/MrSnakeDoc/tenancy/internal/logger"
	"github.com/MrSnakeDoc/tenancy/internal/metrics"
)

// Mode selects which routes Boot mounts.
type Mode int

const (
	// ModeServe mounts the routes of the current service only.
	ModeServe Mode = iota
	// ModeConsole mounts the routes of every service.
	ModeConsole
)

func (m Mode) String() string {
	switch m {
	case ModeServe:
		return "serve"
	case ModeConsole:
		return "console"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Container registers providers by name.
type Container interface {
	Register(provider string) error
}

// AliasRegistry maps alias names to bindings.
type AliasRegistry interface {
	Alias(alias, target string)
}

// Manager holds the catalog and the service resolved for one request
// context. The current service is set once, at construction.
type Manager struct {
	catalog *domain.Catalog
	rc      domain.RequestContext
	current *domain.Service
	fs      domain.FileSystem
	log     logger.Logger
}

// New resolves the current service of rc. A request no service accepts is
// an error: without a current service nothing can be bootstrapped.
func New(cat *domain.Catalog, rc domain.RequestContext, fs domain.FileSystem, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.NewNop()
	}

	current, err := cat.Resolve(rc)
	if err != nil {
		metrics.RecordResolutionFailure()
		return nil, fmt.Errorf("determine current service: %w", err)
	}
	metrics.RecordResolution(current.Name())

	return &Manager{
		catalog: cat,
		rc:      rc,
		current: current,
		fs:      fs,
		log:     log,
	}, nil
}

// Current returns the service owning the request context.
func (m *Manager) Current() *domain.Service {
	return m.current
}

// Services returns the ordered catalog.
func (m *Manager) Services() []*domain.Service {
	return m.catalog.Services()
}

// RequestContext returns the context the manager was resolved for.
func (m *Manager) RequestContext() domain.RequestContext {
	return m.rc
}

// Register wires the current service into the container: its providers in
// declaration order, its aliases sorted by alias, then the helper alias.
func (m *Manager) Register(c Container, a AliasRegistry) error {
	providers, err := m.current.ServiceProviders()
	if err != nil {
		return fmt.Errorf("service %s: %w", m.current.Name(), err)
	}
	for _, p := range providers {
		if err := c.Register(p); err != nil {
			return fmt.Errorf("service %s: %w", m.current.Name(), err)
		}
	}

	aliases, err := m.current.ServiceAliases()
	if err != nil {
		return fmt.Errorf("service %s: %w", m.current.Name(), err)
	}
	names := make([]string, 0, len(aliases))
	for alias := range aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	for _, alias := range names {
		a.Alias(alias, aliases[alias])
	}

	a.Alias(helper.Alias, helper.Binding)
	return nil
}

// Boot mounts routes according to mode. It does nothing when the catalog
// is disabled.
func (m *Manager) Boot(mounter domain.Mounter, mode Mode) error {
	if !m.catalog.Config().Enabled() {
		m.log.Debug("boot skipped, catalog disabled")
		return nil
	}

	services := []*domain.Service{m.current}
	if mode == ModeConsole {
		services = m.catalog.Services()
	}

	for _, svc := range services {
		mounted, err := svc.RegisterRoutes(mounter, m.rc)
		if err != nil {
			return err
		}
		if !mounted {
			m.log.Debug("no routes file", logger.String("service", svc.Name()), logger.String("file", svc.RoutesFile()))
			continue
		}
		metrics.RecordMount(svc.Name())
	}
	return nil
}

// EnsureDirectoriesExisting creates the base and domains paths, then the
// directories of every service.
func (m *Manager) EnsureDirectoriesExisting() error {
	cfg := m.catalog.Config()
	for _, dir := range []string{cfg.AbsBasePath(), cfg.AbsDomainsPath()} {
		if err := m.fs.MkdirAll(dir, domain.DirPerm); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	for _, svc := range m.catalog.Services() {
		if err := svc.EnsureDirectoriesExisting(); err != nil {
			return err
		}
	}
	return nil
}

// EnsureFilesExisting seeds the files of every service.
func (m *Manager) EnsureFilesExisting() error {
	for _, svc := range m.catalog.Services() {
		if err := svc.EnsureFilesExisting(); err != nil {
			return err
		}
	}
	return nil
}
