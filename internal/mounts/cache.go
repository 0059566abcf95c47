// Package mounts caches the routers built for services, so the routes file
// of a service is parsed once per TTL instead of once per request.
package mounts

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/logger"
	"github.com/MrSnakeDoc/tenancy/internal/manager"
	"github.com/MrSnakeDoc/tenancy/internal/router"
)

const DefaultTTL = 10 * time.Minute

// BuildFunc builds the router of the manager's current service.
type BuildFunc func(m *manager.Manager) (*router.Router, error)

// Cache holds built routers keyed by service name. The number of entries
// is bounded by the catalog, whatever hosts clients send.
type Cache struct {
	cache *gocache.Cache
	build BuildFunc
	log   logger.Logger

	mu sync.Mutex // serializes builds
}

// New returns a cache whose entries expire after ttl.
func New(ttl time.Duration, build BuildFunc, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Cache{
		cache: gocache.New(ttl, 2*ttl),
		build: build,
		log:   log,
	}
}

// Key is the cache key of the current service of m.
func Key(m *manager.Manager) string {
	return m.Current().Name()
}

// Get returns the cached router of m's current service, building it on a miss.
func (c *Cache) Get(m *manager.Manager) (*router.Router, error) {
	key := Key(m)
	if rt, ok := c.lookup(key); ok {
		return rt, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if rt, ok := c.lookup(key); ok {
		return rt, nil
	}

	rt, err := c.build(m)
	if err != nil {
		return nil, fmt.Errorf("build router %s: %w", key, err)
	}
	c.cache.SetDefault(key, rt)
	c.log.Debug("router cached", logger.String("key", key), logger.Int("routes", len(rt.Routes())))
	return rt, nil
}

func (c *Cache) lookup(key string) (*router.Router, bool) {
	v, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	rt, ok := v.(*router.Router)
	if !ok {
		c.log.Error("wrong type in router cache", logger.String("key", key))
		return nil, false
	}
	return rt, true
}

// Flush drops every cached router.
func (c *Cache) Flush() {
	n := c.cache.ItemCount()
	c.cache.Flush()
	c.log.Info("router cache flushed", logger.Int("entries", n))
}

// Len returns the number of cached routers.
func (c *Cache) Len() int {
	return c.cache.ItemCount()
}

// Builder returns a BuildFunc mounting the current service's routes into a
// fresh router configured with opts. Subdomain services are mounted on
// "<subdomain>*" rather than the request host, so the router serves every
// host the service resolves for.
func Builder(opts router.Options) BuildFunc {
	return func(m *manager.Manager) (*router.Router, error) {
		rt := router.New(opts)
		if err := m.Boot(anyHost{Router: rt, svc: m.Current()}, manager.ModeServe); err != nil {
			return nil, err
		}
		return rt, nil
	}
}

type anyHost struct {
	*router.Router
	svc *domain.Service
}

func (a anyHost) Mount(d domain.MountDescriptor) error {
	if a.svc.HasSubdomain() {
		d.Domain = a.svc.Subdomain() + "*"
	}
	return a.Router.Mount(d)
}
