// Package container is the request-scoped dependency container. Providers
// are registered by name at init time and instantiated into a container
// when the service declaring them handles a request.
package container

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned when a service declares a provider nobody registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider binds instances into a container.
type Provider interface {
	Register(c *Container) error
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(c *Container) error

func (f ProviderFunc) Register(c *Container) error { return f(c) }

var (
	providersMu sync.RWMutex
	providers   = map[string]Provider{}
)

// Provide makes a provider available under name. Call it from init().
func Provide(name string, p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = p
}

func lookupProvider(name string) (Provider, bool) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	p, ok := providers[name]
	return p, ok
}

// Container holds named bindings and aliases.
type Container struct {
	mu         sync.RWMutex
	bindings   map[string]any
	aliases    map[string]string
	registered []string
}

// New returns an empty container.
func New() *Container {
	return &Container{
		bindings: make(map[string]any),
		aliases:  make(map[string]string),
	}
}

// Register runs the named provider against the container. Registering the
// same provider twice is a no-op.
func (c *Container) Register(name string) error {
	p, ok := lookupProvider(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	c.mu.Lock()
	for _, r := range c.registered {
		if r == name {
			c.mu.Unlock()
			return nil
		}
	}
	c.registered = append(c.registered, name)
	c.mu.Unlock()

	if err := p.Register(c); err != nil {
		return fmt.Errorf("provider %s: %w", name, err)
	}
	return nil
}

// Instance binds v under name, replacing any previous binding.
func (c *Container) Instance(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[name] = v
}

// Alias makes alias resolve to target.
func (c *Container) Alias(alias, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = target
}

// Make resolves name, following aliases.
func (c *Container) Make(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := map[string]bool{}
	for {
		target, ok := c.aliases[name]
		if !ok || seen[name] {
			break
		}
		seen[name] = true
		name = target
	}
	v, ok := c.bindings[name]
	return v, ok
}

// Registered lists the providers run against this container, in order.
func (c *Container) Registered() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.registered))
	copy(out, c.registered)
	return out
}

// Aliases lists the registered aliases, sorted.
func (c *Container) Aliases() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.aliases))
	for a := range c.aliases {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// MakeAs resolves name and asserts its type.
func MakeAs[T any](c *Container, name string) (T, bool) {
	var zero T
	v, ok := c.Make(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

type ctxKey struct{}

// WithContext stores the container in ctx.
func WithContext(ctx context.Context, c *Container) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the container stored in ctx, if any.
func FromContext(ctx context.Context) (*Container, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Container)
	return c, ok
}
