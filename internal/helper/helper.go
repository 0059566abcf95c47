// Package helper is the façade handlers use to reach the current service
// and generate URLs for its named routes.
package helper

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/tenancy/internal/container"
	"github.com/MrSnakeDoc/tenancy/internal/domain"
)

const (
	// Alias is the fixed container alias of the helper, always registered.
	Alias = "Tenancy"
	// Binding is the container binding the alias points to.
	Binding = "tenancy.helper"
)

// ErrNoURLGenerator is returned by Route when no router is attached.
var ErrNoURLGenerator = errors.New("no url generator")

// URLGenerator builds the path of a named route.
type URLGenerator interface {
	URL(name string, params map[string]string) (string, error)
}

// Helper exposes the current service to handlers.
type Helper struct {
	current *domain.Service
	urls    URLGenerator
}

// New builds a helper for the current service.
func New(current *domain.Service, urls URLGenerator) *Helper {
	return &Helper{current: current, urls: urls}
}

// Route returns the path of a route of the current service. The name is
// first namespaced with the service's route name, then with the mount name
// prefix ("<service>.<name>").
func (h *Helper) Route(name string, params map[string]string) (string, error) {
	if h.urls == nil {
		return "", ErrNoURLGenerator
	}

	url, err := h.urls.URL(h.current.RouteName(name), params)
	if err == nil {
		return url, nil
	}
	if fallback, ferr := h.urls.URL(h.current.Name()+"."+name, params); ferr == nil {
		return fallback, nil
	}
	return "", fmt.Errorf("route %q of service %s: %w", name, h.current.Name(), err)
}

// CurrentService returns the service handling the request.
func (h *Helper) CurrentService() *domain.Service {
	return h.current
}

// CurrentServiceName returns the name of the service handling the request.
func (h *Helper) CurrentServiceName() string {
	return h.current.Name()
}

// FromContext fetches the helper through the request container.
func FromContext(ctx context.Context) (*Helper, bool) {
	c, ok := container.FromContext(ctx)
	if !ok {
		return nil, false
	}
	return container.MakeAs[*Helper](c, Alias)
}
