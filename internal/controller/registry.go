// Package controller holds the handlers routes files refer to. Handlers are
// registered at init time, either globally ("welcome") or under a service's
// controller namespace ("Services.shop.controllers.checkout").
package controller

import (
	"net/http"
	"sort"
	"sync"
)

var (
	mu       sync.RWMutex
	handlers = map[string]http.Handler{}
)

// Register makes h available under name.
func Register(name string, h http.Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[name] = h
}

// RegisterFunc is Register for plain functions.
func RegisterFunc(name string, f http.HandlerFunc) {
	Register(name, f)
}

// Qualified joins a controller namespace and a handler name.
func Qualified(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// Lookup resolves name inside namespace first, then globally.
func Lookup(namespace, name string) (http.Handler, bool) {
	mu.RLock()
	defer mu.RUnlock()

	if h, ok := handlers[Qualified(namespace, name)]; ok {
		return h, true
	}
	h, ok := handlers[name]
	return h, ok
}

// Names lists every registered handler name, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(handlers))
	for n := range handlers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
