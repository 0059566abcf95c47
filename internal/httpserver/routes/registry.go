package routes

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/mw"
)

// Access controls which clients reach an infra endpoint.
type Access int

const (
	Public     Access = iota
	Restricted        // clients matching AllowedCIDRS only
)

// Endpoint is an infra route answered before any service of the catalog.
// Only its method is reserved: other methods on the same path fall through
// to the service dispatcher.
type Endpoint struct {
	Method  string
	Pattern string
	Access  Access
	Handler func(d deps.Deps) http.Handler
}

var registry []Endpoint

// Register adds infra endpoints. Called from init functions.
func Register(e ...Endpoint) {
	registry = append(registry, e...)
}

// RegisterAll mounts the infra endpoints. Called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	restrict := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
	for _, e := range Endpoints() {
		h := e.Handler(d)
		if e.Access == Restricted {
			h = restrict(h)
		}
		r.Method(e.Method, e.Pattern, h)
	}
}

// Endpoints lists the registered endpoints by pattern, then method.
func Endpoints() []Endpoint {
	out := append([]Endpoint(nil), registry...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out
}
