package routes

import (
	"net/http"

	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tenancy/internal/metrics"
)

func init() {
	Register(
		Endpoint{
			Method:  http.MethodGet,
			Pattern: "/infra",
			Access:  Restricted,
			Handler: func(d deps.Deps) http.Handler { return handlers.Infra(d) },
		},
		Endpoint{
			Method:  http.MethodGet,
			Pattern: "/metrics",
			Access:  Restricted,
			Handler: func(deps.Deps) http.Handler { return metrics.Handler() },
		},
	)
}
