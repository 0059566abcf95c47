package routes

import (
	"net/http"

	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/handlers"
)

func init() {
	Register(Endpoint{
		Method:  http.MethodGet,
		Pattern: "/healthz",
		Access:  Public,
		Handler: func(d deps.Deps) http.Handler { return handlers.Healthz(d) },
	})
}
