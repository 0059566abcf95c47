package routes

import (
	"net/http"

	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/handlers"
)

func init() {
	Register(Endpoint{
		Method:  http.MethodGet,
		Pattern: "/readyz",
		Access:  Restricted,
		Handler: func(d deps.Deps) http.Handler { return handlers.Readyz(d) },
	})
}
