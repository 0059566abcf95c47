package routes

import (
	"net/http"

	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/handlers"
)

func init() {
	Register(Endpoint{
		Method:  http.MethodPost,
		Pattern: "/reload",
		Access:  Restricted,
		Handler: func(d deps.Deps) http.Handler { return handlers.Reload(d) },
	})
}
