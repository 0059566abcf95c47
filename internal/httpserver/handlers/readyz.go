package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz reports ready once the catalog declares at least one service and
// route mounting is enabled.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case d.Catalog.Len() == 0:
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "no services declared"})
		case !d.Catalog.Config().Enabled():
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "catalog disabled"})
		default:
			writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
		}
	}
}
