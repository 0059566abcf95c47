package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tenancy/internal/logger"
)

type reloadResponse struct {
	Flushed int `json:"flushed"`
}

// Reload drops every cached service router; the next request of each
// service re-reads its routes file.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := d.Mounts.Len()
		d.Mounts.Flush()
		d.Logger.Info("manual reload triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr),
			logger.Int("flushed", n))

		writeJSON(w, http.StatusAccepted, reloadResponse{Flushed: n})
	}
}
