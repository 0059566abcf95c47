package controller

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/tenancy/internal/container"
	"github.com/MrSnakeDoc/tenancy/internal/helper"
)

func init() { RegisterFunc("welcome", Welcome) }

type welcomeResponse struct {
	Service   string   `json:"service"`
	RouteName string   `json:"route_name"`
	URL       string   `json:"url,omitempty"`
	Providers []string `json:"providers"`
}

// Welcome answers with the service owning the request. It is the handler
// seeded into every new routes file.
func Welcome(w http.ResponseWriter, r *http.Request) {
	h, ok := helper.FromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := welcomeResponse{
		Service:   h.CurrentServiceName(),
		RouteName: h.CurrentService().RouteName("index"),
		Providers: []string{},
	}
	if url, err := h.Route("index", nil); err == nil {
		resp.URL = url
	}
	if c, ok := container.FromContext(r.Context()); ok {
		resp.Providers = c.Registered()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(resp)
}
