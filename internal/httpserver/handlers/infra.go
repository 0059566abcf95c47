package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
	redisstore "github.com/MrSnakeDoc/tenancy/internal/store/redis"
)

type componentStatus struct {
	OK             bool   `json:"ok"`
	ServicesLoaded *int   `json:"services_loaded,omitempty"`
	CachedRouters  *int   `json:"cached_routers,omitempty"`
	File           string `json:"file,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Impact         string `json:"impact,omitempty"`
	Error          string `json:"error,omitempty"`
}

type serviceInfo struct {
	Name                string   `json:"name"`
	Subdomain           string   `json:"subdomain,omitempty"`
	RoutePrefix         string   `json:"route_prefix,omitempty"`
	Middleware          []string `json:"middleware,omitempty"`
	ControllerNamespace string   `json:"controller_namespace"`
	RoutesFile          string   `json:"routes_file"`
}

type infraResponse struct {
	RoutingMode string                     `json:"routing_mode"`
	Components  map[string]componentStatus `json:"components"`
	Services    []serviceInfo              `json:"services"`
	Usage       []redisstore.ServiceUsage  `json:"usage,omitempty"`
}

// Infra reports the catalog in resolution order, the router cache and the
// usage counters when Redis is configured.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := d.Catalog.Services()
		count := len(services)
		cached := d.Mounts.Len()

		infos := make([]serviceInfo, 0, count)
		for _, svc := range services {
			infos = append(infos, serviceInfo{
				Name:                svc.Name(),
				Subdomain:           svc.Subdomain(),
				RoutePrefix:         svc.RoutePrefix(),
				Middleware:          svc.Middleware(),
				ControllerNamespace: svc.ControllerNamespace(),
				RoutesFile:          svc.RoutesFile(),
			})
		}

		components := map[string]componentStatus{
			"catalog": {
				OK:             count > 0,
				ServicesLoaded: &count,
				File:           d.CatalogFile,
				Mode:           catalogMode(d),
			},
			"router_cache": {
				OK:            true,
				CachedRouters: &cached,
			},
			"redis": checkRedis(r.Context(), d),
		}

		response := infraResponse{
			RoutingMode: determineRoutingMode(components),
			Components:  components,
			Services:    infos,
		}
		if components["redis"].OK && d.Usage != nil {
			if usage, err := d.Usage.Usage(r.Context()); err == nil {
				response.Usage = usage
			}
		}

		writeJSON(w, http.StatusOK, response)
	}
}

func catalogMode(d deps.Deps) string {
	if d.Catalog.Config().Enabled() {
		return "enabled"
	}
	return "disabled"
}

func determineRoutingMode(components map[string]componentStatus) string {
	if catalog, exists := components["catalog"]; exists {
		if !catalog.OK || catalog.Mode == "disabled" {
			return "critical"
		}
	}

	// Redis is optional; down only means counters are not recorded.
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}

	return "optimal"
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "usage-tracking-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "usage-tracking-disabled",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "usage-tracking-enabled",
	}
}
