package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tenancy/internal/container"
	"github.com/MrSnakeDoc/tenancy/internal/domain"
	"github.com/MrSnakeDoc/tenancy/internal/helper"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tenancy/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tenancy/internal/logger"
	"github.com/MrSnakeDoc/tenancy/internal/manager"
)

// Dispatch hands every request outside the infra routes to the service
// owning it. Per request it resolves the current service, builds a
// request-scoped container with the service's providers and aliases, binds
// the helper, and serves through the service's cached router.
func Dispatch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := domain.FromRequest(r)

		m, err := manager.New(d.Catalog, rc, d.FS, d.Logger)
		if err != nil {
			if errors.Is(err, domain.ErrNoMatchingService) {
				d.Logger.Debug("no service for request",
					logger.String("host", rc.Host),
					logger.String("path", rc.Path))
				writeJSON(w, http.StatusNotFound, errorResponse{Error: "no matching service", Host: rc.Host, Path: rc.Path})
				return
			}
			d.Logger.Error("resolve service", logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
			return
		}

		svc := m.Current()
		mw.Annotate(r, svc.Name())

		c := container.New()
		if err := m.Register(c, c); err != nil {
			d.Logger.Error("register service", logger.String("service", svc.Name()), logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
			return
		}

		rt, err := d.Mounts.Get(m)
		if err != nil {
			d.Logger.Error("mount service", logger.String("service", svc.Name()), logger.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
			return
		}
		c.Instance(helper.Binding, helper.New(svc, rt))

		if d.Usage != nil {
			if err := d.Usage.IncrementUsage(r.Context(), svc.Name()); err != nil {
				d.Logger.Debug("failed to record usage", logger.String("service", svc.Name()), logger.Error(err))
			}
		}

		// The service router reuses the routing context of the root mux,
		// which may carry a method-not-allowed verdict for infra paths.
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			rctx.Reset()
		}
		rt.ServeHTTP(w, r.WithContext(container.WithContext(r.Context(), c)))
	}
}
