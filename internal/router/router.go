package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-env-manager/internal/config"
	"go-env-manager/internal/handler"
	"go-env-manager/internal/middleware"
	"go-env-manager/internal/websocket"
)

type Handlers struct {
	Health    *handler.HealthHandler
	Groups    *handler.GroupHandler
	Variables *handler.VariableHandler
	System    *handler.SystemHandler
	Trash     *handler.TrashHandler
}

func New(cfg *config.Config, logger *slog.Logger, authMiddleware *middleware.AuthMiddleware, h Handlers, hub *websocket.Hub) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM)

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", promhttp.Handler())
	if hub != nil {
		r.With(authMiddleware.RequireAuth).Get("/ws", hub.ServeWS)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(authMiddleware.RequireAuth)

		api.Route("/groups", func(groups chi.Router) {
			groups.Get("/", h.Groups.List)
			groups.Post("/", h.Groups.Create)
			groups.Post("/batch-delete", h.Groups.BatchDelete)
			groups.Get("/{id}", h.Groups.Get)
			groups.Put("/{id}", h.Groups.Update)
			groups.Delete("/{id}", h.Groups.Delete)
			groups.Post("/{id}/toggle", h.Groups.Toggle)
		})

		api.Get("/system/variables", h.System.Variables)
		api.Get("/system/groups", h.System.Groups)

		api.Route("/variables", func(vars chi.Router) {
			vars.Get("/", h.Variables.List)
			vars.Post("/", h.Variables.Create)
			vars.Put("/{name}", h.Variables.Update)
			vars.Delete("/{name}", h.Variables.Delete)
			vars.Get("/{name}/segments", h.Variables.Segments)
			vars.Put("/{name}/segments", h.Variables.SaveSegments)
		})

		api.Route("/trash/{tab}", func(trash chi.Router) {
			trash.Get("/", h.Trash.List)
			trash.Post("/cleanup", h.Trash.Cleanup)
			trash.Get("/settings", h.Trash.Settings)
			trash.Patch("/settings", h.Trash.UpdateSettings)
			trash.Delete("/{id}", h.Trash.Delete)
			trash.Post("/{id}/restore", h.Trash.Restore)
		})
	})

	return r
}
