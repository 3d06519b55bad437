package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phbpx/leadsync/metrics"
	"github.com/riandyrn/otelchi"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Leads  *LeadHandler
	Status *StatusHandler
	Health *HealthHandler
}

// NewRouter mounts the API under /api, plus /health and /metrics.
func NewRouter(serverName string, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(otelchi.Middleware(serverName, otelchi.WithChiRoutes(r)))
	r.Use(metrics.Middleware)

	r.Get("/health", h.Health.Handle)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.Leads.Root)
		r.Post("/sync-leads", h.Leads.Sync)
		r.Get("/test-connection", h.Leads.TestConnection)
		r.Get("/leads", h.Leads.List)
		r.Get("/stats", h.Leads.Stats)
		r.Post("/refresh-data", h.Leads.Refresh)

		r.Post("/status", h.Status.Create)
		r.Get("/status", h.Status.List)
	})

	return r
}
