/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/tenancies/*      Tenancy, payment, balance, compliance, notices
  /api/notices/*        Notice lifecycle events
  /api/service-date     Service-date computation

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/rentally-server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Tenancy routes
		r.Route("/tenancies", func(r chi.Router) {
			r.Get("/", h.ListTenancies)
			r.Post("/", h.CreateTenancy)
			r.Get("/{id}", h.GetTenancy)
			r.Get("/{id}/balance", h.GetBalance)
			r.Get("/{id}/compliance", h.GetCompliance)
			r.Get("/{id}/payments", h.ListPayments)
			r.Post("/{id}/payments", h.AddPayment)
			r.Get("/{id}/notices", h.ListNotices)
			r.Post("/{id}/notices", h.RecordNotice)
			r.Post("/{id}/reconcile", h.Reconcile)
		})

		// Notice lifecycle routes
		r.Route("/notices", func(r chi.Router) {
			r.Post("/{id}/events", h.ApplyNoticeEvent)
		})

		// Service-date computation
		r.Post("/service-date", h.ServiceDate)
	})

	return r
}
