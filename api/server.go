/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for scoreboard frontends

ROUTE GROUPS:
  /api/matches/*    Match lifecycle, ledger mutations, snapshots, SSE

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/cricketd: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. allowedOrigins
// feeds the CORS middleware; an empty slice allows nothing cross-origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.ListMatches)
			r.Post("/", h.CreateMatch)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSnapshot)
				r.Get("/stream", h.StreamSnapshots)
				r.Get("/deliveries", h.ListDeliveries)
				r.Post("/deliveries", h.AppendDelivery)
				r.Post("/deliveries/{deliveryID}/correct", h.CorrectDelivery)
				r.Post("/undo", h.UndoLast)
				r.Post("/revision", h.ApplyRevision)
			})
		})
	})

	return r
}
