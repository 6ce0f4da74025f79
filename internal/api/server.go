/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions for the wallet API's four operations (spec section 6).

ROUTER: chi, for the same reasons this codebase has always picked it:
  lightweight, context-based request scoping, RESTful route patterns.

MIDDLEWARE STACK:
  1. RequestID:  unique ID per request for tracing
  2. Logger:     request logging
  3. Recoverer:  panic recovery (500 instead of crash)
  4. CORS:       cross-origin requests for API clients
  5. httprate:   per-IP-and-endpoint rate limiting, since a payments
                 surface is exactly the kind of endpoint worth bounding
                 request volume on

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: server startup and graceful shutdown
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

const (
	rateLimitRequests = 100
	rateLimitWindow   = time.Minute
)

// NewRouter creates a router with the four wallet endpoints wired up
// under /api/v1, per spec section 6.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(httprate.Limit(
		rateLimitRequests,
		rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/wallets", func(r chi.Router) {
			r.Post("/", h.CreateWallet)
			r.Get("/{id}/balance", h.GetBalance)
			r.Put("/{id}/deposit", h.Deposit)
			r.Put("/{source}/transfer/{target}", h.Transfer)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
