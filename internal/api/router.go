/**
 * @description
 * HTTP router setup for the billing API using go-chi/chi.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	requestTimeout = 60 * time.Second
	// The pairing batch walks every airport and can outlast a normal request.
	pairingTimeout = 10 * time.Minute
)

// NewRouter creates a new Chi router and registers the billing API routes.
// auth resolves the caller identity for the public group.
func NewRouter(h *Handler, auth func(http.Handler) http.Handler, internalKey string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Internal-API-Key"},
		ExposedHeaders:   []string{"Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.Timeout(pairingTimeout))
		r.Use(InternalAuthMiddleware(internalKey))
		r.Post("/rotations/pair", h.handlePairRotations)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(auth)
		r.Post("/billing/calculate", h.handleCalculateBilling)
		r.Get("/analytics/{metric}", h.handleAnalytics)
	})

	return r
}
