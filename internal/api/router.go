package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/trendscout/trendscout/internal/api/middleware"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler       http.HandlerFunc
	CreateSearchHandler http.HandlerFunc
	GetSearchHandler    http.HandlerFunc
	HistoryHandler      http.HandlerFunc
	DeleteSearchHandler http.HandlerFunc
	TimeMachineHandler  http.HandlerFunc
	CreateKeyHandler    http.HandlerFunc
	ListKeysHandler     http.HandlerFunc
	RevokeKeyHandler    http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", deps.HealthHandler)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/search", deps.CreateSearchHandler)
		r.Get("/api/v1/search/{requestID}", deps.GetSearchHandler)

		r.Get("/api/v1/history", deps.HistoryHandler)
		r.Delete("/api/v1/history", deps.DeleteSearchHandler)

		r.Post("/api/v1/trends/time-machine", deps.TimeMachineHandler)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("admin"))

			r.Post("/api/v1/admin/keys", deps.CreateKeyHandler)
			r.Get("/api/v1/admin/keys", deps.ListKeysHandler)
			r.Delete("/api/v1/admin/keys/{keyID}", deps.RevokeKeyHandler)
		})
	})

	return r
}
