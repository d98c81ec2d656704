package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/filekeep/server/internal/auth"
	"github.com/filekeep/server/internal/http/handlers"
	"github.com/filekeep/server/internal/middleware"
	"github.com/filekeep/server/internal/repo"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	fileHandler *handlers.FileHandler,
	jwtService *auth.JWTService,
	blacklistRepo repo.BlacklistRepo,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	// Credential endpoints share one IP limiter: 20 per 10 minutes.
	credLimiter := middleware.NewRateLimiter(10*time.Minute, 20)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(credLimiter))
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/signin", authHandler.HandleSignin)
	})
	r.Post("/signin/new_token", authHandler.HandleNewToken)

	// Protected routes (require a valid, non-revoked access token)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtService, blacklistRepo))
		r.Get("/info", authHandler.HandleInfo)
		r.Get("/logout", authHandler.HandleLogout)

		r.Route("/api/file", func(r chi.Router) {
			r.Post("/upload", fileHandler.HandleUpload)
			r.Get("/list", fileHandler.HandleList)
			r.Get("/download/{id}", fileHandler.HandleDownload)
			r.Delete("/delete/{id}", fileHandler.HandleDelete)
			r.Put("/update/{id}", fileHandler.HandleUpdate)
			r.Get("/{id}", fileHandler.HandleGet)
		})
	})

	return r
}
