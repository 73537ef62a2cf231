package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/faycr/accounts/internal/auth"
	"github.com/faycr/accounts/internal/handlers"
	"github.com/faycr/accounts/internal/middleware"
)

// RegisterRoutes registers all application routes under /api
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	oauthHandler *handlers.OAuthHandler,
	systemHandler *handlers.SystemHandler,
	tokenManager *auth.TokenManager,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.Route("/api", func(r chi.Router) {
		// Public credential endpoints, rate limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(rateLimitConfig))

			r.Post("/register", authHandler.Register)
			r.Post("/verify-email", authHandler.VerifyEmail)
			r.Post("/resend-verification", authHandler.ResendVerification)
			r.Post("/login", authHandler.Login)
		})

		// Provider sign-in
		r.Get("/auth/google", oauthHandler.GoogleLogin)
		r.Get("/auth/google/callback", oauthHandler.GoogleCallback)
		r.Get("/auth/discord", oauthHandler.DiscordLogin)
		r.Get("/auth/discord/callback", oauthHandler.DiscordCallback)

		// Public client configuration and operational checks
		r.Get("/env", systemHandler.GetEnv)
		r.Get("/test-email", systemHandler.TestEmail)

		// Protected routes - authentication required
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(tokenManager))

			r.Get("/user", userHandler.GetCurrentUser)
			r.Post("/user/profile", userHandler.UpdateProfile)
		})
	})
}
