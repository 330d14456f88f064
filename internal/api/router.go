package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/faiyaz7283/dashtam-authcore/internal/api/middleware"
)

// buildRouter mounts every route behind the middleware chain spec.md §6
// requires: request id/real ip first, then panic recovery, request
// logging, CORS, the coarse per-IP guard, and finally the precise
// per-endpoint limiter mounted individually on each route group so
// each endpoint can carry its own Rule.
func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS(s.Config.CORSAllowedOrigins))

	ipLimiter := middleware.NewIPRateLimiter(rate.Limit(float64(s.Config.RateLimitPerMinute)/60), s.Config.RateLimitPerMinute)
	r.Use(ipLimiter.Middleware)

	r.Get("/health", s.HealthHandler())

	r.Route("/auth", func(r chi.Router) {
		r.With(s.rateLimit("POST /auth/register")).Post("/register", s.Auth.Register)
		r.With(s.rateLimit("POST /auth/verify-email")).Post("/verify-email", s.Auth.VerifyEmail)
		r.With(s.rateLimit("POST /auth/login")).Post("/login", s.Auth.Login)
		r.With(s.rateLimit("POST /auth/refresh")).Post("/refresh", s.Auth.Refresh)
		r.With(s.rateLimit("POST /auth/logout")).Post("/logout", s.Auth.Logout)

		r.With(s.rateLimit("POST /auth/password-resets")).Post("/password-resets", s.PasswordReset.Request)
		r.With(s.rateLimit("GET /auth/password-resets/{token}")).Get("/password-resets/{token}", s.PasswordReset.Probe)
		r.With(s.rateLimit("PATCH /auth/password-resets/{token}")).Patch("/password-resets/{token}", s.PasswordReset.Confirm)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.Tokens, s.Blacklist))

			r.Get("/me", s.Auth.Me)
			r.Post("/change-password", s.Auth.ChangePassword)

			r.Get("/sessions", s.Sessions.List)
			r.Delete("/sessions/{id}", s.Sessions.Revoke)
			r.Delete("/sessions/others/revoke", s.Sessions.RevokeOthers)
			r.Delete("/sessions/all/revoke", s.Sessions.RevokeAll)
		})
	})

	r.Route("/token-rotation", func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.Tokens, s.Blacklist))

		r.With(s.rateLimit("POST /token-rotation/users/{user_id}")).Post("/users/{user_id}", s.Rotation.RotateUser)
		r.With(s.rateLimit("POST /token-rotation/global")).Post("/global", s.Rotation.RotateGlobal)
		r.Get("/security-config", s.Rotation.SecurityConfig)
	})

	return r
}

// rateLimit builds the precise per-endpoint limiter middleware for a given
// "METHOD /path" key, scoped by authenticated user when present and IP
// otherwise.
func (s *Server) rateLimit(endpoint string) func(http.Handler) http.Handler {
	return middleware.RateLimit(s.Limiter, endpoint, s.identifyByUser)
}
