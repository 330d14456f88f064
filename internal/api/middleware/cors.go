package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// ValidateCORSOrigins rejects wildcard origins and enforces HTTPS (except
// localhost, for local development), grounded on the reference
// internal/storage/cors_validation.go ValidateCORSOrigins, adapted to drop
// the per-tenant origin list this module has no concept of. Called once at
// startup against config, before CORS is ever built.
func ValidateCORSOrigins(origins []string) error {
	for _, origin := range origins {
		if origin == "" || strings.Contains(origin, " ") {
			return errInvalidOrigin
		}
		if origin == "*" {
			return errWildcardOrigin
		}
		if !strings.HasPrefix(origin, "https://") && !strings.HasPrefix(origin, "http://localhost") {
			return errNonHTTPSOrigin
		}
	}
	return nil
}

var (
	errInvalidOrigin  = simpleErr("middleware: invalid CORS origin format")
	errWildcardOrigin = simpleErr("middleware: wildcard CORS origin not allowed")
	errNonHTTPSOrigin = simpleErr("middleware: only HTTPS origins allowed (except http://localhost for development)")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

// CORS builds a static allow-list CORS middleware over go-chi/cors,
// replacing the reference's tenant-scoped, DB-backed DynamicCorsMiddleware
// with the single fixed origin list this module's config carries — see
// DESIGN.md.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
