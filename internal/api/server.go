package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/faiyaz7283/dashtam-authcore/internal/api/helpers"
	"github.com/faiyaz7283/dashtam-authcore/internal/api/middleware"
	"github.com/faiyaz7283/dashtam-authcore/internal/auth"
	"github.com/faiyaz7283/dashtam-authcore/internal/cache"
	"github.com/faiyaz7283/dashtam-authcore/internal/config"
	"github.com/faiyaz7283/dashtam-authcore/internal/ratelimit"
	"github.com/faiyaz7283/dashtam-authcore/internal/sessionapi"
	"github.com/faiyaz7283/dashtam-authcore/internal/tokens"
)

// Server wires every HTTP-facing collaborator into a single router,
// grounded on the reference's internal/api/router.go Server struct
// (tenant/MFA fields dropped, Pool kept directly rather than a generated
// *db.Queries since this module talks to the database through
// internal/store).
type Server struct {
	Router *chi.Mux
	Pool   *pgxpool.Pool
	Logger *slog.Logger

	Auth          *AuthHandler
	PasswordReset *PasswordResetHandler
	Rotation      *RotationHandler
	Sessions      *sessionapi.Handler

	Tokens       *tokens.Provider
	Limiter      *ratelimit.Limiter
	Blacklist    cache.Cache
	Config       config.Config
	TrustedCIDRs []*net.IPNet
}

// NewServer builds the Server and mounts every route. blacklist is the same
// revocation-cache the session API writes to on revoke (sessionapi.Handler.
// Blacklist); RequireAuth consults it on every authenticated request so a
// revoked session's access token stops working immediately instead of at
// its natural expiry.
func NewServer(
	pool *pgxpool.Pool,
	logger *slog.Logger,
	authService *auth.Service,
	resetService *auth.ResetService,
	rotationService *auth.RotationService,
	sessions *sessionapi.Handler,
	tokenProvider *tokens.Provider,
	limiter *ratelimit.Limiter,
	blacklist cache.Cache,
	cfg config.Config,
	trustedCIDRs []*net.IPNet,
) *Server {
	s := &Server{
		Pool:   pool,
		Logger: logger,

		Auth:          NewAuthHandler(authService, logger, cfg.TrustProxyHeaders, trustedCIDRs),
		PasswordReset: NewPasswordResetHandler(resetService, logger),
		Rotation:      NewRotationHandler(rotationService, logger, cfg.AdminAPIKey),
		Sessions:      sessions,

		Tokens:       tokenProvider,
		Limiter:      limiter,
		Blacklist:    blacklist,
		Config:       cfg,
		TrustedCIDRs: trustedCIDRs,
	}

	s.Router = s.buildRouter()
	return s
}

// identifyByUser scopes rate limiting to the authenticated caller once
// RequireAuth has populated context, falling back to IP for unauthenticated
// endpoints (login, register) where no user identity exists yet.
func (s *Server) identifyByUser(r *http.Request) string {
	if userID, err := middleware.GetUserID(r.Context()); err == nil {
		return userID.String()
	}
	return s.identifyByIP(r)
}

func (s *Server) identifyByIP(r *http.Request) string {
	return helpers.ClientIP(r, s.Config.TrustProxyHeaders, s.TrustedCIDRs)
}
