package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/faiyaz7283/dashtam-authcore/internal/cache"
	"github.com/faiyaz7283/dashtam-authcore/internal/tokens"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, grounded on the reference's AuthMiddleware header-parsing step.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func authenticate(provider *tokens.Provider, r *http.Request) (userID, sessionID uuid.UUID, ok bool) {
	raw, present := bearerToken(r)
	if !present {
		return uuid.Nil, uuid.Nil, false
	}
	claims, err := provider.RequireType(raw, tokens.TypeAccess)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	if provider.IsExpired(raw) {
		return uuid.Nil, uuid.Nil, false
	}
	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	sid, _ := uuid.Parse(claims.ID) // absent jti degrades to uuid.Nil, not a hard failure
	return uid, sid, true
}

// revoked reports whether sessionID is on the revocation blacklist, closing
// the window between a session's revocation and its access token's natural
// expiry (spec.md §4.8). blacklist may be nil (no cache configured), in
// which case the check is skipped and only the database's is_revoked flag
// protects the session-scoped endpoints.
func revoked(ctx context.Context, blacklist cache.Cache, sessionID uuid.UUID) bool {
	if blacklist == nil || sessionID == uuid.Nil {
		return false
	}
	_, found, err := blacklist.Get(ctx, fmt.Sprintf("revoked_token:%s", sessionID))
	return err == nil && found
}

// RequireAuth rejects requests lacking a valid, non-expired access token
// and injects the caller's identity into context, grounded on the
// reference's AuthMiddleware (tenant-scoping branch dropped). blacklist, if
// non-nil, is consulted by jti on every request in addition to the token's
// own expiry, so a revoked session's still-unexpired access token is
// rejected immediately rather than working until it naturally expires.
func RequireAuth(provider *tokens.Provider, blacklist cache.Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, sessionID, ok := authenticate(provider, r)
			if !ok {
				slog.Warn("unauthenticated request", "path", r.URL.Path, "ip", r.RemoteAddr)
				http.Error(w, "invalid or missing access token", http.StatusUnauthorized)
				return
			}
			if revoked(r.Context(), blacklist, sessionID) {
				slog.Warn("revoked session presented", "path", r.URL.Path, "session_id", sessionID)
				http.Error(w, "session has been revoked", http.StatusUnauthorized)
				return
			}
			SetSentryUser(userID.String(), r.RemoteAddr)
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), userID, sessionID)))
		})
	}
}

// OptionalAuth injects identity into context when a valid access token is
// present, but never rejects the request — for endpoints whose behaviour
// only changes when the caller happens to be authenticated (none in this
// module's current surface, kept for parity with the reference's
// context-key pattern and for handlers added later).
func OptionalAuth(provider *tokens.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, sessionID, ok := authenticate(provider, r); ok {
				r = r.WithContext(withIdentity(r.Context(), userID, sessionID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
