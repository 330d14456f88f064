package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faiyaz7283/dashtam-authcore/internal/cache"
	"github.com/faiyaz7283/dashtam-authcore/internal/tokens"
)

func newAccessToken(t *testing.T, provider *tokens.Provider, userID, sessionID uuid.UUID) string {
	t.Helper()
	tok, err := provider.MakeAccess(userID.String(), "user@example.com", sessionID.String())
	require.NoError(t, err)
	return tok
}

func TestRequireAuth_AllowsValidUnrevokedToken(t *testing.T) {
	provider := tokens.NewProvider("secret", time.Hour, time.Hour, "authcore")
	sessionID := uuid.New()
	tok := newAccessToken(t, provider, uuid.New(), sessionID)

	var called bool
	h := RequireAuth(provider, cache.NewMemory())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAuth_RejectsBlacklistedSession(t *testing.T) {
	provider := tokens.NewProvider("secret", time.Hour, time.Hour, "authcore")
	sessionID := uuid.New()
	tok := newAccessToken(t, provider, uuid.New(), sessionID)

	blacklist := cache.NewMemory()
	require.NoError(t, blacklist.Set(t.Context(), fmt.Sprintf("revoked_token:%s", sessionID), "1", time.Hour))

	var called bool
	h := RequireAuth(provider, blacklist)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuth_RejectsMissingToken(t *testing.T) {
	provider := tokens.NewProvider("secret", time.Hour, time.Hour, "authcore")

	h := RequireAuth(provider, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/sessions", nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
