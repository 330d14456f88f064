package sessionapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faiyaz7283/dashtam-authcore/internal/api/middleware"
	"github.com/faiyaz7283/dashtam-authcore/internal/cache"
	"github.com/faiyaz7283/dashtam-authcore/internal/sessionmgr"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

func seedSession(backend *sessionmgr.MemoryBackend, userID uuid.UUID, revoked bool) *store.RefreshToken {
	s := &store.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
		IsRevoked: revoked,
		CreatedAt: time.Now(),
	}
	backend.Seed(s)
	return s
}

func newTestHandler() (*Handler, *sessionmgr.MemoryBackend) {
	backend := sessionmgr.NewMemoryBackend()
	manager := sessionmgr.NewManager(backend, sessionmgr.NoopAudit{}, nil, nil, false)
	return New(manager, cache.NewMemory()), backend
}

func withIdentity(r *http.Request, userID, sessionID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.SessionIDKey, sessionID)
	return r.WithContext(ctx)
}

func TestList_ReturnsActiveSessionsWithIsCurrent(t *testing.T) {
	h, backend := newTestHandler()
	userID := uuid.New()
	current := seedSession(backend, userID, false)
	_ = seedSession(backend, userID, false)
	seedSession(backend, userID, true) // revoked, filtered out

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/auth/sessions", nil), userID, current.ID)
	rr := httptest.NewRecorder()

	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Sessions   []sessionView `json:"sessions"`
		TotalCount int           `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.TotalCount)

	var sawCurrent bool
	for _, s := range body.Sessions {
		if s.ID == current.ID {
			sawCurrent = true
			assert.True(t, s.IsCurrent)
		}
	}
	assert.True(t, sawCurrent)
}

func TestRevoke_OwnedSession(t *testing.T) {
	h, backend := newTestHandler()
	userID := uuid.New()
	session := seedSession(backend, userID, false)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", session.ID.String())
	req := httptest.NewRequest(http.MethodDelete, "/auth/sessions/"+session.ID.String(), nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = withIdentity(req, userID, uuid.New())
	rr := httptest.NewRecorder()

	h.Revoke(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	got, err := backend.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRevoked)
}

func TestRevoke_RejectsOtherUsersSession(t *testing.T) {
	h, backend := newTestHandler()
	owner := uuid.New()
	session := seedSession(backend, owner, false)

	attacker := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", session.ID.String())
	req := httptest.NewRequest(http.MethodDelete, "/auth/sessions/"+session.ID.String(), nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = withIdentity(req, attacker, uuid.New())
	rr := httptest.NewRecorder()

	h.Revoke(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	got, err := backend.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRevoked)
}

func TestRevoke_RejectsCurrentSession(t *testing.T) {
	h, backend := newTestHandler()
	userID := uuid.New()
	session := seedSession(backend, userID, false)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", session.ID.String())
	req := httptest.NewRequest(http.MethodDelete, "/auth/sessions/"+session.ID.String(), nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = withIdentity(req, userID, session.ID)
	rr := httptest.NewRecorder()

	h.Revoke(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	got, err := backend.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRevoked)
}

func TestRevoke_RejectsAlreadyRevokedSession(t *testing.T) {
	h, backend := newTestHandler()
	userID := uuid.New()
	session := seedSession(backend, userID, true)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", session.ID.String())
	req := httptest.NewRequest(http.MethodDelete, "/auth/sessions/"+session.ID.String(), nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = withIdentity(req, userID, uuid.New())
	rr := httptest.NewRecorder()

	h.Revoke(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRevoke_InvalidSessionID(t *testing.T) {
	h, _ := newTestHandler()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")
	req := httptest.NewRequest(http.MethodDelete, "/auth/sessions/not-a-uuid", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = withIdentity(req, uuid.New(), uuid.New())
	rr := httptest.NewRecorder()

	h.Revoke(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRevokeOthers_KeepsCurrentSession(t *testing.T) {
	h, backend := newTestHandler()
	userID := uuid.New()
	current := seedSession(backend, userID, false)
	other1 := seedSession(backend, userID, false)
	other2 := seedSession(backend, userID, false)

	req := withIdentity(httptest.NewRequest(http.MethodDelete, "/auth/sessions/others/revoke", nil), userID, current.ID)
	rr := httptest.NewRecorder()

	h.RevokeOthers(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		RevokedCount int `json:"revoked_count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.RevokedCount)

	keptSession, err := backend.Get(context.Background(), current.ID)
	require.NoError(t, err)
	assert.False(t, keptSession.IsRevoked)

	revoked1, _ := backend.Get(context.Background(), other1.ID)
	revoked2, _ := backend.Get(context.Background(), other2.ID)
	assert.True(t, revoked1.IsRevoked)
	assert.True(t, revoked2.IsRevoked)
}

func TestRevokeAll_RevokesCurrentSessionToo(t *testing.T) {
	h, backend := newTestHandler()
	userID := uuid.New()
	current := seedSession(backend, userID, false)
	other := seedSession(backend, userID, false)

	req := withIdentity(httptest.NewRequest(http.MethodDelete, "/auth/sessions/all/revoke", nil), userID, current.ID)
	rr := httptest.NewRecorder()

	h.RevokeAll(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	got, _ := backend.Get(context.Background(), current.ID)
	assert.True(t, got.IsRevoked)
	got2, _ := backend.Get(context.Background(), other.ID)
	assert.True(t, got2.IsRevoked)
}
