package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIsAdmin_RejectsWhenKeyUnconfigured(t *testing.T) {
	h := &RotationHandler{AdminAPIKey: ""}
	req := httptest.NewRequest(http.MethodPost, "/token-rotation/global", nil)
	req.Header.Set("X-Admin-Key", "anything")

	assert.False(t, h.isAdmin(req))
}

func TestIsAdmin_RejectsWrongKey(t *testing.T) {
	h := &RotationHandler{AdminAPIKey: "correct-secret"}
	req := httptest.NewRequest(http.MethodPost, "/token-rotation/global", nil)
	req.Header.Set("X-Admin-Key", "wrong-secret")

	assert.False(t, h.isAdmin(req))
}

func TestIsAdmin_AcceptsMatchingKey(t *testing.T) {
	h := &RotationHandler{AdminAPIKey: "correct-secret"}
	req := httptest.NewRequest(http.MethodPost, "/token-rotation/global", nil)
	req.Header.Set("X-Admin-Key", "correct-secret")

	assert.True(t, h.isAdmin(req))
}

func TestRotateUser_RejectsNonSelfTarget(t *testing.T) {
	h := &RotationHandler{}
	caller := uuid.New()
	target := uuid.New()

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("user_id", target.String())
	req := httptest.NewRequest(http.MethodPost, "/token-rotation/users/"+target.String(), nil)
	req = withRouteCtx(req, rctx)
	req = withIdentity(req, caller, uuid.New())
	rr := httptest.NewRecorder()

	h.RotateUser(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRotateUser_RejectsInvalidUserID(t *testing.T) {
	h := &RotationHandler{}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("user_id", "not-a-uuid")
	req := httptest.NewRequest(http.MethodPost, "/token-rotation/users/not-a-uuid", nil)
	req = withRouteCtx(req, rctx)
	req = withIdentity(req, uuid.New(), uuid.New())
	rr := httptest.NewRecorder()

	h.RotateUser(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRotateGlobal_RejectsWithoutAdminKey(t *testing.T) {
	h := &RotationHandler{AdminAPIKey: "correct-secret"}
	req := httptest.NewRequest(http.MethodPost, "/token-rotation/global", jsonBody(t, map[string]any{
		"reason": "incident response rotation across all users",
	}))
	req = withIdentity(req, uuid.New(), uuid.New())
	rr := httptest.NewRecorder()

	h.RotateGlobal(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRotateGlobal_RejectsShortReasonEvenWithAdminKey(t *testing.T) {
	h := &RotationHandler{AdminAPIKey: "correct-secret"}
	req := httptest.NewRequest(http.MethodPost, "/token-rotation/global", jsonBody(t, map[string]any{
		"reason": "too short",
	}))
	req.Header.Set("X-Admin-Key", "correct-secret")
	req = withIdentity(req, uuid.New(), uuid.New())
	rr := httptest.NewRecorder()

	h.RotateGlobal(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func withRouteCtx(r *http.Request, rctx *chi.Context) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
