package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func TestRegister_RejectsInvalidEmail(t *testing.T) {
	h := &AuthHandler{}
	body := jsonBody(t, map[string]string{"email": "not-an-email", "password": "supersecretpassword"})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rr := httptest.NewRecorder()

	h.Register(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	h := &AuthHandler{}
	body := jsonBody(t, map[string]string{"email": "alice@example.com", "password": "short"})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rr := httptest.NewRecorder()

	h.Register(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_RejectsMalformedJSON(t *testing.T) {
	h := &AuthHandler{}
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()

	h.Register(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_RejectsUnknownFields(t *testing.T) {
	h := &AuthHandler{}
	body := jsonBody(t, map[string]string{
		"email":    "alice@example.com",
		"password": "supersecretpassword",
		"is_admin": "true",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rr := httptest.NewRecorder()

	h.Register(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_RejectsMissingPassword(t *testing.T) {
	h := &AuthHandler{}
	body := jsonBody(t, map[string]string{"email": "alice@example.com"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rr := httptest.NewRecorder()

	h.Login(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVerifyEmail_RejectsMissingToken(t *testing.T) {
	h := &AuthHandler{}
	body := jsonBody(t, map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/auth/verify-email", body)
	rr := httptest.NewRecorder()

	h.VerifyEmail(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRefresh_RejectsMissingToken(t *testing.T) {
	h := &AuthHandler{}
	body := jsonBody(t, map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", body)
	rr := httptest.NewRecorder()

	h.Refresh(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogout_AlwaysReturns200OnMalformedBody(t *testing.T) {
	h := &AuthHandler{}
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()

	h.Logout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "logged out", body["message"])
}

func TestChangePassword_RejectsShortNewPassword(t *testing.T) {
	h := &AuthHandler{}
	body := jsonBody(t, map[string]string{"current_password": "whatever", "new_password": "short"})
	req := httptest.NewRequest(http.MethodPost, "/auth/change-password", body)
	req = withIdentity(req, fixedUserID, fixedUserID)
	rr := httptest.NewRecorder()

	h.ChangePassword(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
