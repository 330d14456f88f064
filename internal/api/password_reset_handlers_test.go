package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetRequest_RejectsInvalidEmail(t *testing.T) {
	h := &PasswordResetHandler{}
	req := httptest.NewRequest(http.MethodPost, "/auth/password-resets", jsonBody(t, map[string]string{
		"email": "not-an-email",
	}))
	rr := httptest.NewRecorder()

	h.Request(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPasswordResetConfirm_RejectsShortPassword(t *testing.T) {
	h := &PasswordResetHandler{}
	req := httptest.NewRequest(http.MethodPatch, "/auth/password-resets/sometoken", jsonBody(t, map[string]string{
		"new_password": "short",
	}))
	rr := httptest.NewRecorder()

	h.Confirm(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPasswordResetConfirm_RejectsMissingField(t *testing.T) {
	h := &PasswordResetHandler{}
	req := httptest.NewRequest(http.MethodPatch, "/auth/password-resets/sometoken", jsonBody(t, map[string]string{}))
	rr := httptest.NewRecorder()

	h.Confirm(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}
