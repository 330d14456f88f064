package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faiyaz7283/dashtam-authcore/internal/api/helpers"
	"github.com/faiyaz7283/dashtam-authcore/internal/apperr"
	"github.com/faiyaz7283/dashtam-authcore/internal/auth"
)

// PasswordResetHandler exposes C4's ResetService over HTTP, grounded on the
// reference's internal/api/recovery_handlers.go (cookie-issuing steps
// dropped; this flow never authenticates the caller).
type PasswordResetHandler struct {
	Service *auth.ResetService
	Logger  *slog.Logger
}

func NewPasswordResetHandler(service *auth.ResetService, logger *slog.Logger) *PasswordResetHandler {
	return &PasswordResetHandler{Service: service, Logger: logger}
}

type requestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Request handles POST /auth/password-resets. Always returns 202 with a
// uniform message, per spec.md §6's email-enumeration protection.
func (h *PasswordResetHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req requestResetRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondAppError(w, apperr.Invalid("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		helpers.RespondAppError(w, apperr.Invalid(err.Error()))
		return
	}

	h.Service.RequestReset(r.Context(), req.Email)

	helpers.RespondJSON(w, http.StatusAccepted, map[string]string{
		"message": "if that email is registered, a reset link has been sent",
	})
}

// Probe handles GET /auth/password-resets/{token}.
func (h *PasswordResetHandler) Probe(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	valid, email, expiresAt := h.Service.Probe(r.Context(), token)
	if !valid {
		helpers.RespondJSON(w, http.StatusOK, map[string]any{"valid": false})
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"valid":      true,
		"email":      email,
		"expires_at": expiresAt,
	})
}

type confirmResetRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=12"`
}

// Confirm handles PATCH /auth/password-resets/{token}.
func (h *PasswordResetHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req confirmResetRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondAppError(w, apperr.Invalid("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		helpers.RespondAppError(w, apperr.Invalid(err.Error()))
		return
	}

	if err := h.Service.Consume(r.Context(), token, req.NewPassword); err != nil {
		helpers.RespondAppError(w, mapAuthErr(err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "password reset"})
}
