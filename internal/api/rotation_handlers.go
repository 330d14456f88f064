package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/faiyaz7283/dashtam-authcore/internal/api/helpers"
	"github.com/faiyaz7283/dashtam-authcore/internal/api/middleware"
	"github.com/faiyaz7283/dashtam-authcore/internal/apperr"
	"github.com/faiyaz7283/dashtam-authcore/internal/auth"
)

// RotationHandler exposes C5's RotationService over HTTP, grounded on the
// reference's internal/api/recovery_handlers.go shape (no direct teacher
// equivalent exists: the reference has no token-rotation surface of its
// own, so these handlers are authored fresh in the reference's idiom).
type RotationHandler struct {
	Service     *auth.RotationService
	Logger      *slog.Logger
	AdminAPIKey string
}

func NewRotationHandler(service *auth.RotationService, logger *slog.Logger, adminAPIKey string) *RotationHandler {
	return &RotationHandler{Service: service, Logger: logger, AdminAPIKey: adminAPIKey}
}

type rotateUserRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// RotateUser handles POST /token-rotation/users/{user_id}. Authorisation
// (spec.md §4.5): "rotate_user may only be initiated by the subject user" —
// enforced here by requiring the path user_id to match the caller's own
// authenticated identity, since this domain has no admin-on-behalf-of-others
// concept.
func (h *RotationHandler) RotateUser(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.MustGetUserID(r.Context())

	targetID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		helpers.RespondAppError(w, apperr.Invalid("invalid user id"))
		return
	}
	if targetID != callerID {
		helpers.RespondAppError(w, apperr.Forbidden("can only rotate your own tokens"))
		return
	}

	var req rotateUserRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondAppError(w, apperr.Invalid("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		helpers.RespondAppError(w, apperr.Invalid(err.Error()))
		return
	}

	result, err := h.Service.RotateUser(r.Context(), targetID, req.Reason)
	if err != nil {
		helpers.RespondAppError(w, apperr.Internal("token rotation failed", err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, rotationResultView(result))
}

type rotateGlobalRequest struct {
	Reason             string `json:"reason" validate:"required,min=20"`
	GracePeriodMinutes int    `json:"grace_period_minutes" validate:"min=0"`
}

// RotateGlobal handles POST /token-rotation/global. Authorisation
// (spec.md §4.5): "rotate_global requires an administrator principal" —
// there is no role hierarchy in this domain, so the administrator
// principal is a shared secret presented via X-Admin-Key, checked in
// constant time.
func (h *RotationHandler) RotateGlobal(w http.ResponseWriter, r *http.Request) {
	if !h.isAdmin(r) {
		helpers.RespondAppError(w, apperr.Forbidden("administrator principal required"))
		return
	}

	var req rotateGlobalRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondAppError(w, apperr.Invalid("invalid request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		helpers.RespondAppError(w, apperr.Invalid(err.Error()))
		return
	}

	callerID := middleware.MustGetUserID(r.Context())
	result, err := h.Service.RotateGlobal(r.Context(), req.Reason, callerID.String(), req.GracePeriodMinutes)
	if err != nil {
		helpers.RespondAppError(w, apperr.Internal("global token rotation failed", err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, rotationResultView(result))
}

// SecurityConfig handles GET /token-rotation/security-config.
func (h *RotationHandler) SecurityConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Service.GetConfig(r.Context())
	if err != nil {
		helpers.RespondAppError(w, apperr.Internal("failed to load security config", err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"global_min_token_version": cfg.GlobalMinTokenVersion,
		"updated_at":               cfg.UpdatedAt,
		"updated_by":               cfg.UpdatedBy,
		"reason":                   cfg.Reason,
	})
}

func (h *RotationHandler) isAdmin(r *http.Request) bool {
	if h.AdminAPIKey == "" {
		return false
	}
	provided := r.Header.Get("X-Admin-Key")
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.AdminAPIKey)) == 1
}

func rotationResultView(result *auth.RotationResult) map[string]any {
	return map[string]any{
		"old_version":    result.OldVersion,
		"new_version":    result.NewVersion,
		"tokens_revoked": result.TokensRevoked,
		"users_affected": result.UsersAffected,
		"reason":         result.Reason,
	}
}
