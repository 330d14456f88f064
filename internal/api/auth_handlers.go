package api

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/faiyaz7283/dashtam-authcore/internal/api/helpers"
	"github.com/faiyaz7283/dashtam-authcore/internal/api/middleware"
	"github.com/faiyaz7283/dashtam-authcore/internal/apperr"
	"github.com/faiyaz7283/dashtam-authcore/internal/auth"
)

// validate is shared across every request struct in this package,
// grounded on the pack's go-playground/validator/v10 usage — replacing the
// reference's ad hoc handler-local Validate() methods with struct-tag
// declarations.
var validate = validator.New()

// AuthHandler wraps C6's auth.Service with HTTP handlers, grounded on the
// reference's internal/api/handlers.go AuthHandler (tenant/MFA/invite
// surface dropped).
type AuthHandler struct {
	Service           *auth.Service
	Logger            *slog.Logger
	TrustProxyHeaders bool
	TrustedCIDRs      []*net.IPNet
}

func NewAuthHandler(service *auth.Service, logger *slog.Logger, trustProxyHeaders bool, trustedCIDRs []*net.IPNet) *AuthHandler {
	return &AuthHandler{
		Service:           service,
		Logger:            logger,
		TrustProxyHeaders: trustProxyHeaders,
		TrustedCIDRs:      trustedCIDRs,
	}
}

func (h *AuthHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := helpers.DecodeJSON(r, dst); err != nil {
		helpers.RespondAppError(w, apperr.Invalid("invalid request body"))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		helpers.RespondAppError(w, apperr.Invalid(err.Error()))
		return false
	}
	return true
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=12"`
	FullName string `json:"full_name" validate:"max=100"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	_, err := h.Service.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.Logger.Warn("register failed", "email", req.Email, "error", err)
		helpers.RespondAppError(w, mapAuthErr(err))
		return
	}

	helpers.RespondJSON(w, http.StatusCreated, map[string]string{
		"message": "registration successful, check your email to verify your account",
	})
}

type verifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// VerifyEmail handles POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.Service.VerifyEmail(r.Context(), req.Token); err != nil {
		helpers.RespondAppError(w, mapAuthErr(err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ip := helpers.ClientIP(r, h.TrustProxyHeaders, h.TrustedCIDRs)
	result, err := h.Service.Login(r.Context(), req.Email, req.Password, ip, r.UserAgent())
	if err != nil {
		h.Logger.Warn("login failed", "email", req.Email, "ip", ip, "error", err)
		helpers.RespondAppError(w, mapAuthErr(err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"token_type":    "bearer",
		"expires_in":    int(h.Service.AccessTokenTTL.Seconds()),
		"user": map[string]any{
			"id":             result.User.ID,
			"email":          result.User.Email,
			"email_verified": result.User.EmailVerified,
			"full_name":      result.User.FullName,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh handles POST /auth/refresh. Sticky refresh (spec.md §9, DESIGN.md
// Open-Question decision): the same refresh token is echoed back, never
// rotated.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	accessToken, err := h.Service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		helpers.RespondAppError(w, mapAuthErr(err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"refresh_token": req.RefreshToken,
		"token_type":    "bearer",
		"expires_in":    int(h.Service.AccessTokenTTL.Seconds()),
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Logout handles POST /auth/logout. Always returns 200, per spec.md §6.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
		return
	}

	if err := h.Service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.Logger.Warn("logout: revoke failed", "error", err)
	}
	helpers.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=12"`
}

// ChangePassword handles the authenticated password-change operation
// (spec.md §4.6), which cascades a full session revocation via C5.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	var req changePasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.Service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		helpers.RespondAppError(w, mapAuthErr(err))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "password changed, all sessions have been revoked",
	})
}

// Me handles GET /auth/me (SUPPLEMENTED FEATURES: read-only profile,
// grounded on original_source/src/api/v1/auth_jwt.py's /me handler).
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.MustGetUserID(r.Context())

	user, err := h.Service.Store.GetUserByID(r.Context(), h.Service.Store.Pool, userID)
	if err != nil {
		helpers.RespondAppError(w, apperr.NotFound("user not found"))
		return
	}

	helpers.RespondJSON(w, http.StatusOK, map[string]any{
		"id":             user.ID,
		"email":          user.Email,
		"email_verified": user.EmailVerified,
		"full_name":      user.FullName,
		"created_at":     user.CreatedAt,
	})
}
