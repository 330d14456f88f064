package api

import (
	"errors"

	"github.com/faiyaz7283/dashtam-authcore/internal/apperr"
	"github.com/faiyaz7283/dashtam-authcore/internal/auth"
)

// mapAuthErr translates an internal/auth sentinel error into an
// apperr.Error carrying the right Kind, grounded on spec.md §7's error
// taxonomy. Handlers call this once, immediately after a service call,
// then pass the result to helpers.RespondAppError — no handler inspects
// an error's string form.
func mapAuthErr(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		return apperr.Conflict("email already registered")
	case errors.Is(err, auth.ErrWeakPassword):
		return apperr.Invalid(err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperr.Unauthorized(apperr.MsgInvalidCredentials)
	case errors.Is(err, auth.ErrAccountInactive):
		return apperr.Forbidden("account is inactive")
	case errors.Is(err, auth.ErrAccountLocked):
		return apperr.Forbidden("account is temporarily locked")
	case errors.Is(err, auth.ErrEmailNotVerified):
		return apperr.Forbidden("email address is not verified")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenAlreadyUsed):
		return apperr.Invalid("invalid or expired token")
	case errors.Is(err, auth.ErrRefreshTokenInvalid):
		return apperr.Unauthorized("invalid, expired, or revoked refresh token")
	case errors.Is(err, auth.ErrWrongCurrentPassword):
		return apperr.Unauthorized("current password is incorrect")
	default:
		return apperr.Internal(apperr.MsgGeneric500, err)
	}
}
