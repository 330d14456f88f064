package auth

import "errors"

// Sentinel errors surfaced by the services in this package, mapped to
// apperr.Kind at the handler boundary via errors.Is, never by string
// matching, grounded on the reference internal/auth error-variable idiom
// (ErrInvalidResetToken, ErrInvalidToken, …).
var (
	ErrEmailTaken          = errors.New("auth: email already registered")
	ErrWeakPassword        = errors.New("auth: password does not meet strength policy")
	ErrInvalidCredentials  = errors.New("auth: invalid email or password")
	ErrAccountInactive     = errors.New("auth: account is inactive")
	ErrAccountLocked       = errors.New("auth: account is locked")
	ErrEmailNotVerified    = errors.New("auth: email is not verified")
	ErrInvalidToken        = errors.New("auth: invalid or expired token")
	ErrTokenAlreadyUsed    = errors.New("auth: token already used")
	ErrRefreshTokenInvalid = errors.New("auth: invalid, expired, or revoked refresh token")
	ErrWrongCurrentPassword = errors.New("auth: current password is incorrect")
)
