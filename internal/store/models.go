// Package store is the hand-written persistence layer for the auth core.
// No sqlc-generated code backs this module (none was available to ground
// on), so queries are issued directly through pgx against the schema
// described below.
package store

import (
	"time"

	"github.com/google/uuid"
)

// User is the account entity (spec.md §3).
type User struct {
	ID                  uuid.UUID
	Email               string
	PasswordHash        *string // nullable: account may predate password auth
	EmailVerified       bool
	EmailVerifiedAt     *time.Time
	FailedLoginAttempts int
	AccountLockedUntil  *time.Time
	LastLoginAt         *time.Time
	LastLoginIP         *string
	MinTokenVersion     int
	IsActive            bool
	FullName            string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked reports whether the account is currently locked.
func (u *User) IsLocked(now time.Time) bool {
	return u.AccountLockedUntil != nil && u.AccountLockedUntil.After(now)
}

// CanLogin implements the invariant "can_login ⟺ is_active ∧ ¬locked".
// Email verification is enforced separately at the login call site.
func (u *User) CanLogin(now time.Time) bool {
	return u.IsActive && !u.IsLocked(now)
}

// RefreshToken is the session-backing entity (spec.md §3). Its id is the
// jti claim of the access token minted alongside it.
type RefreshToken struct {
	ID                      uuid.UUID
	UserID                  uuid.UUID
	TokenHash               string
	ExpiresAt               time.Time
	IsRevoked               bool
	RevokedAt               *time.Time // may be a future time (grace period)
	DeviceInfo              string
	IPAddress               *string
	UserAgent               *string
	Location                *string
	Fingerprint             *string
	IsTrustedDevice         bool
	LastUsedAt              *time.Time
	TokenVersion            int
	GlobalVersionAtIssuance int
	CreatedAt               time.Time
}

// IsValid implements the core RefreshToken invariant of spec.md §3 and
// testable property 1 of §8.
func (r *RefreshToken) IsValid(now time.Time, userMinVersion, globalMinVersion int) bool {
	return !r.IsRevoked &&
		now.Before(r.ExpiresAt) &&
		r.TokenVersion >= userMinVersion &&
		r.GlobalVersionAtIssuance >= globalMinVersion
}

// TokenKind distinguishes email-verification from password-reset rows;
// both share an identical shape (spec.md §3).
type TokenKind string

const (
	KindVerification TokenKind = "email_verify"
	KindPasswordReset TokenKind = "password_reset"
)

// SingleUseToken backs both EmailVerificationToken and PasswordResetToken.
type SingleUseToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      TokenKind
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsValid implements "is_valid ⟺ used_at is None ∧ now ≤ expires_at".
func (t *SingleUseToken) IsValid(now time.Time) bool {
	return t.UsedAt == nil && !now.After(t.ExpiresAt)
}

// SecurityConfig is the process-global singleton row (spec.md §3).
type SecurityConfig struct {
	ID                    uuid.UUID
	GlobalMinTokenVersion int
	UpdatedAt             time.Time
	UpdatedBy             string
	Reason                string
}

// EmailOutboxStatus tracks the supplementary async-email mechanism
// (SPEC_FULL "must be async" requirement, grounded on the reference
// internal/mailer/queue.go outbox pattern).
type EmailOutboxStatus string

const (
	OutboxPending EmailOutboxStatus = "pending"
	OutboxSent    EmailOutboxStatus = "sent"
	OutboxFailed  EmailOutboxStatus = "failed"
)

// EmailOutboxEntry is a queued outbound email awaiting delivery by
// cmd/emailworker.
type EmailOutboxEntry struct {
	ID          uuid.UUID
	To          string
	Subject     string
	HTMLBody    string
	TextBody    string
	Status      EmailOutboxStatus
	Attempts    int
	LastError   *string
	NextRetryAt time.Time
	CreatedAt   time.Time
	SentAt      *time.Time
}
