package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/faiyaz7283/dashtam-authcore/internal/mailer"
	"github.com/faiyaz7283/dashtam-authcore/internal/password"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

// ResetService implements C4: issue and consume single-use password-reset
// tokens, cascading a full session revocation on success via C5, grounded
// on the reference's RequestPasswordReset/ResetPassword pair
// (internal/auth/recovery.go) and
// original_source/src/services/password_reset_service.py for the
// cascade-via-rotation behaviour.
type ResetService struct {
	Store    *store.Store
	Hasher   password.Hasher
	Rotation *RotationService
	Mailer   mailer.Provider
	Logger   *slog.Logger
	TTL      time.Duration // default 15m
}

func NewResetService(s *store.Store, hasher password.Hasher, rotation *RotationService, m mailer.Provider, logger *slog.Logger) *ResetService {
	return &ResetService{Store: s, Hasher: hasher, Rotation: rotation, Mailer: m, Logger: logger, TTL: 15 * time.Minute}
}

// RequestReset looks up email and, if found, issues a reset token and
// emails it. Email-enumeration protection (spec.md §4.3): the caller
// always receives the same uniform response regardless of what happened
// here; failures to find the user or to send email are logged, not
// propagated.
func (s *ResetService) RequestReset(ctx context.Context, email string) {
	user, err := s.Store.GetUserByEmail(ctx, s.Store.Pool, email)
	if err != nil {
		return
	}

	plaintext, err := password.GenerateToken(32)
	if err != nil {
		s.Logger.Error("generate reset token failed", "user_id", user.ID, "error", err)
		return
	}
	tokenHash, err := s.Hasher.Hash(plaintext)
	if err != nil {
		s.Logger.Error("hash reset token failed", "user_id", user.ID, "error", err)
		return
	}
	if _, err := s.Store.CreateSingleUseToken(ctx, s.Store.Pool, user.ID, store.KindPasswordReset, tokenHash, time.Now().Add(s.TTL)); err != nil {
		s.Logger.Error("persist reset token failed", "user_id", user.ID, "error", err)
		return
	}

	link := fmt.Sprintf("token=%s", plaintext)
	if _, err := s.Mailer.Send(ctx, user.Email, "Reset your password", "", "Use this link to reset your password: "+link); err != nil {
		s.Logger.Warn("reset email send failed", "user_id", user.ID, "error", err)
	}
}

// Probe reports whether a presented plaintext corresponds to a currently
// valid (unused, unexpired) reset token, without consuming it — backs the
// `GET /auth/password-resets/{token}` probe of spec.md §6.
func (s *ResetService) Probe(ctx context.Context, plaintext string) (valid bool, email string, expiresAt time.Time) {
	candidates, err := s.Store.ListAllUnused(ctx, s.Store.Pool, store.KindPasswordReset)
	if err != nil {
		return false, "", time.Time{}
	}
	now := time.Now()
	for _, c := range candidates {
		if s.Hasher.Verify(plaintext, c.TokenHash) && c.IsValid(now) {
			user, err := s.Store.GetUserByID(ctx, s.Store.Pool, c.UserID)
			if err != nil {
				return false, "", time.Time{}
			}
			return true, user.Email, c.ExpiresAt
		}
	}
	return false, "", time.Time{}
}

// Consume validates newPassword's strength, overwrites the user's password
// hash, consumes the token, and cascades a full session revocation through
// RotateUser (spec.md §4.3: "this cascade is implemented via C5 ... so that
// the revocation is atomic and indistinguishable from a targeted
// rotation"). Finally sends a best-effort "your password was changed"
// notification (SPEC_FULL Supplemented Features).
func (s *ResetService) Consume(ctx context.Context, plaintext, newPassword string) error {
	if ok, msg := password.ValidateStrength(newPassword); !ok {
		return fmt.Errorf("%w: %s", ErrWeakPassword, msg)
	}

	candidates, err := s.Store.ListAllUnused(ctx, s.Store.Pool, store.KindPasswordReset)
	if err != nil {
		return fmt.Errorf("auth: list reset candidates: %w", err)
	}

	now := time.Now()
	var match *store.SingleUseToken
	for _, c := range candidates {
		if s.Hasher.Verify(plaintext, c.TokenHash) {
			match = c
			break
		}
	}
	if match == nil || !match.IsValid(now) {
		return ErrInvalidToken
	}

	newHash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("auth: hash new password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Store.MarkUsed(ctx, tx, match.ID, now); err != nil {
			return err
		}
		return s.Store.UpdatePasswordHash(ctx, tx, match.UserID, newHash)
	})
	if err != nil {
		return fmt.Errorf("auth: consume reset token: %w", err)
	}

	if _, err := s.Rotation.RotateUser(ctx, match.UserID, "password reset"); err != nil {
		s.Logger.Error("cascade rotation after password reset failed", "user_id", match.UserID, "error", err)
		return fmt.Errorf("auth: cascade session revocation: %w", err)
	}

	if user, err := s.Store.GetUserByID(ctx, s.Store.Pool, match.UserID); err == nil {
		if _, err := s.Mailer.Send(ctx, user.Email, "Your password was changed", "", "Your password was just changed. If this wasn't you, contact support immediately."); err != nil {
			s.Logger.Warn("password-changed notification send failed", "user_id", user.ID, "error", err)
		}
	}
	return nil
}
