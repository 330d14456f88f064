package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/faiyaz7283/dashtam-authcore/internal/password"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
	"github.com/faiyaz7283/dashtam-authcore/internal/tokens"
)

// dummyHash is verified against on every login where the user does not
// exist, so the CPU cost of rejecting an unknown email equals the cost of
// rejecting a wrong password — spec.md §7's timing-equivalence requirement.
// It is a bcrypt hash of a random, never-used value; it has no relationship
// to any real account.
const dummyHash = "$2a$12$CwTycUXWue0Thq9StjUM0uJ8W1dgRVq/9ZbQbCfR2qVU5Z7w2YWIK"

// Service implements C6: auth orchestration, grounded on the reference's
// AuthService (constructor-injected collaborators, no package state), with
// the tenant/MFA/family-revocation branches replaced by the
// version-counter model of C5.
type Service struct {
	Store        *store.Store
	Hasher       password.Hasher
	Tokens       *tokens.Provider
	Verification *VerificationService
	Reset        *ResetService
	Rotation     *RotationService
	Logger       *slog.Logger

	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	FailedLoginThreshold int
	LockoutDuration      time.Duration
}

// RegisterInput carries orchestration parameters; request decoding and
// struct-tag validation live in internal/api.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*store.User, error) {
	if _, err := s.Store.GetUserByEmail(ctx, s.Store.Pool, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if err != store.ErrUserNotFound {
		return nil, fmt.Errorf("auth: check existing email: %w", err)
	}

	if ok, msg := password.ValidateStrength(in.Password); !ok {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, msg)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.Store.CreateUser(ctx, s.Store.Pool, in.Email, in.FullName, hash)
	if err != nil {
		return nil, fmt.Errorf("auth: create user: %w", err)
	}

	if _, err := s.Verification.Issue(ctx, user.ID, user.Email); err != nil {
		s.Logger.Error("issue verification token failed", "user_id", user.ID, "error", err)
	}

	return user, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	return s.Verification.Consume(ctx, token)
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) {
	s.Reset.RequestReset(ctx, email)
}

// LoginResult mirrors the reference LoginResult shape, adapted: no
// MFA/pre-auth branch.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *store.User
	SessionID    uuid.UUID
}

func (s *Service) Login(ctx context.Context, email, plainPassword, ip, userAgent string) (*LoginResult, error) {
	user, err := s.Store.GetUserByEmail(ctx, s.Store.Pool, email)
	if err != nil {
		if err != store.ErrUserNotFound {
			return nil, fmt.Errorf("auth: lookup user: %w", err)
		}
		// Unknown email: verify against a dummy hash so this path costs the
		// same as a wrong-password rejection (spec.md §7).
		s.Hasher.Verify(plainPassword, dummyHash)
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == nil || !s.Hasher.Verify(plainPassword, *user.PasswordHash) {
		if err := s.Store.RecordLoginFailure(ctx, s.Store.Pool, user.ID, s.FailedLoginThreshold, s.LockoutDuration, time.Now()); err != nil {
			s.Logger.Error("record login failure failed", "user_id", user.ID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if s.Hasher.NeedsRehash(*user.PasswordHash) {
		if newHash, err := s.Hasher.Hash(plainPassword); err == nil {
			if err := s.Store.UpdatePasswordHash(ctx, s.Store.Pool, user.ID, newHash); err != nil {
				s.Logger.Warn("silent rehash failed", "user_id", user.ID, "error", err)
			}
		}
	}

	plainRefresh, err := password.GenerateToken(32)
	if err != nil {
		return nil, fmt.Errorf("auth: generate refresh token: %w", err)
	}
	refreshHash, err := s.Hasher.Hash(plainRefresh)
	if err != nil {
		return nil, fmt.Errorf("auth: hash refresh token: %w", err)
	}

	cfg, err := s.Rotation.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: load security config: %w", err)
	}

	session, err := s.Store.CreateRefreshToken(ctx, s.Store.Pool, store.NewRefreshToken{
		UserID:                  user.ID,
		TokenHash:               refreshHash,
		ExpiresAt:               now.Add(s.RefreshTokenTTL),
		DeviceInfo:              userAgent,
		IPAddress:               ip,
		UserAgent:               userAgent,
		TokenVersion:            user.MinTokenVersion,
		GlobalVersionAtIssuance: cfg.GlobalMinTokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: create session: %w", err)
	}

	accessToken, err := s.Tokens.MakeAccess(user.ID.String(), user.Email, session.ID.String())
	if err != nil {
		return nil, fmt.Errorf("auth: mint access token: %w", err)
	}

	if err := s.Store.RecordLoginSuccess(ctx, s.Store.Pool, user.ID, now, ip); err != nil {
		s.Logger.Error("record login success failed", "user_id", user.ID, "error", err)
	}

	return &LoginResult{AccessToken: accessToken, RefreshToken: plainRefresh, User: user, SessionID: session.ID}, nil
}

// Refresh implements spec.md §4.6's refresh operation: sticky refresh (the
// token is not rotated on use, matching the reference policy — see
// DESIGN.md's Open Question decision).
func (s *Service) Refresh(ctx context.Context, plainRefresh string) (accessToken string, err error) {
	candidates, err := s.Store.ListNonRevokedCandidates(ctx, s.Store.Pool)
	if err != nil {
		return "", fmt.Errorf("auth: list refresh candidates: %w", err)
	}

	var match *store.RefreshToken
	for _, c := range candidates {
		if s.Hasher.Verify(plainRefresh, c.TokenHash) {
			match = c
			break
		}
	}
	if match == nil {
		return "", ErrRefreshTokenInvalid
	}

	user, err := s.Store.GetUserByID(ctx, s.Store.Pool, match.UserID)
	if err != nil || !user.IsActive {
		return "", ErrRefreshTokenInvalid
	}

	cfg, err := s.Rotation.GetConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: load security config: %w", err)
	}

	now := time.Now()
	// Grace-period note (spec.md §4.5, §9 Open Question): the reference
	// policy treats is_revoked=true as immediate revocation. An
	// implementation honouring the grace period would additionally require
	// match.RevokedAt == nil || match.RevokedAt.After(now) here.
	if !match.IsValid(now, user.MinTokenVersion, cfg.GlobalMinTokenVersion) {
		return "", ErrRefreshTokenInvalid
	}

	accessToken, err = s.Tokens.MakeAccess(user.ID.String(), user.Email, match.ID.String())
	if err != nil {
		return "", fmt.Errorf("auth: mint access token: %w", err)
	}

	if err := s.Store.TouchLastUsed(ctx, s.Store.Pool, match.ID, now); err != nil {
		s.Logger.Warn("touch last used failed", "session_id", match.ID, "error", err)
	}
	return accessToken, nil
}

// Logout marks the matching refresh row revoked, or silently succeeds if
// no match is found (spec.md §4.6: "do not leak existence").
func (s *Service) Logout(ctx context.Context, plainRefresh string) error {
	candidates, err := s.Store.ListNonRevokedCandidates(ctx, s.Store.Pool)
	if err != nil {
		return fmt.Errorf("auth: list refresh candidates: %w", err)
	}
	for _, c := range candidates {
		if s.Hasher.Verify(plainRefresh, c.TokenHash) {
			return s.Store.RevokeRefreshToken(ctx, s.Store.Pool, c.ID, time.Now())
		}
	}
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.Store.GetUserByID(ctx, s.Store.Pool, userID)
	if err != nil {
		return fmt.Errorf("auth: load user: %w", err)
	}
	if user.PasswordHash == nil || !s.Hasher.Verify(currentPassword, *user.PasswordHash) {
		return ErrWrongCurrentPassword
	}
	if ok, msg := password.ValidateStrength(newPassword); !ok {
		return fmt.Errorf("%w: %s", ErrWeakPassword, msg)
	}

	newHash, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("auth: hash new password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx pgx.Tx) error {
		return s.Store.UpdatePasswordHash(ctx, tx, userID, newHash)
	})
	if err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}

	if _, err := s.Rotation.RotateUser(ctx, userID, "password changed"); err != nil {
		return fmt.Errorf("auth: cascade session revocation: %w", err)
	}
	return nil
}
