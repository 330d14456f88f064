package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("store: user not found")

const userColumns = `id, email, password_hash, email_verified, email_verified_at,
	failed_login_attempts, account_locked_until, last_login_at, last_login_ip,
	min_token_version, is_active, full_name, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.EmailVerified, &u.EmailVerifiedAt,
		&u.FailedLoginAttempts, &u.AccountLockedUntil, &u.LastLoginAt, &u.LastLoginIP,
		&u.MinTokenVersion, &u.IsActive, &u.FullName, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new, active, unverified user with min_token_version
// bootstrapped to 1.
func (s *Store) CreateUser(ctx context.Context, q Querier, email, fullName string, passwordHash string) (*User, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, email_verified, min_token_version, is_active, full_name, created_at, updated_at)
		VALUES ($1, $2, $3, false, 1, true, $4, now(), now())
		RETURNING `+userColumns,
		uuid.New(), email, passwordHash, fullName,
	)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, q Querier, id uuid.UUID) (*User, error) {
	row := q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, q Querier, email string) (*User, error) {
	row := q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) SetEmailVerified(ctx context.Context, q Querier, userID uuid.UUID, at time.Time) error {
	_, err := q.Exec(ctx, `UPDATE users SET email_verified = true, email_verified_at = $2, updated_at = now() WHERE id = $1`, userID, at)
	return err
}

func (s *Store) UpdatePasswordHash(ctx context.Context, q Querier, userID uuid.UUID, hash string) error {
	_, err := q.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, userID, hash)
	return err
}

// RecordLoginSuccess resets the failed-attempt counter and stamps
// last_login_at/last_login_ip, per spec.md §4.6 ("On any successful login,
// reset the counter").
func (s *Store) RecordLoginSuccess(ctx context.Context, q Querier, userID uuid.UUID, at time.Time, ip string) error {
	_, err := q.Exec(ctx, `
		UPDATE users SET failed_login_attempts = 0, last_login_at = $2, last_login_ip = $3, updated_at = now()
		WHERE id = $1`, userID, at, ip)
	return err
}

// RecordLoginFailure increments failed_login_attempts and locks the
// account for lockDuration once the threshold is reached.
func (s *Store) RecordLoginFailure(ctx context.Context, q Querier, userID uuid.UUID, threshold int, lockDuration time.Duration, now time.Time) error {
	_, err := q.Exec(ctx, `
		UPDATE users SET
			failed_login_attempts = failed_login_attempts + 1,
			account_locked_until = CASE
				WHEN failed_login_attempts + 1 >= $2 THEN $3
				ELSE account_locked_until
			END,
			updated_at = now()
		WHERE id = $1`, userID, threshold, now.Add(lockDuration))
	return err
}

func (s *Store) SetMinTokenVersion(ctx context.Context, q Querier, userID uuid.UUID, version int) error {
	_, err := q.Exec(ctx, `UPDATE users SET min_token_version = $2, updated_at = now() WHERE id = $1`, userID, version)
	return err
}

func (s *Store) UpdateFullName(ctx context.Context, q Querier, userID uuid.UUID, fullName string) error {
	_, err := q.Exec(ctx, `UPDATE users SET full_name = $2, updated_at = now() WHERE id = $1`, userID, fullName)
	return err
}
