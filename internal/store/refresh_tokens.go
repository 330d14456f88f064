package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrRefreshTokenNotFound = errors.New("store: refresh token not found")

const refreshTokenColumns = `id, user_id, token_hash, expires_at, is_revoked, revoked_at,
	device_info, ip_address, user_agent, location, fingerprint, is_trusted_device,
	last_used_at, token_version, global_version_at_issuance, created_at`

func scanRefreshToken(row pgx.Row) (*RefreshToken, error) {
	var r RefreshToken
	err := row.Scan(
		&r.ID, &r.UserID, &r.TokenHash, &r.ExpiresAt, &r.IsRevoked, &r.RevokedAt,
		&r.DeviceInfo, &r.IPAddress, &r.UserAgent, &r.Location, &r.Fingerprint, &r.IsTrustedDevice,
		&r.LastUsedAt, &r.TokenVersion, &r.GlobalVersionAtIssuance, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("store: scan refresh token: %w", err)
	}
	return &r, nil
}

type NewRefreshToken struct {
	UserID                  uuid.UUID
	TokenHash               string
	ExpiresAt               time.Time
	DeviceInfo              string
	IPAddress               string
	UserAgent               string
	TokenVersion            int
	GlobalVersionAtIssuance int
}

// CreateRefreshToken inserts a new session row, minted alongside an access
// token whose jti equals the returned row's id.
func (s *Store) CreateRefreshToken(ctx context.Context, q Querier, n NewRefreshToken) (*RefreshToken, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO refresh_tokens
			(id, user_id, token_hash, expires_at, is_revoked, device_info, ip_address, user_agent,
			 is_trusted_device, token_version, global_version_at_issuance, created_at)
		VALUES ($1, $2, $3, $4, false, $5, $6, $7, false, $8, $9, now())
		RETURNING `+refreshTokenColumns,
		uuid.New(), n.UserID, n.TokenHash, n.ExpiresAt, n.DeviceInfo, n.IPAddress, n.UserAgent,
		n.TokenVersion, n.GlobalVersionAtIssuance,
	)
	return scanRefreshToken(row)
}

func (s *Store) GetRefreshTokenByID(ctx context.Context, q Querier, id uuid.UUID) (*RefreshToken, error) {
	row := q.QueryRow(ctx, `SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE id = $1`, id)
	return scanRefreshToken(row)
}

// ListNonRevokedCandidates loads every non-revoked refresh-token row
// system-wide. Refresh-token plaintexts are opaque and carry no user
// identifier, so per spec.md §4.6 ("load non-revoked refresh rows
// (candidate set); match by constant-time hash comparison") the refresh
// path must scan the full non-revoked set rather than a per-user subset —
// unlike verification/reset tokens, which are scoped to a known user.
// See DESIGN.md for why this departs from the small per-user scans C3/C4
// use.
func (s *Store) ListNonRevokedCandidates(ctx context.Context, q Querier) ([]*RefreshToken, error) {
	rows, err := q.Query(ctx, `SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE is_revoked = false`)
	if err != nil {
		return nil, fmt.Errorf("store: list refresh candidates: %w", err)
	}
	defer rows.Close()
	return collectRefreshTokens(rows)
}

// ListNonRevokedForUser loads a single user's non-revoked, unexpired
// refresh tokens — used for session listing (C8). rotate_user (C5) computes
// max(token_version) with MaxTokenVersionForUser instead.
func (s *Store) ListNonRevokedForUser(ctx context.Context, q Querier, userID uuid.UUID) ([]*RefreshToken, error) {
	rows, err := q.Query(ctx, `
		SELECT `+refreshTokenColumns+` FROM refresh_tokens
		WHERE user_id = $1 AND is_revoked = false AND expires_at > now()
		ORDER BY last_used_at DESC NULLS FIRST`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list refresh tokens for user: %w", err)
	}
	defer rows.Close()
	return collectRefreshTokens(rows)
}

func collectRefreshTokens(rows pgx.Rows) ([]*RefreshToken, error) {
	var out []*RefreshToken
	for rows.Next() {
		r, err := scanRefreshToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) RevokeRefreshToken(ctx context.Context, q Querier, id uuid.UUID, revokedAt time.Time) error {
	_, err := q.Exec(ctx, `UPDATE refresh_tokens SET is_revoked = true, revoked_at = $2 WHERE id = $1`, id, revokedAt)
	return err
}

func (s *Store) TouchLastUsed(ctx context.Context, q Querier, id uuid.UUID, at time.Time) error {
	_, err := q.Exec(ctx, `UPDATE refresh_tokens SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}

// MaxTokenVersionForUser returns max(token_version) across every refresh
// token the user has ever had, or 0 when none exist, as required by
// rotate_user step 2.
func (s *Store) MaxTokenVersionForUser(ctx context.Context, q Querier, userID uuid.UUID) (int, error) {
	var max *int
	err := q.QueryRow(ctx, `SELECT MAX(token_version) FROM refresh_tokens WHERE user_id = $1`, userID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("store: max token version: %w", err)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// RevokeBelowUserVersion marks every non-revoked refresh token of userID
// whose token_version is below newVersion as revoked, returning the count
// revoked (rotate_user step 5).
func (s *Store) RevokeBelowUserVersion(ctx context.Context, q Querier, userID uuid.UUID, newVersion int, revokedAt time.Time) (int, error) {
	tag, err := q.Exec(ctx, `
		UPDATE refresh_tokens SET is_revoked = true, revoked_at = $3
		WHERE user_id = $1 AND token_version < $2 AND is_revoked = false`,
		userID, newVersion, revokedAt)
	if err != nil {
		return 0, fmt.Errorf("store: revoke below user version: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// RevokeAllForUserExcept revokes every non-revoked refresh token of userID
// other than keepID (or all of them, when keepID is uuid.Nil), without
// touching token_version — used by C8's revoke_others/revoke_all, which
// are user-initiated "log out my other devices" actions and must not
// invalidate the session making the request.
func (s *Store) RevokeAllForUserExcept(ctx context.Context, q Querier, userID, keepID uuid.UUID, revokedAt time.Time) (int, error) {
	tag, err := q.Exec(ctx, `
		UPDATE refresh_tokens SET is_revoked = true, revoked_at = $3
		WHERE user_id = $1 AND id != $2 AND is_revoked = false`,
		userID, keepID, revokedAt)
	if err != nil {
		return 0, fmt.Errorf("store: revoke all for user except: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CountAffectedByGlobalRotation returns the number of non-revoked tokens
// and distinct users whose global_version_at_issuance is below newVersion,
// for rotate_global's reporting requirement.
func (s *Store) CountAffectedByGlobalRotation(ctx context.Context, q Querier, newVersion int) (tokens int, users int, err error) {
	err = q.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT user_id) FROM refresh_tokens
		WHERE global_version_at_issuance < $1 AND is_revoked = false`, newVersion).Scan(&tokens, &users)
	if err != nil {
		return 0, 0, fmt.Errorf("store: count global rotation impact: %w", err)
	}
	return tokens, users, nil
}

// RevokeBelowGlobalVersion marks every non-revoked token whose
// global_version_at_issuance is below newVersion as revoked, with
// revoked_at set to the grace-period-adjusted timestamp (rotate_global
// step 4). is_revoked becomes true immediately regardless of the grace
// period — see the validation-path note in internal/auth for the policy
// decision this implies.
func (s *Store) RevokeBelowGlobalVersion(ctx context.Context, q Querier, newVersion int, revokedAt time.Time) (int, error) {
	tag, err := q.Exec(ctx, `
		UPDATE refresh_tokens SET is_revoked = true, revoked_at = $2
		WHERE global_version_at_issuance < $1 AND is_revoked = false`,
		newVersion, revokedAt)
	if err != nil {
		return 0, fmt.Errorf("store: revoke below global version: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
