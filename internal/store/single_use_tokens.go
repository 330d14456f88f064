package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrSingleUseTokenNotFound = errors.New("store: token not found")

const singleUseTokenColumns = `id, user_id, kind, token_hash, expires_at, used_at, created_at`

func scanSingleUseToken(row pgx.Row) (*SingleUseToken, error) {
	var t SingleUseToken
	err := row.Scan(&t.ID, &t.UserID, &t.Kind, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSingleUseTokenNotFound
		}
		return nil, fmt.Errorf("store: scan single-use token: %w", err)
	}
	return &t, nil
}

// CreateSingleUseToken persists a freshly issued email-verification or
// password-reset token hash. The plaintext never reaches this layer.
func (s *Store) CreateSingleUseToken(ctx context.Context, q Querier, userID uuid.UUID, kind TokenKind, tokenHash string, expiresAt time.Time) (*SingleUseToken, error) {
	row := q.QueryRow(ctx, `
		INSERT INTO single_use_tokens (id, user_id, kind, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+singleUseTokenColumns,
		uuid.New(), userID, kind, tokenHash, expiresAt,
	)
	return scanSingleUseToken(row)
}

// ListUnusedForUser loads every not-yet-consumed token of the given kind
// for userID — the small candidate set (spec.md §4.3/§4.4: "typically 0-2
// per user") scanned with a constant-time hash comparison by the caller.
func (s *Store) ListUnusedForUser(ctx context.Context, q Querier, userID uuid.UUID, kind TokenKind) ([]*SingleUseToken, error) {
	rows, err := q.Query(ctx, `
		SELECT `+singleUseTokenColumns+` FROM single_use_tokens
		WHERE user_id = $1 AND kind = $2 AND used_at IS NULL`, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("store: list unused tokens: %w", err)
	}
	defer rows.Close()

	var out []*SingleUseToken
	for rows.Next() {
		t, err := scanSingleUseToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListAllUnused loads every not-yet-consumed token of the given kind across
// all users. Used only where the caller does not yet know which user a
// presented plaintext belongs to (mirrors the refresh-token candidate scan
// shape, kept separate from ListUnusedForUser for clarity at call sites).
func (s *Store) ListAllUnused(ctx context.Context, q Querier, kind TokenKind) ([]*SingleUseToken, error) {
	rows, err := q.Query(ctx, `
		SELECT `+singleUseTokenColumns+` FROM single_use_tokens
		WHERE kind = $1 AND used_at IS NULL`, kind)
	if err != nil {
		return nil, fmt.Errorf("store: list all unused tokens: %w", err)
	}
	defer rows.Close()

	var out []*SingleUseToken
	for rows.Next() {
		t, err := scanSingleUseToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkUsed transitions used_at from null to now, exactly once per row
// (testable property 4 of spec.md §8).
func (s *Store) MarkUsed(ctx context.Context, q Querier, id uuid.UUID, at time.Time) error {
	tag, err := q.Exec(ctx, `UPDATE single_use_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, at)
	if err != nil {
		return fmt.Errorf("store: mark token used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store: token %s already used or missing", id)
	}
	return nil
}
