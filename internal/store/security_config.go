package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrSecurityConfigMissing is returned when the singleton security_config
// row is absent. Bootstrapping the row is a migration responsibility
// (spec.md §9); this package never auto-creates it.
var ErrSecurityConfigMissing = errors.New("store: security_config singleton row is missing (database not migrated/seeded)")

// GetSecurityConfig loads the singleton row, failing loudly if absent.
func (s *Store) GetSecurityConfig(ctx context.Context, q Querier) (*SecurityConfig, error) {
	row := q.QueryRow(ctx, `SELECT id, global_min_token_version, updated_at, updated_by, reason FROM security_config LIMIT 1`)
	var c SecurityConfig
	err := row.Scan(&c.ID, &c.GlobalMinTokenVersion, &c.UpdatedAt, &c.UpdatedBy, &c.Reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSecurityConfigMissing
		}
		return nil, fmt.Errorf("store: get security config: %w", err)
	}
	return &c, nil
}

// SetGlobalMinTokenVersion writes the new global version with its audit
// metadata (rotate_global step 2).
func (s *Store) SetGlobalMinTokenVersion(ctx context.Context, q Querier, newVersion int, updatedBy, reason string) error {
	tag, err := q.Exec(ctx, `
		UPDATE security_config SET global_min_token_version = $1, updated_at = now(), updated_by = $2, reason = $3`,
		newVersion, updatedBy, reason)
	if err != nil {
		return fmt.Errorf("store: set global min token version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSecurityConfigMissing
	}
	return nil
}
