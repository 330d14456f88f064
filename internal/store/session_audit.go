package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// InsertSessionAudit persists one session lifecycle event into
// session_audit_log, the table C7's DatabaseAudit sink writes to
// (spec.md §4.7: "persist rows into an app-supplied audit table").
func (s *Store) InsertSessionAudit(ctx context.Context, q Querier, sessionID, userID uuid.UUID, event string, meta map[string]string) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("store: marshal audit metadata: %w", err)
	}

	var userIDArg any
	if userID != uuid.Nil {
		userIDArg = userID
	}

	_, err = q.Exec(ctx, `
		INSERT INTO session_audit_log (id, session_id, user_id, event, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		uuid.New(), sessionID, userIDArg, event, metaJSON)
	if err != nil {
		return fmt.Errorf("store: insert session audit: %w", err)
	}
	return nil
}
