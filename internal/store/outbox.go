package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnqueueEmail inserts a pending outbox row for cmd/emailworker to deliver,
// grounded on the reference internal/mailer/queue.go EnqueueEmail pattern
// (tenant_id dropped — this module has no tenancy concept).
func (s *Store) EnqueueEmail(ctx context.Context, q Querier, to, subject, htmlBody, textBody string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := q.Exec(ctx, `
		INSERT INTO email_outbox (id, recipient, subject, html_body, text_body, status, attempts, next_retry_at, created_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', 0, now(), now())`,
		id, to, subject, htmlBody, textBody)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: enqueue email: %w", err)
	}
	return id, nil
}

// ClaimPendingEmails loads up to limit pending rows due for retry, for a
// worker poll cycle.
func (s *Store) ClaimPendingEmails(ctx context.Context, q Querier, limit int) ([]*EmailOutboxEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, recipient, subject, html_body, text_body, status, attempts, last_error, next_retry_at, created_at, sent_at
		FROM email_outbox
		WHERE status = 'pending' AND next_retry_at <= now()
		ORDER BY created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: claim pending emails: %w", err)
	}
	defer rows.Close()

	var out []*EmailOutboxEntry
	for rows.Next() {
		out = append(out, &EmailOutboxEntry{})
		e := out[len(out)-1]
		if err := rows.Scan(&e.ID, &e.To, &e.Subject, &e.HTMLBody, &e.TextBody, &e.Status, &e.Attempts, &e.LastError, &e.NextRetryAt, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, fmt.Errorf("store: scan outbox entry: %w", err)
		}
	}
	return out, rows.Err()
}

func (s *Store) MarkEmailSent(ctx context.Context, q Querier, id uuid.UUID, at time.Time) error {
	_, err := q.Exec(ctx, `UPDATE email_outbox SET status = 'sent', sent_at = $2 WHERE id = $1`, id, at)
	return err
}

func (s *Store) MarkEmailFailed(ctx context.Context, q Querier, id uuid.UUID, errMsg string, nextRetryAt time.Time) error {
	_, err := q.Exec(ctx, `
		UPDATE email_outbox SET status = 'pending', attempts = attempts + 1, last_error = $2, next_retry_at = $3
		WHERE id = $1`, id, errMsg, nextRetryAt)
	return err
}
