// Package notify implements the async-enqueue side of C3/C4 email
// delivery: AsyncMailer writes to the email_outbox table instead of
// sending synchronously, grounded on the reference internal/notify
// package's ProductionMailer (tenant_id dropped). cmd/emailworker drains
// the table and performs the actual SMTP/dev-log send.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/faiyaz7283/dashtam-authcore/internal/mailer"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

// AsyncMailer implements mailer.Provider by enqueueing to the email_outbox
// table rather than sending synchronously, grounded on the reference
// ProductionMailer (database-queue + background-worker split). spec.md §6
// requires email delivery to be async and to never propagate a failure to
// the caller; enqueueing onto a durable table and returning immediately is
// how the reference achieves that.
type AsyncMailer struct {
	Store  *store.Store
	Logger *slog.Logger
}

func NewAsyncMailer(s *store.Store, logger *slog.Logger) *AsyncMailer {
	return &AsyncMailer{Store: s, Logger: logger}
}

func (m *AsyncMailer) Send(ctx context.Context, to, subject, html, text string) (string, error) {
	id, err := m.Store.EnqueueEmail(ctx, m.Store.Pool, to, subject, html, text)
	if err != nil {
		// Enqueue failures are logged here and returned only as a generic
		// error without the underlying detail; the internal/auth callers log
		// a Send error and carry on, so the request does not fail because
		// the outbox insert did.
		m.Logger.Error("failed to enqueue email", "to_hash", mailer.HashRecipient(to), "error", err)
		return "", fmt.Errorf("email enqueue failed")
	}
	m.Logger.Info("email enqueued", "to_hash", mailer.HashRecipient(to), "outbox_id", id)
	return id.String(), nil
}
