package mailer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogProvider prints emails to the logger instead of sending them, safe
// for development, grounded on the reference internal/notify.DevMailer.
type LogProvider struct {
	Logger *slog.Logger
}

func NewLogProvider(logger *slog.Logger) *LogProvider {
	return &LogProvider{Logger: logger}
}

func (p *LogProvider) Send(_ context.Context, to, subject, html, text string) (string, error) {
	id := uuid.New().String()
	p.Logger.Info("dev_mailer_send",
		"message_id", id,
		"to", HashRecipient(to),
		"subject", subject,
		"text", text,
	)
	return id, nil
}
