// Package mailer provides email sending with SSRF protection and async
// outbox-backed delivery, grounded on the reference internal/mailer
// package (tenant-scoped SMTP config and template whitelist dropped — this
// module has no tenancy concept and the outbound interface spec.md §6
// names is the plain send(to, subject, html, text)).
package mailer

import "context"

// Provider delivers a single email. Implementations must be safe for
// concurrent use and should treat delivery as retry-safe.
type Provider interface {
	Send(ctx context.Context, to, subject, html, text string) (providerMessageID string, err error)
}

// SMTPConfig holds the single server-wide SMTP configuration this module
// uses (no per-tenant configuration, unlike the reference).
type SMTPConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	From    string
	TLSMode string // "starttls" or "tls"
}
