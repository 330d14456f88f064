package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"
)

// SMTPProvider implements Provider over the standard SMTP protocol,
// supporting both STARTTLS (587) and direct TLS (465), grounded on the
// reference internal/mailer/smtp_provider.go (tenant/encrypted-credential
// handling dropped — this module reads a single plain config value).
type SMTPProvider struct {
	config SMTPConfig
	logger *slog.Logger
}

func NewSMTPProvider(config SMTPConfig, logger *slog.Logger) (*SMTPProvider, error) {
	if err := ValidateSMTPConfig(config.Host, config.Port); err != nil {
		return nil, fmt.Errorf("mailer: invalid smtp configuration: %w", err)
	}
	if _, err := sanitizeEmailAddress(config.From); err != nil {
		return nil, fmt.Errorf("mailer: invalid from address: %w", err)
	}
	return &SMTPProvider{config: config, logger: logger}, nil
}

func (p *SMTPProvider) Send(ctx context.Context, to, subject, html, text string) (string, error) {
	// Re-validate on every send, not just at construction, to defeat DNS
	// rebinding attacks against a host that resolved to a public IP earlier.
	if err := ValidateSMTPConfig(p.config.Host, p.config.Port); err != nil {
		p.logger.Error("smtp send blocked by ssrf validation", "host", p.config.Host, "error", err)
		return "", fmt.Errorf("smtp configuration failed validation")
	}

	toAddr, err := sanitizeEmailAddress(to)
	if err != nil {
		return "", fmt.Errorf("invalid recipient address")
	}
	fromAddr, err := sanitizeEmailAddress(p.config.From)
	if err != nil {
		return "", fmt.Errorf("invalid sender configuration")
	}

	messageID := fmt.Sprintf("<%d@%s>", time.Now().UnixNano(), p.config.Host)
	message := buildMessage(fromAddr, toAddr, subject, html, text, messageID)

	serverAddr := fmt.Sprintf("%s:%d", p.config.Host, p.config.Port)
	dialer := &net.Dialer{Timeout: 5 * time.Second}

	var conn net.Conn
	if p.config.TLSMode == "tls" {
		conn, err = tls.DialWithDialer(dialer, "tcp", serverAddr, &tls.Config{
			ServerName: p.config.Host,
			MinVersion: tls.VersionTLS12,
		})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", serverAddr)
	}
	if err != nil {
		p.logger.Error("smtp connect failed", "host", p.config.Host, "error", err)
		return "", fmt.Errorf("smtp connection failed")
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, p.config.Host)
	if err != nil {
		return "", fmt.Errorf("smtp protocol error")
	}
	defer client.Quit()

	if p.config.TLSMode == "starttls" {
		if err := client.StartTLS(&tls.Config{ServerName: p.config.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return "", fmt.Errorf("smtp tls upgrade failed")
		}
	}

	if p.config.User != "" {
		auth := smtp.PlainAuth("", p.config.User, p.config.Pass, p.config.Host)
		if err := client.Auth(auth); err != nil {
			p.logger.Error("smtp auth failed", "user", p.config.User, "error", err)
			return "", fmt.Errorf("smtp authentication failed")
		}
	}

	if err := client.Mail(fromAddr); err != nil {
		return "", fmt.Errorf("smtp MAIL command failed: %w", err)
	}
	if err := client.Rcpt(toAddr); err != nil {
		return "", fmt.Errorf("smtp RCPT command failed: %w", err)
	}
	writer, err := client.Data()
	if err != nil {
		return "", fmt.Errorf("smtp DATA command failed: %w", err)
	}
	if _, err := writer.Write(message); err != nil {
		return "", fmt.Errorf("failed to write email data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize email: %w", err)
	}

	p.logger.Info("email sent", "to_hash", HashRecipient(to), "message_id", messageID)
	return messageID, nil
}

func buildMessage(from, to, subject, html, text, messageID string) []byte {
	body := text
	contentType := "text/plain; charset=UTF-8"
	if body == "" && html != "" {
		body = html
		contentType = "text/html; charset=UTF-8"
	}

	headers := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Message-ID: " + messageID,
		"Date: " + time.Now().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: " + contentType,
	}

	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// sanitizeEmailAddress validates and reconstructs an address, rejecting
// CRLF injection in address or display name (MIME/SMTP header injection
// prevention).
func sanitizeEmailAddress(addr string) (string, error) {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return "", fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(parsed.Address, "\r\n") || strings.ContainsAny(parsed.Name, "\r\n") {
		return "", fmt.Errorf("invalid characters in email address")
	}
	return parsed.String(), nil
}
