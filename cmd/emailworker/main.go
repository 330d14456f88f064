// Package main implements the email worker daemon: a background process
// that polls the email_outbox table and delivers pending messages through
// a mailer.Provider, grounded on the reference cmd/emailworker/main.go
// (tenant-scoped SMTP config and AES-encrypted password loading dropped —
// this module has a single server-wide SMTP configuration).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faiyaz7283/dashtam-authcore/internal/config"
	"github.com/faiyaz7283/dashtam-authcore/internal/mailer"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

const maxAttempts = 5

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("email_worker_starting")

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	st := store.New(pool)

	var provider mailer.Provider
	if cfg.DevMailer {
		provider = mailer.NewLogProvider(logger)
	} else {
		if err := mailer.ValidateSMTPHost(cfg.SMTPHost); err != nil {
			logger.Error("smtp_host_invalid", "error", err)
			os.Exit(1)
		}
		smtpProvider, err := mailer.NewSMTPProvider(mailer.SMTPConfig{
			Host:    cfg.SMTPHost,
			Port:    cfg.SMTPPort,
			User:    cfg.SMTPUser,
			Pass:    cfg.SMTPPass,
			From:    cfg.SMTPFrom,
			TLSMode: cfg.SMTPTLSMode,
		}, logger)
		if err != nil {
			logger.Error("smtp_provider_init_failed", "error", err)
			os.Exit(1)
		}
		provider = smtpProvider
	}

	pollInterval := getEnvDuration("EMAIL_WORKER_INTERVAL", 5*time.Second)
	batchSize := getEnvInt("EMAIL_WORKER_BATCH_SIZE", 10)
	logger.Info("email_worker_configured", "poll_interval", pollInterval, "batch_size", batchSize)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("email_worker_shutdown_signal")
		cancel()
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	logger.Info("email_worker_started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("email_worker_stopped")
			return
		case <-ticker.C:
			processBatch(ctx, st, provider, logger, batchSize)
		}
	}
}

func processBatch(ctx context.Context, st *store.Store, provider mailer.Provider, logger *slog.Logger, batchSize int) {
	entries, err := st.ClaimPendingEmails(ctx, st.Pool, batchSize)
	if err != nil {
		logger.Error("claim_pending_emails_failed", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	sent := 0
	for _, entry := range entries {
		sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		err := sendOne(sendCtx, st, provider, entry)
		cancel()

		if err != nil {
			logger.Error("email_send_failed", "id", entry.ID, "attempts", entry.Attempts, "error", err)
			continue
		}
		sent++
	}
	logger.Info("email_batch_processed", "claimed", len(entries), "sent", sent)
}

func sendOne(ctx context.Context, st *store.Store, provider mailer.Provider, entry *store.EmailOutboxEntry) error {
	_, err := provider.Send(ctx, entry.To, entry.Subject, entry.HTMLBody, entry.TextBody)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = context.DeadlineExceeded
		}
		markFailed(ctx, st, entry, err.Error())
		return err
	}

	return st.MarkEmailSent(ctx, st.Pool, entry.ID, time.Now())
}

// markFailed schedules an exponential backoff retry of 2^attempt * 5m,
// where attempt counts the failure being recorded (10m, 20m, 40m, 80m),
// grounded on the reference's POWER(2, retry_count) * 5m policy; from the
// maxAttempts-th failure on, every further retry is deferred 24h (the
// outbox schema has no terminal "failed" status of its own).
func markFailed(ctx context.Context, st *store.Store, entry *store.EmailOutboxEntry, errMsg string) {
	attempt := entry.Attempts + 1
	var delay time.Duration
	if attempt >= maxAttempts {
		delay = 24 * time.Hour
	} else {
		delay = time.Duration(math.Pow(2, float64(attempt))) * 5 * time.Minute
	}
	if err := st.MarkEmailFailed(ctx, st.Pool, entry.ID, errMsg, time.Now().Add(delay)); err != nil {
		slog.Error("mark_email_failed_error", "id", entry.ID, "error", err)
	}
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return dur
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var i int
	if _, err := fmt.Sscanf(val, "%d", &i); err != nil {
		return defaultVal
	}
	return i
}
