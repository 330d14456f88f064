// Package main implements a janitor worker: a periodic background process
// that deletes expired, already-revoked rows so the session/token tables
// don't grow unbounded, grounded on the reference cmd/worker/main.go
// (invitation/MFA cleanup dropped along with those out-of-scope features;
// refresh_tokens and single_use_tokens kept and adapted to this schema).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/faiyaz7283/dashtam-authcore/internal/config"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	ctx := context.Background()
	pool, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger.Info("janitor_worker_started", "interval", "1h")

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	runJanitor(ctx, pool, logger)

	for {
		select {
		case <-ticker.C:
			runJanitor(ctx, pool, logger)
		case <-quit:
			logger.Info("janitor_worker_shutdown")
			return
		}
	}
}

func exec(ctx context.Context, pool *pgxpool.Pool, sql string) (int64, error) {
	tag, err := pool.Exec(ctx, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func runJanitor(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("janitor_cycle_start")

	if n, err := exec(ctx, pool, `DELETE FROM refresh_tokens WHERE is_revoked AND revoked_at < now() - interval '30 days'`); err != nil {
		logger.Error("janitor_refresh_tokens_failed", "error", err)
	} else if n > 0 {
		logger.Info("janitor_refresh_tokens_cleaned", "deleted", n)
	}

	if n, err := exec(ctx, pool, `DELETE FROM single_use_tokens WHERE used_at IS NOT NULL AND used_at < now() - interval '30 days'`); err != nil {
		logger.Error("janitor_single_use_tokens_used_failed", "error", err)
	} else if n > 0 {
		logger.Info("janitor_single_use_tokens_used_cleaned", "deleted", n)
	}

	if n, err := exec(ctx, pool, `DELETE FROM single_use_tokens WHERE used_at IS NULL AND expires_at < now() - interval '7 days'`); err != nil {
		logger.Error("janitor_single_use_tokens_expired_failed", "error", err)
	} else if n > 0 {
		logger.Info("janitor_single_use_tokens_expired_cleaned", "deleted", n)
	}

	if n, err := exec(ctx, pool, `DELETE FROM email_outbox WHERE status = 'sent' AND sent_at < now() - interval '30 days'`); err != nil {
		logger.Error("janitor_email_outbox_failed", "error", err)
	} else if n > 0 {
		logger.Info("janitor_email_outbox_cleaned", "deleted", n)
	}
}
