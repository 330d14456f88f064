package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/faiyaz7283/dashtam-authcore/internal/api"
	"github.com/faiyaz7283/dashtam-authcore/internal/api/helpers"
	"github.com/faiyaz7283/dashtam-authcore/internal/api/middleware"
	"github.com/faiyaz7283/dashtam-authcore/internal/auth"
	"github.com/faiyaz7283/dashtam-authcore/internal/cache"
	"github.com/faiyaz7283/dashtam-authcore/internal/config"
	"github.com/faiyaz7283/dashtam-authcore/internal/notify"
	"github.com/faiyaz7283/dashtam-authcore/internal/password"
	"github.com/faiyaz7283/dashtam-authcore/internal/ratelimit"
	"github.com/faiyaz7283/dashtam-authcore/internal/sessionapi"
	"github.com/faiyaz7283/dashtam-authcore/internal/sessionmgr"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
	"github.com/faiyaz7283/dashtam-authcore/internal/tokens"
	"github.com/faiyaz7283/dashtam-authcore/pkg/logger"
)

// rateLimitRules defines C9's per-endpoint policy, grounded on
// original_source/src/rate_limiter/middleware.py's documented defaults for
// the auth surface (tight on credential-guessing endpoints, looser
// elsewhere).
func rateLimitRules(perMinute int) map[string]ratelimit.Rule {
	minute := time.Minute
	return map[string]ratelimit.Rule{
		"POST /auth/login":                    {Limit: 5, Window: minute, Scope: ratelimit.ScopeIP},
		"POST /auth/register":                 {Limit: 3, Window: minute, Scope: ratelimit.ScopeIP},
		"POST /auth/refresh":                  {Limit: 20, Window: minute, Scope: ratelimit.ScopeUser},
		"POST /auth/logout":                   {Limit: 20, Window: minute, Scope: ratelimit.ScopeUser},
		"POST /auth/verify-email":              {Limit: 10, Window: minute, Scope: ratelimit.ScopeIP},
		"POST /auth/password-resets":           {Limit: 3, Window: minute, Scope: ratelimit.ScopeIP},
		"GET /auth/password-resets/{token}":    {Limit: 10, Window: minute, Scope: ratelimit.ScopeIP},
		"PATCH /auth/password-resets/{token}":  {Limit: 5, Window: minute, Scope: ratelimit.ScopeIP},
		"POST /token-rotation/users/{user_id}": {Limit: 5, Window: minute, Scope: ratelimit.ScopeUser},
		"POST /token-rotation/global":          {Limit: 2, Window: minute, Scope: ratelimit.ScopeUser},
		"default":                              {Limit: perMinute, Window: minute, Scope: ratelimit.ScopeIP},
	}
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.Env)
	log.Info("application_startup", "env", cfg.Env)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 1.0,
			Environment:      cfg.Env,
		}); err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			log.Info("sentry_initialized")
		}
	} else {
		log.Warn("sentry_dsn_missing", "details", "skipping_init")
	}

	if err := middleware.ValidateCORSOrigins(cfg.CORSAllowedOrigins); err != nil {
		log.Error("cors_config_invalid", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database_connected")

	st := store.New(pool)
	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	tokenProvider := tokens.NewProvider(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.LegacyRefreshTTL, cfg.JWTIssuer)

	// Email is always enqueued to the outbox, never sent from within a
	// request: cmd/emailworker owns the actual SMTP/dev-log delivery mode
	// (cfg.DevMailer), so a sending failure there can retry without ever
	// touching this process's request path (spec.md §6: email delivery
	// must not fail the caller's request).
	mailProvider := notify.NewAsyncMailer(st, log)

	var appCache cache.Cache
	if cfg.UseRedisCache {
		appCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	} else {
		appCache = cache.NewMemory()
	}

	verification := auth.NewVerificationService(st, hasher, mailProvider, log)
	rotation := auth.NewRotationService(st, log)
	reset := auth.NewResetService(st, hasher, rotation, mailProvider, log)

	authService := &auth.Service{
		Store:                st,
		Hasher:               hasher,
		Tokens:               tokenProvider,
		Verification:         verification,
		Reset:                reset,
		Rotation:             rotation,
		Logger:               log,
		AccessTokenTTL:       cfg.AccessTokenTTL,
		RefreshTokenTTL:      cfg.RefreshTokenTTL,
		FailedLoginThreshold: cfg.FailedLoginThreshold,
		LockoutDuration:      cfg.LockoutDuration,
	}

	reg := prometheus.NewRegistry()
	sessionStorageType := "database"
	if cfg.UseRedisCache {
		sessionStorageType = "cache"
	}
	sessionManager, err := sessionmgr.New(sessionmgr.Config{
		StorageType:      sessionStorageType,
		AuditType:        "logger",
		CacheTTL:         15 * time.Minute,
		EnableEnrichment: true,
	}, st, appCache, log, reg)
	if err != nil {
		log.Error("session_manager_init_failed", "error", err)
		os.Exit(1)
	}
	sessions := sessionapi.New(sessionManager, appCache)

	var rlStore ratelimit.Store
	if cfg.UseRedisCache {
		redisCache, ok := appCache.(*cache.Redis)
		if !ok {
			log.Error("ratelimit_redis_unavailable", "details", "cache is not a *cache.Redis instance")
			os.Exit(1)
		}
		rlStore = ratelimit.NewRedisStore(redisCache.Client())
	} else {
		rlStore = ratelimit.NewMemoryStore()
	}
	limiter := ratelimit.New(rlStore, rateLimitRules(cfg.RateLimitPerMinute))

	trustedCIDRs := helpers.ParseCIDRs(cfg.TrustedProxyCIDRs)

	server := api.NewServer(pool, log, authService, reset, rotation, sessions, tokenProvider, limiter, appCache, cfg, trustedCIDRs)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server_listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("server_startup_failed", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown_signal_received", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			if err := srv.Close(); err != nil {
				log.Error("server_force_close_failed", "error", err)
			}
		}

		pool.Close()
		log.Info("database_pool_closed")
		log.Info("server_shutdown_complete")
	}
}
