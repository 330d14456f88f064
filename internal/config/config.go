// Package config loads process configuration from environment variables,
// optionally preloaded from a .env/.env.local file, grounded on the
// reference internal/config package (expanded with the JWT/bcrypt/rate
// limit/SMTP/cache settings this module's domain stack requires).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process-level configuration. It is built once in each
// cmd/*/main.go entrypoint and passed down explicitly; no other package
// under internal/ reads the environment directly.
type Config struct {
	Env string // "development", "production", "test"

	DatabaseURL string

	JWTSecret            string
	JWTIssuer            string
	AccessTokenTTL       time.Duration
	LegacyRefreshTTL     time.Duration
	RefreshTokenTTL      time.Duration
	StickyRefreshEnabled bool

	BcryptCost int

	FailedLoginThreshold int
	LockoutDuration      time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	UseRedisCache bool

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	SMTPFrom    string
	SMTPTLSMode string
	DevMailer   bool

	TrustProxyHeaders bool
	TrustedProxyCIDRs []string

	CORSAllowedOrigins []string

	RateLimitPerMinute int

	SentryDSN string

	HTTPAddr string

	AllowPublicRegistration bool

	// AdminAPIKey gates rotate_global (spec.md §4.5: "requires an
	// administrator principal"). There is no role concept in this domain,
	// so the administrator principal is a shared secret presented via the
	// X-Admin-Key header rather than a user's own session.
	AdminAPIKey string
}

// Load reads configuration from the environment, first attempting to
// populate it from a .env/.env.local file (a missing file is not an
// error — only a local developer convenience, matching the reference).
func Load() Config {
	_ = godotenv.Load(".env.local", ".env")

	return Config{
		Env: getEnv("APP_ENV", "development"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTIssuer:            getEnv("JWT_ISSUER", "dashtam-authcore"),
		AccessTokenTTL:       getEnvAsDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		LegacyRefreshTTL:     getEnvAsDuration("LEGACY_REFRESH_TTL", 30*24*time.Hour),
		RefreshTokenTTL:      getEnvAsDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		StickyRefreshEnabled: getEnvAsBool("STICKY_REFRESH_ENABLED", false),

		BcryptCost: getEnvAsInt("BCRYPT_COST", 12),

		FailedLoginThreshold: getEnvAsInt("FAILED_LOGIN_THRESHOLD", 10),
		LockoutDuration:      getEnvAsDuration("LOCKOUT_DURATION", 1*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		UseRedisCache: getEnvAsBool("USE_REDIS_CACHE", false),

		SMTPHost:    os.Getenv("SMTP_HOST"),
		SMTPPort:    getEnvAsInt("SMTP_PORT", 587),
		SMTPUser:    os.Getenv("SMTP_USER"),
		SMTPPass:    os.Getenv("SMTP_PASS"),
		SMTPFrom:    os.Getenv("SMTP_FROM"),
		SMTPTLSMode: getEnv("SMTP_TLS_MODE", "starttls"),
		DevMailer:   getEnvAsBool("DEV_MAILER", true),

		TrustProxyHeaders: getEnvAsBool("TRUST_PROXY_HEADERS", false),
		TrustedProxyCIDRs: getEnvAsList("TRUSTED_PROXY_CIDRS"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),

		SentryDSN: os.Getenv("SENTRY_DSN"),

		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		AllowPublicRegistration: getEnvAsBool("ALLOW_PUBLIC_REGISTRATION", true),

		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := os.Getenv(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

func getEnvAsList(name string) []string {
	valStr := os.Getenv(name)
	if valStr == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(valStr); i++ {
		if i == len(valStr) || valStr[i] == ',' {
			if i > start {
				out = append(out, valStr[start:i])
			}
			start = i + 1
		}
	}
	return out
}
