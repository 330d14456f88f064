// Package main implements an operational CLI for direct database
// maintenance tasks, grounded on the reference cmd/control/main.go
// (tenant/membership commands dropped — this module has no tenancy
// concept; reset-password and check-user kept and adapted to the
// single-tenant schema, rotate-user added as a thin CLI over C5).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/faiyaz7283/dashtam-authcore/internal/auth"
	"github.com/faiyaz7283/dashtam-authcore/internal/config"
	"github.com/faiyaz7283/dashtam-authcore/internal/password"
	"github.com/faiyaz7283/dashtam-authcore/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: control <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  reset-password   Set a user's password directly")
		fmt.Println("  check-user       Print a user's account state")
		fmt.Println("  rotate-user      Rotate a user's token version (C5)")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "reset-password":
		resetPasswordCmd()
	case "check-user":
		checkUserCmd()
	case "rotate-user":
		rotateUserCmd()
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func connectStore(cfg config.Config) *store.Store {
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}
	pool, err := store.NewPostgres(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	return store.New(pool)
}

func resetPasswordCmd() {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	newPassword := fs.String("password", "", "new password")
	fs.Parse(os.Args[2:])

	if *email == "" || *newPassword == "" {
		fmt.Println("error: --email and --password are required")
		fs.PrintDefaults()
		os.Exit(1)
	}
	if ok, reason := password.ValidateStrength(*newPassword); !ok {
		log.Fatalf("password too weak: %s", reason)
	}

	cfg := config.Load()
	st := connectStore(cfg)
	ctx := context.Background()

	user, err := st.GetUserByEmail(ctx, st.Pool, *email)
	if err != nil {
		log.Fatalf("user not found: %v", err)
	}

	hasher := password.NewBcryptHasher(cfg.BcryptCost)
	hash, err := hasher.Hash(*newPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	if err := st.UpdatePasswordHash(ctx, st.Pool, user.ID, hash); err != nil {
		log.Fatalf("failed to update password: %v", err)
	}

	fmt.Printf("password reset for %s\n", *email)
}

func checkUserCmd() {
	fs := flag.NewFlagSet("check-user", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	fs.Parse(os.Args[2:])

	if *email == "" {
		fmt.Println("error: --email is required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Load()
	st := connectStore(cfg)
	ctx := context.Background()

	user, err := st.GetUserByEmail(ctx, st.Pool, *email)
	if err != nil {
		log.Fatalf("user not found: %v", err)
	}

	fmt.Printf("id:               %s\n", user.ID)
	fmt.Printf("email:            %s\n", user.Email)
	fmt.Printf("email_verified:   %v\n", user.EmailVerified)
	fmt.Printf("is_active:        %v\n", user.IsActive)
	fmt.Printf("failed_attempts:  %d\n", user.FailedLoginAttempts)
	fmt.Printf("locked_until:     %v\n", user.AccountLockedUntil)
	fmt.Printf("min_token_version: %d\n", user.MinTokenVersion)
}

func rotateUserCmd() {
	fs := flag.NewFlagSet("rotate-user", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	reason := fs.String("reason", "manual CLI rotation", "rotation reason")
	fs.Parse(os.Args[2:])

	if *email == "" {
		fmt.Println("error: --email is required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg := config.Load()
	st := connectStore(cfg)
	ctx := context.Background()

	user, err := st.GetUserByEmail(ctx, st.Pool, *email)
	if err != nil {
		log.Fatalf("user not found: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	rotation := auth.NewRotationService(st, logger)

	result, err := rotation.RotateUser(ctx, user.ID, *reason)
	if err != nil {
		log.Fatalf("rotation failed: %v", err)
	}

	fmt.Printf("rotated %s: version %d -> %d, %d tokens revoked\n",
		*email, result.OldVersion, result.NewVersion, result.TokensRevoked)
}
