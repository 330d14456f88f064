// Package main generates a random JWT signing secret for local
// development, grounded on the reference cmd/keygen/main.go (RSA keypair
// generation replaced: C2's tokens.Provider signs with HS256 over a
// shared secret, not an asymmetric keypair).
package main

import (
	"fmt"
	"os"

	"github.com/faiyaz7283/dashtam-authcore/internal/password"
)

func main() {
	secret, err := password.GenerateToken(48)
	if err != nil {
		fmt.Printf("failed to generate secret: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--- copy below to .env.local ---")
	fmt.Printf("JWT_SECRET=%s\n", secret)
	fmt.Println("---------------------------------")
}
