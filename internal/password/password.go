// Package password implements credential hashing, strength validation, and
// secure random password generation (component C1 of the auth core).
package password

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt's native input limit. Longer inputs are truncated consistently on
// both hash and verify so the retained prefix is still checked correctly.
const maxInputBytes = 72

// Hasher hashes and verifies passwords, and is reused by C3/C4 for hashing
// single-use token secrets with the same primitive.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher is the reference Hasher implementation.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher builds a Hasher at the given work factor. cost <= 0 falls
// back to 12, matching the reference service's default (above
// bcrypt.DefaultCost of 10 — "moderate, ~300ms on reference hardware").
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = 12
	}
	return &BcryptHasher{cost: cost}
}

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxInputBytes {
		return b[:maxInputBytes]
	}
	return b
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	out, err := bcrypt.GenerateFromPassword(truncate(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(out), nil
}

// Verify reports whether plain matches hash. Comparison is constant-time in
// the compared bytes via bcrypt's own implementation; any error (mismatch,
// malformed hash) is treated as "does not match".
func (h *BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(plain)) == nil
}

// NeedsRehash reports whether hash was produced at a work factor different
// from the hasher's configured cost, so the caller may silently re-hash on
// next successful verify.
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		// Malformed hash: treat as needing rehash so callers replace it.
		return true
	}
	return cost != h.cost
}

const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"
const lowerChars = "abcdefghijklmnopqrstuvwxyz"
const upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const digitChars = "0123456789"

// ValidateStrength checks the policy in order, returning the first failure.
// Policy: length >= 8; contains uppercase, lowercase, digit, and one
// character from the special set.
func ValidateStrength(plain string) (bool, string) {
	if len(plain) < 8 {
		return false, "password must be at least 8 characters long"
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range plain {
		switch {
		case containsRune(upperChars, r):
			hasUpper = true
		case containsRune(lowerChars, r):
			hasLower = true
		case containsRune(digitChars, r):
			hasDigit = true
		case containsRune(specialChars, r):
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return false, "password must contain an uppercase letter"
	case !hasLower:
		return false, "password must contain a lowercase letter"
	case !hasDigit:
		return false, "password must contain a digit"
	case !hasSpecial:
		return false, "password must contain a special character (!@#$%^&*()_+-=[]{}|;:,.<>?)"
	}
	return true, ""
}

func containsRune(set string, r rune) bool {
	for _, c := range set {
		if c == r {
			return true
		}
	}
	return false
}

// GenerateRandom produces a cryptographically random password of the given
// length that satisfies ValidateStrength: at least one character from each
// required class, the remainder drawn uniformly from the combined alphabet,
// then shuffled with the same secure RNG.
func GenerateRandom(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	all := upperChars + lowerChars + digitChars + specialChars
	classes := []string{upperChars, lowerChars, digitChars, specialChars}

	out := make([]byte, length)
	for i, class := range classes {
		c, err := randChar(class)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	for i := len(classes); i < length; i++ {
		c, err := randChar(all)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	if err := secureShuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

func randChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("password: generate: %w", err)
	}
	return set[n.Int64()], nil
}

// GenerateToken returns a URL-safe random string of n raw bytes, used for
// opaque refresh tokens and single-use email-verification/password-reset
// secrets (spec.md §4.2-§4.4: "generate >= 32 bytes of URL-safe random"),
// grounded on the reference's internal/auth/recovery.go GenerateSecureToken.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("password: generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// secureShuffle performs a Fisher-Yates shuffle driven by crypto/rand.
func secureShuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("password: shuffle: %w", err)
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
