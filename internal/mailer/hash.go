package mailer

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashRecipient returns a SHA-256 hex digest of an email address, for
// logging delivery outcomes without writing the address itself to logs,
// grounded on the reference internal/mailer/queue.go HashRecipient.
func HashRecipient(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
