package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the historical cost factor used for every stored
// password and verification code hash. Changing it would only affect newly
// created hashes, but keep it fixed so hashes stay comparable across
// deployments.
const bcryptCost = 10

// HashSecret generates a salted bcrypt hash for the provided secret.
// The same input produces a different hash on each call.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

// VerifySecret compares the provided secret against a stored bcrypt hash.
// A malformed hash is treated as a mismatch, never as an error.
func VerifySecret(secret, encoded string) bool {
	if secret == "" || encoded == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(secret)) == nil
}
