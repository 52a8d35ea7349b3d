// Package secrets hashes and verifies user secrets for the token endpoint.
package secrets

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"

	dErrors "patchdesk/pkg/domain-errors"
)

const secretBytes = 32

// GenerateSecret returns a URL-safe random secret for a newly provisioned user.
func GenerateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate secret")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashSecret produces a bcrypt hash suitable for storage.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}
	return string(hash), nil
}

// VerifySecret compares a presented secret against its stored hash.
func VerifySecret(hash, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return nil
}
