package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretVerifier checks the shared admin secret. A bcrypt hash, when
// configured, takes precedence over the plain value.
type SecretVerifier struct {
	plain []byte
	hash  []byte
}

func NewSecretVerifier(plain, hash string) SecretVerifier {
	v := SecretVerifier{}
	if hash != "" {
		v.hash = []byte(hash)
	} else {
		v.plain = []byte(plain)
	}
	return v
}

func (v SecretVerifier) Verify(secret string) bool {
	if secret == "" {
		return false
	}
	if v.hash != nil {
		return bcrypt.CompareHashAndPassword(v.hash, []byte(secret)) == nil
	}
	if len(v.plain) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(v.plain, []byte(secret)) == 1
}

// HashSecret produces a value for ADMIN_SECRET_HASH.
func HashSecret(secret string) (string, error) {
	if len(secret) == 0 || len(secret) > 72 {
		return "", fmt.Errorf("secret must be 1-72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}
