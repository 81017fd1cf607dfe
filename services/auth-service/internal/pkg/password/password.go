package password

import (
	"unicode"

	"github.com/fkheinstein204/saasforge/pkg/crypto/passwordhash"
)

// Hasher hashes, verifies, and validates password complexity.
type Hasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
	Validate(password string) bool
}

// Argon2Hasher delegates hash/verify to the shared Argon2id primitive
// that also hashes API-key material.
type Argon2Hasher struct {
	inner *passwordhash.Hasher
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{inner: passwordhash.New()}
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	return h.inner.Hash(password)
}

func (h *Argon2Hasher) Check(password, hash string) bool {
	return h.inner.Verify(password, hash)
}

// Validate requires a length of at least 8 bytes (UTF-8, not runes) with
// a digit, an uppercase and a lowercase letter (any script, e.g. Latin or
// Cyrillic).
func (h *Argon2Hasher) Validate(password string) bool {
	if len(password) < 8 {
		return false
	}

	var hasDigit, hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	return hasDigit && hasUpper && hasLower
}
