// Package apikey generates and hashes the single-secret API-key
// material the Auth Engine issues: sk_<256-bit hex>, returned plaintext
// exactly once and stored only as a hash.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fkheinstein204/saasforge/pkg/crypto/passwordhash"
)

const Prefix = "sk_"

// Generate returns a new plaintext key: sk_ followed by 64 hex characters.
func Generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("apikey: read entropy: %w", err)
	}
	return Prefix + hex.EncodeToString(buf), nil
}

// Hash and Verify delegate to the same memory-hard primitive used for
// passwords, per §4.C's "same primitive" requirement.
func Hash(key string) (string, error) {
	return passwordhash.New().Hash(key)
}

func Verify(key, encoded string) bool {
	return passwordhash.New().Verify(key, encoded)
}

// ScopeMatch reports whether any entry in granted authorizes requested.
// Deny by default. Case-sensitive; whitespace is not trimmed; a
// trailing '*' on a grant matches any requested scope with that
// literal prefix; a bare '*' grant matches everything. Internal '*'
// characters are not wildcards.
func ScopeMatch(granted []string, requested string) bool {
	for _, grant := range granted {
		if grant == requested {
			return true
		}
		if grant == "*" {
			return true
		}
		if strings.HasSuffix(grant, "*") {
			prefix := grant[:len(grant)-1]
			if strings.HasPrefix(requested, prefix) {
				return true
			}
		}
	}
	return false
}

// ParseScopes splits the comma-joined scope column.
func ParseScopes(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

// JoinScopes reassembles the comma-joined scope column.
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, ",")
}
