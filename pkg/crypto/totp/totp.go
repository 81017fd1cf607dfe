// Package totp implements RFC 4226/6238 one-time codes and the
// accompanying backup-code scheme used to gate second-factor login.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	secretBytes = 20 // 160 bits
	stepSeconds = 30
	digits      = 6
)

// GenerateSecret returns a random Base32-encoded (with padding) shared secret.
func GenerateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("totp: read secret: %w", err)
	}
	return base32.StdEncoding.EncodeToString(buf), nil
}

// ProvisioningURI builds an otpauth:// URI suitable for a QR code.
func ProvisioningURI(issuer, accountName, secret string) string {
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, accountName))
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprintf("%d", digits))
	q.Set("period", fmt.Sprintf("%d", stepSeconds))
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// Validate reports whether code matches secret at now, accepting any
// counter in [now/30 - window, now/30 + window]. Any code that is not
// exactly 6 ASCII digits is rejected outright.
func Validate(secret, code string, window int, now time.Time) bool {
	if len(code) != digits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	key, err := base32.StdEncoding.DecodeString(strings.ToUpper(secret))
	if err != nil {
		return false
	}

	counter := now.Unix() / stepSeconds
	for delta := -window; delta <= window; delta++ {
		if generateCode(key, counter+int64(delta)) == code {
			return true
		}
	}
	return false
}

func generateCode(key []byte, counter int64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	truncated := (uint32(sum[offset])&0x7f)<<24 |
		uint32(sum[offset+1])<<16 |
		uint32(sum[offset+2])<<8 |
		uint32(sum[offset+3])

	mod := uint32(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, truncated%mod)
}

// GenerateBackupCodes returns n single-use recovery codes formatted as
// two 4-digit groups, e.g. "4821-0193".
func GenerateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var buf [4]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("totp: read backup code: %w", err)
		}
		v := binary.BigEndian.Uint32(buf[:])
		codes = append(codes, fmt.Sprintf("%04d-%04d", (v/10000)%10000, v%10000))
	}
	return codes, nil
}

// HashBackupCode returns the SHA-256 hex digest stored in place of the
// plaintext code.
func HashBackupCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyBackupCode reports whether code hashes to storedHash.
func VerifyBackupCode(code, storedHash string) bool {
	return hmac.Equal([]byte(HashBackupCode(code)), []byte(storedHash))
}
