// Package authtoken issues and validates the access tokens that carry a
// caller's identity and tenant across every RPC. Access tokens are RS256
// JWTs; refresh tokens are opaque strings kept entirely server-side.
package authtoken

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fkheinstein204/saasforge/pkg/cache"
	"github.com/fkheinstein204/saasforge/pkg/errors"
)

// Issuer is the constant issuer claim every access token carries and
// every validation checks against.
const Issuer = "saasforge"

const AccessTokenTTL = 15 * time.Minute
const RefreshTokenTTL = 30 * 24 * time.Hour

// Claims is the decoded, trusted identity of a validated access token.
type Claims struct {
	UserID   string
	TenantID string
	Email    string
	Roles    []string
	JTI      string
	IssuedAt time.Time
	ExpireAt time.Time
}

type registeredClaims struct {
	TenantID string   `json:"tenant_id"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// ErrInvalidToken is the single, non-oracular failure every validation
// path returns regardless of the underlying cause (bad signature,
// wrong issuer, expired, blacklisted jti).
var ErrInvalidToken = errors.New(errors.ErrUnauthorized, "not a token")

// Manager signs access tokens and mints opaque refresh tokens.
type Manager struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	cache      *cache.Client
}

func New(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, cacheClient *cache.Client) *Manager {
	return &Manager{privateKey: privateKey, publicKey: publicKey, cache: cacheClient}
}

// IssueAccessToken signs a new RS256 access token for the given identity.
func (m *Manager) IssueAccessToken(userID, tenantID, email string, roles []string) (string, string, error) {
	jti, err := randomJTI()
	if err != nil {
		return "", "", err
	}

	now := time.Now().UTC()
	claims := &registeredClaims{
		TenantID: tenantID,
		Email:    email,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return "", "", fmt.Errorf("authtoken: sign access token: %w", err)
	}
	return signed, jti, nil
}

// IssueRefreshToken mints an opaque "<user-id>:<256-bit-hex>" token and
// stores it under refresh:<user-id> with a 30-day TTL.
func (m *Manager) IssueRefreshToken(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("authtoken: read refresh entropy: %w", err)
	}
	token := fmt.Sprintf("%s:%s", userID, hex.EncodeToString(buf))

	if err := m.cache.SetWithTTL(ctx, refreshKey(userID), token, RefreshTokenTTL); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateRefreshToken reports whether token is exactly the one on file
// for its embedded user id. ok is true only on an exact match. mismatched
// is true only when a *different* token is on file for that user id —
// reuse of a rotated-out token — as opposed to no key being on file at
// all (already revoked, expired, or never issued), which callers must
// treat as a plain invalid-token failure rather than reuse. On a
// mismatch userID is still returned so the caller can revoke every
// session for that user.
func (m *Manager) ValidateRefreshToken(ctx context.Context, token string) (userID string, ok bool, mismatched bool, err error) {
	userID, err = userIDFromRefreshToken(token)
	if err != nil {
		return "", false, false, nil
	}

	stored, present, err := m.cache.Get(ctx, refreshKey(userID))
	if err != nil {
		return userID, false, false, err
	}
	if !present {
		return userID, false, false, nil
	}
	if stored != token {
		return userID, false, true, nil
	}
	return userID, true, false, nil
}

// RevokeRefreshToken deletes the stored refresh token, forcing re-login.
func (m *Manager) RevokeRefreshToken(ctx context.Context, userID string) error {
	return m.cache.Delete(ctx, refreshKey(userID))
}

// BlacklistAccessToken revokes jti for the remainder of its lifetime.
func (m *Manager) BlacklistAccessToken(ctx context.Context, jti string, expireAt time.Time) error {
	ttl := time.Until(expireAt)
	if ttl <= 0 {
		return nil
	}
	return m.cache.BlacklistJti(ctx, jti, ttl)
}

// Validate verifies signature, issuer, expiry, and blacklist status. Every
// token failure collapses to ErrInvalidToken so no oracle distinguishes
// cause; a cache error while checking the blacklist is returned as-is.
func (m *Manager) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &registeredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return m.publicKey, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*registeredClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	blacklisted, err := m.cache.IsJtiBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:   claims.Subject,
		TenantID: claims.TenantID,
		Email:    claims.Email,
		Roles:    claims.Roles,
		JTI:      claims.ID,
		IssuedAt: claims.IssuedAt.Time,
		ExpireAt: claims.ExpiresAt.Time,
	}, nil
}

func refreshKey(userID string) string {
	return "refresh:" + userID
}

func randomJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("authtoken: read jti entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func userIDFromRefreshToken(token string) (string, error) {
	idx := strings.LastIndex(token, ":")
	if idx < 0 {
		return "", fmt.Errorf("authtoken: malformed refresh token")
	}
	return token[:idx], nil
}
