package domain

import "time"

// User is a tenant-scoped account. A nil PasswordHash means the account
// authenticates only through a federated identity provider and MUST NOT
// be granted a session via password login. A non-nil DeletedAt retires
// the account: it MUST NOT be granted a session either.
type User struct {
	ID             string
	TenantID       string
	Email          string
	PasswordHash   *string
	TOTPSecret     *string
	TOTPEnrolledAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// BackupCode is a single-use TOTP fallback. UsedAt is set exactly once,
// in the same transaction that validates the code.
type BackupCode struct {
	ID       string
	UserID   string
	CodeHash string
	UsedAt   *time.Time
}

// APIKey is issued once as plaintext and stored only as a hash.
// Usable only while RevokedAt is nil and ExpiresAt is in the future.
type APIKey struct {
	ID        string
	UserID    string
	TenantID  string
	KeyHash   string
	Name      string
	Scopes    string // comma-joined
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// OAuthAccount links a user to a federated identity. (Provider,
// ProviderUserID) is unique; a user may hold one row per provider.
type OAuthAccount struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Tenant is a customer organization.
type Tenant struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
