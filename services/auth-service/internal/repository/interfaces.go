package repository

import (
	"context"

	"github.com/fkheinstein204/saasforge/services/auth-service/internal/domain"
)

// UserRepository persists accounts. FindByEmail and FindByID both
// exclude soft-deleted rows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	SoftDelete(ctx context.Context, id string) error
}

// TenantRepository persists tenant organizations.
type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	FindByID(ctx context.Context, id string) (*domain.Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error)
}

// APIKeyRepository persists API key records (never the plaintext key).
type APIKeyRepository interface {
	Create(ctx context.Context, key *domain.APIKey) error
	ListActive(ctx context.Context) ([]*domain.APIKey, error)
	Revoke(ctx context.Context, id string) error
}

// BackupCodeRepository persists TOTP backup codes.
type BackupCodeRepository interface {
	ReplaceAll(ctx context.Context, userID string, hashes []string) error
	ListUnused(ctx context.Context, userID string) ([]*domain.BackupCode, error)
	MarkUsed(ctx context.Context, id string) error
	// ConsumeMatching atomically finds the first unused code for userID
	// satisfying matches and marks it used in the same transaction, so
	// two concurrent logins can never both consume the same code.
	ConsumeMatching(ctx context.Context, userID string, matches func(codeHash string) bool) (bool, error)
}

// OAuthAccountRepository links users to federated identities.
type OAuthAccountRepository interface {
	FindByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error)
	Create(ctx context.Context, account *domain.OAuthAccount) error
}
