package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fkheinstein204/saasforge/services/auth-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/repository"
)

// OAuthAccountRepository is the Postgres-backed OAuthAccountRepository.
type OAuthAccountRepository struct {
	*BaseRepository
}

func NewOAuthAccountRepository(pool *pgxpool.Pool) repository.OAuthAccountRepository {
	return &OAuthAccountRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *OAuthAccountRepository) FindByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error) {
	query := `SELECT id, user_id, provider, provider_user_id, created_at
		FROM oauth_accounts WHERE provider = $1 AND provider_user_id = $2`

	var a domain.OAuthAccount
	err := r.Pool.QueryRow(ctx, query, provider, providerUserID).Scan(
		&a.ID, &a.UserID, &a.Provider, &a.ProviderUserID, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get oauth account: %w", err)
	}
	return &a, nil
}

func (r *OAuthAccountRepository) Create(ctx context.Context, account *domain.OAuthAccount) error {
	query := `INSERT INTO oauth_accounts (id, user_id, provider, provider_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.Pool.Exec(ctx, query, account.ID, account.UserID, account.Provider, account.ProviderUserID, account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create oauth account: %w", err)
	}
	return nil
}
