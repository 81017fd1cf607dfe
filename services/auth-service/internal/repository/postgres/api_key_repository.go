package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fkheinstein204/saasforge/services/auth-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/repository"
)

// APIKeyRepository is the Postgres-backed APIKeyRepository. The
// plaintext key is never stored; only KeyHash is.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

func NewAPIKeyRepository(pool *pgxpool.Pool) repository.APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query := `INSERT INTO api_keys (id, user_id, tenant_id, key_hash, name, scopes, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		key.ID, key.UserID, key.TenantID, key.KeyHash, key.Name, key.Scopes, key.ExpiresAt, key.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}

// ListActive returns every key still usable: not revoked and not expired.
// ValidateApiKey scans this set and verifies the plaintext against each
// hash via the Password Hasher.
func (r *APIKeyRepository) ListActive(ctx context.Context) ([]*domain.APIKey, error) {
	query := `SELECT id, user_id, tenant_id, key_hash, name, scopes, expires_at, revoked_at, created_at
		FROM api_keys WHERE revoked_at IS NULL AND expires_at > NOW()`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active API keys: %w", err)
	}
	defer rows.Close()

	var keys []*domain.APIKey
	for rows.Next() {
		var k domain.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.TenantID, &k.KeyHash, &k.Name, &k.Scopes, &k.ExpiresAt, &k.RevokedAt, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, &k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate API keys: %w", err)
	}
	return keys, nil
}

func (r *APIKeyRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE api_keys SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("API key not found: %w", pgx.ErrNoRows)
	}
	return nil
}
