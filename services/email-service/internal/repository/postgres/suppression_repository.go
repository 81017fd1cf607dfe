package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/repository"
)

// SuppressionRepository is the Postgres-backed SuppressionRepository.
type SuppressionRepository struct {
	pool *pgxpool.Pool
}

func NewSuppressionRepository(pool *pgxpool.Pool) repository.SuppressionRepository {
	return &SuppressionRepository{pool: pool}
}

func (r *SuppressionRepository) IsSuppressed(ctx context.Context, address string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM email_suppressions WHERE address = $1)`
	if err := r.pool.QueryRow(ctx, query, address).Scan(&exists); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check suppression: %w", err)
	}
	return exists, nil
}

// Upsert idempotently records an address as suppressed. Repeated
// suppressions of the same address just refresh the reason.
func (r *SuppressionRepository) Upsert(ctx context.Context, entry *domain.SuppressionEntry) error {
	query := `INSERT INTO email_suppressions (address, reason, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO UPDATE SET reason = EXCLUDED.reason`
	if _, err := r.pool.Exec(ctx, query, entry.Address, entry.Reason, entry.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert suppression: %w", err)
	}
	return nil
}
