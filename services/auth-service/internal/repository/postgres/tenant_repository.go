package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fkheinstein204/saasforge/services/auth-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/repository"
)

// TenantRepository is the Postgres-backed TenantRepository.
type TenantRepository struct {
	*BaseRepository
}

func NewTenantRepository(pool *pgxpool.Pool) repository.TenantRepository {
	return &TenantRepository{BaseRepository: NewBaseRepository(pool)}
}

func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `INSERT INTO tenants (id, name, slug, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.Pool.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Slug, tenant.CreatedAt, tenant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `SELECT id, name, slug, created_at, updated_at FROM tenants WHERE id = $1`

	var t domain.Tenant
	err := r.Pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("tenant not found")
		}
		return nil, fmt.Errorf("failed to get tenant by id: %w", err)
	}
	return &t, nil
}

func (r *TenantRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	query := `SELECT id, name, slug, created_at, updated_at FROM tenants WHERE slug = $1`

	var t domain.Tenant
	err := r.Pool.QueryRow(ctx, query, slug).Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("tenant not found")
		}
		return nil, fmt.Errorf("failed to get tenant by slug: %w", err)
	}
	return &t, nil
}
