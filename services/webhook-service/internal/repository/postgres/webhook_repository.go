package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/repository"
)

// WebhookRepository is the Postgres-backed WebhookRepository.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) repository.WebhookRepository {
	return &WebhookRepository{pool: pool}
}

func (r *WebhookRepository) Create(ctx context.Context, webhook *domain.Webhook) error {
	query := `INSERT INTO webhooks (id, tenant_id, url, event_types, secret, status, consecutive_failures, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		webhook.ID, webhook.TenantID, webhook.URL, webhook.EventTypes, webhook.Secret,
		webhook.Status, webhook.ConsecutiveFailures, webhook.CreatedAt, webhook.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	return nil
}

func (r *WebhookRepository) FindByID(ctx context.Context, tenantID, id string) (*domain.Webhook, error) {
	query := `SELECT id, tenant_id, url, event_types, secret, status, consecutive_failures,
		disabled_reason, last_triggered_at, created_at, updated_at
		FROM webhooks WHERE id = $1 AND tenant_id = $2`

	var w domain.Webhook
	err := r.pool.QueryRow(ctx, query, id, tenantID).Scan(
		&w.ID, &w.TenantID, &w.URL, &w.EventTypes, &w.Secret, &w.Status, &w.ConsecutiveFailures,
		&w.DisabledReason, &w.LastTriggeredAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find webhook: %w", err)
	}
	return &w, nil
}

// RecordSuccess resets the consecutive-failure counter and stamps
// last-triggered-at in a single update.
func (r *WebhookRepository) RecordSuccess(ctx context.Context, id string) error {
	query := `UPDATE webhooks SET consecutive_failures = 0, last_triggered_at = NOW(), updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to record webhook success: %w", err)
	}
	return nil
}

// RecordFailure increments the consecutive-failure counter and
// returns the new value so the caller can decide whether to disable.
func (r *WebhookRepository) RecordFailure(ctx context.Context, id string) (int, error) {
	query := `UPDATE webhooks SET consecutive_failures = consecutive_failures + 1, updated_at = NOW()
		WHERE id = $1 RETURNING consecutive_failures`

	var count int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to record webhook failure: %w", err)
	}
	return count, nil
}

func (r *WebhookRepository) Disable(ctx context.Context, id, reason string) error {
	query := `UPDATE webhooks SET status = $2, disabled_reason = $3, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, domain.WebhookStatusDisabled, reason)
	if err != nil {
		return fmt.Errorf("failed to disable webhook: %w", err)
	}
	return nil
}
