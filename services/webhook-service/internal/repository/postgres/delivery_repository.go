package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/repository"
)

// DeliveryRepository is the Postgres-backed DeliveryRepository.
type DeliveryRepository struct {
	pool *pgxpool.Pool
}

func NewDeliveryRepository(pool *pgxpool.Pool) repository.DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

func (r *DeliveryRepository) Create(ctx context.Context, delivery *domain.Delivery) error {
	query := `INSERT INTO webhook_deliveries
		(id, tenant_id, webhook_id, event_type, payload, resolved_url, signature, status, retry_count, created_at, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		delivery.ID, delivery.TenantID, delivery.WebhookID, delivery.EventType, delivery.Payload,
		delivery.ResolvedURL, delivery.Signature, delivery.Status, delivery.RetryCount,
		delivery.CreatedAt, delivery.ScheduledAt)
	if err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	return nil
}

// ClaimBatch atomically selects up to limit rows eligible for
// dispatch and flips them to SENDING in the same statement, so two
// dispatch workers can never claim the same row.
func (r *DeliveryRepository) ClaimBatch(ctx context.Context, limit int) ([]*domain.Delivery, error) {
	query := `
		WITH claimed AS (
			SELECT id FROM webhook_deliveries
			WHERE status IN ('PENDING', 'RETRY') AND scheduled_at <= NOW()
			ORDER BY scheduled_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE webhook_deliveries d
		SET status = 'SENDING'
		FROM claimed
		WHERE d.id = claimed.id
		RETURNING d.id, d.tenant_id, d.webhook_id, d.event_type, d.payload, d.resolved_url,
			d.signature, d.status, d.retry_count, d.last_http_status, d.created_at, d.scheduled_at,
			d.delivered_at, d.error_message`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim delivery batch: %w", err)
	}
	defer rows.Close()

	var deliveries []*domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(&d.ID, &d.TenantID, &d.WebhookID, &d.EventType, &d.Payload, &d.ResolvedURL,
			&d.Signature, &d.Status, &d.RetryCount, &d.LastHTTPStatus, &d.CreatedAt, &d.ScheduledAt,
			&d.DeliveredAt, &d.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan claimed delivery: %w", err)
		}
		deliveries = append(deliveries, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claimed deliveries: %w", err)
	}
	return deliveries, nil
}

func (r *DeliveryRepository) MarkDelivered(ctx context.Context, id string, httpStatus int) error {
	query := `UPDATE webhook_deliveries SET status = 'DELIVERED', delivered_at = NOW(), last_http_status = $2
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, httpStatus)
	if err != nil {
		return fmt.Errorf("failed to mark delivery delivered: %w", err)
	}
	return nil
}

func (r *DeliveryRepository) MarkFailed(ctx context.Context, id string, httpStatus int, errMsg string, retry bool, nextScheduledAt time.Time) error {
	var query string
	if retry {
		query = `UPDATE webhook_deliveries SET status = 'RETRY', retry_count = retry_count + 1,
			last_http_status = $2, error_message = $3, scheduled_at = $4 WHERE id = $1`
	} else {
		query = `UPDATE webhook_deliveries SET status = 'EXHAUSTED', last_http_status = $2, error_message = $3
			WHERE id = $1`
	}

	var err error
	if retry {
		_, err = r.pool.Exec(ctx, query, id, httpStatus, errMsg, nextScheduledAt)
	} else {
		_, err = r.pool.Exec(ctx, query, id, httpStatus, errMsg)
	}
	if err != nil {
		return fmt.Errorf("failed to mark delivery failed: %w", err)
	}
	return nil
}
