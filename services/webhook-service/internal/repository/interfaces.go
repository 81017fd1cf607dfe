package repository

import (
	"context"
	"time"

	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/domain"
)

// WebhookRepository persists webhook registrations.
type WebhookRepository interface {
	Create(ctx context.Context, webhook *domain.Webhook) error
	FindByID(ctx context.Context, tenantID, id string) (*domain.Webhook, error)
	RecordSuccess(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id string) (consecutiveFailures int, err error)
	Disable(ctx context.Context, id, reason string) error
}

// DeliveryRepository persists webhook deliveries and performs the
// atomic batch-claim that the dispatch loop relies on.
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *domain.Delivery) error
	ClaimBatch(ctx context.Context, limit int) ([]*domain.Delivery, error)
	MarkDelivered(ctx context.Context, id string, httpStatus int) error
	MarkFailed(ctx context.Context, id string, httpStatus int, errMsg string, retry bool, nextScheduledAt time.Time) error
}
