package repository

import (
	"context"
	"time"

	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
)

// EmailRepository persists queued emails and performs the atomic
// batch-claim the dispatch loop relies on.
type EmailRepository interface {
	Create(ctx context.Context, email *domain.QueuedEmail) error
	ClaimBatch(ctx context.Context, limit int) ([]*domain.QueuedEmail, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string, retry bool, nextScheduledAt time.Time) error
	MarkBounced(ctx context.Context, id string, bounceType domain.BounceType, reason string) error
	// GetBounceRate returns the percentage of BOUNCED emails among those
	// created in the trailing window. tenantID empty means all tenants.
	GetBounceRate(ctx context.Context, tenantID string, hours int) (float64, error)
}

// SuppressionRepository tracks addresses that must never reach SENDING.
type SuppressionRepository interface {
	IsSuppressed(ctx context.Context, address string) (bool, error)
	Upsert(ctx context.Context, entry *domain.SuppressionEntry) error
}
