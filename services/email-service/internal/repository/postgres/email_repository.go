package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/repository"
)

// EmailRepository is the Postgres-backed EmailRepository.
type EmailRepository struct {
	pool *pgxpool.Pool
}

func NewEmailRepository(pool *pgxpool.Pool) repository.EmailRepository {
	return &EmailRepository{pool: pool}
}

func (r *EmailRepository) Create(ctx context.Context, email *domain.QueuedEmail) error {
	query := `INSERT INTO queued_emails
		(id, tenant_id, user_id, recipient, subject, html, text, template_id, status, retry_count, priority, created_at, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		email.ID, email.TenantID, email.UserID, email.Recipient, email.Subject, email.HTML, email.Text,
		email.TemplateID, email.Status, email.RetryCount, email.Priority, email.CreatedAt, email.ScheduledAt)
	if err != nil {
		return fmt.Errorf("failed to create queued email: %w", err)
	}
	return nil
}

// ClaimBatch atomically selects up to limit rows eligible for dispatch,
// highest priority first, and flips them to SENDING in the same
// statement so two dispatch workers can never claim the same row.
func (r *EmailRepository) ClaimBatch(ctx context.Context, limit int) ([]*domain.QueuedEmail, error) {
	query := `
		WITH claimed AS (
			SELECT id FROM queued_emails
			WHERE status IN ('PENDING', 'RETRY') AND scheduled_at <= NOW()
			ORDER BY priority DESC, scheduled_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE queued_emails q
		SET status = 'SENDING'
		FROM claimed
		WHERE q.id = claimed.id
		RETURNING q.id, q.tenant_id, q.user_id, q.recipient, q.subject, q.html, q.text, q.template_id,
			q.status, q.retry_count, q.priority, q.created_at, q.scheduled_at, q.sent_at, q.bounce_type, q.error_message`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim email batch: %w", err)
	}
	defer rows.Close()

	var emails []*domain.QueuedEmail
	for rows.Next() {
		var e domain.QueuedEmail
		var bounceType, errMsg *string
		if err := rows.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Recipient, &e.Subject, &e.HTML, &e.Text,
			&e.TemplateID, &e.Status, &e.RetryCount, &e.Priority, &e.CreatedAt, &e.ScheduledAt, &e.SentAt,
			&bounceType, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan claimed email: %w", err)
		}
		if bounceType != nil {
			e.BounceType = domain.BounceType(*bounceType)
		}
		if errMsg != nil {
			e.ErrorMessage = *errMsg
		}
		emails = append(emails, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claimed emails: %w", err)
	}
	return emails, nil
}

func (r *EmailRepository) MarkSent(ctx context.Context, id string) error {
	query := `UPDATE queued_emails SET status = 'SENT', sent_at = NOW(), error_message = NULL WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark email sent: %w", err)
	}
	return nil
}

func (r *EmailRepository) MarkFailed(ctx context.Context, id, reason string, retry bool, nextScheduledAt time.Time) error {
	var err error
	if retry {
		query := `UPDATE queued_emails SET status = 'RETRY', retry_count = retry_count + 1,
			error_message = $2, scheduled_at = $3 WHERE id = $1`
		_, err = r.pool.Exec(ctx, query, id, reason, nextScheduledAt)
	} else {
		query := `UPDATE queued_emails SET status = 'EXHAUSTED', error_message = $2 WHERE id = $1`
		_, err = r.pool.Exec(ctx, query, id, reason)
	}
	if err != nil {
		return fmt.Errorf("failed to mark email failed: %w", err)
	}
	return nil
}

func (r *EmailRepository) MarkBounced(ctx context.Context, id string, bounceType domain.BounceType, reason string) error {
	query := `UPDATE queued_emails SET status = 'BOUNCED', bounce_type = $2, error_message = $3 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id, bounceType, reason); err != nil {
		return fmt.Errorf("failed to mark email bounced: %w", err)
	}
	return nil
}

func (r *EmailRepository) GetBounceRate(ctx context.Context, tenantID string, hours int) (float64, error) {
	window := time.Duration(hours) * time.Hour

	var total, bounced int
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'BOUNCED')
		FROM queued_emails WHERE created_at >= $1 AND ($2 = '' OR tenant_id = $2)`
	err := r.pool.QueryRow(ctx, query, time.Now().Add(-window), tenantID).Scan(&total, &bounced)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to compute bounce rate: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return (float64(bounced) / float64(total)) * 100.0, nil
}
