package domain

import "time"

type EmailStatus string

const (
	EmailStatusPending   EmailStatus = "PENDING"
	EmailStatusSending   EmailStatus = "SENDING"
	EmailStatusSent      EmailStatus = "SENT"
	EmailStatusFailed    EmailStatus = "FAILED"
	EmailStatusRetry     EmailStatus = "RETRY"
	EmailStatusExhausted EmailStatus = "EXHAUSTED"
	EmailStatusBounced   EmailStatus = "BOUNCED"
)

type BounceType string

const (
	BounceTypeHard BounceType = "HARD"
	BounceTypeSoft BounceType = "SOFT"
)

// MaxEmailRetries is the number of RETRY attempts allowed before an email
// is marked EXHAUSTED. Distinct from the webhook engine's retry budget.
const MaxEmailRetries = 3

// BounceRateAlertThreshold is the percentage of BOUNCED-in-window emails
// that triggers an alert from GetBounceRate callers.
const BounceRateAlertThreshold = 5.0

// QueuedEmail is a single outbound email tracked through the send pipeline.
type QueuedEmail struct {
	ID           string
	TenantID     string
	UserID       string
	Recipient    string
	Subject      string
	HTML         string
	Text         string
	TemplateID   string
	Status       EmailStatus
	RetryCount   int
	Priority     int // 0-10, higher dispatched first
	CreatedAt    time.Time
	ScheduledAt  time.Time
	SentAt       *time.Time
	BounceType   BounceType
	ErrorMessage string
}

// SuppressionEntry marks an address that must never reach SENDING.
type SuppressionEntry struct {
	Address   string
	Reason    string
	CreatedAt time.Time
}

func (e *QueuedEmail) CanRetry() bool {
	return e.RetryCount < MaxEmailRetries
}

// RetryDelay returns the backoff before retry attempt n. Emails past the
// third attempt back off at a flat 30s since MaxEmailRetries caps at 3
// regardless, unlike the webhook engine's longer escalating table.
func RetryDelay(n int) time.Duration {
	table := []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}
	if n < 0 {
		return 0
	}
	if n >= len(table) {
		return 30 * time.Second
	}
	return table[n]
}

func (e *QueuedEmail) MarkSending() {
	e.Status = EmailStatusSending
}

func (e *QueuedEmail) MarkSent() {
	e.Status = EmailStatusSent
	now := time.Now()
	e.SentAt = &now
	e.ErrorMessage = ""
}

// MarkFailed moves a hard bounce to BOUNCED. Any other failure moves the
// email to RETRY (incrementing RetryCount) while attempts remain, and to
// EXHAUSTED once they are used up.
func (e *QueuedEmail) MarkFailed(reason string, hardBounce bool) {
	e.ErrorMessage = reason
	if hardBounce {
		e.MarkBounced(BounceTypeHard, reason)
		return
	}
	if e.CanRetry() {
		e.RetryCount++
		e.Status = EmailStatusRetry
		e.ScheduledAt = time.Now().Add(RetryDelay(e.RetryCount))
		return
	}
	e.Status = EmailStatusExhausted
}

func (e *QueuedEmail) MarkBounced(bounceType BounceType, reason string) {
	e.Status = EmailStatusBounced
	e.BounceType = bounceType
	e.ErrorMessage = reason
}

func (e *QueuedEmail) IsClaimable() bool {
	return (e.Status == EmailStatusPending || e.Status == EmailStatusRetry) && !e.ScheduledAt.After(time.Now())
}
