package domain

import "time"

// WebhookStatus is the lifecycle state of a webhook registration.
type WebhookStatus string

const (
	WebhookStatusActive   WebhookStatus = "active"
	WebhookStatusDisabled WebhookStatus = "disabled"
)

// DeliveryStatus is the lifecycle state of a single queued delivery.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusSending   DeliveryStatus = "SENDING"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
	DeliveryStatusRetry     DeliveryStatus = "RETRY"
	DeliveryStatusExhausted DeliveryStatus = "EXHAUSTED"
)

// MaxConsecutiveFailures is the threshold at which a webhook is
// disabled and stops accepting new deliveries.
const MaxConsecutiveFailures = 10

// MaxDeliveryRetries bounds ShouldRetry's retry_count check.
const MaxDeliveryRetries = 5

// Webhook is a tenant's registered delivery target for one or more
// event types.
type Webhook struct {
	ID                  string
	TenantID            string
	URL                 string
	EventTypes          []string
	Secret              string
	Status              WebhookStatus
	ConsecutiveFailures int
	DisabledReason      string
	LastTriggeredAt     *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsActive reports whether new deliveries may be queued against this
// webhook.
func (w *Webhook) IsActive() bool {
	return w.Status == WebhookStatusActive
}

// Delivery is a single attempt (and its retries) to deliver one event
// payload to a registered webhook.
type Delivery struct {
	ID             string
	TenantID       string
	WebhookID      string
	EventType      string
	Payload        []byte
	ResolvedURL    string
	Signature      string
	Status         DeliveryStatus
	RetryCount     int
	LastHTTPStatus int
	CreatedAt      time.Time
	ScheduledAt    time.Time
	DeliveredAt    *time.Time
	ErrorMessage   string
}

// ShouldRetry reports whether a failed delivery attempt should be
// retried given its current retry count and the HTTP status observed
// (0 for a transport-level failure: connection error, DNS failure,
// timeout). 4xx responses are terminal except 429.
func ShouldRetry(retryCount, httpStatus int) bool {
	if httpStatus >= 400 && httpStatus < 500 && httpStatus != 429 {
		return false
	}
	return retryCount < MaxDeliveryRetries
}

var retryDelaysSeconds = []int{0, 1, 5, 30, 300, 1800}

// RetryDelay returns the backoff delay before retry attempt n, capped
// at the table's last entry for any n beyond its range.
func RetryDelay(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	if n >= len(retryDelaysSeconds) {
		n = len(retryDelaysSeconds) - 1
	}
	return time.Duration(retryDelaysSeconds[n]) * time.Second
}
