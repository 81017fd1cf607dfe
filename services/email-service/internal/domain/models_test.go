package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 0*time.Second, RetryDelay(0))
	assert.Equal(t, 1*time.Second, RetryDelay(1))
	assert.Equal(t, 5*time.Second, RetryDelay(2))
	assert.Equal(t, 30*time.Second, RetryDelay(3))
	assert.Equal(t, 30*time.Second, RetryDelay(4))
	assert.Equal(t, 30*time.Second, RetryDelay(100))
	assert.Equal(t, 0*time.Second, RetryDelay(-1))
}

func TestCanRetry(t *testing.T) {
	cases := []struct {
		name       string
		retryCount int
		want       bool
	}{
		{"fresh email", 0, true},
		{"just under max", MaxEmailRetries - 1, true},
		{"at max", MaxEmailRetries, false},
		{"past max", MaxEmailRetries + 1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			email := &QueuedEmail{RetryCount: tc.retryCount}
			assert.Equal(t, tc.want, email.CanRetry())
		})
	}
}

func TestMarkFailed_HardBounceGoesStraightToBounced(t *testing.T) {
	email := &QueuedEmail{Status: EmailStatusSending, RetryCount: 0}
	email.MarkFailed("mailbox does not exist", true)

	assert.Equal(t, EmailStatusBounced, email.Status)
	assert.Equal(t, BounceTypeHard, email.BounceType)
	assert.Equal(t, "mailbox does not exist", email.ErrorMessage)
}

func TestMarkFailed_SoftFailureRetriesWhileAttemptsRemain(t *testing.T) {
	email := &QueuedEmail{Status: EmailStatusSending, RetryCount: 0}
	email.MarkFailed("connection reset", false)

	assert.Equal(t, EmailStatusRetry, email.Status)
	assert.Equal(t, 1, email.RetryCount)
	assert.True(t, email.ScheduledAt.After(time.Now().Add(-time.Second)))
}

func TestMarkFailed_ExhaustsAfterMaxRetries(t *testing.T) {
	email := &QueuedEmail{Status: EmailStatusSending, RetryCount: MaxEmailRetries}
	email.MarkFailed("connection reset", false)

	assert.Equal(t, EmailStatusExhausted, email.Status)
	assert.Equal(t, MaxEmailRetries, email.RetryCount)
}

func TestMarkSent_ClearsErrorAndStampsSentAt(t *testing.T) {
	email := &QueuedEmail{Status: EmailStatusSending, ErrorMessage: "previous attempt failed"}
	email.MarkSent()

	assert.Equal(t, EmailStatusSent, email.Status)
	assert.Empty(t, email.ErrorMessage)
	assert.NotNil(t, email.SentAt)
}

func TestIsClaimable(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Minute)

	cases := []struct {
		name   string
		status EmailStatus
		at     time.Time
		want   bool
	}{
		{"pending due now", EmailStatusPending, past, true},
		{"retry due now", EmailStatusRetry, past, true},
		{"pending scheduled in future", EmailStatusPending, future, false},
		{"sent is never claimable", EmailStatusSent, past, false},
		{"bounced is never claimable", EmailStatusBounced, past, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			email := &QueuedEmail{Status: tc.status, ScheduledAt: tc.at}
			assert.Equal(t, tc.want, email.IsClaimable())
		})
	}
}
