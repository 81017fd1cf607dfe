package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name       string
		retryCount int
		httpStatus int
		want       bool
	}{
		{"5xx retries", 0, 500, true},
		{"429 retries", 0, 429, true},
		{"other 4xx does not retry", 0, 404, false},
		{"400 does not retry", 2, 400, false},
		{"network error (status 0) retries", 0, 0, true},
		{"retries exhausted at max", MaxDeliveryRetries, 500, false},
		{"just under max retries", MaxDeliveryRetries - 1, 500, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.retryCount, tc.httpStatus))
		})
	}
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 0*time.Second, RetryDelay(0))
	assert.Equal(t, 1*time.Second, RetryDelay(1))
	assert.Equal(t, 5*time.Second, RetryDelay(2))
	assert.Equal(t, 30*time.Second, RetryDelay(3))
	assert.Equal(t, 300*time.Second, RetryDelay(4))
	assert.Equal(t, 1800*time.Second, RetryDelay(5))
	assert.Equal(t, 1800*time.Second, RetryDelay(6))
	assert.Equal(t, 1800*time.Second, RetryDelay(100))
	assert.Equal(t, 0*time.Second, RetryDelay(-1))
}

func TestWebhookIsActive(t *testing.T) {
	active := &Webhook{Status: WebhookStatusActive}
	disabled := &Webhook{Status: WebhookStatusDisabled}

	assert.True(t, active.IsActive())
	assert.False(t, disabled.IsActive())
}
