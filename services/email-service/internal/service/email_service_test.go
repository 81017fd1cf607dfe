package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.NewLogger("development", "error", "email-service-test", false)
	require.NoError(t, err)
	return log
}

type mockEmailRepo struct{ mock.Mock }

func (m *mockEmailRepo) Create(ctx context.Context, email *domain.QueuedEmail) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockEmailRepo) ClaimBatch(ctx context.Context, limit int) ([]*domain.QueuedEmail, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QueuedEmail), args.Error(1)
}
func (m *mockEmailRepo) MarkSent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockEmailRepo) MarkFailed(ctx context.Context, id, reason string, retry bool, nextScheduledAt time.Time) error {
	return m.Called(ctx, id, reason, retry, nextScheduledAt).Error(0)
}
func (m *mockEmailRepo) MarkBounced(ctx context.Context, id string, bounceType domain.BounceType, reason string) error {
	return m.Called(ctx, id, bounceType, reason).Error(0)
}
func (m *mockEmailRepo) GetBounceRate(ctx context.Context, tenantID string, hours int) (float64, error) {
	args := m.Called(ctx, tenantID, hours)
	return args.Get(0).(float64), args.Error(1)
}

type mockSuppressionRepo struct{ mock.Mock }

func (m *mockSuppressionRepo) IsSuppressed(ctx context.Context, address string) (bool, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.Error(1)
}
func (m *mockSuppressionRepo) Upsert(ctx context.Context, entry *domain.SuppressionEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func TestEnqueue_RejectsEmptyRecipient(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}

	svc := NewEmailService(emails, suppressions, testLogger(t))
	_, err := svc.Enqueue(context.Background(), EnqueueRequest{TenantID: "tenant-1"})

	assert.Error(t, err)
	emails.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnqueue_RejectsSuppressedAddress(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}
	suppressions.On("IsSuppressed", mock.Anything, "bounced@example.com").Return(true, nil)

	svc := NewEmailService(emails, suppressions, testLogger(t))
	_, err := svc.Enqueue(context.Background(), EnqueueRequest{TenantID: "tenant-1", Recipient: "bounced@example.com"})

	assert.Error(t, err)
	emails.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnqueue_PersistsPendingEmailWithClampedPriority(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}
	suppressions.On("IsSuppressed", mock.Anything, "user@example.com").Return(false, nil)

	var captured *domain.QueuedEmail
	emails.On("Create", mock.Anything, mock.AnythingOfType("*domain.QueuedEmail")).Run(func(args mock.Arguments) {
		captured = args.Get(1).(*domain.QueuedEmail)
	}).Return(nil)

	svc := NewEmailService(emails, suppressions, testLogger(t))
	email, err := svc.Enqueue(context.Background(), EnqueueRequest{
		TenantID: "tenant-1", Recipient: "user@example.com", Subject: "Welcome", Priority: 99,
	})

	assert.NoError(t, err)
	assert.Equal(t, domain.EmailStatusPending, email.Status)
	assert.Equal(t, 10, email.Priority)
	assert.NotNil(t, captured)
	assert.Equal(t, email.ID, captured.ID)
}

func TestSuppress_RejectsEmptyAddress(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}

	svc := NewEmailService(emails, suppressions, testLogger(t))
	err := svc.Suppress(context.Background(), "", "complaint")

	assert.Error(t, err)
	suppressions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSuppress_UpsertsEntry(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}
	suppressions.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.SuppressionEntry")).Return(nil)

	svc := NewEmailService(emails, suppressions, testLogger(t))
	err := svc.Suppress(context.Background(), "user@example.com", "spam complaint")

	assert.NoError(t, err)
	suppressions.AssertExpectations(t)
}

func TestGetBounceRate_ReturnsRateFromRepository(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}
	emails.On("GetBounceRate", mock.Anything, "tenant-1", 24).Return(2.5, nil)

	svc := NewEmailService(emails, suppressions, testLogger(t))
	rate, err := svc.GetBounceRate(context.Background(), "tenant-1", 24)

	assert.NoError(t, err)
	assert.Equal(t, 2.5, rate)
}

func TestGetBounceRate_AboveThresholdStillReturnsRate(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}
	emails.On("GetBounceRate", mock.Anything, "tenant-1", 24).Return(8.0, nil)

	svc := NewEmailService(emails, suppressions, testLogger(t))
	rate, err := svc.GetBounceRate(context.Background(), "tenant-1", 24)

	assert.NoError(t, err)
	assert.Equal(t, 8.0, rate)
	assert.True(t, rate >= domain.BounceRateAlertThreshold)
}
