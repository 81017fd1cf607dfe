package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/logging"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/metrics"
)

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

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(email *domain.QueuedEmail) error {
	return m.Called(email).Error(0)
}

func testEmailLogger(t *testing.T) *logging.EmailLogger {
	t.Helper()
	log, err := logger.NewLogger("development", "error", "dispatcher-test", false)
	require.NoError(t, err)
	return logging.NewEmailLogger(log)
}

func newTestDispatcher(emails *mockEmailRepo, suppressions *mockSuppressionRepo, sender *mockSender, t *testing.T) *Dispatcher {
	return New(emails, suppressions, sender, testEmailLogger(t), metrics.NewEmailMetrics("dispatcher-test"), DefaultConfig())
}

func TestSendOne_MarksSentOnSuccess(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}
	sender := &mockSender{}
	email := &domain.QueuedEmail{ID: "email-1", Recipient: "user@example.com", Status: domain.EmailStatusSending}

	sender.On("Send", email).Return(nil)
	emails.On("MarkSent", mock.Anything, "email-1").Return(nil)

	d := newTestDispatcher(emails, suppressions, sender, t)
	d.sendOne(context.Background(), email)

	emails.AssertExpectations(t)
	sender.AssertExpectations(t)
	suppressions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSendOne_HardBounceMarksBouncedAndSuppressesAddress(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}
	sender := &mockSender{}
	email := &domain.QueuedEmail{ID: "email-1", Recipient: "ghost@example.com", Status: domain.EmailStatusSending, RetryCount: 0}

	sender.On("Send", email).Return(errors.New("550 5.1.1 unknown user"))
	emails.On("MarkBounced", mock.Anything, "email-1", domain.BounceTypeHard, mock.Anything).Return(nil)
	suppressions.On("Upsert", mock.Anything, mock.MatchedBy(func(entry *domain.SuppressionEntry) bool {
		return entry.Address == "ghost@example.com"
	})).Return(nil)

	d := newTestDispatcher(emails, suppressions, sender, t)
	d.sendOne(context.Background(), email)

	emails.AssertExpectations(t)
	suppressions.AssertExpectations(t)
	emails.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendOne_TransientFailureSchedulesRetry(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}
	sender := &mockSender{}
	email := &domain.QueuedEmail{ID: "email-1", Recipient: "user@example.com", Status: domain.EmailStatusSending, RetryCount: 0}

	sender.On("Send", email).Return(errors.New("connection reset by peer"))
	emails.On("MarkFailed", mock.Anything, "email-1", mock.Anything, true, mock.Anything).Return(nil)

	d := newTestDispatcher(emails, suppressions, sender, t)
	d.sendOne(context.Background(), email)

	emails.AssertExpectations(t)
	emails.AssertNotCalled(t, "MarkBounced", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suppressions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSendOne_ExhaustsAfterMaxRetries(t *testing.T) {
	emails := &mockEmailRepo{}
	suppressions := &mockSuppressionRepo{}
	sender := &mockSender{}
	email := &domain.QueuedEmail{ID: "email-1", Recipient: "user@example.com", Status: domain.EmailStatusSending, RetryCount: domain.MaxEmailRetries}

	sender.On("Send", email).Return(errors.New("connection reset by peer"))
	emails.On("MarkFailed", mock.Anything, "email-1", mock.Anything, false, mock.Anything).Return(nil)

	d := newTestDispatcher(emails, suppressions, sender, t)
	d.sendOne(context.Background(), email)

	emails.AssertExpectations(t)
}
