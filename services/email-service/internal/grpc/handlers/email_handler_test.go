package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	emailv1 "github.com/fkheinstein204/saasforge/gen/go/proto/api/email/v1"
	"github.com/fkheinstein204/saasforge/pkg/tenantctx"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/service"
)

type mockEmailService struct{ mock.Mock }

func (m *mockEmailService) Enqueue(ctx context.Context, req service.EnqueueRequest) (*domain.QueuedEmail, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueuedEmail), args.Error(1)
}
func (m *mockEmailService) Suppress(ctx context.Context, address, reason string) error {
	return m.Called(ctx, address, reason).Error(0)
}
func (m *mockEmailService) GetBounceRate(ctx context.Context, tenantID string, hours int) (float64, error) {
	args := m.Called(ctx, tenantID, hours)
	return args.Get(0).(float64), args.Error(1)
}

func withValidatedTenant(tenantID string) context.Context {
	return tenantctx.WithContext(context.Background(), &tenantctx.Context{TenantID: tenantID, Validated: true})
}

func TestEnqueueEmail_RejectsUnvalidatedCaller(t *testing.T) {
	svc := &mockEmailService{}
	h := NewEmailHandler(svc, nil)

	_, err := h.EnqueueEmail(context.Background(), &emailv1.EnqueueEmailRequest{Recipient: "user@example.com"})

	assert.Error(t, err)
	svc.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestEnqueueEmail_UsesTenantFromContext(t *testing.T) {
	svc := &mockEmailService{}
	email := &domain.QueuedEmail{ID: "email-1", Status: domain.EmailStatusPending}
	svc.On("Enqueue", mock.Anything, service.EnqueueRequest{
		TenantID: "tenant-1", UserID: "user-1", Recipient: "user@example.com",
		Subject: "Welcome", HTML: "<p>hi</p>", Text: "hi", TemplateID: "welcome-v1", Priority: 5,
	}).Return(email, nil)

	h := NewEmailHandler(svc, nil)
	resp, err := h.EnqueueEmail(withValidatedTenant("tenant-1"), &emailv1.EnqueueEmailRequest{
		UserId: "user-1", Recipient: "user@example.com", Subject: "Welcome",
		Html: "<p>hi</p>", Text: "hi", TemplateId: "welcome-v1", Priority: 5,
	})

	assert.NoError(t, err)
	assert.Equal(t, "email-1", resp.EmailId)
	assert.Equal(t, "PENDING", resp.Status)
	svc.AssertExpectations(t)
}

func TestSuppressAddress_RejectsUnvalidatedCaller(t *testing.T) {
	svc := &mockEmailService{}
	h := NewEmailHandler(svc, nil)

	_, err := h.SuppressAddress(context.Background(), &emailv1.SuppressAddressRequest{Address: "user@example.com"})

	assert.Error(t, err)
	svc.AssertNotCalled(t, "Suppress", mock.Anything, mock.Anything, mock.Anything)
}

func TestSuppressAddress_CallsService(t *testing.T) {
	svc := &mockEmailService{}
	svc.On("Suppress", mock.Anything, "user@example.com", "complaint").Return(nil)

	h := NewEmailHandler(svc, nil)
	_, err := h.SuppressAddress(withValidatedTenant("tenant-1"), &emailv1.SuppressAddressRequest{
		Address: "user@example.com", Reason: "complaint",
	})

	assert.NoError(t, err)
	svc.AssertExpectations(t)
}

func TestGetBounceRate_DefaultsHoursWindow(t *testing.T) {
	svc := &mockEmailService{}
	svc.On("GetBounceRate", mock.Anything, "tenant-1", 24).Return(1.5, nil)

	h := NewEmailHandler(svc, nil)
	resp, err := h.GetBounceRate(withValidatedTenant("tenant-1"), &emailv1.GetBounceRateRequest{TenantId: "tenant-1"})

	assert.NoError(t, err)
	assert.Equal(t, 1.5, resp.BouncePercent)
	assert.False(t, resp.AlertTriggered)
}

func TestGetBounceRate_TriggersAlertAboveThreshold(t *testing.T) {
	svc := &mockEmailService{}
	svc.On("GetBounceRate", mock.Anything, "tenant-1", 12).Return(6.0, nil)

	h := NewEmailHandler(svc, nil)
	resp, err := h.GetBounceRate(withValidatedTenant("tenant-1"), &emailv1.GetBounceRateRequest{TenantId: "tenant-1", Hours: 12})

	assert.NoError(t, err)
	assert.True(t, resp.AlertTriggered)
}
