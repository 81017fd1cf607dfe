package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/fkheinstein204/saasforge/pkg/errors"
	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/repository"
)

type EmailService interface {
	Enqueue(ctx context.Context, req EnqueueRequest) (*domain.QueuedEmail, error)
	Suppress(ctx context.Context, address, reason string) error
	GetBounceRate(ctx context.Context, tenantID string, hours int) (float64, error)
}

// EnqueueRequest is the caller-supplied intent to send an email. HTML and
// Text are expected to already be rendered; TemplateID is carried purely
// for audit/reporting.
type EnqueueRequest struct {
	TenantID   string
	UserID     string
	Recipient  string
	Subject    string
	HTML       string
	Text       string
	TemplateID string
	Priority   int
}

type Service struct {
	emails       repository.EmailRepository
	suppressions repository.SuppressionRepository
	log          logger.Logger
}

func NewEmailService(emails repository.EmailRepository, suppressions repository.SuppressionRepository, log logger.Logger) EmailService {
	return &Service{emails: emails, suppressions: suppressions, log: log}
}

func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (*domain.QueuedEmail, error) {
	if req.Recipient == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "recipient address is required")
	}
	suppressed, err := s.suppressions.IsSuppressed(ctx, req.Recipient)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to check suppression list")
	}
	if suppressed {
		return nil, apperrors.New(apperrors.ErrFailedPrecondition, "address is suppressed")
	}

	priority := req.Priority
	if priority < 0 {
		priority = 0
	}
	if priority > 10 {
		priority = 10
	}

	now := time.Now()
	email := &domain.QueuedEmail{
		ID:          uuid.New().String(),
		TenantID:    req.TenantID,
		UserID:      req.UserID,
		Recipient:   req.Recipient,
		Subject:     req.Subject,
		HTML:        req.HTML,
		Text:        req.Text,
		TemplateID:  req.TemplateID,
		Status:      domain.EmailStatusPending,
		Priority:    priority,
		CreatedAt:   now,
		ScheduledAt: now,
	}
	if err := s.emails.Create(ctx, email); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to enqueue email")
	}

	s.log.With(
		logger.String("email_id", email.ID),
		logger.String("tenant_id", email.TenantID),
		logger.String("template_id", email.TemplateID),
	).Info("Email enqueued")
	return email, nil
}

func (s *Service) Suppress(ctx context.Context, address, reason string) error {
	if address == "" {
		return apperrors.New(apperrors.ErrValidation, "address is required")
	}
	entry := &domain.SuppressionEntry{Address: address, Reason: reason, CreatedAt: time.Now()}
	if err := s.suppressions.Upsert(ctx, entry); err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternal, "failed to record suppression")
	}
	s.log.With(logger.String("address", address), logger.String("reason", reason)).Warn("Address suppressed")
	return nil
}

func (s *Service) GetBounceRate(ctx context.Context, tenantID string, hours int) (float64, error) {
	rate, err := s.emails.GetBounceRate(ctx, tenantID, hours)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrInternal, "failed to compute bounce rate")
	}
	if rate >= domain.BounceRateAlertThreshold {
		s.log.With(
			logger.String("tenant_id", tenantID),
			logger.Int("window_hours", hours),
		).Warn("Bounce rate exceeds alert threshold")
	}
	return rate, nil
}
