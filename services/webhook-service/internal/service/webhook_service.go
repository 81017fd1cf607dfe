package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/fkheinstein204/saasforge/pkg/errors"
	"github.com/fkheinstein204/saasforge/pkg/crypto/webhooksign"
	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/pkg/validation"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/repository"
)

// WebhookService registers webhooks and enqueues deliveries for them.
// The dispatch loop that actually drains the queue lives in the
// dispatcher package, not here.
type WebhookService interface {
	Register(ctx context.Context, tenantID, url string, eventTypes []string) (*domain.Webhook, error)
	Queue(ctx context.Context, tenantID, webhookID, eventType string, payload []byte) (*domain.Delivery, error)
}

type Service struct {
	webhooks   repository.WebhookRepository
	deliveries repository.DeliveryRepository
	log        logger.Logger
}

func NewWebhookService(webhooks repository.WebhookRepository, deliveries repository.DeliveryRepository, log logger.Logger) WebhookService {
	return &Service{webhooks: webhooks, deliveries: deliveries, log: log}
}

// Register creates a new webhook subscription, generating its signing
// secret.
func (s *Service) Register(ctx context.Context, tenantID, url string, eventTypes []string) (*domain.Webhook, error) {
	if !validation.SafeUrl(url) {
		return nil, apperrors.New(apperrors.ErrValidation, "webhook URL is not allowed")
	}
	if len(eventTypes) == 0 {
		return nil, apperrors.New(apperrors.ErrValidation, "at least one event type is required")
	}

	secret, err := generateSecret()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to generate webhook secret")
	}

	now := time.Now()
	webhook := &domain.Webhook{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		URL:        url,
		EventTypes: eventTypes,
		Secret:     secret,
		Status:     domain.WebhookStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.webhooks.Create(ctx, webhook); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to create webhook")
	}
	return webhook, nil
}

// Queue validates the target webhook, signs the payload, and persists
// a pending delivery. It does not dispatch: that happens out-of-band
// in the dispatcher, which claims deliveries in PENDING/RETRY status.
func (s *Service) Queue(ctx context.Context, tenantID, webhookID, eventType string, payload []byte) (*domain.Delivery, error) {
	webhook, err := s.webhooks.FindByID(ctx, tenantID, webhookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to look up webhook")
	}
	if webhook == nil {
		return nil, apperrors.New(apperrors.ErrNotFound, "webhook not found")
	}
	if !webhook.IsActive() {
		return nil, apperrors.New(apperrors.ErrFailedPrecondition, "webhook is disabled")
	}
	if !validation.SafeUrl(webhook.URL) {
		return nil, apperrors.New(apperrors.ErrFailedPrecondition, "webhook URL is no longer allowed")
	}

	signature := webhooksign.Sign(webhook.Secret, payload)

	now := time.Now()
	delivery := &domain.Delivery{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		WebhookID:   webhook.ID,
		EventType:   eventType,
		Payload:     payload,
		ResolvedURL: webhook.URL,
		Signature:   signature,
		Status:      domain.DeliveryStatusPending,
		CreatedAt:   now,
		ScheduledAt: now,
	}

	if err := s.deliveries.Create(ctx, delivery); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternal, "failed to queue delivery")
	}

	s.log.With(
		logger.String("webhook_id", webhook.ID),
		logger.String("delivery_id", delivery.ID),
		logger.String("event_type", eventType),
	).Info("Webhook delivery queued")

	return delivery, nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
