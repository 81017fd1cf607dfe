package handlers

import (
	"context"

	webhookv1 "github.com/fkheinstein204/saasforge/gen/go/proto/api/webhook/v1"
	"github.com/fkheinstein204/saasforge/pkg/errors"
	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/pkg/tenantctx"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/service"
)

// WebhookHandler adapts the Webhook Delivery Engine to the gRPC wire
// contract. Every RPC is tenant-scoped off the validated bearer claims
// attached by the tenant-context interceptor.
type WebhookHandler struct {
	webhookv1.UnimplementedWebhookServiceServer
	webhooks service.WebhookService
	log      logger.Logger
}

func NewWebhookHandler(webhooks service.WebhookService, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, log: log}
}

func (h *WebhookHandler) RegisterWebhook(ctx context.Context, req *webhookv1.RegisterWebhookRequest) (*webhookv1.WebhookResponse, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	webhook, svcErr := h.webhooks.Register(ctx, tenantID, req.Url, req.EventTypes)
	if svcErr != nil {
		return nil, toGRPCErr(svcErr)
	}
	return toProtoWebhook(webhook), nil
}

func (h *WebhookHandler) QueueDelivery(ctx context.Context, req *webhookv1.QueueDeliveryRequest) (*webhookv1.QueueDeliveryResponse, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	delivery, svcErr := h.webhooks.Queue(ctx, tenantID, req.WebhookId, req.EventType, req.Payload)
	if svcErr != nil {
		return nil, toGRPCErr(svcErr)
	}
	return &webhookv1.QueueDeliveryResponse{DeliveryId: delivery.ID, Status: string(delivery.Status)}, nil
}

func requireTenant(ctx context.Context) (string, error) {
	tc, _ := tenantctx.FromContext(ctx)
	if tc == nil || !tc.Validated || tc.TenantID == "" {
		return "", toGRPCErr(errors.New(errors.ErrUnauthorized, "invalid token"))
	}
	return tc.TenantID, nil
}

func toProtoWebhook(w *domain.Webhook) *webhookv1.WebhookResponse {
	if w == nil {
		return nil
	}
	return &webhookv1.WebhookResponse{
		Id:                  w.ID,
		Url:                 w.URL,
		EventTypes:          w.EventTypes,
		Status:              string(w.Status),
		ConsecutiveFailures: int32(w.ConsecutiveFailures),
		DisabledReason:      w.DisabledReason,
	}
}

func toGRPCErr(err error) error {
	if appErr, ok := err.(*errors.Error); ok {
		return appErr.ToGRPCErr()
	}
	return errors.Wrap(err, errors.ErrInternal, "internal error").ToGRPCErr()
}
