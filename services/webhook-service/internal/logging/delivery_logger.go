package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/fkheinstein204/saasforge/pkg/logger"
)

// DeliveryLogger wraps pkg/logger with the structured fields attached
// to every webhook dispatch log line.
type DeliveryLogger struct {
	base logger.Logger
}

func NewDeliveryLogger(baseLogger logger.Logger) *DeliveryLogger {
	return &DeliveryLogger{base: baseLogger}
}

func (dl *DeliveryLogger) LogDeliveryStart(ctx context.Context, webhookID, deliveryID, eventType, url string) {
	dl.base.With(
		logger.CtxField(ctx),
		logger.String("event", "delivery_started"),
		logger.String("webhook_id", webhookID),
		logger.String("delivery_id", deliveryID),
		logger.String("event_type", eventType),
		logger.String("url", url),
		logger.String("component", "webhook_dispatcher"),
	).Info("Starting webhook delivery")
}

func (dl *DeliveryLogger) LogDeliveryComplete(ctx context.Context, webhookID, deliveryID string, duration time.Duration, delivered bool, httpStatus int) {
	status := "delivered"
	if !delivered {
		status = "failed"
	}
	dl.base.With(
		logger.CtxField(ctx),
		logger.String("event", "delivery_completed"),
		logger.String("webhook_id", webhookID),
		logger.String("delivery_id", deliveryID),
		logger.String("status", status),
		logger.String("component", "webhook_dispatcher"),
		logger.Float64("duration_seconds", duration.Seconds()),
		logger.Int("http_status", httpStatus),
	).Info("Webhook delivery completed")
}

func (dl *DeliveryLogger) LogDeliveryError(ctx context.Context, webhookID, deliveryID string, err error, duration time.Duration) {
	dl.base.With(
		logger.CtxField(ctx),
		logger.String("event", "delivery_failed"),
		logger.String("webhook_id", webhookID),
		logger.String("delivery_id", deliveryID),
		logger.String("component", "webhook_dispatcher"),
		logger.Error(err),
		logger.Float64("duration_seconds", duration.Seconds()),
	).Error("Webhook delivery failed")
}

func (dl *DeliveryLogger) LogWebhookDisabled(ctx context.Context, webhookID, reason string, consecutiveFailures int) {
	dl.base.With(
		logger.CtxField(ctx),
		logger.String("event", "webhook_disabled"),
		logger.String("webhook_id", webhookID),
		logger.String("reason", reason),
		logger.Int("consecutive_failures", consecutiveFailures),
		logger.String("component", "webhook_dispatcher"),
	).Warn("Webhook auto-disabled after consecutive failures")
}

func (dl *DeliveryLogger) LogRetryScheduled(ctx context.Context, deliveryID string, attempt int, delay time.Duration) {
	dl.base.With(
		logger.CtxField(ctx),
		logger.String("event", "retry_scheduled"),
		logger.String("delivery_id", deliveryID),
		logger.Int("attempt", attempt),
		logger.Float64("delay_seconds", delay.Seconds()),
		logger.String("component", "webhook_dispatcher"),
	).Warn("Delivery retry scheduled")
}

func (dl *DeliveryLogger) WithComponent(component string) *DeliveryLogger {
	return &DeliveryLogger{base: dl.base.With(logger.String("component", component))}
}

func (dl *DeliveryLogger) GetBaseLogger() logger.Logger {
	return dl.base
}

func (dl *DeliveryLogger) Sync() error {
	return dl.base.Sync()
}

// ContextKey namespaces values stored on the dispatch context.
type ContextKey string

const (
	TraceIDKey  ContextKey = "trace_id"
	TenantIDKey ContextKey = "tenant_id"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

func GenerateTraceID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func WithDeliveryContext(ctx context.Context, traceID, tenantID string) context.Context {
	ctx = WithTraceID(ctx, traceID)
	if tenantID != "" {
		ctx = WithTenantID(ctx, tenantID)
	}
	return ctx
}
