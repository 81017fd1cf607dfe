package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/fkheinstein204/saasforge/pkg/logger"
)

// EmailLogger wraps pkg/logger with the structured fields attached to
// every email dispatch log line.
type EmailLogger struct {
	base logger.Logger
}

func NewEmailLogger(baseLogger logger.Logger) *EmailLogger {
	return &EmailLogger{base: baseLogger}
}

func (el *EmailLogger) LogSendStart(ctx context.Context, emailID, recipient string) {
	el.base.With(
		logger.CtxField(ctx),
		logger.String("event", "send_started"),
		logger.String("email_id", emailID),
		logger.String("recipient", recipient),
		logger.String("component", "email_dispatcher"),
	).Info("Starting email send")
}

func (el *EmailLogger) LogSendComplete(ctx context.Context, emailID string, duration time.Duration, sent bool) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	el.base.With(
		logger.CtxField(ctx),
		logger.String("event", "send_completed"),
		logger.String("email_id", emailID),
		logger.String("status", status),
		logger.String("component", "email_dispatcher"),
		logger.Float64("duration_seconds", duration.Seconds()),
	).Info("Email send completed")
}

func (el *EmailLogger) LogSendError(ctx context.Context, emailID string, err error, duration time.Duration) {
	el.base.With(
		logger.CtxField(ctx),
		logger.String("event", "send_failed"),
		logger.String("email_id", emailID),
		logger.String("component", "email_dispatcher"),
		logger.Error(err),
		logger.Float64("duration_seconds", duration.Seconds()),
	).Error("Email send failed")
}

func (el *EmailLogger) LogBounced(ctx context.Context, emailID, bounceType, reason string) {
	el.base.With(
		logger.CtxField(ctx),
		logger.String("event", "email_bounced"),
		logger.String("email_id", emailID),
		logger.String("bounce_type", bounceType),
		logger.String("reason", reason),
		logger.String("component", "email_dispatcher"),
	).Warn("Email bounced")
}

func (el *EmailLogger) LogRetryScheduled(ctx context.Context, emailID string, attempt int, delay time.Duration) {
	el.base.With(
		logger.CtxField(ctx),
		logger.String("event", "retry_scheduled"),
		logger.String("email_id", emailID),
		logger.Int("attempt", attempt),
		logger.Float64("delay_seconds", delay.Seconds()),
		logger.String("component", "email_dispatcher"),
	).Warn("Email retry scheduled")
}

func (el *EmailLogger) WithComponent(component string) *EmailLogger {
	return &EmailLogger{base: el.base.With(logger.String("component", component))}
}

func (el *EmailLogger) GetBaseLogger() logger.Logger {
	return el.base
}

func (el *EmailLogger) Sync() error {
	return el.base.Sync()
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

func WithEmailContext(ctx context.Context, traceID, tenantID string) context.Context {
	ctx = WithTraceID(ctx, traceID)
	if tenantID != "" {
		ctx = WithTenantID(ctx, tenantID)
	}
	return ctx
}
