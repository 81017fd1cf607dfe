package metrics

import (
	"context"
	"time"

	"github.com/fkheinstein204/saasforge/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
)

// EmailMetrics holds the Prometheus series tracking email dispatch
// attempts and bounce behavior.
type EmailMetrics struct {
	base *metrics.Metrics

	sendDuration   *prometheus.HistogramVec
	sendTotal      *prometheus.CounterVec
	sendErrors     *prometheus.CounterVec
	emailsInFlight prometheus.Gauge
	bouncesTotal   *prometheus.CounterVec
	suppressions   prometheus.Counter
}

func NewEmailMetrics(serviceName string) *EmailMetrics {
	base := metrics.NewMetrics(serviceName)

	sendDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "email",
			Name:      "send_duration_seconds",
			Help:      "Duration of email send attempts in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	sendTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "email",
			Name:      "send_total",
			Help:      "Total number of email send attempts",
		},
		[]string{"status"},
	)

	sendErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "email",
			Name:      "send_errors_total",
			Help:      "Total number of email send errors by category",
		},
		[]string{"error_type"},
	)

	emailsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "email",
			Name:      "in_flight",
			Help:      "Number of emails currently being sent",
		},
	)

	bouncesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "email",
			Name:      "bounces_total",
			Help:      "Total number of bounced emails by bounce type",
		},
		[]string{"bounce_type"},
	)

	suppressions := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "email",
			Name:      "suppressions_total",
			Help:      "Total number of addresses added to the suppression list",
		},
	)

	registerMetric(sendDuration)
	registerMetric(sendTotal)
	registerMetric(sendErrors)
	registerMetric(emailsInFlight)
	registerMetric(bouncesTotal)
	registerMetric(suppressions)

	return &EmailMetrics{
		base:           base,
		sendDuration:   sendDuration,
		sendTotal:      sendTotal,
		sendErrors:     sendErrors,
		emailsInFlight: emailsInFlight,
		bouncesTotal:   bouncesTotal,
		suppressions:   suppressions,
	}
}

func registerMetric(collector prometheus.Collector) {
	if err := prometheus.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

func (m *EmailMetrics) IncrementInFlight() { m.emailsInFlight.Inc() }
func (m *EmailMetrics) DecrementInFlight() { m.emailsInFlight.Dec() }

func (m *EmailMetrics) RecordSuppression() { m.suppressions.Inc() }
func (m *EmailMetrics) RecordBounce(bounceType string) { m.bouncesTotal.WithLabelValues(bounceType).Inc() }

// RecordAttempt records the outcome of one send attempt.
func (m *EmailMetrics) RecordAttempt(duration time.Duration, sent bool, errorType string) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	m.sendDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.sendTotal.WithLabelValues(status).Inc()
	if !sent && errorType != "" {
		m.sendErrors.WithLabelValues(errorType).Inc()
	}
}

func (m *EmailMetrics) GetHandler() interface{} {
	return m.base.GetHandler()
}

// TraceSend wraps fn in an OpenTelemetry span tagged with the email
// being dispatched.
func (m *EmailMetrics) TraceSend(ctx context.Context, emailID string, fn func(context.Context) error) error {
	ctx, span := m.base.Tracer.Start(ctx, "email_send")
	defer span.End()

	span.SetAttributes(attribute.String("email.id", emailID))

	err := fn(ctx)
	if err != nil {
		span.SetAttributes(attribute.String("email.status", "failure"), attribute.String("email.error", err.Error()))
	} else {
		span.SetAttributes(attribute.String("email.status", "success"))
	}
	return err
}
