package metrics

import (
	"context"
	"time"

	"github.com/fkheinstein204/saasforge/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
)

// DeliveryMetrics holds the Prometheus series tracking webhook
// dispatch attempts.
type DeliveryMetrics struct {
	base *metrics.Metrics

	deliveryDuration   *prometheus.HistogramVec
	deliveryTotal      *prometheus.CounterVec
	deliveryErrors     *prometheus.CounterVec
	deliveriesInFlight prometheus.Gauge
	lastSuccessTs      *prometheus.GaugeVec
	webhooksDisabled   prometheus.Counter
}

func NewDeliveryMetrics(serviceName string) *DeliveryMetrics {
	base := metrics.NewMetrics(serviceName)

	deliveryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "webhook",
			Name:      "delivery_duration_seconds",
			Help:      "Duration of webhook delivery attempts in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"event_type", "status"},
	)

	deliveryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "webhook",
			Name:      "delivery_total",
			Help:      "Total number of webhook delivery attempts",
		},
		[]string{"event_type", "status"},
	)

	deliveryErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "webhook",
			Name:      "delivery_errors_total",
			Help:      "Total number of webhook delivery errors by category",
		},
		[]string{"event_type", "error_type"},
	)

	deliveriesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "webhook",
			Name:      "deliveries_in_flight",
			Help:      "Number of webhook deliveries currently being dispatched",
		},
	)

	lastSuccessTs := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "webhook",
			Name:      "last_success_timestamp_seconds",
			Help:      "Timestamp of the last successful delivery per webhook",
		},
		[]string{"webhook_id"},
	)

	webhooksDisabled := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "webhook",
			Name:      "disabled_total",
			Help:      "Total number of webhooks auto-disabled after consecutive failures",
		},
	)

	registerMetric(deliveryDuration)
	registerMetric(deliveryTotal)
	registerMetric(deliveryErrors)
	registerMetric(deliveriesInFlight)
	registerMetric(lastSuccessTs)
	registerMetric(webhooksDisabled)

	return &DeliveryMetrics{
		base:               base,
		deliveryDuration:   deliveryDuration,
		deliveryTotal:      deliveryTotal,
		deliveryErrors:     deliveryErrors,
		deliveriesInFlight: deliveriesInFlight,
		lastSuccessTs:      lastSuccessTs,
		webhooksDisabled:   webhooksDisabled,
	}
}

func registerMetric(collector prometheus.Collector) {
	if err := prometheus.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}

func (m *DeliveryMetrics) IncrementInFlight() { m.deliveriesInFlight.Inc() }
func (m *DeliveryMetrics) DecrementInFlight() { m.deliveriesInFlight.Dec() }

func (m *DeliveryMetrics) RecordWebhookDisabled() { m.webhooksDisabled.Inc() }

// RecordAttempt records the outcome of one dispatch attempt.
func (m *DeliveryMetrics) RecordAttempt(webhookID, eventType string, duration time.Duration, delivered bool, errorType string) {
	status := "delivered"
	if !delivered {
		status = "failed"
	}
	m.deliveryDuration.WithLabelValues(eventType, status).Observe(duration.Seconds())
	m.deliveryTotal.WithLabelValues(eventType, status).Inc()
	if delivered {
		m.lastSuccessTs.WithLabelValues(webhookID).Set(float64(time.Now().Unix()))
	} else if errorType != "" {
		m.deliveryErrors.WithLabelValues(eventType, errorType).Inc()
	}
}

func (m *DeliveryMetrics) GetHandler() interface{} {
	return m.base.GetHandler()
}

// TraceDelivery wraps fn in an OpenTelemetry span tagged with the
// webhook and event type being dispatched.
func (m *DeliveryMetrics) TraceDelivery(ctx context.Context, webhookID, eventType string, fn func(context.Context) error) error {
	ctx, span := m.base.Tracer.Start(ctx, "webhook_delivery")
	defer span.End()

	span.SetAttributes(
		attribute.String("webhook.id", webhookID),
		attribute.String("webhook.event_type", eventType),
	)

	err := fn(ctx)
	if err != nil {
		span.SetAttributes(attribute.String("webhook.status", "failure"), attribute.String("webhook.error", err.Error()))
	} else {
		span.SetAttributes(attribute.String("webhook.status", "success"))
	}
	return err
}
