// Package dispatcher drains the webhook delivery queue: it claims
// batches of pending deliveries, POSTs the signed payload to the
// target URL, and records the outcome.
package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fkheinstein204/saasforge/pkg/validation"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/logging"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/metrics"
	"github.com/fkheinstein204/saasforge/services/webhook-service/internal/repository"
)

const maxRedirects = 2

// Config controls the dispatch loop's polling cadence and worker
// pool size.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	Workers      int
	HTTPTimeout  time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		PollInterval: 2 * time.Second,
		BatchSize:    20,
		Workers:      8,
		HTTPTimeout:  10 * time.Second,
	}
}

// Dispatcher periodically claims a batch of due deliveries and fans
// them out across a bounded pool of workers, mirroring the
// channel-based worker shape used elsewhere in this codebase for
// bounded concurrent fan-out.
type Dispatcher struct {
	webhooks   repository.WebhookRepository
	deliveries repository.DeliveryRepository
	log        *logging.DeliveryLogger
	metrics    *metrics.DeliveryMetrics
	client     *http.Client
	config     *Config

	taskChan chan *domain.Delivery
	quit     chan struct{}
	wg       sync.WaitGroup
}

func New(webhooks repository.WebhookRepository, deliveries repository.DeliveryRepository, log *logging.DeliveryLogger, m *metrics.DeliveryMetrics, config *Config) *Dispatcher {
	if config == nil {
		config = DefaultConfig()
	}

	client := &http.Client{
		Timeout: config.HTTPTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if !validation.SafeUrl(req.URL.String()) {
				return fmt.Errorf("redirect target is not an allowed webhook destination")
			}
			return nil
		},
	}

	return &Dispatcher{
		webhooks:   webhooks,
		deliveries: deliveries,
		log:        log.WithComponent("dispatcher"),
		metrics:    m,
		client:     client,
		config:     config,
		taskChan:   make(chan *domain.Delivery, config.BatchSize),
		quit:       make(chan struct{}),
	}
}

// Start launches the poll loop and the worker pool. It returns
// immediately; call Stop to shut down gracefully.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}

	d.wg.Add(1)
	go d.pollLoop(ctx)
}

// Stop signals the poll loop and workers to exit and waits for
// in-flight deliveries to finish.
func (d *Dispatcher) Stop() {
	close(d.quit)
	d.wg.Wait()
}

func (d *Dispatcher) pollLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.claimAndDispatch(ctx)
		case <-d.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) claimAndDispatch(ctx context.Context) {
	batch, err := d.deliveries.ClaimBatch(ctx, d.config.BatchSize)
	if err != nil {
		d.log.GetBaseLogger().Error("failed to claim delivery batch")
		return
	}

	for _, delivery := range batch {
		select {
		case d.taskChan <- delivery:
		case <-d.quit:
			return
		}
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case delivery := <-d.taskChan:
			d.deliverOne(ctx, delivery)
		case <-d.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) deliverOne(ctx context.Context, delivery *domain.Delivery) {
	d.metrics.IncrementInFlight()
	defer d.metrics.DecrementInFlight()

	d.log.LogDeliveryStart(ctx, delivery.WebhookID, delivery.ID, delivery.EventType, delivery.ResolvedURL)

	start := time.Now()
	httpStatus, sendErr := d.send(ctx, delivery)
	duration := time.Since(start)

	delivered := sendErr == nil && httpStatus >= 200 && httpStatus < 300

	errorType := ""
	if sendErr != nil {
		errorType = "transport"
	} else if !delivered {
		errorType = "http_status"
	}
	d.metrics.RecordAttempt(delivery.WebhookID, delivery.EventType, duration, delivered, errorType)

	if delivered {
		d.handleSuccess(ctx, delivery, httpStatus, duration)
		return
	}
	d.handleFailure(ctx, delivery, httpStatus, sendErr, duration)
}

func (d *Dispatcher) send(ctx context.Context, delivery *domain.Delivery) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.ResolvedURL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", "sha256="+delivery.Signature)
	req.Header.Set("X-Webhook-Event", delivery.EventType)
	req.Header.Set("X-Webhook-Delivery", delivery.ID)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func (d *Dispatcher) handleSuccess(ctx context.Context, delivery *domain.Delivery, httpStatus int, duration time.Duration) {
	if err := d.deliveries.MarkDelivered(ctx, delivery.ID, httpStatus); err != nil {
		d.log.GetBaseLogger().Error("failed to mark delivery delivered")
	}
	if err := d.webhooks.RecordSuccess(ctx, delivery.WebhookID); err != nil {
		d.log.GetBaseLogger().Error("failed to record webhook success")
	}
	d.log.LogDeliveryComplete(ctx, delivery.WebhookID, delivery.ID, duration, true, httpStatus)
}

func (d *Dispatcher) handleFailure(ctx context.Context, delivery *domain.Delivery, httpStatus int, sendErr error, duration time.Duration) {
	errMsg := ""
	if sendErr != nil {
		errMsg = sendErr.Error()
	} else {
		errMsg = fmt.Sprintf("unexpected HTTP status %d", httpStatus)
	}

	retry := domain.ShouldRetry(delivery.RetryCount, httpStatus)
	nextScheduledAt := time.Now().Add(domain.RetryDelay(delivery.RetryCount + 1))

	if err := d.deliveries.MarkFailed(ctx, delivery.ID, httpStatus, errMsg, retry, nextScheduledAt); err != nil {
		d.log.GetBaseLogger().Error("failed to mark delivery failed")
	}
	if retry {
		d.log.LogRetryScheduled(ctx, delivery.ID, delivery.RetryCount+1, domain.RetryDelay(delivery.RetryCount+1))
	}
	d.log.LogDeliveryError(ctx, delivery.WebhookID, delivery.ID, fmt.Errorf("%s", errMsg), duration)

	consecutiveFailures, err := d.webhooks.RecordFailure(ctx, delivery.WebhookID)
	if err != nil {
		d.log.GetBaseLogger().Error("failed to record webhook failure")
		return
	}

	if consecutiveFailures >= domain.MaxConsecutiveFailures {
		reason := fmt.Sprintf("disabled after %d consecutive delivery failures", consecutiveFailures)
		if err := d.webhooks.Disable(ctx, delivery.WebhookID, reason); err != nil {
			d.log.GetBaseLogger().Error("failed to disable webhook")
			return
		}
		d.metrics.RecordWebhookDisabled()
		d.log.LogWebhookDisabled(ctx, delivery.WebhookID, reason, consecutiveFailures)
	}
}
