// Package dispatcher drains the email queue: it claims batches of due
// emails, sends them over SMTP, and records the outcome.
package dispatcher

import (
	"context"
	"sync"
	"time"

	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/logging"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/metrics"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/repository"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/transport"
)

// Config controls the dispatch loop's polling cadence and worker
// pool size.
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	Workers      int
}

func DefaultConfig() *Config {
	return &Config{
		PollInterval: 2 * time.Second,
		BatchSize:    20,
		Workers:      8,
	}
}

// Dispatcher periodically claims a batch of due emails and fans them
// out across a bounded pool of workers, mirroring the channel-based
// worker shape used for the webhook delivery engine's dispatch loop.
type Dispatcher struct {
	emails       repository.EmailRepository
	suppressions repository.SuppressionRepository
	sender       transport.Sender
	log          *logging.EmailLogger
	metrics      *metrics.EmailMetrics
	config       *Config

	taskChan chan *domain.QueuedEmail
	quit     chan struct{}
	wg       sync.WaitGroup
}

func New(emails repository.EmailRepository, suppressions repository.SuppressionRepository, sender transport.Sender, log *logging.EmailLogger, m *metrics.EmailMetrics, config *Config) *Dispatcher {
	if config == nil {
		config = DefaultConfig()
	}

	return &Dispatcher{
		emails:       emails,
		suppressions: suppressions,
		sender:       sender,
		log:          log.WithComponent("dispatcher"),
		metrics:      m,
		config:       config,
		taskChan:     make(chan *domain.QueuedEmail, config.BatchSize),
		quit:         make(chan struct{}),
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
// in-flight sends to finish.
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
	batch, err := d.emails.ClaimBatch(ctx, d.config.BatchSize)
	if err != nil {
		d.log.GetBaseLogger().Error("failed to claim email batch")
		return
	}

	for _, email := range batch {
		select {
		case d.taskChan <- email:
		case <-d.quit:
			return
		}
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case email := <-d.taskChan:
			d.sendOne(ctx, email)
		case <-d.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) sendOne(ctx context.Context, email *domain.QueuedEmail) {
	d.metrics.IncrementInFlight()
	defer d.metrics.DecrementInFlight()

	d.log.LogSendStart(ctx, email.ID, email.Recipient)

	start := time.Now()
	sendErr := d.sender.Send(email)
	duration := time.Since(start)

	sent := sendErr == nil

	errorType := ""
	if sendErr != nil {
		errorType = "transport"
	}
	d.metrics.RecordAttempt(duration, sent, errorType)

	if sent {
		d.handleSuccess(ctx, email, duration)
		return
	}
	d.handleFailure(ctx, email, sendErr, duration)
}

func (d *Dispatcher) handleSuccess(ctx context.Context, email *domain.QueuedEmail, duration time.Duration) {
	if err := d.emails.MarkSent(ctx, email.ID); err != nil {
		d.log.GetBaseLogger().Error("failed to mark email sent")
	}
	d.log.LogSendComplete(ctx, email.ID, duration, true)
}

func (d *Dispatcher) handleFailure(ctx context.Context, email *domain.QueuedEmail, sendErr error, duration time.Duration) {
	hardBounce, reason := transport.ClassifyFailure(sendErr)

	if hardBounce {
		if err := d.emails.MarkBounced(ctx, email.ID, domain.BounceTypeHard, reason); err != nil {
			d.log.GetBaseLogger().Error("failed to mark email bounced")
		}
		entry := &domain.SuppressionEntry{Address: email.Recipient, Reason: reason, CreatedAt: time.Now()}
		if err := d.suppressions.Upsert(ctx, entry); err != nil {
			d.log.GetBaseLogger().Error("failed to suppress address after hard bounce")
		}
		d.metrics.RecordBounce(string(domain.BounceTypeHard))
		d.metrics.RecordSuppression()
		d.log.LogBounced(ctx, email.ID, string(domain.BounceTypeHard), reason)
		return
	}

	retry := email.CanRetry()
	nextScheduledAt := time.Now().Add(domain.RetryDelay(email.RetryCount + 1))

	if err := d.emails.MarkFailed(ctx, email.ID, reason, retry, nextScheduledAt); err != nil {
		d.log.GetBaseLogger().Error("failed to mark email failed")
	}
	if retry {
		d.log.LogRetryScheduled(ctx, email.ID, email.RetryCount+1, domain.RetryDelay(email.RetryCount+1))
	}
	d.log.LogSendError(ctx, email.ID, sendErr, duration)
}
