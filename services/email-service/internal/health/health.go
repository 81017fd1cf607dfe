package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fkheinstein204/saasforge/pkg/logger"
	redispkg "github.com/fkheinstein204/saasforge/pkg/redis"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Status is the health state of one checked component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

type CheckResult struct {
	Component string                 `json:"component"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message"`
	Duration  time.Duration          `json:"duration"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

type HealthChecker interface {
	Check(ctx context.Context) *CheckResult
	Name() string
}

type Config struct {
	DatabaseTimeout time.Duration `json:"database_timeout"`
	RedisTimeout    time.Duration `json:"redis_timeout"`
	CheckInterval   time.Duration `json:"check_interval"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		DatabaseTimeout: 5 * time.Second,
		RedisTimeout:    5 * time.Second,
		CheckInterval:   30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.DatabaseTimeout <= 0 {
		return fmt.Errorf("database timeout must be positive")
	}
	if c.RedisTimeout <= 0 {
		return fmt.Errorf("redis timeout must be positive")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// Service periodically runs the configured checkers and exposes the
// aggregate liveness of the email dispatcher's downstream dependencies.
type Service struct {
	config   *Config
	logger   *logging.EmailLogger
	checkers []HealthChecker
	results  map[string]*CheckResult
	mu       sync.RWMutex

	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

func NewService(config *Config, pool *pgxpool.Pool, redisConfig *redispkg.Config, log *logging.EmailLogger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service := &Service{
		config:       config,
		logger:       log.WithComponent("health-checker"),
		checkers:     make([]HealthChecker, 0, 2),
		results:      make(map[string]*CheckResult),
		shutdownChan: make(chan struct{}),
	}

	service.checkers = append(service.checkers, &DatabaseChecker{pool: pool, timeout: config.DatabaseTimeout})
	service.checkers = append(service.checkers, &RedisChecker{config: redisConfig, timeout: config.RedisTimeout})

	return service, nil
}

func (s *Service) Start(ctx context.Context) error {
	s.logger.GetBaseLogger().Info("Starting health check service")
	s.wg.Add(1)
	go s.runPeriodicChecks(ctx)
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.GetBaseLogger().Info("Health check service stopped gracefully")
	case <-shutdownCtx.Done():
		s.logger.GetBaseLogger().Warn("Health check service shutdown timeout reached")
	}
	return nil
}

func (s *Service) CheckAll(ctx context.Context) map[string]*CheckResult {
	results := make(map[string]*CheckResult)
	for _, checker := range s.checkers {
		result := checker.Check(ctx)
		results[checker.Name()] = result

		s.mu.Lock()
		s.results[checker.Name()] = result
		s.mu.Unlock()
	}
	return results
}

func (s *Service) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.results) == 0 {
		return StatusUnknown
	}

	hasUnhealthy, hasDegraded := false, false
	for _, result := range s.results {
		switch result.Status {
		case StatusUnhealthy:
			hasUnhealthy = true
		case StatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return StatusUnhealthy
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

func (s *Service) GetResults() map[string]*CheckResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make(map[string]*CheckResult, len(s.results))
	for k, v := range s.results {
		results[k] = v
	}
	return results
}

func (s *Service) runPeriodicChecks(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	s.performChecks(ctx)

	for {
		select {
		case <-ticker.C:
			s.performChecks(ctx)
		case <-s.shutdownChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) performChecks(ctx context.Context) {
	results := s.CheckAll(ctx)

	for name, result := range results {
		logFunc := s.logger.GetBaseLogger().Info
		if result.Status == StatusUnhealthy {
			logFunc = s.logger.GetBaseLogger().Error
		} else if result.Status == StatusDegraded {
			logFunc = s.logger.GetBaseLogger().Warn
		}
		logFunc("Health check result",
			logger.String("component", name),
			logger.String("status", string(result.Status)),
			logger.String("message", result.Message),
			logger.String("duration", result.Duration.String()))
	}

	status := s.GetStatus()
	s.logger.GetBaseLogger().Info("Overall health status", logger.String("status", string(status)))
}

// DatabaseChecker pings the pgxpool held by the email dispatcher.
type DatabaseChecker struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func (c *DatabaseChecker) Name() string { return "database" }

func (c *DatabaseChecker) Check(ctx context.Context) *CheckResult {
	start := time.Now()
	result := &CheckResult{Component: c.Name(), Timestamp: start}

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.pool.Ping(checkCtx); err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("database ping failed: %v", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Status = StatusHealthy
	result.Message = "database is healthy"
	result.Duration = time.Since(start)
	return result
}

// RedisChecker confirms the configured Redis instance is reachable. The
// email queue itself keeps no state in Redis.
type RedisChecker struct {
	config  *redispkg.Config
	timeout time.Duration
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) *CheckResult {
	start := time.Now()
	result := &CheckResult{Component: c.Name(), Timestamp: start}

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := redispkg.Connect(checkCtx, c.config)
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("redis connect failed: %v", err)
		result.Duration = time.Since(start)
		return result
	}
	defer client.Client.Close()

	if err := client.Client.Ping(checkCtx).Err(); err != nil {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("redis connected but ping failed: %v", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Status = StatusHealthy
	result.Message = "redis is healthy"
	result.Duration = time.Since(start)
	return result
}
