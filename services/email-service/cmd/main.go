package main

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/fkheinstein204/saasforge/pkg/authtoken"
	"github.com/fkheinstein204/saasforge/pkg/config"
	"github.com/fkheinstein204/saasforge/pkg/database"
	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/pkg/redis"
	"github.com/fkheinstein204/saasforge/pkg/tenantctx"

	emailv1 "github.com/fkheinstein204/saasforge/gen/go/proto/api/email/v1"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/dispatcher"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/grpc/handlers"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/health"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/logging"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/metrics"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/repository/postgres"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/service"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/transport"
)

const serviceName = "email-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	baseLogger, err := logger.NewLogger("development", "info", serviceName, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer baseLogger.Sync()

	cfg, err := config.LoadConfig(os.Getenv("EMAIL_SERVICE_CONFIG"))
	if err != nil {
		baseLogger.Error("failed to load config", logger.Error(err))
		os.Exit(1)
	}

	pg, err := database.Connect(ctx, &database.Config{
		Host: cfg.Database.Host, Port: cfg.Database.Port, User: cfg.Database.User,
		Password: cfg.Database.Password, Database: cfg.Database.Name, SSLMode: "disable",
		MaxConns: 20, MinConns: 5, MaxConnLife: 30 * time.Minute, MaxConnIdle: 5 * time.Minute,
		HealthCheck: 30 * time.Second, MaxRetries: 3, RetryInterval: time.Second,
	})
	if err != nil {
		baseLogger.Error("failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pg.Pool.Close()

	redisConfig := &redis.Config{
		Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize, MinIdleConn: cfg.Redis.MinIdleConn,
		MaxRetries: cfg.Redis.MaxRetries, RetryInterval: time.Second, HealthCheck: 30 * time.Second,
	}

	// This service never issues tokens, only verifies the ones the auth
	// service signed, so only the public half of the key pair is loaded.
	publicKey, err := loadRSAPublicKey(cfg.JWT.PublicKeyPath)
	if err != nil {
		baseLogger.Error("failed to load token validation key", logger.Error(err))
		os.Exit(1)
	}
	tokens := authtoken.New(nil, publicKey, nil)

	emailLogger := logging.NewEmailLogger(baseLogger)
	emailMetrics := metrics.NewEmailMetrics(serviceName)

	emails := postgres.NewEmailRepository(pg.Pool)
	suppressions := postgres.NewSuppressionRepository(pg.Pool)

	emailService := service.NewEmailService(emails, suppressions, baseLogger)
	emailHandler := handlers.NewEmailHandler(emailService, baseLogger)

	sender := transport.NewSMTPSender(transport.SMTPConfig{
		Host:        cfg.Providers.Email.SMTPHost,
		Port:        cfg.Providers.Email.SMTPPort,
		Username:    cfg.Providers.Email.Username,
		Password:    cfg.Providers.Email.Password,
		FromAddress: cfg.Providers.Email.FromAddress,
		FromName:    cfg.Providers.Email.FromName,
		UseStartTLS: cfg.Providers.Email.UseStartTLS,
	}, baseLogger)

	dispatch := dispatcher.New(emails, suppressions, sender, emailLogger, emailMetrics, dispatcher.DefaultConfig())
	dispatch.Start(ctx)
	defer dispatch.Stop()

	healthService, err := health.NewService(health.DefaultConfig(), pg.Pool, redisConfig, emailLogger)
	if err != nil {
		baseLogger.Error("failed to initialize health service", logger.Error(err))
		os.Exit(1)
	}
	if err := healthService.Start(ctx); err != nil {
		baseLogger.Error("failed to start health service", logger.Error(err))
		os.Exit(1)
	}
	defer healthService.Stop(context.Background())

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(tenantctx.UnaryInterceptor(tokens)),
	)
	emailv1.RegisterEmailServiceServer(grpcServer, emailHandler)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		baseLogger.Error("failed to listen", logger.Error(err))
		os.Exit(1)
	}

	go func() {
		baseLogger.Info("email service listening", logger.Int("port", cfg.GRPC.Port))
		if err := grpcServer.Serve(listener); err != nil {
			baseLogger.Error("grpc server stopped", logger.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("received shutdown signal")

	grpcServer.GracefulStop()
	baseLogger.Info("email service shut down cleanly")
}

func loadRSAPublicKey(publicPath string) (*rsa.PublicKey, error) {
	pubPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubBlock, _ := pem.Decode(pubPEM)
	if pubBlock == nil {
		return nil, fmt.Errorf("invalid public key PEM: %s", publicPath)
	}
	pubAny, err := x509.ParsePKIXPublicKey(pubBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := pubAny.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA: %s", publicPath)
	}
	return pub, nil
}
