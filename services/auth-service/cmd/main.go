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
	"github.com/fkheinstein204/saasforge/pkg/cache"
	"github.com/fkheinstein204/saasforge/pkg/config"
	"github.com/fkheinstein204/saasforge/pkg/database"
	"github.com/fkheinstein204/saasforge/pkg/dbpool"
	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/pkg/redis"
	"github.com/fkheinstein204/saasforge/pkg/tenantctx"

	authv1 "github.com/fkheinstein204/saasforge/gen/go/proto/api/auth/v1"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/grpc/handlers"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/pkg/password"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/provider/oauth"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/repository/postgres"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/service"
)

const serviceName = "auth-service"

func main() {
	ctx := context.Background()

	baseLogger, err := logger.NewLogger("development", "info", serviceName, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer baseLogger.Sync()

	cfg, err := config.LoadConfig(os.Getenv("AUTH_SERVICE_CONFIG"))
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

	conns, err := dbpool.New(ctx, dbpool.Config{
		DSN: fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name),
		Size: 5,
	})
	if err != nil {
		baseLogger.Error("failed to open backup code connection pool", logger.Error(err))
		os.Exit(1)
	}
	defer conns.Shutdown(ctx)

	redisClient, err := redis.Connect(ctx, &redis.Config{
		Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize, MinIdleConn: cfg.Redis.MinIdleConn,
		MaxRetries: cfg.Redis.MaxRetries, RetryInterval: time.Second, HealthCheck: 30 * time.Second,
	})
	if err != nil {
		baseLogger.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Client.Close()

	privateKey, publicKey, err := loadRSAKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
	if err != nil {
		baseLogger.Error("failed to load RS256 key pair", logger.Error(err))
		os.Exit(1)
	}

	cacheClient := cache.New(redisClient.Client)
	tokens := authtoken.New(privateKey, publicKey, cacheClient)

	users := postgres.NewUserRepository(pg.Pool)
	tenants := postgres.NewTenantRepository(pg.Pool)
	apiKeys := postgres.NewAPIKeyRepository(pg.Pool)
	backupCodes := postgres.NewBackupCodeRepository(pg.Pool, conns)
	oauthAccounts := postgres.NewOAuthAccountRepository(pg.Pool)

	hasher := password.NewArgon2Hasher()
	mail := &logOnlyMailTransport{log: baseLogger}

	oauthProviders := map[string]service.OAuthProvider{}
	for name, providerCfg := range cfg.OAuth.Providers {
		oauthProviders[name] = oauth.New(oauth.Config{
			ClientID:     providerCfg.ClientID,
			ClientSecret: providerCfg.ClientSecret,
			AuthURL:      providerCfg.AuthURL,
			TokenURL:     providerCfg.TokenURL,
			UserInfoURL:  providerCfg.UserInfoURL,
			Scopes:       providerCfg.Scopes,
		})
	}

	authService := service.NewAuthService(
		users, tenants, apiKeys, backupCodes, oauthAccounts,
		tokens, cacheClient, hasher, mail, oauthProviders, baseLogger,
	)

	authHandler := handlers.NewAuthHandler(authService, baseLogger)

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(tenantctx.UnaryInterceptor(tokens)),
	)
	authv1.RegisterAuthServiceServer(grpcServer, authHandler)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		baseLogger.Error("failed to listen", logger.Error(err))
		os.Exit(1)
	}

	go func() {
		baseLogger.Info("auth service listening", logger.Int("port", cfg.GRPC.Port))
		if err := grpcServer.Serve(listener); err != nil {
			baseLogger.Error("grpc server stopped", logger.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	baseLogger.Info("received shutdown signal", logger.String("signal", sig.String()))

	grpcServer.GracefulStop()
	baseLogger.Info("auth service shut down cleanly")
}

// loadRSAKeyPair reads a PKCS1/PKCS8 PEM private key and an PKIX PEM
// public key from disk.
func loadRSAKeyPair(privatePath, publicPath string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privPEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("read private key: %w", err)
	}
	privBlock, _ := pem.Decode(privPEM)
	if privBlock == nil {
		return nil, nil, fmt.Errorf("invalid private key PEM: %s", privatePath)
	}
	privateKey, err := parseRSAPrivateKey(privBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse private key: %w", err)
	}

	pubPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read public key: %w", err)
	}
	pubBlock, _ := pem.Decode(pubPEM)
	if pubBlock == nil {
		return nil, nil, fmt.Errorf("invalid public key PEM: %s", publicPath)
	}
	pubAny, err := x509.ParsePKIXPublicKey(pubBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse public key: %w", err)
	}
	publicKey, ok := pubAny.(*rsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("public key is not RSA: %s", publicPath)
	}

	return privateKey, publicKey, nil
}

func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not RSA")
	}
	return key, nil
}

// logOnlyMailTransport is the default MailTransport: it sends nothing
// and only logs that an OTP was issued (address and purpose, not the
// code itself).
type logOnlyMailTransport struct {
	log logger.Logger
}

func (m *logOnlyMailTransport) SendOTP(ctx context.Context, email, purpose, code string) error {
	m.log.Info("otp issued",
		logger.String("email", email),
		logger.String("purpose", purpose))
	return nil
}
