package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fkheinstein204/saasforge/pkg/authtoken"
	"github.com/fkheinstein204/saasforge/pkg/cache"
	"github.com/fkheinstein204/saasforge/pkg/crypto/totp"
	apperrors "github.com/fkheinstein204/saasforge/pkg/errors"
	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/pkg/apikey"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/pkg/password"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/repository"
)

const (
	totpWindow        = 1
	backupCodeCount   = 10
	otpTTL            = 600 * time.Second
	otpRateWindow     = 60 * time.Second
	otpRateMax        = 3
	oauthStateTTL     = 600 * time.Second
	apiKeyLifetime    = 365 * 24 * time.Hour
	invalidCredsMsg   = "Invalid credentials"
	totpIssuer        = "SaaSForge"
)

// MailTransport is the external collaborator that actually delivers an
// OTP code. The core stops at "handed off to a transport adapter".
type MailTransport interface {
	SendOTP(ctx context.Context, email, purpose, code string) error
}

// OAuthProvider is the external collaborator for a single federated
// identity provider's authorization-code exchange.
type OAuthProvider interface {
	AuthorizationURL(redirectURI, state string) string
	Exchange(ctx context.Context, code, redirectURI string) (providerUserID, email string, err error)
}

// TokenPair is returned by every operation that issues a fresh session.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AuthService implements the Auth Engine (§4.H).
type AuthService interface {
	Login(ctx context.Context, email, plainPassword, totpCode string, fromOAuthCallback bool) (*TokenPair, error)
	Register(ctx context.Context, email, plainPassword, tenantName string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken, bearerAccessToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)

	CreateApiKey(ctx context.Context, userID, tenantID, name string, scopes []string) (plaintext string, err error)
	ValidateApiKey(ctx context.Context, plaintext, requestedScope string) (*domain.APIKey, error)

	EnrollTOTP(ctx context.Context, userID string) (secret, provisioningURI string, backupCodes []string, err error)
	VerifyTOTP(ctx context.Context, userID, code string) (bool, error)
	DisableTOTP(ctx context.Context, userID, currentPassword string) error
	GenerateBackupCodes(ctx context.Context, userID string) ([]string, error)

	SendOTP(ctx context.Context, email, purpose string) (expiresAt time.Time, ok bool, err error)
	VerifyOTP(ctx context.Context, email, code, purpose string) (bool, error)

	InitiateOAuth(ctx context.Context, provider, redirectURI string) (authorizationURL string, err error)
	HandleOAuthCallback(ctx context.Context, provider, state, code, redirectURI string) (tokens *TokenPair, isNewUser bool, err error)
}

// Service is the concrete AuthService.
type Service struct {
	users        repository.UserRepository
	tenants      repository.TenantRepository
	apiKeys      repository.APIKeyRepository
	backupCodes  repository.BackupCodeRepository
	oauthAccount repository.OAuthAccountRepository

	tokens   *authtoken.Manager
	cache    *cache.Client
	hasher   password.Hasher
	mail     MailTransport
	oauth    map[string]OAuthProvider
	log      logger.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tenants repository.TenantRepository,
	apiKeys repository.APIKeyRepository,
	backupCodes repository.BackupCodeRepository,
	oauthAccount repository.OAuthAccountRepository,
	tokens *authtoken.Manager,
	cacheClient *cache.Client,
	hasher password.Hasher,
	mail MailTransport,
	oauth map[string]OAuthProvider,
	log logger.Logger,
) AuthService {
	return &Service{
		users: users, tenants: tenants, apiKeys: apiKeys,
		backupCodes: backupCodes, oauthAccount: oauthAccount,
		tokens: tokens, cache: cacheClient, hasher: hasher,
		mail: mail, oauth: oauth, log: log,
	}
}

func unauthenticated(msg string) error {
	return apperrors.New(apperrors.ErrUnauthorized, msg)
}

// Login authenticates a user and, on success, issues a fresh session.
func (s *Service) Login(ctx context.Context, email, plainPassword, totpCode string, fromOAuthCallback bool) (*TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, unauthenticated(invalidCredsMsg)
	}

	if user.PasswordHash == nil {
		if plainPassword == "" && fromOAuthCallback {
			return s.issueSession(ctx, user)
		}
		return nil, unauthenticated("This account signs in via a linked identity provider")
	}

	if !s.hasher.Check(plainPassword, *user.PasswordHash) {
		return nil, unauthenticated(invalidCredsMsg)
	}

	if user.TOTPSecret != nil {
		if totpCode == "" {
			return nil, apperrors.New(apperrors.ErrFailedPrecondition, "TOTP code required")
		}
		if !totp.Validate(*user.TOTPSecret, totpCode, totpWindow, time.Now()) {
			if !s.consumeBackupCode(ctx, user.ID, totpCode) {
				return nil, unauthenticated("Invalid TOTP code")
			}
		}
	}

	return s.issueSession(ctx, user)
}

func (s *Service) consumeBackupCode(ctx context.Context, userID, code string) bool {
	consumed, err := s.backupCodes.ConsumeMatching(ctx, userID, func(codeHash string) bool {
		return totp.VerifyBackupCode(code, codeHash)
	})
	if err != nil {
		return false
	}
	return consumed
}

func (s *Service) issueSession(ctx context.Context, user *domain.User) (*TokenPair, error) {
	access, _, err := s.tokens.IssueAccessToken(user.ID, user.TenantID, user.Email, nil)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(authtoken.AccessTokenTTL.Seconds())}, nil
}

// Register creates a tenant (if new) and its first user.
func (s *Service) Register(ctx context.Context, email, plainPassword, tenantName string) (*TokenPair, error) {
	if !s.hasher.Validate(plainPassword) {
		return nil, apperrors.New(apperrors.ErrValidation, "password does not meet complexity requirements")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.New(apperrors.ErrAlreadyExists, "account already exists")
	}

	slug := slugify(tenantName)
	tenant, err := s.tenants.FindBySlug(ctx, slug)
	if err != nil {
		tenant = &domain.Tenant{
			ID: uuid.New().String(), Name: tenantName, Slug: slug,
			CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		}
		if err := s.tenants.Create(ctx, tenant); err != nil {
			return nil, fmt.Errorf("failed to create tenant: %w", err)
		}
	}

	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID: uuid.New().String(), TenantID: tenant.ID, Email: email,
		PasswordHash: &hash, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueSession(ctx, user)
}

// Logout revokes the refresh binding and, if a live access token was
// presented, blacklists its jti for the remainder of its lifetime.
// Idempotent: an already-invalid refresh token still yields success.
func (s *Service) Logout(ctx context.Context, refreshToken, bearerAccessToken string) error {
	userID, _, _, err := s.tokens.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if userID == "" {
		return apperrors.New(apperrors.ErrValidation, "malformed refresh token")
	}
	_ = s.tokens.RevokeRefreshToken(ctx, userID)

	if bearerAccessToken != "" {
		if claims, err := s.tokens.Validate(ctx, bearerAccessToken); err == nil {
			_ = s.tokens.BlacklistAccessToken(ctx, claims.JTI, claims.ExpireAt)
		}
	}
	return nil
}

// RefreshToken rotates the caller's session, detecting reuse.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, ok, mismatched, err := s.tokens.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		if mismatched {
			s.log.Warn("refresh token reuse detected",
				logger.String("user_id", userID))
			_ = s.tokens.RevokeRefreshToken(ctx, userID)
			return nil, apperrors.New(apperrors.ErrForbidden, "Token reuse detected. All sessions revoked.")
		}
		return nil, unauthenticated("invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		_ = s.tokens.RevokeRefreshToken(ctx, userID)
		return nil, unauthenticated("invalid refresh token")
	}

	_ = s.tokens.RevokeRefreshToken(ctx, userID)
	return s.issueSession(ctx, user)
}

// CreateApiKey mints and persists a new API key, returning the
// plaintext exactly once.
func (s *Service) CreateApiKey(ctx context.Context, userID, tenantID, name string, scopes []string) (string, error) {
	plaintext, err := apikey.Generate()
	if err != nil {
		return "", err
	}
	hash, err := apikey.Hash(plaintext)
	if err != nil {
		return "", err
	}

	key := &domain.APIKey{
		ID: uuid.New().String(), UserID: userID, TenantID: tenantID,
		KeyHash: hash, Name: name, Scopes: apikey.JoinScopes(scopes),
		ExpiresAt: time.Now().UTC().Add(apiKeyLifetime), CreatedAt: time.Now().UTC(),
	}
	if err := s.apiKeys.Create(ctx, key); err != nil {
		return "", err
	}
	return plaintext, nil
}

// ValidateApiKey scans active keys for a match, then enforces scope.
func (s *Service) ValidateApiKey(ctx context.Context, plaintext, requestedScope string) (*domain.APIKey, error) {
	keys, err := s.apiKeys.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var matched *domain.APIKey
	for _, k := range keys {
		if apikey.Verify(plaintext, k.KeyHash) {
			matched = k
			break
		}
	}
	if matched == nil {
		return nil, unauthenticated("invalid API key")
	}

	if !apikey.ScopeMatch(apikey.ParseScopes(matched.Scopes), requestedScope) {
		return nil, apperrors.New(apperrors.ErrForbidden, fmt.Sprintf("missing scope: %s", requestedScope))
	}
	return matched, nil
}

// EnrollTOTP generates a secret and ten backup codes, returning the
// plaintext values exactly once.
func (s *Service) EnrollTOTP(ctx context.Context, userID string) (string, string, []string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", "", nil, err
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return "", "", nil, err
	}
	uri := totp.ProvisioningURI(totpIssuer, user.Email, secret)

	plainCodes, err := totp.GenerateBackupCodes(backupCodeCount)
	if err != nil {
		return "", "", nil, err
	}
	hashes := make([]string, len(plainCodes))
	for i, c := range plainCodes {
		hashes[i] = totp.HashBackupCode(c)
	}

	now := time.Now().UTC()
	user.TOTPSecret = &secret
	user.TOTPEnrolledAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return "", "", nil, err
	}
	if err := s.backupCodes.ReplaceAll(ctx, userID, hashes); err != nil {
		return "", "", nil, err
	}

	return secret, uri, plainCodes, nil
}

func (s *Service) VerifyTOTP(ctx context.Context, userID, code string) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.TOTPSecret == nil {
		return false, apperrors.New(apperrors.ErrFailedPrecondition, "TOTP not enrolled")
	}
	return totp.Validate(*user.TOTPSecret, code, totpWindow, time.Now()), nil
}

// DisableTOTP requires re-verification of the caller's password.
func (s *Service) DisableTOTP(ctx context.Context, userID, currentPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil || !s.hasher.Check(currentPassword, *user.PasswordHash) {
		return unauthenticated(invalidCredsMsg)
	}

	user.TOTPSecret = nil
	user.TOTPEnrolledAt = nil
	return s.users.Update(ctx, user)
}

func (s *Service) GenerateBackupCodes(ctx context.Context, userID string) ([]string, error) {
	plainCodes, err := totp.GenerateBackupCodes(backupCodeCount)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(plainCodes))
	for i, c := range plainCodes {
		hashes[i] = totp.HashBackupCode(c)
	}
	if err := s.backupCodes.ReplaceAll(ctx, userID, hashes); err != nil {
		return nil, err
	}
	return plainCodes, nil
}

// SendOTP rate-limits per address, then hands a code to the mail
// transport. A rate-limit hit reports ok=false without otherwise
// leaking whether the address exists.
func (s *Service) SendOTP(ctx context.Context, email, purpose string) (time.Time, bool, error) {
	rateKey := fmt.Sprintf("otp:rate:%s", email)
	n, err := s.cache.IncrementWithTTL(ctx, rateKey, otpRateWindow)
	if err != nil {
		return time.Time{}, false, err
	}
	if n > otpRateMax {
		return time.Time{}, false, nil
	}

	code, err := randomDigits(6)
	if err != nil {
		return time.Time{}, false, err
	}

	key := fmt.Sprintf("otp:%s:%s", email, purpose)
	if err := s.cache.SetWithTTL(ctx, key, code, otpTTL); err != nil {
		return time.Time{}, false, err
	}

	if err := s.mail.SendOTP(ctx, email, purpose, code); err != nil {
		return time.Time{}, false, err
	}

	return time.Now().UTC().Add(otpTTL), true, nil
}

func (s *Service) VerifyOTP(ctx context.Context, email, code, purpose string) (bool, error) {
	key := fmt.Sprintf("otp:%s:%s", email, purpose)
	stored, present, err := s.cache.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !present || stored != code {
		return false, nil
	}
	_ = s.cache.Delete(ctx, key)
	return true, nil
}

// InitiateOAuth stores a single-use state nonce and returns the
// provider's authorization URL with that state embedded.
func (s *Service) InitiateOAuth(ctx context.Context, provider, redirectURI string) (string, error) {
	p, ok := s.oauth[provider]
	if !ok {
		return "", apperrors.New(apperrors.ErrValidation, "unknown provider")
	}

	state, err := randomHex(32)
	if err != nil {
		return "", err
	}
	if err := s.cache.SetWithTTL(ctx, oauthStateKey(state), provider, oauthStateTTL); err != nil {
		return "", err
	}

	return p.AuthorizationURL(redirectURI, state), nil
}

// HandleOAuthCallback exchanges the code, links or creates the user,
// and issues a session exactly as Login does.
func (s *Service) HandleOAuthCallback(ctx context.Context, provider, state, code, redirectURI string) (*TokenPair, bool, error) {
	stored, present, err := s.cache.Get(ctx, oauthStateKey(state))
	if err != nil {
		return nil, false, err
	}
	if !present || stored != provider {
		return nil, false, apperrors.New(apperrors.ErrForbidden, "invalid or expired oauth state")
	}
	_ = s.cache.Delete(ctx, oauthStateKey(state))

	p, ok := s.oauth[provider]
	if !ok {
		return nil, false, apperrors.New(apperrors.ErrValidation, "unknown provider")
	}

	providerUserID, email, err := p.Exchange(ctx, code, redirectURI)
	if err != nil {
		return nil, false, err
	}

	account, err := s.oauthAccount.FindByProvider(ctx, provider, providerUserID)
	if err != nil {
		return nil, false, err
	}

	isNewUser := account == nil
	var user *domain.User
	if account != nil {
		user, err = s.users.FindByID(ctx, account.UserID)
		if err != nil {
			return nil, false, err
		}
	} else {
		user = &domain.User{
			ID: uuid.New().String(), Email: email,
			CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, false, err
		}
		if err := s.oauthAccount.Create(ctx, &domain.OAuthAccount{
			ID: uuid.New().String(), UserID: user.ID, Provider: provider,
			ProviderUserID: providerUserID, CreatedAt: time.Now().UTC(),
		}); err != nil {
			return nil, false, err
		}
	}

	tokens, err := s.Login(ctx, user.Email, "", "", true)
	return tokens, isNewUser, err
}

func oauthStateKey(state string) string {
	return "oauth:state:" + state
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randomDigits(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = '0' + b%10
	}
	return string(out), nil
}

func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ' || r == '_':
			out = append(out, '-')
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}
