package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fkheinstein204/saasforge/services/auth-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/pkg/password"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/service"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *mockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *mockUserRepo) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockTenantRepo struct{ mock.Mock }

func (m *mockTenantRepo) Create(ctx context.Context, tenant *domain.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}
func (m *mockTenantRepo) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}
func (m *mockTenantRepo) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

type mockAPIKeyRepo struct{ mock.Mock }

func (m *mockAPIKeyRepo) Create(ctx context.Context, key *domain.APIKey) error {
	return m.Called(ctx, key).Error(0)
}
func (m *mockAPIKeyRepo) ListActive(ctx context.Context) ([]*domain.APIKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}
func (m *mockAPIKeyRepo) Revoke(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockBackupCodeRepo struct{ mock.Mock }

func (m *mockBackupCodeRepo) ReplaceAll(ctx context.Context, userID string, hashes []string) error {
	return m.Called(ctx, userID, hashes).Error(0)
}
func (m *mockBackupCodeRepo) ListUnused(ctx context.Context, userID string) ([]*domain.BackupCode, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BackupCode), args.Error(1)
}
func (m *mockBackupCodeRepo) MarkUsed(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockBackupCodeRepo) ConsumeMatching(ctx context.Context, userID string, matches func(codeHash string) bool) (bool, error) {
	args := m.Called(ctx, userID, matches)
	return args.Bool(0), args.Error(1)
}

type mockOAuthAccountRepo struct{ mock.Mock }

func (m *mockOAuthAccountRepo) FindByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error) {
	args := m.Called(ctx, provider, providerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OAuthAccount), args.Error(1)
}
func (m *mockOAuthAccountRepo) Create(ctx context.Context, account *domain.OAuthAccount) error {
	return m.Called(ctx, account).Error(0)
}

// newTestService wires mocked repositories against a real Argon2 hasher.
// Token/cache collaborators are left nil: every case exercised here
// returns before either is touched.
func newTestService(users *mockUserRepo, tenants *mockTenantRepo, apiKeys *mockAPIKeyRepo, backupCodes *mockBackupCodeRepo, oauthAccounts *mockOAuthAccountRepo) service.AuthService {
	return service.NewAuthService(
		users, tenants, apiKeys, backupCodes, oauthAccounts,
		nil, nil, password.NewArgon2Hasher(), nil, nil, nil,
	)
}

func TestLogin_UnknownEmailReturnsGenericMessage(t *testing.T) {
	users := &mockUserRepo{}
	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, assert.AnError)

	svc := newTestService(users, &mockTenantRepo{}, &mockAPIKeyRepo{}, &mockBackupCodeRepo{}, &mockOAuthAccountRepo{})

	tokens, err := svc.Login(context.Background(), "nobody@example.com", "whatever", "", false)
	require.Error(t, err)
	require.Nil(t, tokens)
	assert.Contains(t, err.Error(), "Invalid credentials")
	users.AssertExpectations(t)
}

func TestLogin_WrongPasswordReturnsSameGenericMessage(t *testing.T) {
	hasher := password.NewArgon2Hasher()
	hash, err := hasher.Hash("correct-horse-battery-staple1A")
	require.NoError(t, err)

	user := &domain.User{ID: "u1", Email: "jane@example.com", PasswordHash: &hash}

	users := &mockUserRepo{}
	users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)

	svc := newTestService(users, &mockTenantRepo{}, &mockAPIKeyRepo{}, &mockBackupCodeRepo{}, &mockOAuthAccountRepo{})

	tokens, err := svc.Login(context.Background(), "jane@example.com", "wrong-password", "", false)
	require.Error(t, err)
	require.Nil(t, tokens)
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestLogin_OAuthOnlyAccountRejectsPasswordAttempt(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "jane@example.com", PasswordHash: nil}

	users := &mockUserRepo{}
	users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)

	svc := newTestService(users, &mockTenantRepo{}, &mockAPIKeyRepo{}, &mockBackupCodeRepo{}, &mockOAuthAccountRepo{})

	tokens, err := svc.Login(context.Background(), "jane@example.com", "anything", "", false)
	require.Error(t, err)
	require.Nil(t, tokens)
}

func TestLogin_TOTPEnrolledRequiresCode(t *testing.T) {
	hasher := password.NewArgon2Hasher()
	hash, err := hasher.Hash("correct-horse-battery-staple1A")
	require.NoError(t, err)
	secret := "JBSWY3DPEHPK3PXP"

	user := &domain.User{ID: "u1", Email: "jane@example.com", PasswordHash: &hash, TOTPSecret: &secret}

	users := &mockUserRepo{}
	users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)

	svc := newTestService(users, &mockTenantRepo{}, &mockAPIKeyRepo{}, &mockBackupCodeRepo{}, &mockOAuthAccountRepo{})

	tokens, err := svc.Login(context.Background(), "jane@example.com", "correct-horse-battery-staple1A", "", false)
	require.Error(t, err)
	require.Nil(t, tokens)
}

func TestLogin_TOTPWrongCodeFallsBackToBackupCodes(t *testing.T) {
	hasher := password.NewArgon2Hasher()
	hash, err := hasher.Hash("correct-horse-battery-staple1A")
	require.NoError(t, err)
	secret := "JBSWY3DPEHPK3PXP"

	user := &domain.User{ID: "u1", Email: "jane@example.com", PasswordHash: &hash, TOTPSecret: &secret}

	users := &mockUserRepo{}
	users.On("FindByEmail", mock.Anything, "jane@example.com").Return(user, nil)

	backupCodes := &mockBackupCodeRepo{}
	backupCodes.On("ConsumeMatching", mock.Anything, "u1", mock.Anything).Return(false, nil)

	svc := newTestService(users, &mockTenantRepo{}, &mockAPIKeyRepo{}, backupCodes, &mockOAuthAccountRepo{})

	tokens, err := svc.Login(context.Background(), "jane@example.com", "correct-horse-battery-staple1A", "000000", false)
	require.Error(t, err)
	require.Nil(t, tokens)
	backupCodes.AssertExpectations(t)
}

func TestRegister_RejectsWeakPassword(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockTenantRepo{}, &mockAPIKeyRepo{}, &mockBackupCodeRepo{}, &mockOAuthAccountRepo{})

	tokens, err := svc.Register(context.Background(), "new@example.com", "weak", "Acme")
	require.Error(t, err)
	require.Nil(t, tokens)
}

func TestRegister_ExistingEmailIsConflict(t *testing.T) {
	existing := &domain.User{ID: "u1", Email: "taken@example.com"}

	users := &mockUserRepo{}
	users.On("FindByEmail", mock.Anything, "taken@example.com").Return(existing, nil)

	svc := newTestService(users, &mockTenantRepo{}, &mockAPIKeyRepo{}, &mockBackupCodeRepo{}, &mockOAuthAccountRepo{})

	tokens, err := svc.Register(context.Background(), "taken@example.com", "Str0ngPassword", "Acme")
	require.Error(t, err)
	require.Nil(t, tokens)
}

func TestValidateApiKey_NoMatchIsUnauthorized(t *testing.T) {
	apiKeys := &mockAPIKeyRepo{}
	apiKeys.On("ListActive", mock.Anything).Return([]*domain.APIKey{}, nil)

	svc := newTestService(&mockUserRepo{}, &mockTenantRepo{}, apiKeys, &mockBackupCodeRepo{}, &mockOAuthAccountRepo{})

	key, err := svc.ValidateApiKey(context.Background(), "sk_doesnotexist", "read:uploads")
	require.Error(t, err)
	require.Nil(t, key)
	apiKeys.AssertExpectations(t)
}

func TestValidateApiKey_MatchButMissingScopeIsForbidden(t *testing.T) {
	plaintext := "sk_aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	hasher := password.NewArgon2Hasher()
	hash, err := hasher.Hash(plaintext)
	require.NoError(t, err)

	key := &domain.APIKey{ID: "k1", KeyHash: hash, Scopes: "read:uploads", ExpiresAt: time.Now().Add(time.Hour)}

	apiKeys := &mockAPIKeyRepo{}
	apiKeys.On("ListActive", mock.Anything).Return([]*domain.APIKey{key}, nil)

	svc := newTestService(&mockUserRepo{}, &mockTenantRepo{}, apiKeys, &mockBackupCodeRepo{}, &mockOAuthAccountRepo{})

	matched, err := svc.ValidateApiKey(context.Background(), plaintext, "write:uploads")
	require.Error(t, err)
	require.Nil(t, matched)
}

func TestDisableTOTP_WrongPasswordRejected(t *testing.T) {
	hasher := password.NewArgon2Hasher()
	hash, err := hasher.Hash("correct-horse-battery-staple1A")
	require.NoError(t, err)
	secret := "JBSWY3DPEHPK3PXP"

	user := &domain.User{ID: "u1", Email: "jane@example.com", PasswordHash: &hash, TOTPSecret: &secret}

	users := &mockUserRepo{}
	users.On("FindByID", mock.Anything, "u1").Return(user, nil)

	svc := newTestService(users, &mockTenantRepo{}, &mockAPIKeyRepo{}, &mockBackupCodeRepo{}, &mockOAuthAccountRepo{})

	err = svc.DisableTOTP(context.Background(), "u1", "wrong-password")
	require.Error(t, err)
}
