package handlers

import (
	"context"

	authv1 "github.com/fkheinstein204/saasforge/gen/go/proto/api/auth/v1"
	"github.com/fkheinstein204/saasforge/pkg/errors"
	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/pkg/tenantctx"
	"github.com/fkheinstein204/saasforge/services/auth-service/internal/service"
)

// AuthHandler adapts the Auth Engine to the gRPC wire contract.
type AuthHandler struct {
	authv1.UnimplementedAuthServiceServer
	auth service.AuthService
	log  logger.Logger
}

func NewAuthHandler(auth service.AuthService, log logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

func (h *AuthHandler) Register(ctx context.Context, req *authv1.RegisterRequest) (*authv1.TokenPair, error) {
	tokens, err := h.auth.Register(ctx, req.Email, req.Password, req.TenantName)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return toProtoTokenPair(tokens), nil
}

func (h *AuthHandler) Login(ctx context.Context, req *authv1.LoginRequest) (*authv1.TokenPair, error) {
	tokens, err := h.auth.Login(ctx, req.Email, req.Password, req.TotpCode, false)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return toProtoTokenPair(tokens), nil
}

func (h *AuthHandler) Logout(ctx context.Context, req *authv1.LogoutRequest) (*authv1.LogoutResponse, error) {
	if err := h.auth.Logout(ctx, req.RefreshToken, req.AccessToken); err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.LogoutResponse{}, nil
}

func (h *AuthHandler) RefreshToken(ctx context.Context, req *authv1.RefreshTokenRequest) (*authv1.TokenPair, error) {
	tokens, err := h.auth.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return toProtoTokenPair(tokens), nil
}

// ValidateToken is served directly out of the tenant-context
// interceptor's validated claims rather than re-parsing the token here;
// callers that reach this handler have already been authenticated.
func (h *AuthHandler) ValidateToken(ctx context.Context, req *authv1.ValidateTokenRequest) (*authv1.ValidateTokenResponse, error) {
	tc, _ := tenantctx.FromContext(ctx)
	if tc == nil || !tc.Validated {
		return nil, toGRPCErr(errors.New(errors.ErrUnauthorized, "invalid token"))
	}
	return &authv1.ValidateTokenResponse{
		UserId:   tc.UserID,
		TenantId: tc.TenantID,
		Email:    tc.Email,
		Roles:    tc.Roles,
	}, nil
}

func (h *AuthHandler) CreateApiKey(ctx context.Context, req *authv1.CreateApiKeyRequest) (*authv1.CreateApiKeyResponse, error) {
	plaintext, err := h.auth.CreateApiKey(ctx, req.UserId, req.TenantId, req.Name, req.Scopes)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.CreateApiKeyResponse{PlaintextKey: plaintext}, nil
}

func (h *AuthHandler) ValidateApiKey(ctx context.Context, req *authv1.ValidateApiKeyRequest) (*authv1.ValidateApiKeyResponse, error) {
	key, err := h.auth.ValidateApiKey(ctx, req.Key, req.RequestedScope)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.ValidateApiKeyResponse{KeyId: key.ID, UserId: key.UserID, TenantId: key.TenantID}, nil
}

func (h *AuthHandler) EnrollTOTP(ctx context.Context, req *authv1.EnrollTOTPRequest) (*authv1.EnrollTOTPResponse, error) {
	secret, uri, codes, err := h.auth.EnrollTOTP(ctx, req.UserId)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.EnrollTOTPResponse{Secret: secret, ProvisioningUri: uri, BackupCodes: codes}, nil
}

func (h *AuthHandler) VerifyTOTP(ctx context.Context, req *authv1.VerifyTOTPRequest) (*authv1.VerifyTOTPResponse, error) {
	valid, err := h.auth.VerifyTOTP(ctx, req.UserId, req.Code)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.VerifyTOTPResponse{Valid: valid}, nil
}

func (h *AuthHandler) DisableTOTP(ctx context.Context, req *authv1.DisableTOTPRequest) (*authv1.LogoutResponse, error) {
	if err := h.auth.DisableTOTP(ctx, req.UserId, req.CurrentPassword); err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.LogoutResponse{}, nil
}

func (h *AuthHandler) GenerateBackupCodes(ctx context.Context, req *authv1.GenerateBackupCodesRequest) (*authv1.GenerateBackupCodesResponse, error) {
	codes, err := h.auth.GenerateBackupCodes(ctx, req.UserId)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.GenerateBackupCodesResponse{Codes: codes}, nil
}

func (h *AuthHandler) SendOTP(ctx context.Context, req *authv1.SendOTPRequest) (*authv1.SendOTPResponse, error) {
	expiresAt, ok, err := h.auth.SendOTP(ctx, req.Email, req.Purpose)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.SendOTPResponse{Sent: ok, ExpiresAt: expiresAt.Unix()}, nil
}

func (h *AuthHandler) VerifyOTP(ctx context.Context, req *authv1.VerifyOTPRequest) (*authv1.VerifyOTPResponse, error) {
	valid, err := h.auth.VerifyOTP(ctx, req.Email, req.Code, req.Purpose)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.VerifyOTPResponse{Valid: valid}, nil
}

func (h *AuthHandler) InitiateOAuth(ctx context.Context, req *authv1.InitiateOAuthRequest) (*authv1.InitiateOAuthResponse, error) {
	url, err := h.auth.InitiateOAuth(ctx, req.Provider, req.RedirectUri)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.InitiateOAuthResponse{AuthorizationUrl: url}, nil
}

func (h *AuthHandler) HandleOAuthCallback(ctx context.Context, req *authv1.OAuthCallbackRequest) (*authv1.OAuthCallbackResponse, error) {
	tokens, isNew, err := h.auth.HandleOAuthCallback(ctx, req.Provider, req.State, req.Code, req.RedirectUri)
	if err != nil {
		return nil, toGRPCErr(err)
	}
	return &authv1.OAuthCallbackResponse{Tokens: toProtoTokenPair(tokens), IsNewUser: isNew}, nil
}

func toProtoTokenPair(t *service.TokenPair) *authv1.TokenPair {
	if t == nil {
		return nil
	}
	return &authv1.TokenPair{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
	}
}

func toGRPCErr(err error) error {
	if appErr, ok := err.(*errors.Error); ok {
		return appErr.ToGRPCErr()
	}
	return errors.Wrap(err, errors.ErrInternal, "internal error").ToGRPCErr()
}
