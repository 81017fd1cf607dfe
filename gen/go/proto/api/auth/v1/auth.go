// Package authv1 holds the hand-authored request/response types and
// service registration for the Auth Engine's gRPC surface. It plays the
// role protoc-gen-go-grpc output would normally fill; the .proto files
// under proto/auth/v1 are the source of truth this file is kept in sync
// with by hand.
package authv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type RegisterRequest struct {
	Email      string
	Password   string
	TenantName string
}

type LoginRequest struct {
	Email    string
	Password string
	TotpCode string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type LogoutRequest struct {
	RefreshToken string
	AccessToken  string
}

type LogoutResponse struct{}

type RefreshTokenRequest struct {
	RefreshToken string
}

type ValidateTokenRequest struct {
	AccessToken string
}

type ValidateTokenResponse struct {
	UserId   string
	TenantId string
	Email    string
	Roles    []string
}

type CreateApiKeyRequest struct {
	UserId   string
	TenantId string
	Name     string
	Scopes   []string
}

type CreateApiKeyResponse struct {
	PlaintextKey string
}

type ValidateApiKeyRequest struct {
	Key            string
	RequestedScope string
}

type ValidateApiKeyResponse struct {
	KeyId    string
	UserId   string
	TenantId string
}

type EnrollTOTPRequest struct {
	UserId string
}

type EnrollTOTPResponse struct {
	Secret          string
	ProvisioningUri string
	BackupCodes     []string
}

type VerifyTOTPRequest struct {
	UserId string
	Code   string
}

type VerifyTOTPResponse struct {
	Valid bool
}

type DisableTOTPRequest struct {
	UserId          string
	CurrentPassword string
}

type GenerateBackupCodesRequest struct {
	UserId string
}

type GenerateBackupCodesResponse struct {
	Codes []string
}

type SendOTPRequest struct {
	Email   string
	Purpose string
}

type SendOTPResponse struct {
	Sent      bool
	ExpiresAt int64
}

type VerifyOTPRequest struct {
	Email   string
	Code    string
	Purpose string
}

type VerifyOTPResponse struct {
	Valid bool
}

type InitiateOAuthRequest struct {
	Provider    string
	RedirectUri string
}

type InitiateOAuthResponse struct {
	AuthorizationUrl string
}

type OAuthCallbackRequest struct {
	Provider    string
	State       string
	Code        string
	RedirectUri string
}

type OAuthCallbackResponse struct {
	Tokens    *TokenPair
	IsNewUser bool
}

// AuthServiceServer is implemented by the Auth Engine's gRPC handler.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*TokenPair, error)
	Login(context.Context, *LoginRequest) (*TokenPair, error)
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*TokenPair, error)
	ValidateToken(context.Context, *ValidateTokenRequest) (*ValidateTokenResponse, error)
	CreateApiKey(context.Context, *CreateApiKeyRequest) (*CreateApiKeyResponse, error)
	ValidateApiKey(context.Context, *ValidateApiKeyRequest) (*ValidateApiKeyResponse, error)
	EnrollTOTP(context.Context, *EnrollTOTPRequest) (*EnrollTOTPResponse, error)
	VerifyTOTP(context.Context, *VerifyTOTPRequest) (*VerifyTOTPResponse, error)
	DisableTOTP(context.Context, *DisableTOTPRequest) (*LogoutResponse, error)
	GenerateBackupCodes(context.Context, *GenerateBackupCodesRequest) (*GenerateBackupCodesResponse, error)
	SendOTP(context.Context, *SendOTPRequest) (*SendOTPResponse, error)
	VerifyOTP(context.Context, *VerifyOTPRequest) (*VerifyOTPResponse, error)
	InitiateOAuth(context.Context, *InitiateOAuthRequest) (*InitiateOAuthResponse, error)
	HandleOAuthCallback(context.Context, *OAuthCallbackRequest) (*OAuthCallbackResponse, error)
}

// UnimplementedAuthServiceServer satisfies AuthServiceServer with
// codes.Unimplemented responses; embed it for forward compatibility.
type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Register(context.Context, *RegisterRequest) (*TokenPair, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedAuthServiceServer) Login(context.Context, *LoginRequest) (*TokenPair, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedAuthServiceServer) Logout(context.Context, *LogoutRequest) (*LogoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}
func (UnimplementedAuthServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*TokenPair, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedAuthServiceServer) ValidateToken(context.Context, *ValidateTokenRequest) (*ValidateTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ValidateToken not implemented")
}
func (UnimplementedAuthServiceServer) CreateApiKey(context.Context, *CreateApiKeyRequest) (*CreateApiKeyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateApiKey not implemented")
}
func (UnimplementedAuthServiceServer) ValidateApiKey(context.Context, *ValidateApiKeyRequest) (*ValidateApiKeyResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ValidateApiKey not implemented")
}
func (UnimplementedAuthServiceServer) EnrollTOTP(context.Context, *EnrollTOTPRequest) (*EnrollTOTPResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method EnrollTOTP not implemented")
}
func (UnimplementedAuthServiceServer) VerifyTOTP(context.Context, *VerifyTOTPRequest) (*VerifyTOTPResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyTOTP not implemented")
}
func (UnimplementedAuthServiceServer) DisableTOTP(context.Context, *DisableTOTPRequest) (*LogoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DisableTOTP not implemented")
}
func (UnimplementedAuthServiceServer) GenerateBackupCodes(context.Context, *GenerateBackupCodesRequest) (*GenerateBackupCodesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GenerateBackupCodes not implemented")
}
func (UnimplementedAuthServiceServer) SendOTP(context.Context, *SendOTPRequest) (*SendOTPResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendOTP not implemented")
}
func (UnimplementedAuthServiceServer) VerifyOTP(context.Context, *VerifyOTPRequest) (*VerifyOTPResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method VerifyOTP not implemented")
}
func (UnimplementedAuthServiceServer) InitiateOAuth(context.Context, *InitiateOAuthRequest) (*InitiateOAuthResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method InitiateOAuth not implemented")
}
func (UnimplementedAuthServiceServer) HandleOAuthCallback(context.Context, *OAuthCallbackRequest) (*OAuthCallbackResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method HandleOAuthCallback not implemented")
}

// RegisterAuthServiceServer wires srv into the gRPC server's method table.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&authServiceDesc, srv)
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: "saasforge.auth.v1.AuthService",
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.Register(ctx, r.(*RegisterRequest))
		}, func() interface{} { return &RegisterRequest{} } )},
		{MethodName: "Login", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.Login(ctx, r.(*LoginRequest))
		}, func() interface{} { return &LoginRequest{} } )},
		{MethodName: "Logout", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.Logout(ctx, r.(*LogoutRequest))
		}, func() interface{} { return &LogoutRequest{} } )},
		{MethodName: "RefreshToken", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.RefreshToken(ctx, r.(*RefreshTokenRequest))
		}, func() interface{} { return &RefreshTokenRequest{} } )},
		{MethodName: "ValidateToken", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.ValidateToken(ctx, r.(*ValidateTokenRequest))
		}, func() interface{} { return &ValidateTokenRequest{} } )},
		{MethodName: "CreateApiKey", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.CreateApiKey(ctx, r.(*CreateApiKeyRequest))
		}, func() interface{} { return &CreateApiKeyRequest{} } )},
		{MethodName: "ValidateApiKey", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.ValidateApiKey(ctx, r.(*ValidateApiKeyRequest))
		}, func() interface{} { return &ValidateApiKeyRequest{} } )},
		{MethodName: "EnrollTOTP", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.EnrollTOTP(ctx, r.(*EnrollTOTPRequest))
		}, func() interface{} { return &EnrollTOTPRequest{} } )},
		{MethodName: "VerifyTOTP", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.VerifyTOTP(ctx, r.(*VerifyTOTPRequest))
		}, func() interface{} { return &VerifyTOTPRequest{} } )},
		{MethodName: "DisableTOTP", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.DisableTOTP(ctx, r.(*DisableTOTPRequest))
		}, func() interface{} { return &DisableTOTPRequest{} } )},
		{MethodName: "GenerateBackupCodes", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.GenerateBackupCodes(ctx, r.(*GenerateBackupCodesRequest))
		}, func() interface{} { return &GenerateBackupCodesRequest{} } )},
		{MethodName: "SendOTP", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.SendOTP(ctx, r.(*SendOTPRequest))
		}, func() interface{} { return &SendOTPRequest{} } )},
		{MethodName: "VerifyOTP", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.VerifyOTP(ctx, r.(*VerifyOTPRequest))
		}, func() interface{} { return &VerifyOTPRequest{} } )},
		{MethodName: "InitiateOAuth", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.InitiateOAuth(ctx, r.(*InitiateOAuthRequest))
		}, func() interface{} { return &InitiateOAuthRequest{} } )},
		{MethodName: "HandleOAuthCallback", Handler: unaryHandler(func(s AuthServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.HandleOAuthCallback(ctx, r.(*OAuthCallbackRequest))
		}, func() interface{} { return &OAuthCallbackRequest{} } )},
	},
	Metadata: "proto/auth/v1/auth.proto",
}

// unaryHandler adapts a typed method into the grpc.methodHandler shape,
// decoding into a fresh request value per call (concurrent RPCs must
// not share one), running any registered interceptor chain, and
// dispatching to fn.
func unaryHandler(
	fn func(srv AuthServiceServer, ctx context.Context, req interface{}) (interface{}, error),
	newReq func() interface{},
) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "saasforge.auth.v1.AuthService"}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(srv.(AuthServiceServer), ctx, req)
		}
		return interceptor(ctx, in, info, handler)
	}
}
