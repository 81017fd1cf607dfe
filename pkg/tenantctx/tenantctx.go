// Package tenantctx binds an inbound RPC to the caller's identity,
// either by validating a bearer access token or, in legacy mode, by
// trusting metadata headers outright.
package tenantctx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/fkheinstein204/saasforge/pkg/authtoken"
)

// Context is the per-call identity an RPC handler reads. Validated is
// false in Unsafe mode and MUST be treated as carrying no authority.
type Context struct {
	TenantID  string
	UserID    string
	Email     string
	Roles     []string
	Validated bool
}

type ctxKey struct{}

// WithContext attaches tc to ctx for downstream handlers.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext retrieves the tenant context bound by an interceptor.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(*Context)
	return tc, ok
}

// UnaryInterceptor runs the Validated extraction mode: it decodes the
// bearer token via validator, and rejects outright when an x-tenant-id
// header disagrees with the token's own tenant claim.
func UnaryInterceptor(validator *authtoken.Manager) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		tc, err := extractValidated(ctx, validator)
		if err != nil {
			return nil, err
		}
		return handler(WithContext(ctx, tc), req)
	}
}

func extractValidated(ctx context.Context, validator *authtoken.Manager) (*Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	token := firstValue(md, "authorization")
	if token == "" {
		return &Context{Validated: false}, nil
	}
	token = stripBearerPrefix(token)

	claims, err := validator.Validate(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired credential")
	}

	if headerTenant := firstValue(md, "x-tenant-id"); headerTenant != "" && headerTenant != claims.TenantID {
		return nil, status.Error(codes.PermissionDenied, "tenant mismatch")
	}

	return &Context{
		TenantID:  claims.TenantID,
		UserID:    claims.UserID,
		Email:     claims.Email,
		Roles:     claims.Roles,
		Validated: true,
	}, nil
}

// ExtractUnsafe implements the legacy mode: it trusts x-tenant-id,
// x-user-id and x-user-email metadata headers verbatim and returns a
// context with Validated=false. Callers MUST NOT authorize privileged
// actions from it.
func ExtractUnsafe(ctx context.Context) *Context {
	md, _ := metadata.FromIncomingContext(ctx)
	return &Context{
		TenantID:  firstValue(md, "x-tenant-id"),
		UserID:    firstValue(md, "x-user-id"),
		Email:     firstValue(md, "x-user-email"),
		Validated: false,
	}
}

func firstValue(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func stripBearerPrefix(value string) string {
	const prefix = "Bearer "
	if len(value) > len(prefix) && value[:len(prefix)] == prefix {
		return value[len(prefix):]
	}
	return value
}
