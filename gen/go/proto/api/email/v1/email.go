// Package emailv1 holds the hand-authored request/response types and
// service registration for the Email Queue's gRPC surface. It plays the
// role protoc-gen-go-grpc output would normally fill; the .proto files
// under proto/email/v1 are the source of truth this file is kept in
// sync with by hand.
package emailv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type EnqueueEmailRequest struct {
	UserId     string
	Recipient  string
	Subject    string
	Html       string
	Text       string
	TemplateId string
	Priority   int32
}

type EnqueueEmailResponse struct {
	EmailId string
	Status  string
}

type SuppressAddressRequest struct {
	Address string
	Reason  string
}

type SuppressAddressResponse struct{}

type GetBounceRateRequest struct {
	TenantId string
	Hours    int32
}

type GetBounceRateResponse struct {
	BouncePercent float64
	AlertTriggered bool
}

// EmailServiceServer is implemented by the Email Queue's gRPC handler.
type EmailServiceServer interface {
	EnqueueEmail(context.Context, *EnqueueEmailRequest) (*EnqueueEmailResponse, error)
	SuppressAddress(context.Context, *SuppressAddressRequest) (*SuppressAddressResponse, error)
	GetBounceRate(context.Context, *GetBounceRateRequest) (*GetBounceRateResponse, error)
}

// UnimplementedEmailServiceServer satisfies EmailServiceServer with
// codes.Unimplemented responses; embed it for forward compatibility.
type UnimplementedEmailServiceServer struct{}

func (UnimplementedEmailServiceServer) EnqueueEmail(context.Context, *EnqueueEmailRequest) (*EnqueueEmailResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method EnqueueEmail not implemented")
}
func (UnimplementedEmailServiceServer) SuppressAddress(context.Context, *SuppressAddressRequest) (*SuppressAddressResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SuppressAddress not implemented")
}
func (UnimplementedEmailServiceServer) GetBounceRate(context.Context, *GetBounceRateRequest) (*GetBounceRateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBounceRate not implemented")
}

// RegisterEmailServiceServer wires srv into the gRPC server's method table.
func RegisterEmailServiceServer(s grpc.ServiceRegistrar, srv EmailServiceServer) {
	s.RegisterService(&emailServiceDesc, srv)
}

var emailServiceDesc = grpc.ServiceDesc{
	ServiceName: "saasforge.email.v1.EmailService",
	HandlerType: (*EmailServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "EnqueueEmail", Handler: unaryHandler(func(s EmailServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.EnqueueEmail(ctx, r.(*EnqueueEmailRequest))
		}, func() interface{} { return &EnqueueEmailRequest{} })},
		{MethodName: "SuppressAddress", Handler: unaryHandler(func(s EmailServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.SuppressAddress(ctx, r.(*SuppressAddressRequest))
		}, func() interface{} { return &SuppressAddressRequest{} })},
		{MethodName: "GetBounceRate", Handler: unaryHandler(func(s EmailServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.GetBounceRate(ctx, r.(*GetBounceRateRequest))
		}, func() interface{} { return &GetBounceRateRequest{} })},
	},
	Metadata: "proto/email/v1/email.proto",
}

// unaryHandler adapts a typed method into the grpc.methodHandler shape,
// decoding into a fresh request value per call (concurrent RPCs must
// not share one), running any registered interceptor chain, and
// dispatching to fn.
func unaryHandler(
	fn func(srv EmailServiceServer, ctx context.Context, req interface{}) (interface{}, error),
	newReq func() interface{},
) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(EmailServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "saasforge.email.v1.EmailService"}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(srv.(EmailServiceServer), ctx, req)
		}
		return interceptor(ctx, in, info, handler)
	}
}
