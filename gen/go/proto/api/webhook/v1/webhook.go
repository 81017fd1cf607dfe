// Package webhookv1 holds the hand-authored request/response types and
// service registration for the Webhook Delivery Engine's gRPC surface.
// It plays the role protoc-gen-go-grpc output would normally fill; the
// .proto files under proto/webhook/v1 are the source of truth this
// file is kept in sync with by hand.
package webhookv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type RegisterWebhookRequest struct {
	Url        string
	EventTypes []string
}

type WebhookResponse struct {
	Id                   string
	Url                  string
	EventTypes           []string
	Status               string
	ConsecutiveFailures  int32
	DisabledReason       string
}

type QueueDeliveryRequest struct {
	WebhookId string
	EventType string
	Payload   []byte
}

type QueueDeliveryResponse struct {
	DeliveryId string
	Status     string
}

// WebhookServiceServer is implemented by the Webhook Delivery Engine's
// gRPC handler.
type WebhookServiceServer interface {
	RegisterWebhook(context.Context, *RegisterWebhookRequest) (*WebhookResponse, error)
	QueueDelivery(context.Context, *QueueDeliveryRequest) (*QueueDeliveryResponse, error)
}

// UnimplementedWebhookServiceServer satisfies WebhookServiceServer with
// codes.Unimplemented responses; embed it for forward compatibility.
type UnimplementedWebhookServiceServer struct{}

func (UnimplementedWebhookServiceServer) RegisterWebhook(context.Context, *RegisterWebhookRequest) (*WebhookResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterWebhook not implemented")
}
func (UnimplementedWebhookServiceServer) QueueDelivery(context.Context, *QueueDeliveryRequest) (*QueueDeliveryResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method QueueDelivery not implemented")
}

// RegisterWebhookServiceServer wires srv into the gRPC server's method table.
func RegisterWebhookServiceServer(s grpc.ServiceRegistrar, srv WebhookServiceServer) {
	s.RegisterService(&webhookServiceDesc, srv)
}

var webhookServiceDesc = grpc.ServiceDesc{
	ServiceName: "saasforge.webhook.v1.WebhookService",
	HandlerType: (*WebhookServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterWebhook", Handler: unaryHandler(func(s WebhookServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.RegisterWebhook(ctx, r.(*RegisterWebhookRequest))
		}, func() interface{} { return &RegisterWebhookRequest{} })},
		{MethodName: "QueueDelivery", Handler: unaryHandler(func(s WebhookServiceServer, ctx context.Context, r interface{}) (interface{}, error) {
			return s.QueueDelivery(ctx, r.(*QueueDeliveryRequest))
		}, func() interface{} { return &QueueDeliveryRequest{} })},
	},
	Metadata: "proto/webhook/v1/webhook.proto",
}

// unaryHandler adapts a typed method into the grpc.methodHandler shape,
// decoding into a fresh request value per call (concurrent RPCs must
// not share one), running any registered interceptor chain, and
// dispatching to fn.
func unaryHandler(
	fn func(srv WebhookServiceServer, ctx context.Context, req interface{}) (interface{}, error),
	newReq func() interface{},
) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(WebhookServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "saasforge.webhook.v1.WebhookService"}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return fn(srv.(WebhookServiceServer), ctx, req)
		}
		return interceptor(ctx, in, info, handler)
	}
}
