package handlers

import (
	"context"

	emailv1 "github.com/fkheinstein204/saasforge/gen/go/proto/api/email/v1"
	"github.com/fkheinstein204/saasforge/pkg/errors"
	"github.com/fkheinstein204/saasforge/pkg/logger"
	"github.com/fkheinstein204/saasforge/pkg/tenantctx"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/domain"
	"github.com/fkheinstein204/saasforge/services/email-service/internal/service"
)

// EmailHandler adapts the Email Queue to the gRPC wire contract. Every
// RPC is tenant-scoped off the validated bearer claims attached by the
// tenant-context interceptor, except SuppressAddress which is a global
// operation on the suppression list. GetBounceRate rejects a tenant_id
// other than the caller's; an empty tenant_id covers all tenants.
type EmailHandler struct {
	emailv1.UnimplementedEmailServiceServer
	emails service.EmailService
	log    logger.Logger
}

func NewEmailHandler(emails service.EmailService, log logger.Logger) *EmailHandler {
	return &EmailHandler{emails: emails, log: log}
}

func (h *EmailHandler) EnqueueEmail(ctx context.Context, req *emailv1.EnqueueEmailRequest) (*emailv1.EnqueueEmailResponse, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}

	email, svcErr := h.emails.Enqueue(ctx, service.EnqueueRequest{
		TenantID:   tenantID,
		UserID:     req.UserId,
		Recipient:  req.Recipient,
		Subject:    req.Subject,
		HTML:       req.Html,
		Text:       req.Text,
		TemplateID: req.TemplateId,
		Priority:   int(req.Priority),
	})
	if svcErr != nil {
		return nil, toGRPCErr(svcErr)
	}
	return &emailv1.EnqueueEmailResponse{EmailId: email.ID, Status: string(email.Status)}, nil
}

func (h *EmailHandler) SuppressAddress(ctx context.Context, req *emailv1.SuppressAddressRequest) (*emailv1.SuppressAddressResponse, error) {
	if _, err := requireTenant(ctx); err != nil {
		return nil, err
	}
	if err := h.emails.Suppress(ctx, req.Address, req.Reason); err != nil {
		return nil, toGRPCErr(err)
	}
	return &emailv1.SuppressAddressResponse{}, nil
}

func (h *EmailHandler) GetBounceRate(ctx context.Context, req *emailv1.GetBounceRateRequest) (*emailv1.GetBounceRateResponse, error) {
	tenantID, err := requireTenant(ctx)
	if err != nil {
		return nil, err
	}
	if req.TenantId != "" && req.TenantId != tenantID {
		return nil, toGRPCErr(errors.New(errors.ErrForbidden, "tenant mismatch"))
	}
	hours := int(req.Hours)
	if hours <= 0 {
		hours = 24
	}
	rate, svcErr := h.emails.GetBounceRate(ctx, req.TenantId, hours)
	if svcErr != nil {
		return nil, toGRPCErr(svcErr)
	}
	return &emailv1.GetBounceRateResponse{
		BouncePercent:  rate,
		AlertTriggered: rate >= domain.BounceRateAlertThreshold,
	}, nil
}

func requireTenant(ctx context.Context) (string, error) {
	tc, _ := tenantctx.FromContext(ctx)
	if tc == nil || !tc.Validated || tc.TenantID == "" {
		return "", toGRPCErr(errors.New(errors.ErrUnauthorized, "invalid token"))
	}
	return tc.TenantID, nil
}

func toGRPCErr(err error) error {
	if appErr, ok := err.(*errors.Error); ok {
		return appErr.ToGRPCErr()
	}
	return errors.Wrap(err, errors.ErrInternal, "internal error").ToGRPCErr()
}
