package service

import (
	"context"
	"fmt"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/internal/infrastructure/payments"
	"github.com/AadityaUoHyd/ABCart/pkg/mylogger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, req *domain.CheckoutRequest) (string, error)
}

type checkoutService struct {
	provider payments.Provider
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewCheckoutService(provider payments.Provider, logger *zap.Logger) CheckoutService {
	return &checkoutService{
		provider: provider,
		logger:   logger,
		tracer:   otel.Tracer("checkout_service"),
	}
}

// CreateCheckoutSession validates the cart, reuses an existing provider
// customer by exact email, and returns the redirect URL. This is a
// synchronous user-facing request: validation and provider errors
// surface unmodified, nothing is retried.
func (s *checkoutService) CreateCheckoutSession(ctx context.Context, req *domain.CheckoutRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.CreateCheckoutSession")
	defer span.End()

	if req.Metadata.OrderNumber == "" {
		req.Metadata.OrderNumber = uuid.NewString()
	}

	span.SetAttributes(
		attribute.String("order_number", req.Metadata.OrderNumber),
		attribute.Int("items_count", len(req.Items)),
	)

	if err := req.Validate(); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Checkout request validation failed",
			zap.String("order_number", req.Metadata.OrderNumber),
			zap.Error(err),
		)

		return "", err
	}

	customerID, err := s.provider.FindCustomerByEmail(ctx, req.Metadata.CustomerEmail)
	if err != nil {
		span.RecordError(err)

		return "", fmt.Errorf("failed to look up customer: %w", err)
	}

	url, err := s.provider.CreateCheckoutSession(ctx, req, customerID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Error creating checkout session",
			zap.String("order_number", req.Metadata.OrderNumber),
			zap.Error(err),
		)

		return "", err
	}

	return url, nil
}
