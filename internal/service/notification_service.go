package service

import (
	"context"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/internal/infrastructure/email"
	"github.com/AadityaUoHyd/ABCart/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// NotificationService formats and dispatches order confirmations. It
// keeps no sent-marker: duplicate sends under event redelivery are
// tolerated by the order-level idempotency guard upstream.
type NotificationService struct {
	emailSender email.Sender
	logger      *zap.Logger
	tracer      trace.Tracer
}

func NewNotificationService(emailSender email.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		emailSender: emailSender,
		logger:      logger,
		tracer:      otel.Tracer("notification_service"),
	}
}

func (s *NotificationService) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.SendOrderConfirmation")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_number", order.OrderNumber),
	)

	items := make([]domain.ConfirmationItem, 0, len(order.Items))
	for _, item := range order.Items {
		ref := item.ProductRef
		if ref == "" {
			ref = "Unknown"
		}

		items = append(items, domain.ConfirmationItem{
			Name:     "Product ID: " + ref,
			Quantity: item.Quantity,
		})
	}

	job := &domain.OrderConfirmation{
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.Email,
		TotalPrice:    order.TotalPrice,
		Currency:      order.Currency,
		Items:         items,
		OrderDate:     order.OrderDate,
	}

	if err := s.emailSender.SendOrderConfirmation(ctx, job); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Error dispatching order confirmation",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)

		return err
	}

	return nil
}
