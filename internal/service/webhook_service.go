package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/internal/infrastructure/payments"
	"github.com/AadityaUoHyd/ABCart/internal/repository"
	"github.com/AadityaUoHyd/ABCart/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	createOrderAttempts = 3
	defaultRetryBackoff = time.Second
)

// Notifier dispatches the confirmation for a persisted order.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error
}

type WebhookService interface {
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type webhookService struct {
	provider     payments.Provider
	orders       repository.OrderRepository
	notifier     Notifier
	logger       *zap.Logger
	tracer       trace.Tracer
	retryBackoff time.Duration
}

func NewWebhookService(
	provider payments.Provider,
	orders repository.OrderRepository,
	notifier Notifier,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		provider:     provider,
		orders:       orders,
		notifier:     notifier,
		logger:       logger,
		tracer:       otel.Tracer("webhook_service"),
		retryBackoff: defaultRetryBackoff,
	}
}

// HandleEvent verifies, routes and processes one webhook delivery. Any
// failure after routing escalates so the provider redelivers the whole
// event; the order insert is idempotent under redelivery.
func (s *webhookService) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	ctx, span := s.tracer.Start(ctx, "WebhookService.HandleEvent")
	defer span.End()

	event, err := s.provider.VerifyEvent(payload, sigHeader)
	if err != nil {
		span.RecordError(err)

		mylogger.Warn(
			ctx,
			s.logger,
			"Webhook verification failed",
			zap.Error(err),
		)

		return err
	}

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("event_type", event.Type),
	)

	if event.Type != domain.EventCheckoutSessionCompleted || event.Completed == nil {
		mylogger.Info(
			ctx,
			s.logger,
			"Ignored event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
		)

		return nil
	}

	order, err := s.materializeOrder(ctx, event.Completed)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Error processing webhook",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)

		return err
	}

	if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Error sending order confirmation",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)

		return err
	}

	return nil
}

// materializeOrder recovers the order context from the session metadata,
// reads the authoritative line items back from the provider and persists
// the order with bounded retry.
func (s *webhookService) materializeOrder(ctx context.Context, completed *domain.CheckoutSessionCompleted) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "WebhookService.materializeOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", completed.SessionID),
	)

	if err := completed.Metadata.Validate(); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Missing metadata fields",
			zap.String("session_id", completed.SessionID),
			zap.String("order_number", completed.Metadata.OrderNumber),
		)

		return nil, err
	}

	lineItems, err := s.provider.SessionLineItems(ctx, completed.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session line items: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(lineItems))
	for _, li := range lineItems {
		if li.Quantity <= 0 {
			continue
		}

		// Items without a catalog-resolvable id are kept quantity-only,
		// never dropped.
		if li.ProductRef == "" {
			mylogger.Warn(
				ctx,
				s.logger,
				"Line item has no catalog reference",
				zap.String("session_id", completed.SessionID),
				zap.String("name", li.Name),
			)
		}

		items = append(items, domain.OrderItem{
			ProductRef: li.ProductRef,
			Quantity:   li.Quantity,
		})
	}

	currency := strings.ToUpper(completed.Currency)
	if currency == "" {
		currency = "INR"
	}

	customerRef := completed.CustomerRef
	if customerRef == "" {
		customerRef = completed.Metadata.CustomerEmail
	}

	order := &domain.Order{
		OrderNumber:       completed.Metadata.OrderNumber,
		CheckoutSessionID: completed.SessionID,
		PaymentIntentID:   completed.PaymentIntentRef,
		CustomerName:      completed.Metadata.CustomerName,
		StripeCustomerID:  customerRef,
		ClerkUserID:       completed.Metadata.ClerkUserID,
		Email:             completed.Metadata.CustomerEmail,
		Currency:          currency,
		DiscountAmount:    float64(completed.DiscountMinor) / 100,
		TotalPrice:        float64(completed.AmountTotal) / 100,
		Status:            domain.OrderStatusPaid,
		OrderDate:         time.Now().UTC(),
		Items:             items,
	}

	if err := s.persistWithRetry(ctx, order); err != nil {
		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order materialized",
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total_price", order.TotalPrice),
		zap.String("currency", order.Currency),
	)

	return order, nil
}

// persistWithRetry retries transient store failures a bounded number of
// times with a fixed backoff. A pre-existing order with the same number
// is a success, not an error: the event was redelivered.
func (s *webhookService) persistWithRetry(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 1; attempt <= createOrderAttempts; attempt++ {
		err = s.orders.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}

		if errors.Is(err, repository.ErrOrderExists) {
			mylogger.Info(
				ctx,
				s.logger,
				"Order already exists, treating redelivery as success",
				zap.String("order_number", order.OrderNumber),
			)

			existing, getErr := s.orders.GetByOrderNumber(ctx, order.OrderNumber)
			if getErr != nil {
				mylogger.Warn(
					ctx,
					s.logger,
					"Failed to load existing order, using materialized copy",
					zap.String("order_number", order.OrderNumber),
					zap.Error(getErr),
				)

				return nil
			}

			*order = *existing
			return nil
		}

		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to persist order",
			zap.String("order_number", order.OrderNumber),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < createOrderAttempts {
			time.Sleep(s.retryBackoff)
		}
	}

	return fmt.Errorf("failed to create order after %d attempts: %w", createOrderAttempts, err)
}
