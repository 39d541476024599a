package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/pkg/mylogger"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Provider interface {
	VerifyEvent(payload []byte, sigHeader string) (*domain.PaymentEvent, error)
	SessionLineItems(ctx context.Context, sessionID string) ([]domain.ProviderLineItem, error)
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	CreateCheckoutSession(ctx context.Context, req *domain.CheckoutRequest, customerID string) (string, error)
}

type Config struct {
	APIKey        string
	WebhookSecret string
	BaseURL       string
}

type stripeProvider struct {
	api           *client.API
	webhookSecret string
	baseURL       string
	logger        *zap.Logger
	tracer        trace.Tracer
}

func NewStripeProvider(cfg Config, logger *zap.Logger) Provider {
	api := &client.API{}
	api.Init(cfg.APIKey, nil)

	return &stripeProvider{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		baseURL:       cfg.BaseURL,
		logger:        logger,
		tracer:        otel.Tracer("infrastructure/payments"),
	}
}

// VerifyEvent authenticates the raw webhook body against the signing
// secret (HMAC with Stripe's timestamp tolerance) and maps the event to
// the domain model. Any mismatch is a permanent rejection.
func (p *stripeProvider) VerifyEvent(payload []byte, sigHeader string) (*domain.PaymentEvent, error) {
	if sigHeader == "" {
		return nil, fmt.Errorf("%w: no signature header", domain.ErrVerification)
	}
	if p.webhookSecret == "" {
		return nil, fmt.Errorf("%w: stripe webhook secret is not set", domain.ErrConfiguration)
	}

	evt, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVerification, err)
	}

	event := &domain.PaymentEvent{
		ID:   evt.ID,
		Type: string(evt.Type),
	}

	if event.Type != domain.EventCheckoutSessionCompleted {
		return event, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("%w: malformed session payload: %v", domain.ErrVerification, err)
	}

	completed := &domain.CheckoutSessionCompleted{
		SessionID:   session.ID,
		AmountTotal: session.AmountTotal,
		Currency:    string(session.Currency),
		Metadata: domain.Metadata{
			OrderNumber:   session.Metadata["orderNumber"],
			CustomerName:  session.Metadata["customerName"],
			CustomerEmail: session.Metadata["customerEmail"],
			ClerkUserID:   session.Metadata["clerkUserId"],
		},
	}

	if session.Customer != nil {
		completed.CustomerRef = session.Customer.ID
	}
	if session.PaymentIntent != nil {
		completed.PaymentIntentRef = session.PaymentIntent.ID
	}
	if session.TotalDetails != nil {
		completed.DiscountMinor = session.TotalDetails.AmountDiscount
	}

	event.Completed = completed
	return event, nil
}

// SessionLineItems reads back the authoritative priced quantities for a
// session. Client-supplied cart data is never trusted for the persisted
// record.
func (p *stripeProvider) SessionLineItems(ctx context.Context, sessionID string) ([]domain.ProviderLineItem, error) {
	ctx, span := p.tracer.Start(ctx, "StripeProvider.SessionLineItems")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", sessionID),
	)

	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.AddExpand("data.price.product")

	var items []domain.ProviderLineItem

	iter := p.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()

		item := domain.ProviderLineItem{Quantity: li.Quantity}
		if li.Price != nil && li.Price.Product != nil {
			item.ProductRef = li.Price.Product.Metadata["id"]
			item.Name = li.Price.Product.Name
		}

		items = append(items, item)
	}

	if err := iter.Err(); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			p.logger,
			"Failed to list session line items",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to list line items: %w", err)
	}

	return items, nil
}

// FindCustomerByEmail returns an existing Stripe customer id for the
// exact email, first result wins. Empty when none exists.
func (p *stripeProvider) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "StripeProvider.FindCustomerByEmail")
	defer span.End()

	params := &stripe.CustomerListParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := p.api.Customers.List(params)
	if iter.Next() {
		return iter.Customer().ID, nil
	}

	if err := iter.Err(); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			p.logger,
			"Failed to list customers",
			zap.Error(err),
		)

		return "", fmt.Errorf("failed to list customers: %w", err)
	}

	return "", nil
}

func (p *stripeProvider) CreateCheckoutSession(ctx context.Context, req *domain.CheckoutRequest, customerID string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "StripeProvider.CreateCheckoutSession")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_number", req.Metadata.OrderNumber),
		attribute.Int("items_count", len(req.Items)),
	)

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		name := item.Product.Name
		if name == "" {
			name = "Unnamed Product"
		}

		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:     stripe.String(name),
			Metadata: map[string]string{"id": item.Product.ID},
		}
		if item.Product.Description != "" {
			productData.Description = stripe.String(item.Product.Description)
		}
		if item.Product.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{item.Product.ImageURL})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyINR)),
				UnitAmount:  stripe.Int64(int64(math.Round(item.Product.Price * 100))),
				ProductData: productData,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AllowPromotionCodes:      stripe.Bool(true),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		SuccessURL: stripe.String(fmt.Sprintf(
			"%s/success?session_id={CHECKOUT_SESSION_ID}&orderNumber=%s",
			p.baseURL, req.Metadata.OrderNumber,
		)),
		CancelURL: stripe.String(p.baseURL + "/cart"),
		LineItems: lineItems,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Description:  stripe.String(fmt.Sprintf("Order %s by %s", req.Metadata.OrderNumber, req.Metadata.CustomerName)),
			ReceiptEmail: stripe.String(req.Metadata.CustomerEmail),
			Shipping: &stripe.ShippingDetailsParams{
				Name: stripe.String(req.Metadata.CustomerName),
				Address: &stripe.AddressParams{
					Line1:      stripe.String(req.Address.Line1),
					City:       stripe.String(req.Address.City),
					State:      stripe.String(req.Address.State),
					PostalCode: stripe.String(req.Address.PostalCode),
					Country:    stripe.String(req.Address.Country),
				},
			},
		},
	}
	params.Context = ctx

	params.AddMetadata("orderNumber", req.Metadata.OrderNumber)
	params.AddMetadata("customerName", req.Metadata.CustomerName)
	params.AddMetadata("customerEmail", req.Metadata.CustomerEmail)
	params.AddMetadata("clerkUserId", req.Metadata.ClerkUserID)

	if customerID != "" {
		params.Customer = stripe.String(customerID)
	} else {
		params.CustomerEmail = stripe.String(req.Metadata.CustomerEmail)
	}

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			p.logger,
			"Failed to create checkout session",
			zap.String("order_number", req.Metadata.OrderNumber),
			zap.Error(err),
		)

		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	mylogger.Info(
		ctx,
		p.logger,
		"Checkout session created",
		zap.String("order_number", req.Metadata.OrderNumber),
		zap.String("session_id", session.ID),
	)

	return session.URL, nil
}
