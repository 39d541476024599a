package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(t *testing.T, secret string, payload []byte, ts time.Time) string {
	t.Helper()

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))

	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func completedSessionPayload() []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"api_version": %q,
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"amount_total": 349900,
				"currency": "inr",
				"customer": "cus_1",
				"payment_intent": "pi_1",
				"total_details": {"amount_discount": 5000},
				"metadata": {
					"orderNumber": "ord-123",
					"customerName": "Asha Rao",
					"customerEmail": "asha@example.com",
					"clerkUserId": "user_1"
				}
			}
		}
	}`, stripe.APIVersion))
}

func newTestProvider(secret string) Provider {
	return NewStripeProvider(Config{
		APIKey:        "sk_test_key",
		WebhookSecret: secret,
		BaseURL:       "https://abcart.example.com",
	}, zap.NewNop())
}

// newCapturingProvider routes the Stripe client at a local server and
// records the form-encoded body of every request it receives.
func newCapturingProvider(t *testing.T, captured *url.Values) (Provider, func()) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		*captured, err = url.ParseQuery(string(body))
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`)
	}))

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:           stripe.String(srv.URL),
		LeveledLogger: &stripe.LeveledLogger{Level: stripe.LevelNull},
	})

	api := &client.API{}
	api.Init("sk_test_key", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	provider := &stripeProvider{
		api:           api,
		webhookSecret: testWebhookSecret,
		baseURL:       "https://abcart.example.com",
		logger:        zap.NewNop(),
		tracer:        otel.Tracer("infrastructure/payments"),
	}

	return provider, srv.Close
}

func sessionRequest() *domain.CheckoutRequest {
	return &domain.CheckoutRequest{
		Items: []domain.GroupedCartItem{
			{
				Product: domain.CartProduct{
					ID:    "prod-1",
					Name:  "Silk Saree",
					Price: 34.99,
				},
				Quantity: 2,
			},
			{
				Product: domain.CartProduct{
					ID:    "prod-2",
					Name:  "Lehenga",
					Price: 1099.99,
				},
				Quantity: 1,
			},
		},
		Metadata: domain.Metadata{
			OrderNumber:   "ord-123",
			CustomerName:  "Asha Rao",
			CustomerEmail: "asha@example.com",
			ClerkUserID:   "user_1",
		},
		Address: domain.Address{
			Line1:      "12 MG Road",
			City:       "Hyderabad",
			State:      "Telangana",
			PostalCode: "500001",
			Country:    "IN",
		},
	}
}

func TestCreateCheckoutSession_BuildsSessionParams(t *testing.T) {
	var captured url.Values
	provider, done := newCapturingProvider(t, &captured)
	defer done()

	sessionURL, err := provider.CreateCheckoutSession(context.Background(), sessionRequest(), "cus_123")

	require.NoError(t, err)
	require.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", sessionURL)

	// Major-unit prices become paise by rounding, never truncation.
	require.Equal(t, "3499", captured.Get("line_items[0][price_data][unit_amount]"))
	require.Equal(t, "109999", captured.Get("line_items[1][price_data][unit_amount]"))
	require.Equal(t, "inr", captured.Get("line_items[0][price_data][currency]"))
	require.Equal(t, "2", captured.Get("line_items[0][quantity]"))
	require.Equal(t, "Silk Saree", captured.Get("line_items[0][price_data][product_data][name]"))
	require.Equal(t, "prod-1", captured.Get("line_items[0][price_data][product_data][metadata][id]"))
	require.Equal(t, "prod-2", captured.Get("line_items[1][price_data][product_data][metadata][id]"))

	require.Equal(t, "ord-123", captured.Get("metadata[orderNumber]"))
	require.Equal(t, "Asha Rao", captured.Get("metadata[customerName]"))
	require.Equal(t, "asha@example.com", captured.Get("metadata[customerEmail]"))
	require.Equal(t, "user_1", captured.Get("metadata[clerkUserId]"))

	require.Equal(t, "payment", captured.Get("mode"))
	require.Equal(t,
		"https://abcart.example.com/success?session_id={CHECKOUT_SESSION_ID}&orderNumber=ord-123",
		captured.Get("success_url"),
	)
	require.Equal(t, "https://abcart.example.com/cart", captured.Get("cancel_url"))

	require.Equal(t, "Hyderabad", captured.Get("payment_intent_data[shipping][address][city]"))
	require.Equal(t, "asha@example.com", captured.Get("payment_intent_data[receipt_email]"))
}

func TestCreateCheckoutSession_ExistingCustomerIsAttached(t *testing.T) {
	var captured url.Values
	provider, done := newCapturingProvider(t, &captured)
	defer done()

	_, err := provider.CreateCheckoutSession(context.Background(), sessionRequest(), "cus_123")

	require.NoError(t, err)
	require.Equal(t, "cus_123", captured.Get("customer"))
	require.Empty(t, captured.Get("customer_email"))
}

func TestCreateCheckoutSession_NewCustomerFallsBackToEmail(t *testing.T) {
	var captured url.Values
	provider, done := newCapturingProvider(t, &captured)
	defer done()

	_, err := provider.CreateCheckoutSession(context.Background(), sessionRequest(), "")

	require.NoError(t, err)
	require.Empty(t, captured.Get("customer"))
	require.Equal(t, "asha@example.com", captured.Get("customer_email"))
}

func TestVerifyEvent_ValidSignatureMapsSession(t *testing.T) {
	provider := newTestProvider(testWebhookSecret)

	payload := completedSessionPayload()
	sig := signPayload(t, testWebhookSecret, payload, time.Now())

	event, err := provider.VerifyEvent(payload, sig)

	require.NoError(t, err)
	require.Equal(t, "evt_1", event.ID)
	require.Equal(t, domain.EventCheckoutSessionCompleted, event.Type)
	require.NotNil(t, event.Completed)

	completed := event.Completed
	require.Equal(t, "cs_test_1", completed.SessionID)
	require.EqualValues(t, 349900, completed.AmountTotal)
	require.Equal(t, "inr", completed.Currency)
	require.Equal(t, "cus_1", completed.CustomerRef)
	require.Equal(t, "pi_1", completed.PaymentIntentRef)
	require.EqualValues(t, 5000, completed.DiscountMinor)
	require.Equal(t, "ord-123", completed.Metadata.OrderNumber)
	require.Equal(t, "Asha Rao", completed.Metadata.CustomerName)
	require.Equal(t, "asha@example.com", completed.Metadata.CustomerEmail)
	require.Equal(t, "user_1", completed.Metadata.ClerkUserID)
}

func TestVerifyEvent_TamperedPayloadRejected(t *testing.T) {
	provider := newTestProvider(testWebhookSecret)

	payload := completedSessionPayload()
	sig := signPayload(t, testWebhookSecret, payload, time.Now())

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = ' '

	_, err := provider.VerifyEvent(tampered, sig)

	require.ErrorIs(t, err, domain.ErrVerification)
}

func TestVerifyEvent_WrongSecretRejected(t *testing.T) {
	provider := newTestProvider(testWebhookSecret)

	payload := completedSessionPayload()
	sig := signPayload(t, "whsec_other_secret", payload, time.Now())

	_, err := provider.VerifyEvent(payload, sig)

	require.ErrorIs(t, err, domain.ErrVerification)
}

func TestVerifyEvent_MissingSignatureHeader(t *testing.T) {
	provider := newTestProvider(testWebhookSecret)

	_, err := provider.VerifyEvent(completedSessionPayload(), "")

	require.ErrorIs(t, err, domain.ErrVerification)
}

func TestVerifyEvent_StaleTimestampRejected(t *testing.T) {
	provider := newTestProvider(testWebhookSecret)

	payload := completedSessionPayload()
	sig := signPayload(t, testWebhookSecret, payload, time.Now().Add(-10*time.Minute))

	_, err := provider.VerifyEvent(payload, sig)

	require.ErrorIs(t, err, domain.ErrVerification)
}

func TestVerifyEvent_MissingSecretIsConfigurationError(t *testing.T) {
	provider := newTestProvider("")

	payload := completedSessionPayload()
	sig := signPayload(t, testWebhookSecret, payload, time.Now())

	_, err := provider.VerifyEvent(payload, sig)

	require.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestVerifyEvent_OtherEventTypesPassThrough(t *testing.T) {
	provider := newTestProvider(testWebhookSecret)

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_2",
		"type": "payment_intent.created",
		"api_version": %q,
		"data": {"object": {"id": "pi_2", "object": "payment_intent"}}
	}`, stripe.APIVersion))
	sig := signPayload(t, testWebhookSecret, payload, time.Now())

	event, err := provider.VerifyEvent(payload, sig)

	require.NoError(t, err)
	require.Equal(t, "payment_intent.created", event.Type)
	require.Nil(t, event.Completed)
}
