package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCheckoutService struct {
	url     string
	err     error
	lastReq *domain.CheckoutRequest
}

func (s *stubCheckoutService) CreateCheckoutSession(ctx context.Context, req *domain.CheckoutRequest) (string, error) {
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func newCheckoutApp(svc *stubCheckoutService, userID string) *fiber.App {
	app := fiber.New()
	h := NewCheckoutHandler(svc, zap.NewNop(), 5*time.Second)
	app.Post("/api/checkout", func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("userId", userID)
		}
		return h.Create(c)
	})
	return app
}

func checkoutBody() string {
	return `{
		"items": [
			{"product": {"id": "prod-1", "name": "Silk Saree", "price": 3499.00}, "quantity": 2}
		],
		"metadata": {
			"orderNumber": "ord-123",
			"customerName": "Asha Rao",
			"customerEmail": "asha@example.com",
			"clerkUserId": "spoofed-user"
		},
		"address": {
			"line1": "12 MG Road",
			"city": "Hyderabad",
			"state": "Telangana",
			"postalCode": "500001",
			"country": "IN"
		}
	}`
}

func postCheckout(t *testing.T, app *fiber.App, body string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, "/api/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(b)
}

func TestCheckoutHandler_CreatesSession(t *testing.T) {
	svc := &stubCheckoutService{url: "https://checkout.stripe.com/c/pay/cs_test_1"}
	app := newCheckoutApp(svc, "user_1")

	status, body := postCheckout(t, app, checkoutBody())

	require.Equal(t, fiber.StatusCreated, status)

	var parsed struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	require.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", parsed.URL)
}

func TestCheckoutHandler_AuthenticatedUserOverridesClientClerkID(t *testing.T) {
	svc := &stubCheckoutService{url: "https://example.com"}
	app := newCheckoutApp(svc, "user_1")

	postCheckout(t, app, checkoutBody())

	require.NotNil(t, svc.lastReq)
	require.Equal(t, "user_1", svc.lastReq.Metadata.ClerkUserID)
}

func TestCheckoutHandler_ClientMayOmitGeneratedFields(t *testing.T) {
	svc := &stubCheckoutService{url: "https://example.com"}
	app := newCheckoutApp(svc, "user_1")

	// No orderNumber and no clerkUserId: the handler fills the identity
	// from the session and the service generates the order number.
	body := `{
		"items": [
			{"product": {"id": "prod-1", "name": "Silk Saree", "price": 3499.00}, "quantity": 2}
		],
		"metadata": {
			"customerName": "Asha Rao",
			"customerEmail": "asha@example.com"
		},
		"address": {
			"line1": "12 MG Road",
			"city": "Hyderabad",
			"state": "Telangana",
			"postalCode": "500001",
			"country": "IN"
		}
	}`

	status, _ := postCheckout(t, app, body)

	require.Equal(t, fiber.StatusCreated, status)
	require.NotNil(t, svc.lastReq)
	require.Equal(t, "user_1", svc.lastReq.Metadata.ClerkUserID)
	require.Empty(t, svc.lastReq.Metadata.OrderNumber)
}

func TestCheckoutHandler_MalformedBody(t *testing.T) {
	svc := &stubCheckoutService{}
	app := newCheckoutApp(svc, "user_1")

	status, _ := postCheckout(t, app, "{not json")

	require.Equal(t, fiber.StatusBadRequest, status)
	require.Nil(t, svc.lastReq)
}

func TestCheckoutHandler_StructValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty items", body: `{"items": [], "metadata": {"orderNumber": "o", "customerName": "n", "customerEmail": "e@x.com", "clerkUserId": "u"}}`},
		{name: "zero quantity", body: `{"items": [{"product": {"id": "p"}, "quantity": 0}], "metadata": {"orderNumber": "o", "customerName": "n", "customerEmail": "e@x.com", "clerkUserId": "u"}}`},
		{name: "item without id", body: `{"items": [{"product": {"name": "x"}, "quantity": 1}], "metadata": {"orderNumber": "o", "customerName": "n", "customerEmail": "e@x.com", "clerkUserId": "u"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubCheckoutService{}
			app := newCheckoutApp(svc, "user_1")

			status, body := postCheckout(t, app, tt.body)

			require.Equal(t, fiber.StatusBadRequest, status)
			require.Contains(t, body, "errors")
			require.Nil(t, svc.lastReq, "service must not be called")
		})
	}
}

func TestCheckoutHandler_MissingUserID(t *testing.T) {
	app := newCheckoutApp(&stubCheckoutService{}, "")

	status, _ := postCheckout(t, app, checkoutBody())

	require.Equal(t, fiber.StatusUnauthorized, status)
}

func TestCheckoutHandler_BusinessValidationErrorIs400(t *testing.T) {
	svc := &stubCheckoutService{err: domain.ErrUnsupportedCountry}
	app := newCheckoutApp(svc, "user_1")

	status, body := postCheckout(t, app, checkoutBody())

	require.Equal(t, fiber.StatusBadRequest, status)
	require.Contains(t, body, "country must be India (IN) for INR payments")
}

func TestCheckoutHandler_ProviderFailureIs502(t *testing.T) {
	svc := &stubCheckoutService{err: errors.New("stripe is down")}
	app := newCheckoutApp(svc, "user_1")

	status, _ := postCheckout(t, app, checkoutBody())

	require.Equal(t, fiber.StatusBadGateway, status)
}
