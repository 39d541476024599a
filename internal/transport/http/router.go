package http

import (
	"github.com/AadityaUoHyd/ABCart/internal/infrastructure/identity"
	"github.com/AadityaUoHyd/ABCart/internal/transport/http/handler"
	"github.com/AadityaUoHyd/ABCart/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Webhook  *handler.WebhookHandler
	Checkout *handler.CheckoutHandler
	Address  *handler.AddressHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers, identityProvider identity.Provider) {
	auth := middleware.NewAuthMiddleware(identityProvider)

	api := app.Group("/api")
	api.Post("/webhook", h.Webhook.Handle)
	api.Post("/checkout", auth, h.Checkout.Create)
	api.Post("/update-address", auth, h.Address.Update)
}
