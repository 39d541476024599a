package handler

import (
	"context"
	"errors"
	"time"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	service service.WebhookService
	logger  *zap.Logger
	timeout time.Duration
}

func NewWebhookHandler(webhookService service.WebhookService, logger *zap.Logger, timeout time.Duration) *WebhookHandler {
	return &WebhookHandler{
		service: webhookService,
		logger:  logger,
		timeout: timeout,
	}
}

// Handle processes one Stripe delivery attempt. Any non-200 response
// makes Stripe redeliver the event, which is safe because the order
// insert is idempotent.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	sig := c.Get("Stripe-Signature")

	if err := h.service.HandleEvent(ctx, c.Body(), sig); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, domain.ErrVerification) || errors.Is(err, domain.ErrMissingMetadata) {
			status = fiber.StatusBadRequest
		}

		h.logger.Warn(
			"webhook processing failed",
			zap.Int("http_code", status),
			zap.Error(err),
		)

		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"received": true,
	})
}
