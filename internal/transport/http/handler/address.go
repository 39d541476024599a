package handler

import (
	"context"
	"time"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/internal/infrastructure/identity"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AddressHandler struct {
	identity identity.Provider
	logger   *zap.Logger
	timeout  time.Duration
}

func NewAddressHandler(identityProvider identity.Provider, logger *zap.Logger, timeout time.Duration) *AddressHandler {
	return &AddressHandler{
		identity: identityProvider,
		logger:   logger,
		timeout:  timeout,
	}
}

func (h *AddressHandler) Update(c *fiber.Ctx) error {
	input := new(struct {
		Address domain.Address `json:"address"`
	})

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse body in update-address",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	userID, ok := c.Locals("userId").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	if err := h.identity.UpdateAddress(ctx, userID, input.Address); err != nil {
		h.logger.Warn(
			"update address failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update address",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
