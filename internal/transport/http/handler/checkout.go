package handler

import (
	"context"
	"errors"
	"time"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/internal/service"
	"github.com/AadityaUoHyd/ABCart/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type CheckoutHandler struct {
	service  service.CheckoutService
	logger   *zap.Logger
	validate *validator.Validate
	cb       *gobreaker.CircuitBreaker
	timeout  time.Duration
}

func NewCheckoutHandler(checkoutService service.CheckoutService, logger *zap.Logger, timeout time.Duration) *CheckoutHandler {
	settings := gobreaker.Settings{
		Name:        "CheckoutService",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &CheckoutHandler{
		service:  checkoutService,
		logger:   logger,
		validate: validator.New(),
		cb:       gobreaker.NewCircuitBreaker(settings),
		timeout:  timeout,
	}
}

func (h *CheckoutHandler) Create(c *fiber.Ctx) error {
	input := new(domain.CheckoutRequest)

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn(
			"failed to parse body in checkout",
			zap.Error(err),
		)

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	userID, ok := c.Locals("userId").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "userId parsing error"})
	}

	// The authenticated identity wins over whatever the client sent, so
	// it is applied before validation and the client may omit the field.
	input.Metadata.ClerkUserID = userID

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errors": utils.FormatValidationError(err),
		})
	}

	url, err := utils.ExecuteWithBreaker(h.cb, func() (string, error) {
		ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
		defer cancel()

		return h.service.CreateCheckoutSession(ctx, input)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			h.logger.Warn("Circuit breaker open")

			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service temporarily unavailable",
			})
		}

		status := fiber.StatusBadGateway
		if isCheckoutValidationError(err) {
			status = fiber.StatusBadRequest
		}

		h.logger.Warn(
			"create checkout session failed",
			zap.Int("http_code", status),
			zap.Error(err),
		)

		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.logger.Info(
		"checkout session created",
		zap.String("order_number", input.Metadata.OrderNumber),
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"url": url,
	})
}

func isCheckoutValidationError(err error) bool {
	return errors.Is(err, domain.ErrUnsupportedCountry) ||
		errors.Is(err, domain.ErrInvalidPostalCode) ||
		errors.Is(err, domain.ErrIncompleteAddress) ||
		errors.Is(err, domain.ErrItemWithoutPrice) ||
		errors.Is(err, domain.ErrInvalidQuantity)
}
