package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/AadityaUoHyd/ABCart/internal/infrastructure/identity"
	"github.com/gofiber/fiber/v2"
)

func NewAuthMiddleware(identityProvider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: missed header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid header format"})
		}
		token := parts[1]

		ctx, cancel := context.WithTimeout(c.UserContext(), 1*time.Second)
		defer cancel()

		userID, err := identityProvider.VerifyToken(ctx, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: Invalid token"})
		}

		c.Locals("userId", userID)
		return c.Next()
	}
}
