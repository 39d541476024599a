package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/AadityaUoHyd/ABCart/internal/config"
	"github.com/AadityaUoHyd/ABCart/internal/infrastructure/email"
	"github.com/AadityaUoHyd/ABCart/internal/infrastructure/identity"
	"github.com/AadityaUoHyd/ABCart/internal/infrastructure/payments"
	"github.com/AadityaUoHyd/ABCart/internal/repository"
	"github.com/AadityaUoHyd/ABCart/internal/service"
	transport "github.com/AadityaUoHyd/ABCart/internal/transport/http"
	"github.com/AadityaUoHyd/ABCart/internal/transport/http/handler"
	"github.com/AadityaUoHyd/ABCart/pkg/db"
	"github.com/AadityaUoHyd/ABCart/pkg/utils"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not found: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "abcart-backend")
	if err != nil {
		log.Fatalf("Error starting telemetry: %v", err)
	}

	cfg := config.MustLoad()

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			log.Printf("error syncing logger: %v", err)
		}
	}()

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("error creating postgres db: %v", err)
	}

	paymentProvider := payments.NewStripeProvider(payments.Config{
		APIKey:        cfg.Stripe.APIKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		BaseURL:       cfg.PublicBaseURL,
	}, logger)

	emailSender := email.NewSMTPSender(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Password: cfg.SMTP.Password,
	}, logger)

	identityProvider := identity.NewClerkProvider(cfg.Clerk.SecretKey, logger)

	orderRepo := repository.NewOrderRepository(pool, logger)
	notificationService := service.NewNotificationService(emailSender, logger)
	webhookService := service.NewWebhookService(paymentProvider, orderRepo, notificationService, logger)
	checkoutService := service.NewCheckoutService(paymentProvider, logger)

	app := fiber.New()

	app.Use(otelfiber.Middleware())

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Limiter.Max,
		Expiration: cfg.Limiter.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		},
	}))

	handlers := &transport.Handlers{
		Webhook:  handler.NewWebhookHandler(webhookService, logger, cfg.HTTP.Timeout),
		Checkout: handler.NewCheckoutHandler(checkoutService, logger, cfg.HTTP.Timeout),
		Address:  handler.NewAddressHandler(identityProvider, logger, cfg.HTTP.Timeout),
	}

	transport.RegisterRoutes(app, handlers, identityProvider)

	logger.Info("ABCart backend started!")

	go func() {
		log.Println("HTTP Service listening on: " + cfg.HTTP.Port)
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("Error listening on HTTP port %v: %v\n", cfg.HTTP.Port, err)
		}
	}()

	<-ctx.Done()

	log.Println("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP app: %v\n", err)
	} else {
		log.Println("HTTP App stopped gracefully")
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error closing telemetry: %v\n", err)
	} else {
		log.Println("Closed telemetry successfully")
	}

	pool.Close()
	log.Println("✅ Postgres pool closed")
}
