package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"regexp"
	"strings"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Coarse syntactic check, intentionally permissive.
var recipientPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

type Sender interface {
	SendOrderConfirmation(ctx context.Context, job *domain.OrderConfirmation) error
}

type Config struct {
	Host     string
	Port     string
	From     string
	Password string
}

type smtpSender struct {
	host     string
	port     string
	from     string
	password string
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewSMTPSender(cfg Config, logger *zap.Logger) Sender {
	return &smtpSender{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		password: cfg.Password,
		logger:   logger,
		tracer:   otel.Tracer("infrastructure/email"),
	}
}

func (s *smtpSender) SendOrderConfirmation(ctx context.Context, job *domain.OrderConfirmation) error {
	ctx, span := s.tracer.Start(ctx, "smtp.SendOrderConfirmation")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_number", job.OrderNumber),
		attribute.String("to.email", job.CustomerEmail),
	)

	if !recipientPattern.MatchString(job.CustomerEmail) {
		mylogger.Error(
			ctx,
			s.logger,
			"Invalid customer email",
			zap.String("order_number", job.OrderNumber),
			zap.String("to", job.CustomerEmail),
		)

		return fmt.Errorf("%w: %q", domain.ErrInvalidRecipient, job.CustomerEmail)
	}

	if s.from == "" || s.password == "" {
		return fmt.Errorf("%w: smtp credentials are not set", domain.ErrConfiguration)
	}

	// A relay outage here is transient: the whole event fails and the
	// provider's redelivery retries the flow.
	client, err := s.verifyConnection()
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"SMTP connection verification failed",
			zap.String("order_number", job.OrderNumber),
			zap.Error(err),
		)

		return fmt.Errorf("smtp verification failed: %w", err)
	}
	defer client.Close()

	mylogger.Info(
		ctx,
		s.logger,
		"SMTP connection verified, sending confirmation",
		zap.String("order_number", job.OrderNumber),
		zap.String("to", job.CustomerEmail),
	)

	if err := s.send(client, job.CustomerEmail, renderConfirmation(job, s.from)); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Error sending confirmation email",
			zap.String("order_number", job.OrderNumber),
			zap.String("to", job.CustomerEmail),
			zap.Error(err),
		)

		return fmt.Errorf("failed to send mail: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Confirmation email sent successfully",
		zap.String("order_number", job.OrderNumber),
		zap.String("to", job.CustomerEmail),
	)

	return nil
}

// verifyConnection dials the relay and completes STARTTLS plus AUTH
// before any message is written.
func (s *smtpSender) verifyConnection() (*smtp.Client, error) {
	addr := net.JoinHostPort(s.host, s.port)

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			client.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.from, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		client.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	return client, nil
}

func (s *smtpSender) send(client *smtp.Client, to string, msg []byte) error {
	if err := client.Mail(s.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func renderConfirmation(job *domain.OrderConfirmation, from string) []byte {
	var itemLines strings.Builder
	for _, item := range job.Items {
		itemLines.WriteString(fmt.Sprintf("<li>%s (Qty: %d)</li>", item.Name, item.Quantity))
	}

	headers := fmt.Sprintf("From: \"ABCart\" <%s>\n", from) +
		fmt.Sprintf("Subject: Your ABCart Order Confirmation - %s\n", job.OrderNumber) +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"

	body := fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #fff1f2;">
		<h1 style="color: #4b5563; font-size: 24px; text-align: center;">Order Confirmation</h1>
		<p style="color: #6b7280;">Dear %s,</p>
		<p style="color: #6b7280;">Thank you for your order with ABCart! Your order has been successfully placed.</p>
		<h2 style="color: #4b5563; font-size: 18px; margin-top: 20px;">Order Details</h2>
		<p style="color: #6b7280;"><strong>Order Number:</strong> %s</p>
		<p style="color: #6b7280;"><strong>Order Date:</strong> %s</p>
		<p style="color: #6b7280;"><strong>Total:</strong> %s %.2f</p>
		<h3 style="color: #4b5563; font-size: 16px; margin-top: 20px;">Items Ordered</h3>
		<ul style="color: #6b7280; padding-left: 20px;">%s</ul>
		<p style="color: #6b7280; margin-top: 20px;">We'll notify you when your order ships. If you have any questions, contact us at <a href="mailto:%s" style="color: #ec4899;">%s</a>.</p>
		<p style="color: #6b7280; text-align: center; margin-top: 20px;">© ABCart</p>
	</div>
	`,
		job.CustomerName,
		job.OrderNumber,
		job.OrderDate.Format("02 Jan 2006"),
		job.Currency,
		job.TotalPrice,
		itemLines.String(),
		from,
		from,
	)

	return []byte(headers + body)
}
