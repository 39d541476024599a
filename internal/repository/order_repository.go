package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/pkg/mylogger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("order_repository"),
	}
}

// CreateOrder inserts the order and its items in one transaction. A
// unique violation on order_number is reported as ErrOrderExists so a
// redelivered event is a benign no-op, not a failure.
func (r *orderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_number", order.OrderNumber),
		attribute.Int("items_count", len(order.Items)),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		mylogger.Error(
			ctx,
			r.logger,
			"Failed to begin transaction",
			zap.Error(err),
		)

		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)

		if err := tx.Rollback(shutdownCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			mylogger.Warn(shutdownCtx, r.logger, "Failed to rollback transaction", zap.Error(err))
		}
	}()

	queryOrder := `
		INSERT INTO orders (
			order_number, checkout_session_id, payment_intent_id,
			customer_name, stripe_customer_id, clerk_user_id, email,
			currency, discount_amount, total_price, status, order_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	if err := tx.QueryRow(
		ctx,
		queryOrder,
		order.OrderNumber,
		order.CheckoutSessionID,
		order.PaymentIntentID,
		order.CustomerName,
		order.StripeCustomerID,
		order.ClerkUserID,
		order.Email,
		order.Currency,
		order.DiscountAmount,
		order.TotalPrice,
		string(order.Status),
		order.OrderDate,
	).Scan(
		&order.ID,
		&order.CreatedAt,
	); err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			mylogger.Warn(
				ctx,
				r.logger,
				"Order already exists, skipping",
				zap.String("order_number", order.OrderNumber),
			)

			return ErrOrderExists
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert order: %w", err)
	}

	queryItem := `
		INSERT INTO order_items (order_id, product_ref, quantity)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		if err := tx.QueryRow(
			ctx,
			queryItem,
			order.ID,
			item.ProductRef,
			item.Quantity,
		).Scan(&item.ID); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to insert order item",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err),
			)

			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to commit transaction",
			zap.Error(err),
		)

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *orderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByOrderNumber")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_number", orderNumber),
	)

	queryOrder := `
		SELECT id, order_number, checkout_session_id, payment_intent_id,
			customer_name, stripe_customer_id, clerk_user_id, email,
			currency, discount_amount, total_price, status, order_date, created_at
		FROM orders
		WHERE order_number = $1
	`

	var order domain.Order
	if err := r.pool.QueryRow(ctx, queryOrder, orderNumber).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CheckoutSessionID,
		&order.PaymentIntentID,
		&order.CustomerName,
		&order.StripeCustomerID,
		&order.ClerkUserID,
		&order.Email,
		&order.Currency,
		&order.DiscountAmount,
		&order.TotalPrice,
		&order.Status,
		&order.OrderDate,
		&order.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order",
			zap.String("order_number", orderNumber),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	queryItems := `
		SELECT id, order_id, product_ref, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, queryItems, order.ID)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order_items",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductRef,
			&item.Quantity,
		); err != nil {
			span.RecordError(err)

			mylogger.Error(
				ctx,
				r.logger,
				"Failed to scan row",
				zap.Error(err),
			)

			return nil, err
		}

		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		mylogger.Error(
			ctx,
			r.logger,
			"Rows error",
			zap.Error(err),
		)

		return nil, err
	}

	return &order, nil
}
