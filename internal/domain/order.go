package domain

import "time"

type OrderStatus string

const (
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusShipped OrderStatus = "shipped"
)

// Order is the durable result of a completed checkout. It is created
// exactly once per OrderNumber and never updated by this pipeline.
type Order struct {
	ID                int64       `db:"id"`
	OrderNumber       string      `db:"order_number"`
	CheckoutSessionID string      `db:"checkout_session_id"`
	PaymentIntentID   string      `db:"payment_intent_id"`
	CustomerName      string      `db:"customer_name"`
	StripeCustomerID  string      `db:"stripe_customer_id"`
	ClerkUserID       string      `db:"clerk_user_id"`
	Email             string      `db:"email"`
	Currency          string      `db:"currency"`
	DiscountAmount    float64     `db:"discount_amount"`
	TotalPrice        float64     `db:"total_price"`
	Status            OrderStatus `db:"status"`
	OrderDate         time.Time   `db:"order_date"`
	Items             []OrderItem

	CreatedAt time.Time `db:"created_at"`
}

// OrderItem keeps the quantity even when the catalog reference could not
// be resolved, so revenue accounting survives broken catalog linkage.
type OrderItem struct {
	ID         int64  `db:"id"`
	OrderID    int64  `db:"order_id"`
	ProductRef string `db:"product_ref"`
	Quantity   int64  `db:"quantity"`
}
