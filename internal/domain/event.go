package domain

import "time"

// EventCheckoutSessionCompleted is the only provider event type that
// drives the pipeline. Everything else is acknowledged and ignored.
const EventCheckoutSessionCompleted = "checkout.session.completed"

// PaymentEvent is a verified provider event. Completed is non-nil only
// when Type is EventCheckoutSessionCompleted; unrecognized types carry
// no payload.
type PaymentEvent struct {
	ID        string
	Type      string
	Completed *CheckoutSessionCompleted
}

type CheckoutSessionCompleted struct {
	SessionID        string
	AmountTotal      int64
	Currency         string
	Metadata         Metadata
	CustomerRef      string
	PaymentIntentRef string
	DiscountMinor    int64
}

// Validate checks that all four metadata fields survived the round trip
// through the provider. Missing any fails the whole event.
func (m Metadata) Validate() error {
	if m.OrderNumber == "" || m.CustomerName == "" || m.CustomerEmail == "" || m.ClerkUserID == "" {
		return ErrMissingMetadata
	}

	return nil
}

// ProviderLineItem is a priced line item read back from the provider.
// ProductRef is empty when the item has no catalog-resolvable id.
type ProviderLineItem struct {
	ProductRef string
	Name       string
	Quantity   int64
}

// OrderConfirmation is the ephemeral notification job derived from a
// persisted Order. It is never stored.
type OrderConfirmation struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	TotalPrice    float64
	Currency      string
	Items         []ConfirmationItem
	OrderDate     time.Time
}

type ConfirmationItem struct {
	Name     string
	Quantity int64
}
