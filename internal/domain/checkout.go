package domain

import "regexp"

var postalCodePattern = regexp.MustCompile(`^\d{6}$`)

// Metadata is attached to the outbound Stripe session and is the only
// channel by which the webhook later recovers order context. It must
// round-trip through Stripe unchanged. A checkout request may arrive
// without an OrderNumber; one is generated before the session is built.
type Metadata struct {
	OrderNumber   string `json:"orderNumber"`
	CustomerName  string `json:"customerName" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required"`
	ClerkUserID   string `json:"clerkUserId" validate:"required"`
}

type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type CartProduct struct {
	ID          string  `json:"id" validate:"required"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Price       float64 `json:"price"`
}

type GroupedCartItem struct {
	Product  CartProduct `json:"product"`
	Quantity int64       `json:"quantity" validate:"gt=0"`
}

type CheckoutRequest struct {
	Items    []GroupedCartItem `json:"items" validate:"required,min=1,dive"`
	Metadata Metadata          `json:"metadata"`
	Address  Address           `json:"address"`
}

// Validate enforces the INR-only business rules. These fail fast and are
// never retried.
func (r *CheckoutRequest) Validate() error {
	if r.Address.Country != "IN" {
		return ErrUnsupportedCountry
	}
	if !postalCodePattern.MatchString(r.Address.PostalCode) {
		return ErrInvalidPostalCode
	}
	if r.Address.Line1 == "" || r.Address.City == "" || r.Address.State == "" {
		return ErrIncompleteAddress
	}

	for _, item := range r.Items {
		if item.Product.Price <= 0 {
			return ErrItemWithoutPrice
		}
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}

	return nil
}
