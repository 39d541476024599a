package domain

import "errors"

var (
	ErrUnsupportedCountry = errors.New("country must be India (IN) for INR payments")
	ErrInvalidPostalCode  = errors.New("postal code must be a 6-digit number")
	ErrIncompleteAddress  = errors.New("address is missing required fields")
	ErrItemWithoutPrice   = errors.New("some items do not have a price")
	ErrInvalidQuantity    = errors.New("item quantity must be positive")

	ErrMissingMetadata  = errors.New("missing required metadata fields")
	ErrInvalidRecipient = errors.New("invalid customer email")

	// ErrVerification marks a permanent signature rejection, never retried.
	ErrVerification = errors.New("webhook signature verification failed")

	// ErrConfiguration marks a missing secret or credential at use time.
	ErrConfiguration = errors.New("required credential is not configured")
)
