package service

import (
	"context"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/AadityaUoHyd/ABCart/internal/repository"
)

type fakeProvider struct {
	event     *domain.PaymentEvent
	verifyErr error

	lineItems     []domain.ProviderLineItem
	lineItemsErr  error
	lineItemCalls int

	customerID    string
	customerErr   error
	customerCalls int

	url             string
	createErr       error
	createdReq      *domain.CheckoutRequest
	createdCustomer string
}

func (f *fakeProvider) VerifyEvent(payload []byte, sigHeader string) (*domain.PaymentEvent, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.event, nil
}

func (f *fakeProvider) SessionLineItems(ctx context.Context, sessionID string) ([]domain.ProviderLineItem, error) {
	f.lineItemCalls++
	if f.lineItemsErr != nil {
		return nil, f.lineItemsErr
	}
	return f.lineItems, nil
}

func (f *fakeProvider) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	f.customerCalls++
	if f.customerErr != nil {
		return "", f.customerErr
	}
	return f.customerID, nil
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, req *domain.CheckoutRequest, customerID string) (string, error) {
	f.createdReq = req
	f.createdCustomer = customerID
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.url, nil
}

type fakeOrderRepo struct {
	failuresLeft int
	transientErr error
	existsErr    error

	existing *domain.Order

	created     []*domain.Order
	createCalls int
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	f.createCalls++

	if f.existsErr != nil {
		return f.existsErr
	}
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return f.transientErr
	}

	copied := *order
	f.created = append(f.created, &copied)
	return nil
}

func (f *fakeOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	if f.existing != nil && f.existing.OrderNumber == orderNumber {
		return f.existing, nil
	}
	return nil, repository.ErrOrderNotFound
}

type fakeNotifier struct {
	err       error
	calls     int
	lastOrder *domain.Order
}

func (f *fakeNotifier) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	f.calls++
	f.lastOrder = order
	return f.err
}
