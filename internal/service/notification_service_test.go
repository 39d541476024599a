package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AadityaUoHyd/ABCart/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEmailSender struct {
	err     error
	lastJob *domain.OrderConfirmation
}

func (f *fakeEmailSender) SendOrderConfirmation(ctx context.Context, job *domain.OrderConfirmation) error {
	f.lastJob = job
	return f.err
}

func TestSendOrderConfirmation_MapsOrderFields(t *testing.T) {
	sender := &fakeEmailSender{}
	svc := NewNotificationService(sender, zap.NewNop())

	orderDate := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	order := &domain.Order{
		OrderNumber:  "ord-123",
		CustomerName: "Asha Rao",
		Email:        "asha@example.com",
		Currency:     "INR",
		TotalPrice:   3499.00,
		OrderDate:    orderDate,
		Items: []domain.OrderItem{
			{ProductRef: "prod-1", Quantity: 2},
			{ProductRef: "", Quantity: 1},
		},
	}

	require.NoError(t, svc.SendOrderConfirmation(context.Background(), order))

	job := sender.lastJob
	require.NotNil(t, job)
	require.Equal(t, "ord-123", job.OrderNumber)
	require.Equal(t, "Asha Rao", job.CustomerName)
	require.Equal(t, "asha@example.com", job.CustomerEmail)
	require.Equal(t, "INR", job.Currency)
	require.InDelta(t, 3499.00, job.TotalPrice, 0.001)
	require.Equal(t, orderDate, job.OrderDate)

	require.Len(t, job.Items, 2)
	require.Equal(t, "Product ID: prod-1", job.Items[0].Name)
	require.EqualValues(t, 2, job.Items[0].Quantity)
	require.Equal(t, "Product ID: Unknown", job.Items[1].Name)
	require.EqualValues(t, 1, job.Items[1].Quantity)
}

func TestSendOrderConfirmation_SenderErrorPropagates(t *testing.T) {
	sentinel := errors.New("smtp handshake failed")
	sender := &fakeEmailSender{err: sentinel}
	svc := NewNotificationService(sender, zap.NewNop())

	err := svc.SendOrderConfirmation(context.Background(), &domain.Order{OrderNumber: "ord-1"})

	require.ErrorIs(t, err, sentinel)
}
