package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

func completeDraft() domain.OrderDraft {
	d := domain.NewOrderDraft("Premium Idli/Dosa Batter", decimal.NewFromInt(120))
	d.AdjustQuantity(1)
	d.SetPhone("9876543210")
	d.UpdateLocation("Pune", domain.Coordinates{Lat: 18.5204, Lng: 73.8567})
	d.SetPaymentMode(domain.PaymentModeUPI)
	return d
}

func TestSubmit_Success(t *testing.T) {
	api := &mockOrderAPI{
		createFn: func(ctx context.Context, req domain.OrderRequest) (domain.Confirmation, error) {
			return domain.Confirmation{OrderID: 42}, nil
		},
	}
	svc := NewOrderService(api, 10, quietLogger())
	defer svc.Close()

	c, err := svc.Submit(context.Background(), completeDraft())
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.OrderID)

	calls := api.createCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "240", calls[0].TotalPrice.String())
	assert.Equal(t, 2, calls[0].Quantity)
	assert.Equal(t, domain.PaymentModeUPI, calls[0].PaymentMode)
	assert.Equal(t, 18.5204, calls[0].Latitude)

	// Read from queue
	queued := <-svc.Confirmations()
	assert.Equal(t, int64(42), queued.OrderID)
}

func TestSubmit_ValidationNeverReachesNetwork(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *domain.OrderDraft)
	}{
		{name: "phone unset", mutate: func(d *domain.OrderDraft) { d.SetPhone("") }},
		{name: "location unset", mutate: func(d *domain.OrderDraft) { d.UpdateLocation("", domain.DefaultCoordinates) }},
		{name: "payment mode unset", mutate: func(d *domain.OrderDraft) { d.SetPaymentMode(domain.PaymentModeUnset) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockOrderAPI{}
			svc := NewOrderService(api, 0, quietLogger())
			defer svc.Close()

			d := completeDraft()
			tt.mutate(&d)

			_, err := svc.Submit(context.Background(), d)
			assert.True(t, domain.IsValidation(err), "got %v", err)
			assert.Empty(t, api.createCalls())
		})
	}
}

func TestSubmit_FailureClassification(t *testing.T) {
	tests := []struct {
		name   string
		apiErr error
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server rejection keeps message",
			apiErr: domain.ServerRejectedError{StatusCode: 422, Message: "Delivery not available in this area"},
			check: func(t *testing.T, err error) {
				var rejected domain.ServerRejectedError
				require.ErrorAs(t, err, &rejected)
				assert.Equal(t, "Delivery not available in this area", rejected.Message)
			},
		},
		{
			name:   "transport error passes through",
			apiErr: errors.Join(domain.ErrTransport, errors.New("connection refused")),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrTransport)
			},
		},
		{
			name:   "unclassified error becomes transport",
			apiErr: errors.New("boom"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrTransport)
				assert.Contains(t, err.Error(), "boom")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockOrderAPI{
				createFn: func(ctx context.Context, req domain.OrderRequest) (domain.Confirmation, error) {
					return domain.Confirmation{}, tt.apiErr
				},
			}
			svc := NewOrderService(api, 10, quietLogger())
			defer svc.Close()

			_, err := svc.Submit(context.Background(), completeDraft())
			require.Error(t, err)
			tt.check(t, err)

			select {
			case c := <-svc.Confirmations():
				t.Fatalf("unexpected confirmation %+v", c)
			default:
			}
		})
	}
}

func TestSubmit_AfterCloseStillPlacesOrder(t *testing.T) {
	api := &mockOrderAPI{}
	svc := NewOrderService(api, 1, quietLogger())
	svc.Close()
	svc.Close()

	_, err := svc.Submit(context.Background(), completeDraft())
	require.NoError(t, err)

	_, open := <-svc.Confirmations()
	assert.False(t, open)
}

func TestSubmit_FullQueueDoesNotBlock(t *testing.T) {
	api := &mockOrderAPI{}
	svc := NewOrderService(api, 1, quietLogger())
	defer svc.Close()

	for i := 0; i < 3; i++ {
		_, err := svc.Submit(context.Background(), completeDraft())
		require.NoError(t, err)
	}
	assert.Len(t, api.createCalls(), 3)
	assert.Len(t, svc.Confirmations(), 1)
}
