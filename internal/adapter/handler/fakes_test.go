package handler

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeOrderAPI struct {
	mu        sync.Mutex
	orderID   int64
	createErr error
	orders    []domain.Order
	findErr   error
	requests  []domain.OrderRequest
	lookups   []string
}

func (f *fakeOrderAPI) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.createErr != nil {
		return domain.Confirmation{}, f.createErr
	}
	return domain.Confirmation{OrderID: f.orderID, Order: domain.Order{OrderID: f.orderID, ProductName: req.ProductName}}, nil
}

func (f *fakeOrderAPI) FindOrders(ctx context.Context, phone string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups = append(f.lookups, phone)
	return f.orders, f.findErr
}

func (f *fakeOrderAPI) sent() []domain.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.OrderRequest(nil), f.requests...)
}

type fakeGeocoder struct {
	text string
	err  error
}

func (f fakeGeocoder) ReverseGeocode(ctx context.Context, at domain.Coordinates) (string, error) {
	return f.text, f.err
}
