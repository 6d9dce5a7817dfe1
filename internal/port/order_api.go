package port

import (
	"context"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

// OrderAPI is the external order service.
type OrderAPI interface {
	// CreateOrder places an order and returns the backend's acknowledgement.
	// Non-2xx answers come back as domain.ServerRejectedError, transport and
	// decode failures wrap domain.ErrTransport.
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Confirmation, error)

	// FindOrders returns the orders placed with the given phone number, in
	// the order the backend lists them.
	FindOrders(ctx context.Context, phone string) ([]domain.Order, error)
}
