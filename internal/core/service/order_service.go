package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/authenticindia/order-desk/internal/core/domain"
	"github.com/authenticindia/order-desk/internal/port"
)

// OrderService sends validated drafts to the order API. Every acknowledged
// order is also published on the confirmation queue for the journal workers.
type OrderService struct {
	api    port.OrderAPI
	logger *slog.Logger

	mu            sync.RWMutex
	closed        bool
	confirmations chan domain.Confirmation
}

// NewOrderService creates the service. A queueSize of zero disables the
// confirmation queue.
func NewOrderService(api port.OrderAPI, queueSize int, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}

	s := &OrderService{api: api, logger: logger}
	if queueSize > 0 {
		s.confirmations = make(chan domain.Confirmation, queueSize)
	}
	return s
}

// Submit validates the draft and places the order. A draft that is not
// submittable never reaches the network.
func (s *OrderService) Submit(ctx context.Context, draft domain.OrderDraft) (domain.Confirmation, error) {
	var zero domain.Confirmation

	if err := draft.Validate(); err != nil {
		return zero, err
	}

	c, err := s.api.CreateOrder(ctx, draft.Request())
	if err != nil {
		var rejected domain.ServerRejectedError
		switch {
		case errors.As(err, &rejected):
			s.logger.Warn("order rejected by backend",
				"status", rejected.StatusCode,
				"message", rejected.Message,
				"product", draft.ProductName())
			return zero, rejected
		case errors.Is(err, domain.ErrTransport):
			s.logger.Error("order submission failed", "error", err)
			return zero, err
		default:
			s.logger.Error("order submission failed", "error", err)
			return zero, errors.Join(domain.ErrTransport, fmt.Errorf("api.CreateOrder: %w", err))
		}
	}

	s.logger.Info("order placed",
		"order_id", c.OrderID,
		"product", draft.ProductName(),
		"quantity", draft.Quantity(),
		"total", draft.TotalPrice().String())

	s.publish(c)
	return c, nil
}

func (s *OrderService) publish(c domain.Confirmation) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.confirmations == nil {
		return
	}

	select {
	case s.confirmations <- c:
	default:
		s.logger.Warn("confirmation queue full, receipt not journaled", "order_id", c.OrderID)
	}
}

// Confirmations is nil when the queue is disabled.
func (s *OrderService) Confirmations() <-chan domain.Confirmation {
	return s.confirmations
}

func (s *OrderService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.confirmations != nil {
		close(s.confirmations)
	}
}
