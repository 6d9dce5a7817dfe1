package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/authenticindia/order-desk/internal/core/domain"
	"github.com/authenticindia/order-desk/internal/port"
)

// MinPhoneLength is the shortest phone number a lookup accepts.
const MinPhoneLength = 10

// NoOrdersMessage is shown when a lookup comes back empty.
const NoOrdersMessage = "No orders found for this number."

type LookupService struct {
	api    port.OrderAPI
	logger *slog.Logger
}

func NewLookupService(api port.OrderAPI, logger *slog.Logger) *LookupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupService{api: api, logger: logger}
}

// FindOrders lists past orders for a phone number. Backend failures degrade
// to an empty result and are only logged.
func (s *LookupService) FindOrders(ctx context.Context, phone string) ([]domain.Order, error) {
	phone = strings.TrimSpace(phone)
	if utf8.RuneCountInString(phone) < MinPhoneLength {
		return nil, domain.ErrInvalidPhone
	}

	orders, err := s.api.FindOrders(ctx, phone)
	if err != nil {
		s.logger.Error("failed to fetch orders", "error", err)
		return []domain.Order{}, nil
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, nil
}
