package storage

import (
	"encoding/json"
	"fmt"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

func encodeReceipt(c domain.Confirmation) ([]byte, error) {
	order := c.Order
	order.OrderID = c.OrderID

	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	return payload, nil
}
