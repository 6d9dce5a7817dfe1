package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the record created by the backend once a draft is accepted.
// This service never mutates an Order after creation.
type Order struct {
	OrderID     int64           `json:"order_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Phone       string          `json:"phone,omitempty"`
	Location    string          `json:"location"`
	PaymentMode PaymentMode     `json:"payment_mode"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	CreatedAt   Timestamp       `json:"created_at"`
}

// OrderRequest is the body sent to the backend when placing an order.
type OrderRequest struct {
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	Phone       string      `json:"phone"`
	Location    string      `json:"location"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	PaymentMode PaymentMode `json:"payment_mode"`
	TotalPrice  json.Number `json:"total_price"`
}

// Confirmation is returned once the backend has acknowledged an order.
type Confirmation struct {
	OrderID int64
	Order   Order
}

// Timestamp accepts the handful of layouts the backend is known to emit.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999",
	time.RFC1123,
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}

	return fmt.Errorf("unsupported timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
