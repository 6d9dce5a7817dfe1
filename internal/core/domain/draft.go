package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderDraft is the order being composed before it is sent to the backend.
// Product name and unit price are fixed for the lifetime of the draft; the
// total is always derived from the current quantity.
type OrderDraft struct {
	productName  string
	unitPrice    decimal.Decimal
	quantity     int
	phone        string
	locationText string
	coordinates  Coordinates
	paymentMode  PaymentMode
}

func NewOrderDraft(productName string, unitPrice decimal.Decimal) OrderDraft {
	return OrderDraft{
		productName: productName,
		unitPrice:   unitPrice,
		quantity:    1,
		coordinates: DefaultCoordinates,
	}
}

func (d OrderDraft) ProductName() string { return d.productName }
func (d OrderDraft) UnitPrice() decimal.Decimal { return d.unitPrice }
func (d OrderDraft) Quantity() int { return d.quantity }
func (d OrderDraft) Phone() string { return d.phone }
func (d OrderDraft) LocationText() string { return d.locationText }
func (d OrderDraft) Coordinates() Coordinates { return d.coordinates }
func (d OrderDraft) PaymentMode() PaymentMode { return d.paymentMode }
func (d OrderDraft) TotalPrice() decimal.Decimal { return d.unitPrice.Mul(decimal.NewFromInt(int64(d.quantity))) }
func (d OrderDraft) Location() PersistedLocation { return PersistedLocation{Text: d.locationText, Coordinates: d.coordinates} }

// AdjustQuantity adds delta and clamps the result to at least one.
func (d *OrderDraft) AdjustQuantity(delta int) int {
	q := d.quantity + delta
	if q < 1 {
		q = 1
	}
	d.quantity = q
	return q
}

func (d *OrderDraft) SetPhone(phone string) {
	d.phone = phone
}

func (d *OrderDraft) SetPaymentMode(mode PaymentMode) {
	d.paymentMode = mode
}

// UpdateLocation replaces the address and the point it describes together.
func (d *OrderDraft) UpdateLocation(text string, coords Coordinates) {
	d.locationText = text
	d.coordinates = coords
}

// Reset prepares the draft for the next order of the same product.
func (d *OrderDraft) Reset() {
	d.quantity = 1
	d.phone = ""
	d.locationText = ""
	d.paymentMode = PaymentModeUnset
}

func (d OrderDraft) IsSubmittable() bool {
	return d.Validate() == nil
}

func (d OrderDraft) Validate() error {
	var missing []string
	if strings.TrimSpace(d.phone) == "" {
		missing = append(missing, "phone")
	}
	if d.locationText == "" {
		missing = append(missing, "location")
	}
	if !d.paymentMode.IsSet() {
		missing = append(missing, "payment_mode")
	}

	if len(missing) > 0 {
		return ValidationError{Missing: missing}
	}
	return nil
}

// Request builds the wire body for the backend.
func (d OrderDraft) Request() OrderRequest {
	return OrderRequest{
		ProductName: d.productName,
		Quantity:    d.quantity,
		Phone:       d.phone,
		Location:    d.locationText,
		Latitude:    d.coordinates.Lat,
		Longitude:   d.coordinates.Lng,
		PaymentMode: d.paymentMode,
		TotalPrice:  json.Number(d.TotalPrice().String()),
	}
}
