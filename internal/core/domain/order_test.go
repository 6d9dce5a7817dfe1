package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestOrder_DecodesBackendShape(t *testing.T) {
	payload := `[
		{"order_id": 42, "product_name": "Premium Idli/Dosa Batter", "quantity": 2,
		 "payment_mode": "upi", "total_price": "240.00", "location": "Pune",
		 "created_at": "2025-07-01T10:15:00Z"},
		{"order_id": 43, "product_name": "Premium Idli/Dosa Batter", "quantity": 1,
		 "payment_mode": "cod", "total_price": 120, "location": "Pune",
		 "created_at": "2025-07-02 08:00:00"}
	]`

	var orders []Order
	require.NoError(t, json.Unmarshal([]byte(payload), &orders))
	require.Len(t, orders, 2)

	assert.Equal(t, int64(42), orders[0].OrderID)
	assert.True(t, decimal.NewFromInt(240).Equal(orders[0].TotalPrice))
	assert.Equal(t, time.Date(2025, 7, 1, 10, 15, 0, 0, time.UTC), orders[0].CreatedAt.UTC())

	assert.Equal(t, PaymentModeCashOnDelivery, orders[1].PaymentMode)
	assert.Equal(t, 2025, orders[1].CreatedAt.Year())
}

func TestTimestamp_RejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())
}

func TestToPaymentMode(t *testing.T) {
	for _, s := range []string{"cod", "upi", "card", "cash_on_delivery"} {
		mode, err := ToPaymentMode(s)
		require.NoError(t, err, s)
		assert.True(t, mode.IsSet())
	}

	_, err := ToPaymentMode("bitcoin")
	assert.Error(t, err)
	_, err = ToPaymentMode("")
	assert.Error(t, err)

	assert.Equal(t, "Cash on Delivery", PaymentModeCashOnDelivery.Label())
}

func TestCatalog_Product(t *testing.T) {
	catalog := DefaultCatalog(currency.INR)

	p, err := catalog.Product("idli-dosa-batter")
	require.NoError(t, err)
	assert.Equal(t, "INR 240.00", p.FormatPrice(p.Price.Mul(decimal.NewFromInt(2))))

	draft := p.NewDraft()
	assert.Equal(t, p.Name, draft.ProductName())

	_, err = catalog.Product("samosa")
	assert.ErrorIs(t, err, ErrProductNotFound)
}
