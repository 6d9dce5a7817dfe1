package orderapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

func randomRequest() domain.OrderRequest {
	qty := gofakeit.IntRange(1, 9)
	return domain.OrderRequest{
		ProductName: "Premium Idli/Dosa Batter",
		Quantity:    qty,
		Phone:       gofakeit.Numerify("98########"),
		Location:    gofakeit.Street() + ", Pune",
		Latitude:    gofakeit.Latitude(),
		Longitude:   gofakeit.Longitude(),
		PaymentMode: domain.PaymentModeUPI,
		TotalPrice:  json.Number(decimal.NewFromInt(int64(120 * qty)).String()),
	}
}

func newClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL+"/api/orders", srv.Client())
	require.NoError(t, err)
	return c
}

func TestCreateOrder_Created(t *testing.T) {
	req := randomRequest()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, err := uuid.Parse(r.Header.Get("Idempotency-Key"))
		assert.NoError(t, err)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, req.Phone, got["phone"])
		assert.Equal(t, "upi", got["payment_mode"])
		assert.EqualValues(t, 120*req.Quantity, got["total_price"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order_id": 42, "created_at": "2025-07-01T10:15:00Z"}`))
	})

	conf, err := c.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), conf.OrderID)
	assert.Equal(t, req.Location, conf.Order.Location)
	assert.Equal(t, req.Quantity, conf.Order.Quantity)
	assert.Equal(t, 2025, conf.Order.CreatedAt.Year())
}

func TestCreateOrder_UnreadableOptionalFields(t *testing.T) {
	req := randomRequest()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order_id": 42, "created_at": "2025-07-01 10:15:00+05:30", "quantity": "two", "location": "Kothrud, Pune"}`))
	})

	conf, err := c.CreateOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), conf.OrderID)
	assert.True(t, conf.Order.CreatedAt.IsZero())
	assert.Equal(t, req.Quantity, conf.Order.Quantity)
	assert.Equal(t, "Kothrud, Pune", conf.Order.Location)
}

func TestCreateOrder_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "error message verbatim", status: http.StatusBadRequest, body: `{"error": "Phone number is invalid"}`, message: "Phone number is invalid"},
		{name: "no error field", status: http.StatusInternalServerError, body: `{}`, message: domain.DefaultRejectionMessage},
		{name: "html body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, message: domain.DefaultRejectionMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.CreateOrder(context.Background(), randomRequest())
			var rejected domain.ServerRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.status, rejected.StatusCode)
			assert.Equal(t, tt.message, rejected.Message)
		})
	}
}

func TestCreateOrder_TransportFailures(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		c, err := NewHTTPClient(url, nil)
		require.NoError(t, err)

		_, err = c.CreateOrder(context.Background(), randomRequest())
		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("garbage acknowledgement", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})
		_, err := c.CreateOrder(context.Background(), randomRequest())
		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("unreadable id", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"order_id": "forty-two"}`))
		})
		_, err := c.CreateOrder(context.Background(), randomRequest())
		assert.ErrorIs(t, err, domain.ErrTransport)
	})

	t.Run("acknowledgement without id", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		})
		_, err := c.CreateOrder(context.Background(), randomRequest())
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.ErrorIs(t, err, errMissingOrderID)
	})
}

func TestFindOrders(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "+91 9876543210", r.URL.Query().Get("phone"))
		_, _ = w.Write([]byte(`[
			{"order_id": 2, "product_name": "Premium Idli/Dosa Batter", "quantity": 1, "payment_mode": "cod", "total_price": 120, "location": "Pune", "created_at": "2025-07-02T08:00:00Z"},
			{"order_id": 1, "product_name": "Premium Idli/Dosa Batter", "quantity": 2, "payment_mode": "upi", "total_price": "240.00", "location": "Pune", "created_at": "2025-07-01T08:00:00Z"}
		]`))
	})

	orders, err := c.FindOrders(context.Background(), "+91 9876543210")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(2), orders[0].OrderID)
	assert.Equal(t, int64(1), orders[1].OrderID)
	assert.True(t, decimal.NewFromInt(240).Equal(orders[1].TotalPrice))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFindOrders_Failures(t *testing.T) {
	t.Run("non 200", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := c.FindOrders(context.Background(), "9876543210")
		assert.Error(t, err)
	})

	t.Run("not an array", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error": "db down"}`))
		})
		_, err := c.FindOrders(context.Background(), "9876543210")
		assert.Error(t, err)
	})
}

func TestNewHTTPClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPClient("/api/orders", nil)
	assert.Error(t, err)
}
