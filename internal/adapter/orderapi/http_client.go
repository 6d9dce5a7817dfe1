package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

// DefaultBaseURL is where the order backend listens in development.
const DefaultBaseURL = "http://localhost:5000/api/orders"

const maxBodyBytes = 1 << 20

var errMissingOrderID = errors.New("acknowledgement without order_id")

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPClient talks to the order backend over plain HTTP/JSON.
type HTTPClient struct {
	baseURL *url.URL
	client  *http.Client
	logger  *slog.Logger
}

func NewHTTPClient(baseURL string, client *http.Client) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("url.Parse: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("order api url %q is not absolute", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPClient{baseURL: u, client: client, logger: slog.Default()}, nil
}

// WithLogger sets the logger used for acknowledgement decode warnings.
func (c *HTTPClient) WithLogger(logger *slog.Logger) *HTTPClient {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func (c *HTTPClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Confirmation, error) {
	var zero domain.Confirmation

	body, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("json.Marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), bytes.NewReader(body))
	if err != nil {
		return zero, fmt.Errorf("http.NewRequest: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return zero, errors.Join(domain.ErrTransport, fmt.Errorf("client.Do: %w", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return zero, errors.Join(domain.ErrTransport, fmt.Errorf("io.ReadAll: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(payload, &e)
		msg := e.Error
		if msg == "" {
			msg = domain.DefaultRejectionMessage
		}
		return zero, domain.ServerRejectedError{StatusCode: resp.StatusCode, Message: msg}
	}

	// start from what was sent so a terse acknowledgement still yields a full record
	order := domain.Order{
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		Phone:       req.Phone,
		Location:    req.Location,
		PaymentMode: req.PaymentMode,
	}
	if total, err := decimal.NewFromString(req.TotalPrice.String()); err == nil {
		order.TotalPrice = total
	}

	var ack map[string]json.RawMessage
	if err := json.Unmarshal(payload, &ack); err != nil {
		return zero, errors.Join(domain.ErrTransport, fmt.Errorf("json.Unmarshal: %w", err))
	}
	rawID, ok := ack["order_id"]
	if !ok {
		return zero, errors.Join(domain.ErrTransport, errMissingOrderID)
	}
	if err := json.Unmarshal(rawID, &order.OrderID); err != nil {
		return zero, errors.Join(domain.ErrTransport, fmt.Errorf("json.Unmarshal order_id: %w", err))
	}
	if order.OrderID == 0 {
		return zero, errors.Join(domain.ErrTransport, errMissingOrderID)
	}

	// the order exists once it has an id; the remaining fields are best effort
	c.mergeAck(&order, ack)

	return domain.Confirmation{OrderID: order.OrderID, Order: order}, nil
}

func (c *HTTPClient) mergeAck(order *domain.Order, ack map[string]json.RawMessage) {
	fields := map[string]any{
		"product_name": &order.ProductName,
		"quantity":     &order.Quantity,
		"phone":        &order.Phone,
		"location":     &order.Location,
		"payment_mode": &order.PaymentMode,
		"total_price":  &order.TotalPrice,
		"created_at":   &order.CreatedAt,
	}
	for name, dst := range fields {
		raw, ok := ack[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			c.logger.Warn("ignoring unreadable acknowledgement field",
				"order_id", order.OrderID, "field", name, "error", err)
		}
	}
}

func (c *HTTPClient) FindOrders(ctx context.Context, phone string) ([]domain.Order, error) {
	u := *c.baseURL
	q := u.Query()
	q.Set("phone", phone)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Join(domain.ErrTransport, fmt.Errorf("client.Do: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var orders []domain.Order
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&orders); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}

	return orders, nil
}
