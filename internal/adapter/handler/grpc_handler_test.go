package handler

import (
	"context"
	"net"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/authenticindia/order-desk/internal/core/domain"
	"github.com/authenticindia/order-desk/internal/core/service"
)

func newDeskClient(t *testing.T, api *fakeOrderAPI) *OrderDeskClient {
	t.Helper()

	logger := quietLogger()
	orders := service.NewOrderService(api, 0, logger)
	lookup := service.NewLookupService(api, logger)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterOrderDeskServer(srv, NewGRPCHandler(domain.DefaultCatalog(currency.INR), orders, lookup, logger))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewOrderDeskClient(conn)
}

func completeRequest() *PlaceOrderRequest {
	return &PlaceOrderRequest{
		ProductID:   "idli-dosa-batter",
		Quantity:    2,
		Phone:       "9876543210",
		Location:    "Shivajinagar, Pune",
		Latitude:    18.5204,
		Longitude:   73.8567,
		PaymentMode: "upi",
	}
}

func TestGRPC_PlaceOrder(t *testing.T) {
	api := &fakeOrderAPI{orderID: 42}
	client := newDeskClient(t, api)

	resp, err := client.PlaceOrder(context.Background(), completeRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(42), resp.OrderID)
	assert.Equal(t, "240.00", resp.TotalPrice)

	sent := api.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Premium Idli/Dosa Batter", sent[0].ProductName)
	assert.Equal(t, 2, sent[0].Quantity)
	assert.Equal(t, 18.5204, sent[0].Latitude)
}

func TestGRPC_PlaceOrder_Incomplete(t *testing.T) {
	api := &fakeOrderAPI{orderID: 42}
	client := newDeskClient(t, api)

	req := completeRequest()
	req.Phone = "   "
	req.PaymentMode = ""

	resp, err := client.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, []string{"phone", "payment_mode"}, resp.Missing)
	assert.Empty(t, api.sent())
}

func TestGRPC_PlaceOrder_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PlaceOrderRequest)
		api    *fakeOrderAPI
		code   codes.Code
	}{
		{name: "unknown product", mutate: func(r *PlaceOrderRequest) { r.ProductID = "ghee" }, api: &fakeOrderAPI{}, code: codes.NotFound},
		{name: "zero quantity", mutate: func(r *PlaceOrderRequest) { r.Quantity = 0 }, api: &fakeOrderAPI{}, code: codes.InvalidArgument},
		{name: "bad payment mode", mutate: func(r *PlaceOrderRequest) { r.PaymentMode = "barter" }, api: &fakeOrderAPI{}, code: codes.InvalidArgument},
		{name: "bad coordinates", mutate: func(r *PlaceOrderRequest) { r.Longitude = 200 }, api: &fakeOrderAPI{}, code: codes.InvalidArgument},
		{name: "backend unreachable", mutate: func(*PlaceOrderRequest) {}, api: &fakeOrderAPI{createErr: domain.ErrTransport}, code: codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newDeskClient(t, tt.api)
			req := completeRequest()
			tt.mutate(req)

			_, err := client.PlaceOrder(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestGRPC_PlaceOrder_Rejected(t *testing.T) {
	api := &fakeOrderAPI{createErr: domain.ServerRejectedError{StatusCode: 400, Message: "Phone number is invalid"}}
	client := newDeskClient(t, api)

	resp, err := client.PlaceOrder(context.Background(), completeRequest())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Phone number is invalid", resp.Message)
}

func TestGRPC_FindOrders(t *testing.T) {
	api := &fakeOrderAPI{orders: []domain.Order{
		{OrderID: 9, ProductName: "Premium Idli/Dosa Batter", Quantity: 2, PaymentMode: domain.PaymentModeUPI, TotalPrice: decimal.NewFromInt(240)},
	}}
	client := newDeskClient(t, api)

	resp, err := client.FindOrders(context.Background(), &FindOrdersRequest{Phone: " 9876543210 "})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, int64(9), resp.Orders[0].OrderID)
	assert.Equal(t, "240.00", resp.Orders[0].TotalPrice)
	assert.Empty(t, resp.Orders[0].CreatedAt)
	assert.Equal(t, []string{"9876543210"}, api.lookups)

	_, err = client.FindOrders(context.Background(), &FindOrdersRequest{Phone: "98765"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	empty := newDeskClient(t, &fakeOrderAPI{})
	resp, err = empty.FindOrders(context.Background(), &FindOrdersRequest{Phone: "9876543210"})
	require.NoError(t, err)
	assert.Empty(t, resp.Orders)
	assert.Equal(t, service.NoOrdersMessage, resp.Message)
}
