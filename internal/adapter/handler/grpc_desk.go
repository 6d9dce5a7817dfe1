package handler

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype the desk speaks: application/grpc+json.
const CodecName = "json"

const (
	orderDeskService = "orderdesk.v1.OrderDesk"
	placeOrderMethod = "/" + orderDeskService + "/PlaceOrder"
	findOrdersMethod = "/" + orderDeskService + "/FindOrders"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

type PlaceOrderRequest struct {
	ProductID   string  `json:"product_id"`
	Quantity    int32   `json:"quantity"`
	Phone       string  `json:"phone"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PaymentMode string  `json:"payment_mode"`
}

type PlaceOrderResponse struct {
	Success    bool     `json:"success"`
	OrderID    int64    `json:"order_id,omitempty"`
	TotalPrice string   `json:"total_price,omitempty"`
	Message    string   `json:"message"`
	Missing    []string `json:"missing,omitempty"`
}

type FindOrdersRequest struct {
	Phone string `json:"phone"`
}

type OrderMessage struct {
	OrderID     int64  `json:"order_id"`
	ProductName string `json:"product_name"`
	Quantity    int32  `json:"quantity"`
	Location    string `json:"location"`
	PaymentMode string `json:"payment_mode"`
	TotalPrice  string `json:"total_price"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type FindOrdersResponse struct {
	Orders  []OrderMessage `json:"orders"`
	Message string         `json:"message,omitempty"`
}

// OrderDeskServer is implemented by GRPCHandler.
type OrderDeskServer interface {
	PlaceOrder(context.Context, *PlaceOrderRequest) (*PlaceOrderResponse, error)
	FindOrders(context.Context, *FindOrdersRequest) (*FindOrdersResponse, error)
}

func RegisterOrderDeskServer(s grpc.ServiceRegistrar, srv OrderDeskServer) {
	s.RegisterService(&orderDeskServiceDesc, srv)
}

var orderDeskServiceDesc = grpc.ServiceDesc{
	ServiceName: orderDeskService,
	HandlerType: (*OrderDeskServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: placeOrderHandler},
		{MethodName: "FindOrders", Handler: findOrdersHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orderdesk/v1/orderdesk.proto",
}

func placeOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PlaceOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderDeskServer).PlaceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: placeOrderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderDeskServer).PlaceOrder(ctx, req.(*PlaceOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func findOrdersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FindOrdersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderDeskServer).FindOrders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: findOrdersMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderDeskServer).FindOrders(ctx, req.(*FindOrdersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// OrderDeskClient calls the desk over a gRPC connection using the JSON codec.
type OrderDeskClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderDeskClient(cc grpc.ClientConnInterface) *OrderDeskClient {
	return &OrderDeskClient{cc: cc}
}

func (c *OrderDeskClient) PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error) {
	out := new(PlaceOrderResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, placeOrderMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderDeskClient) FindOrders(ctx context.Context, in *FindOrdersRequest, opts ...grpc.CallOption) (*FindOrdersResponse, error) {
	out := new(FindOrdersResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, findOrdersMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
