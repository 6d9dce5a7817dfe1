package handler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/authenticindia/order-desk/internal/core/domain"
	"github.com/authenticindia/order-desk/internal/core/service"
)

// GRPCHandler exposes the stateless desk operations. Every PlaceOrder call
// builds a fresh draft, so there is no map or session state here.
type GRPCHandler struct {
	catalog      domain.Catalog
	orderService *service.OrderService
	lookup       *service.LookupService
	logger       *slog.Logger
}

func NewGRPCHandler(catalog domain.Catalog, orderService *service.OrderService, lookup *service.LookupService, logger *slog.Logger) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{catalog: catalog, orderService: orderService, lookup: lookup, logger: logger}
}

func (h *GRPCHandler) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	product, err := h.catalog.Product(req.ProductID)
	if err != nil {
		return nil, status.Error(codes.NotFound, err.Error())
	}
	if req.Quantity < 1 {
		return nil, status.Error(codes.InvalidArgument, "quantity must be at least 1")
	}

	draft := product.NewDraft()
	draft.AdjustQuantity(int(req.Quantity) - 1)
	draft.SetPhone(req.Phone)

	if req.PaymentMode != "" {
		mode, err := domain.ToPaymentMode(req.PaymentMode)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		draft.SetPaymentMode(mode)
	}
	if req.Location != "" {
		at := domain.Coordinates{Lat: req.Latitude, Lng: req.Longitude}
		if err := at.Validate(); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		draft.UpdateLocation(req.Location, at)
	}

	c, err := h.orderService.Submit(ctx, draft)
	if err != nil {
		var (
			validation domain.ValidationError
			rejected   domain.ServerRejectedError
		)
		switch {
		case errors.As(err, &validation):
			return &PlaceOrderResponse{
				Success: false,
				Message: validation.Error(),
				Missing: validation.Missing,
			}, nil
		case errors.As(err, &rejected):
			return &PlaceOrderResponse{
				Success: false,
				Message: rejected.Message,
			}, nil
		case errors.Is(err, domain.ErrTransport):
			return nil, status.Error(codes.Unavailable, "order service unreachable")
		}
		h.logger.Error("grpc place order failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &PlaceOrderResponse{
		Success:    true,
		OrderID:    c.OrderID,
		TotalPrice: draft.TotalPrice().StringFixed(2),
		Message:    "order placed successfully",
	}, nil
}

func (h *GRPCHandler) FindOrders(ctx context.Context, req *FindOrdersRequest) (*FindOrdersResponse, error) {
	orders, err := h.lookup.FindOrders(ctx, req.Phone)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp := &FindOrdersResponse{
		Orders: lo.Map(orders, func(o domain.Order, _ int) OrderMessage {
			m := OrderMessage{
				OrderID:     o.OrderID,
				ProductName: o.ProductName,
				Quantity:    int32(o.Quantity),
				Location:    o.Location,
				PaymentMode: string(o.PaymentMode),
				TotalPrice:  o.TotalPrice.StringFixed(2),
			}
			if !o.CreatedAt.IsZero() {
				m.CreatedAt = o.CreatedAt.Format(time.RFC3339)
			}
			return m
		}),
	}
	if len(resp.Orders) == 0 {
		resp.Message = service.NoOrdersMessage
	}

	return resp, nil
}
