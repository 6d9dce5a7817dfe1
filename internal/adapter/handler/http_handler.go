package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"github.com/samber/lo"

	"github.com/authenticindia/order-desk/internal/core/domain"
	"github.com/authenticindia/order-desk/internal/core/service"
)

const (
	cookieName      = "order-desk"
	sessionIDKey    = "order_session_id"
	maxRequestBytes = 64 << 10
)

var (
	errNoOpenOrder = errors.New("no open order")
	errEmptyBody   = errors.New("request body is required")
)

// HTTPHandler serves the JSON order desk used by the storefront.
type HTTPHandler struct {
	registry *service.SessionRegistry
	lookup   *service.LookupService
	cookies  sessions.Store
	logger   *slog.Logger
}

type openSessionRequest struct {
	ProductID string `json:"product_id"`
}

type quantityRequest struct {
	Delta int `json:"delta"`
}

type phoneRequest struct {
	Phone string `json:"phone"`
}

type paymentRequest struct {
	PaymentMode string `json:"payment_mode"`
}

type mapSizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type sessionResponse struct {
	Session service.SessionView `json:"session"`
	Redraw  bool                `json:"redraw,omitempty"`
}

type submitResponse struct {
	OrderID int64 `json:"order_id"`
}

type errorResponse struct {
	Error   string               `json:"error"`
	Missing []string             `json:"missing,omitempty"`
	Session *service.SessionView `json:"session,omitempty"`
}

type productResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Weight      string   `json:"weight"`
	Price       string   `json:"price"`
	Currency    string   `json:"currency"`
	Display     string   `json:"display_price"`
	Features    []string `json:"features"`
	Badge       string   `json:"badge,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
}

type orderResponse struct {
	OrderID      int64     `json:"order_id"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	Location     string    `json:"location"`
	PaymentMode  string    `json:"payment_mode"`
	PaymentLabel string    `json:"payment_label"`
	TotalPrice   string    `json:"total_price"`
	CreatedAt    time.Time `json:"created_at"`
}

type myOrdersResponse struct {
	Orders  []orderResponse `json:"orders"`
	Message string          `json:"message,omitempty"`
}

// NewCookieStore builds the store holding the order session id. The cookie is
// HttpOnly and SameSite=Lax; Secure is set only when the desk is served over TLS.
func NewCookieStore(key []byte, secure bool, maxAge time.Duration) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func NewHTTPHandler(registry *service.SessionRegistry, lookup *service.LookupService, cookies sessions.Store, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{registry: registry, lookup: lookup, cookies: cookies, logger: logger}
}

// Routes builds the desk router. CSRF protection is layered on by the caller.
func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/my-orders", h.MyOrders)

		r.Route("/order-session", func(r chi.Router) {
			r.Post("/", h.OpenSession)
			r.Get("/", h.GetSession)
			r.Delete("/", h.CloseSession)

			r.Post("/quantity", h.AdjustQuantity)
			r.Put("/phone", h.SetPhone)
			r.Put("/payment", h.SetPaymentMode)
			r.Post("/map/click", h.SelectPoint)
			r.Post("/map/show", h.ShowMap)
			r.Post("/map/hide", h.HideMap)
			r.Post("/locate", h.UseMyLocation)
			r.Post("/submit", h.Submit)
		})
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "open_sessions": h.registry.Len()})
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := lo.Map(h.registry.Catalog().Products(), func(p domain.Product, _ int) productResponse {
		return productResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Weight:      p.Weight,
			Price:       p.Price.StringFixed(2),
			Currency:    p.Currency.String(),
			Display:     p.FormatPrice(p.Price),
			Features:    p.Features,
			Badge:       p.Badge,
			Rating:      p.Rating,
		}
	})
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		products := h.registry.Catalog().Products()
		if len(products) == 0 {
			writeError(w, http.StatusNotFound, domain.ErrProductNotFound.Error())
			return
		}
		req.ProductID = products[0].ID
	}

	cookie, _ := h.cookies.Get(r, cookieName)
	if prev, ok := cookie.Values[sessionIDKey].(string); ok {
		h.registry.Close(prev)
	}

	s, err := h.registry.Open(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to open order session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	cookie.Values[sessionIDKey] = s.ID()
	if err := cookie.Save(r, w); err != nil {
		h.registry.Close(s.ID())
		h.logger.Error("failed to save cookie", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Session: s.View()})
}

func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s.View()})
}

func (h *HTTPHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	cookie, _ := h.cookies.Get(r, cookieName)
	if id, ok := cookie.Values[sessionIDKey].(string); ok {
		h.registry.Close(id)
		delete(cookie.Values, sessionIDKey)
		if err := cookie.Save(r, w); err != nil {
			h.logger.Warn("failed to clear cookie", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := s.AdjustQuantity(req.Delta); err != nil {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s.View()})
}

func (h *HTTPHandler) SetPhone(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req phoneRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.SetPhone(req.Phone); err != nil {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s.View()})
}

func (h *HTTPHandler) SetPaymentMode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := domain.ToPaymentMode(req.PaymentMode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.SetPaymentMode(mode); err != nil {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s.View()})
}

func (h *HTTPHandler) SelectPoint(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var at domain.Coordinates
	if err := decodeRequiredJSON(r, &at); err != nil {
		writeBodyError(w, err)
		return
	}
	if err := at.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.SelectPoint(r.Context(), at); err != nil && !errors.Is(err, service.ErrSuperseded) {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s.View()})
}

func (h *HTTPHandler) UseMyLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if _, err := s.UseMyLocation(r.Context()); err != nil && !errors.Is(err, service.ErrSuperseded) {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s.View()})
}

func (h *HTTPHandler) ShowMap(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req mapSizeRequest
	if err := decodeRequiredJSON(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Width < 0 || req.Height < 0 {
		writeError(w, http.StatusBadRequest, "map size must not be negative")
		return
	}

	redraw, err := s.ShowMap(req.Width, req.Height)
	if err != nil {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s.View(), Redraw: redraw})
}

func (h *HTTPHandler) HideMap(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.HideMap(); err != nil {
		h.writeSessionError(w, s, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: s.View()})
}

func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	c, err := s.Submit(r.Context())
	if err != nil {
		h.writeSessionError(w, s, err)
		return
	}

	h.registry.Close(s.ID())
	writeJSON(w, http.StatusCreated, submitResponse{OrderID: c.OrderID})
}

func (h *HTTPHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.lookup.FindOrders(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := myOrdersResponse{
		Orders: lo.Map(orders, func(o domain.Order, _ int) orderResponse {
			return orderResponse{
				OrderID:      o.OrderID,
				ProductName:  o.ProductName,
				Quantity:     o.Quantity,
				Location:     o.Location,
				PaymentMode:  string(o.PaymentMode),
				PaymentLabel: o.PaymentMode.Label(),
				TotalPrice:   o.TotalPrice.StringFixed(2),
				CreatedAt:    o.CreatedAt.Time,
			}
		}),
	}
	if len(resp.Orders) == 0 {
		resp.Message = service.NoOrdersMessage
	}

	writeJSON(w, http.StatusOK, resp)
}

// session resolves the caller's open order session from the cookie and
// writes a 404 when there is none.
func (h *HTTPHandler) session(w http.ResponseWriter, r *http.Request) (*service.OrderSession, bool) {
	cookie, err := h.cookies.Get(r, cookieName)
	if err != nil {
		h.logger.Debug("unreadable session cookie", "error", err)
	}
	if cookie != nil {
		if id, ok := cookie.Values[sessionIDKey].(string); ok {
			if s, ok := h.registry.Get(id); ok {
				return s, true
			}
		}
	}

	writeError(w, http.StatusNotFound, errNoOpenOrder.Error())
	return nil, false
}

func (h *HTTPHandler) writeSessionError(w http.ResponseWriter, s *service.OrderSession, err error) {
	status, resp := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("order session request failed", "session", s.ID(), "error", err)
	}
	if status != http.StatusNotFound {
		view := s.View()
		resp.Session = &view
	}
	writeJSON(w, status, resp)
}

func errorStatus(err error) (int, errorResponse) {
	var (
		validation domain.ValidationError
		rejected   domain.ServerRejectedError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorResponse{Error: validation.Error(), Missing: validation.Missing}
	case errors.As(err, &rejected):
		return http.StatusBadGateway, errorResponse{Error: rejected.Message}
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrTransport):
		return http.StatusServiceUnavailable, errorResponse{Error: "could not reach the order service, please try again"}
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusNotFound, errorResponse{Error: errNoOpenOrder.Error()}
	case errors.Is(err, domain.ErrLocationUnavailable):
		return http.StatusUnprocessableEntity, errorResponse{Error: domain.ErrLocationUnavailable.Error()}
	case errors.Is(err, domain.ErrGeocodeFailed):
		return http.StatusBadGateway, errorResponse{Error: "could not find an address for this point"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

func (h *HTTPHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// decodeRequiredJSON is decodeJSON for routes where a missing body would
// otherwise be read as zero values.
func decodeRequiredJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return errEmptyBody
	}
	return err
}

func writeBodyError(w http.ResponseWriter, err error) {
	if errors.Is(err, errEmptyBody) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
