package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/authenticindia/order-desk/internal/core/domain"
	"github.com/authenticindia/order-desk/internal/port"
)

// ErrSuperseded is returned by a location request whose answer arrived after
// a newer request had already been applied.
var ErrSuperseded = errors.New("location request superseded by a newer one")

// SessionDeps are shared by every session.
type SessionDeps struct {
	Orders   *OrderService
	Location *LocationService
	Store    port.LocationStore
	Logger   *slog.Logger
	// OnConfirmed runs once per acknowledged order, after the draft was reset.
	OnConfirmed func(domain.Confirmation)
}

// SessionView is a point-in-time copy of a session.
type SessionView struct {
	ID           string             `json:"id"`
	ProductID    string             `json:"product_id"`
	ProductName  string             `json:"product_name"`
	UnitPrice    decimal.Decimal    `json:"unit_price"`
	Quantity     int                `json:"quantity"`
	TotalPrice   decimal.Decimal    `json:"total_price"`
	Phone        string             `json:"phone"`
	LocationText string             `json:"location"`
	Coordinates  domain.Coordinates `json:"coordinates"`
	PaymentMode  domain.PaymentMode `json:"payment_mode"`
	Submittable  bool               `json:"submittable"`
	Submitting   bool               `json:"submitting"`
	Closed       bool               `json:"closed"`
	Map          MapView            `json:"map"`
}

// OrderSession is one open order surface for one product.
//
// Location requests are numbered in the order they are issued. A geocoding
// answer only updates the draft when its number is higher than the last one
// applied, so a slow answer can never overwrite a newer location. Nothing in
// flight is cancelled by Close; answers that arrive afterwards are dropped.
type OrderSession struct {
	id      string
	product domain.Product
	deps    SessionDeps
	logger  *slog.Logger

	mu         sync.Mutex
	draft      domain.OrderDraft
	surface    *MapSurface
	issuedSeq  uint64
	appliedSeq uint64
	submitting bool
	closed     bool
	touchedAt  time.Time
}

func NewOrderSession(id string, product domain.Product, deps SessionDeps) *OrderSession {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	draft := product.NewDraft()
	return &OrderSession{
		id:        id,
		product:   product,
		deps:      deps,
		logger:    logger.With("session", id),
		draft:     draft,
		surface:   NewMapSurface(draft.Coordinates()),
		touchedAt: time.Now(),
	}
}

func (s *OrderSession) ID() string {
	return s.id
}

// Open restores the last used delivery location, if any.
func (s *OrderSession) Open(ctx context.Context) error {
	if s.deps.Store == nil {
		return nil
	}

	loc, err := s.deps.Store.LoadLocation(ctx)
	if err != nil {
		s.logger.Warn("failed to restore last location", "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if loc.IsZero() {
		return nil
	}

	s.draft.UpdateLocation(loc.Text, loc.Coordinates)
	s.surface.Click(loc.Coordinates)
	s.logger.Debug("restored last location", "location", loc.Text)
	return nil
}

func (s *OrderSession) AdjustQuantity(delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return s.draft.AdjustQuantity(delta), nil
}

func (s *OrderSession) SetPhone(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}
	s.draft.SetPhone(phone)
	return nil
}

func (s *OrderSession) SetPaymentMode(mode domain.PaymentMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}
	s.draft.SetPaymentMode(mode)
	return nil
}

// ShowMap reports whether the map had to be re-measured.
func (s *OrderSession) ShowMap(width, height int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return false, err
	}
	return s.surface.Show(width, height), nil
}

func (s *OrderSession) HideMap() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(); err != nil {
		return err
	}
	s.surface.Hide()
	return nil
}

// SelectPoint handles a click on the map: the marker moves right away and
// the draft follows once the point has an address. If no address is found
// the marker returns to the draft's point.
func (s *OrderSession) SelectPoint(ctx context.Context, at domain.Coordinates) (domain.PersistedLocation, error) {
	if err := at.Validate(); err != nil {
		return domain.PersistedLocation{}, err
	}

	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return domain.PersistedLocation{}, err
	}
	s.surface.Click(at)
	seq := s.nextSeq()
	s.mu.Unlock()

	return s.resolve(ctx, seq, at)
}

// UseMyLocation asks the position source for a fix and resolves it. When no
// fix is available the draft is left untouched.
func (s *OrderSession) UseMyLocation(ctx context.Context) (domain.PersistedLocation, error) {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return domain.PersistedLocation{}, err
	}
	seq := s.nextSeq()
	s.mu.Unlock()

	at, err := s.deps.Location.CurrentPosition(ctx)
	if err != nil {
		return domain.PersistedLocation{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.PersistedLocation{}, domain.ErrSessionClosed
	}
	if seq == s.issuedSeq {
		s.surface.Click(at)
	}
	s.mu.Unlock()

	return s.resolve(ctx, seq, at)
}

func (s *OrderSession) resolve(ctx context.Context, seq uint64, at domain.Coordinates) (domain.PersistedLocation, error) {
	text, err := s.deps.Location.ReverseGeocode(ctx, at)
	if err != nil {
		s.mu.Lock()
		// the marker goes back to the draft's point unless a newer request owns it
		if !s.closed && seq == s.issuedSeq {
			s.surface.Click(s.draft.Coordinates())
		}
		s.mu.Unlock()
		return domain.PersistedLocation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.PersistedLocation{}, domain.ErrSessionClosed
	}
	if seq <= s.appliedSeq {
		s.logger.Debug("dropping stale location", "seq", seq, "applied", s.appliedSeq)
		return s.draft.Location(), ErrSuperseded
	}

	s.appliedSeq = seq
	s.draft.UpdateLocation(text, at)
	loc := s.draft.Location()

	if s.deps.Store != nil {
		if err := s.deps.Store.SaveLocation(ctx, loc); err != nil {
			s.logger.Warn("failed to persist last location", "error", err)
		}
	}

	return loc, nil
}

// Submit places the order for the current draft. While one submission is in
// flight further calls return domain.ErrSubmissionInFlight without touching
// the network. The draft is only reset once the backend has acknowledged
// the order, so a failed attempt can be retried as is.
func (s *OrderSession) Submit(ctx context.Context) (domain.Confirmation, error) {
	var zero domain.Confirmation

	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return zero, err
	}
	if s.submitting {
		s.mu.Unlock()
		return zero, domain.ErrSubmissionInFlight
	}
	if err := s.draft.Validate(); err != nil {
		s.mu.Unlock()
		return zero, err
	}
	s.submitting = true
	draft := s.draft
	s.mu.Unlock()

	c, err := s.deps.Orders.Submit(ctx, draft)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.mu.Unlock()
		return zero, err
	}
	if s.closed {
		s.mu.Unlock()
		s.logger.Info("order acknowledged after session closed", "order_id", c.OrderID)
		return c, nil
	}
	s.draft.Reset()
	s.closed = true
	s.mu.Unlock()

	if s.deps.OnConfirmed != nil {
		s.deps.OnConfirmed(c)
	}
	return c, nil
}

// Close tears the session down. It is safe to call more than once.
func (s *OrderSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *OrderSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *OrderSession) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionView{
		ID:           s.id,
		ProductID:    s.product.ID,
		ProductName:  s.draft.ProductName(),
		UnitPrice:    s.draft.UnitPrice(),
		Quantity:     s.draft.Quantity(),
		TotalPrice:   s.draft.TotalPrice(),
		Phone:        s.draft.Phone(),
		LocationText: s.draft.LocationText(),
		Coordinates:  s.draft.Coordinates(),
		PaymentMode:  s.draft.PaymentMode(),
		Submittable:  s.draft.IsSubmittable(),
		Submitting:   s.submitting,
		Closed:       s.closed,
		Map:          s.surface.View(),
	}
}

func (s *OrderSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// checkOpen must be called with mu held.
func (s *OrderSession) checkOpen() error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	s.touchedAt = time.Now()
	return nil
}

func (s *OrderSession) nextSeq() uint64 {
	s.issuedSeq++
	return s.issuedSeq
}
