package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

// the slot table holds a single row
const slotID = 1

type dialect struct {
	name          string
	schema        []string
	upsertSlot    string
	insertReceipt string
}

// SQLAdapter keeps the last-location slot and the receipt journal in a SQL
// database. MySQL and SQLite differ only in their upsert syntax.
type SQLAdapter struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLAdapter(db *sql.DB, d dialect) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: d, now: time.Now}
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *SQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s schema: %w", s.dialect.name, err)
		}
	}
	return nil
}

func (s *SQLAdapter) LoadLocation(ctx context.Context) (domain.PersistedLocation, error) {
	var loc domain.PersistedLocation
	err := s.db.QueryRowContext(ctx, `
		SELECT last_location, last_lat, last_lng
		FROM location_slots WHERE slot = ?`, slotID,
	).Scan(&loc.Text, &loc.Coordinates.Lat, &loc.Coordinates.Lng)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.PersistedLocation{}, nil
	}
	if err != nil {
		return domain.PersistedLocation{}, fmt.Errorf("query location: %w", err)
	}

	return loc, nil
}

func (s *SQLAdapter) SaveLocation(ctx context.Context, loc domain.PersistedLocation) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsertSlot,
		slotID, loc.Text, loc.Coordinates.Lat, loc.Coordinates.Lng, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}
	return nil
}

// RecordReceipt inserts the order once; replays of the same order id are ignored.
func (s *SQLAdapter) RecordReceipt(ctx context.Context, c domain.Confirmation) error {
	o := c.Order
	_, err := s.db.ExecContext(ctx, s.dialect.insertReceipt,
		c.OrderID, o.ProductName, o.Quantity, o.Phone, o.Location,
		string(o.PaymentMode), o.TotalPrice.StringFixed(2), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

// Receipts lists journaled orders for a phone number, newest first.
func (s *SQLAdapter) Receipts(ctx context.Context, phone string) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT order_id, product_name, quantity, phone, location_text, payment_mode, total_price, recorded_at
		FROM order_receipts WHERE phone = ?
		ORDER BY order_id DESC`, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var (
			o          domain.Order
			mode       string
			total      string
			recordedAt int64
		)
		if err := rows.Scan(&o.OrderID, &o.ProductName, &o.Quantity, &o.Phone, &o.Location, &mode, &total, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		o.PaymentMode = domain.PaymentMode(mode)
		if o.TotalPrice, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("receipt %d total: %w", o.OrderID, err)
		}
		o.CreatedAt = domain.Timestamp{Time: time.UnixMilli(recordedAt).UTC()}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (s *SQLAdapter) Close() error {
	return s.db.Close()
}
