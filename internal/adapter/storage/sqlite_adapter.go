package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS location_slots (
			slot INTEGER PRIMARY KEY,
			last_location TEXT NOT NULL,
			last_lat REAL NOT NULL,
			last_lng REAL NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_receipts (
			order_id INTEGER PRIMARY KEY,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			phone TEXT NOT NULL,
			location_text TEXT NOT NULL,
			payment_mode TEXT NOT NULL,
			total_price TEXT NOT NULL,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_receipts_phone ON order_receipts (phone)`,
	},
	upsertSlot: `
		INSERT INTO location_slots (slot, last_location, last_lat, last_lng, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET last_location = excluded.last_location,
			last_lat = excluded.last_lat, last_lng = excluded.last_lng, updated_at = excluded.updated_at`,
	insertReceipt: `
		INSERT OR IGNORE INTO order_receipts
			(order_id, product_name, quantity, phone, location_text, payment_mode, total_price, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
}

func NewSQLiteAdapter(db *sql.DB) *SQLAdapter {
	return newSQLAdapter(db, sqliteDialect)
}

// OpenSQLite opens (or creates) the database file and its tables.
func OpenSQLite(ctx context.Context, path string) (*SQLAdapter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// one writer at a time; sqlite would otherwise report SQLITE_BUSY under load
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}

	s := NewSQLiteAdapter(db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}
