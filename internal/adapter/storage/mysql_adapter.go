package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS location_slots (
			slot TINYINT PRIMARY KEY,
			last_location TEXT NOT NULL,
			last_lat DOUBLE NOT NULL,
			last_lng DOUBLE NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_receipts (
			order_id BIGINT PRIMARY KEY,
			product_name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			phone VARCHAR(32) NOT NULL,
			location_text TEXT NOT NULL,
			payment_mode VARCHAR(16) NOT NULL,
			total_price VARCHAR(32) NOT NULL,
			recorded_at BIGINT NOT NULL,
			INDEX idx_order_receipts_phone (phone)
		)`,
	},
	upsertSlot: `
		INSERT INTO location_slots (slot, last_location, last_lat, last_lng, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE last_location = VALUES(last_location), last_lat = VALUES(last_lat),
			last_lng = VALUES(last_lng), updated_at = VALUES(updated_at)`,
	insertReceipt: `
		INSERT IGNORE INTO order_receipts
			(order_id, product_name, quantity, phone, location_text, payment_mode, total_price, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
}

func NewMySQLAdapter(db *sql.DB) *SQLAdapter {
	return newSQLAdapter(db, mysqlDialect)
}

// OpenMySQL connects with the given DSN and pings before returning.
func OpenMySQL(ctx context.Context, dsn string) (*SQLAdapter, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}

	return NewMySQLAdapter(db), nil
}
