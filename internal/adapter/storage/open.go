package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/authenticindia/order-desk/internal/config"
	"github.com/authenticindia/order-desk/internal/port"
)

// Backend bundles the location slot and receipt journal of one store.
type Backend struct {
	Locations port.LocationStore
	Journal   port.ReceiptJournal
	close     func() error
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects the store selected by cfg.Kind.
func Open(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		m := NewMemoryAdapter()
		return &Backend{Locations: m, Journal: m}, nil

	case config.StoreSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{Locations: s, Journal: s, close: s.Close}, nil

	case config.StoreMySQL:
		s, err := OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return &Backend{Locations: s, Journal: s, close: s.Close}, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 20})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		r := NewRedisAdapter(rdb, cfg.RedisKeyPrefix)
		return &Backend{Locations: r, Journal: r, close: rdb.Close}, nil
	}

	return nil, fmt.Errorf("unknown store %q", cfg.Kind)
}
