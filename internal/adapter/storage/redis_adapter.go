package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

const (
	DefaultKeyPrefix = "orderdesk:"

	lastLocationKey = "lastLocation"
	lastLatKey      = "lastLat"
	lastLngKey      = "lastLng"
	receiptKey      = "receipt:"

	receiptTTL = 30 * 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
	prefix string
}

func NewRedisAdapter(client *redis.Client, prefix string) *RedisAdapter {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisAdapter{client: client, prefix: prefix}
}

func (r *RedisAdapter) LoadLocation(ctx context.Context) (domain.PersistedLocation, error) {
	vals, err := r.client.MGet(ctx, r.prefix+lastLocationKey, r.prefix+lastLatKey, r.prefix+lastLngKey).Result()
	if err != nil {
		return domain.PersistedLocation{}, fmt.Errorf("redis mget: %w", err)
	}

	text, _ := vals[0].(string)
	if text == "" {
		return domain.PersistedLocation{}, nil
	}

	lat, latErr := parseCoord(vals[1])
	lng, lngErr := parseCoord(vals[2])
	if err := errors.Join(latErr, lngErr); err != nil {
		return domain.PersistedLocation{}, fmt.Errorf("stored coordinates: %w", err)
	}

	return domain.PersistedLocation{Text: text, Coordinates: domain.Coordinates{Lat: lat, Lng: lng}}, nil
}

// SaveLocation writes all three keys in one MULTI so a reader never sees a
// text from one save with coordinates from another.
func (r *RedisAdapter) SaveLocation(ctx context.Context, loc domain.PersistedLocation) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.prefix+lastLocationKey, loc.Text, 0)
		pipe.Set(ctx, r.prefix+lastLatKey, strconv.FormatFloat(loc.Coordinates.Lat, 'f', -1, 64), 0)
		pipe.Set(ctx, r.prefix+lastLngKey, strconv.FormatFloat(loc.Coordinates.Lng, 'f', -1, 64), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis tx: %w", err)
	}
	return nil
}

// RecordReceipt stores the order once. A repeated confirmation for the same
// order id is ignored.
func (r *RedisAdapter) RecordReceipt(ctx context.Context, c domain.Confirmation) error {
	payload, err := encodeReceipt(c)
	if err != nil {
		return err
	}

	key := r.prefix + receiptKey + strconv.FormatInt(c.OrderID, 10)
	if err := r.client.SetNX(ctx, key, payload, receiptTTL).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

func parseCoord(v any) (float64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, errors.New("missing coordinate")
	}
	return strconv.ParseFloat(s, 64)
}
