package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tablebook/booking-svc/internal/domain"
	"tablebook/booking-svc/internal/service"
)

const pendingMarker = "pending"

// RedisIdempotency stores "booking:idem:<key>" -> "pending" | reservation id.
type RedisIdempotency struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisIdempotency(client *redis.Client, ttl time.Duration) *RedisIdempotency {
	return &RedisIdempotency{Client: client, TTL: ttl}
}

var _ service.IdempotencyStore = (*RedisIdempotency)(nil)

func (c *RedisIdempotency) markerKey(key string) string {
	return "booking:idem:" + key
}

func (c *RedisIdempotency) Reserve(ctx context.Context, key string) (uuid.UUID, error) {
	k := c.markerKey(key)
	claimed, err := c.Client.SetNX(ctx, k, pendingMarker, c.TTL).Result()
	if err != nil {
		return uuid.Nil, err
	}
	if claimed {
		return uuid.Nil, nil
	}

	val, err := c.Client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired or released between SETNX and GET; try once more.
		if ok, err := c.Client.SetNX(ctx, k, pendingMarker, c.TTL).Result(); err != nil || ok {
			return uuid.Nil, err
		}
		return uuid.Nil, domain.ErrDuplicateRequest
	}
	if err != nil {
		return uuid.Nil, err
	}
	if val == pendingMarker {
		return uuid.Nil, domain.ErrDuplicateRequest
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (c *RedisIdempotency) Complete(ctx context.Context, key string, reservationID uuid.UUID) error {
	return c.Client.Set(ctx, c.markerKey(key), reservationID.String(), c.TTL).Err()
}

func (c *RedisIdempotency) Release(ctx context.Context, key string) error {
	return c.Client.Del(ctx, c.markerKey(key)).Err()
}
