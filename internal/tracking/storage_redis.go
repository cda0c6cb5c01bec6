package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStorage persists the event log as a JSON blob in Redis.
type RedisStorage struct {
	redis  redis.Cmdable
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStorage wraps a redis client. A zero ttl keeps values forever.
func NewRedisStorage(client redis.Cmdable, ttl time.Duration) *RedisStorage {
	if client == nil {
		panic("tracking: redis client cannot be nil")
	}
	return &RedisStorage{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("academy.internal.tracking.storage"),
	}
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "tracking.storage.get")
	defer span.End()

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("tracking: redis get: %w", err)
	}
	return data, nil
}

func (s *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.tracer.Start(ctx, "tracking.storage.set")
	defer span.End()

	if err := s.redis.Set(ctx, key, value, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("tracking: redis set: %w", err)
	}
	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "tracking.storage.remove")
	defer span.End()

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("tracking: redis del: %w", err)
	}
	return nil
}

var _ Storage = (*RedisStorage)(nil)
