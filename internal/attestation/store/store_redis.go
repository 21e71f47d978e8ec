package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"attestry/pkg/platform/sentinel"
)

var (
	redisGetDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "attestry_redis_get_duration_ms",
		Help:    "Latency of registry key reads from Redis in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for all registry records.
	redisKeyPrefix = "attestry:"
)

// RedisKV is a Redis-backed key-value store. Redis gives native per-key TTL
// semantics, which maps directly onto the lifecycle classes: every SET with
// expiration refreshes the horizon. This is the production-recommended
// backend for distributed deployments.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV constructs a Redis-backed store. The client lifecycle is managed
// by the caller.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (kv *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer func() {
		redisGetDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	val, err := kv.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (kv *RedisKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := kv.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Apply commits the batch inside a MULTI/EXEC transaction so no partial
// state is observable to other clients.
func (kv *RedisKV) Apply(ctx context.Context, mutations []Mutation) error {
	if len(mutations) == 0 {
		return nil
	}
	_, err := kv.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, m := range mutations {
			pipe.Set(ctx, redisKeyPrefix+m.Key, m.Value, m.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis apply batch: %w", err)
	}
	return nil
}
