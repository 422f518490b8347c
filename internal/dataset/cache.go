package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"etfseasonal/internal/config"
	"etfseasonal/internal/stats"
)

// Cache is an optional shared tier behind the locator's in-process memo.
// A miss returns found == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (c stats.Collection, found bool, err error)
	Set(ctx context.Context, key string, c stats.Collection) error
}

// RedisCache stores resolved collections as split-oriented JSON.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and pings it once.
func NewRedisCache(ctx context.Context, cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	return &RedisCache{client: client, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

// Get loads a collection. Missing keys are a miss, not an error.
func (r *RedisCache) Get(ctx context.Context, key string) (stats.Collection, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var c stats.Collection
	if err := json.Unmarshal(val, &c); err != nil {
		return nil, false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return c, true, nil
}

// Set stores a collection with the configured expiration.
func (r *RedisCache) Set(ctx context.Context, key string, c stats.Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+key, data, r.ttl).Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
