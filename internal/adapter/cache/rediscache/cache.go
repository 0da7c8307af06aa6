// Package rediscache implements domain.ScoreCache on Redis.
//
// Scoring is a pure function of its inputs, so cache entries never go stale.
// The TTL only bounds how much memory old entries hold.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
)

// Cache stores serialized score results keyed by an input hash.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a Cache over its own Redis client.
func New(addr string, db int, ttl time.Duration) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	return &Cache{client: client, ttl: ttl}
}

// NewWithClient wraps an existing client, used by tests with miniredis.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached result for key. The second return reports whether
// the key was present.
func (c *Cache) Get(ctx domain.Context, key string) (domain.ScoreResult, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ScoreResult{}, false, nil
		}
		return domain.ScoreResult{}, false, fmt.Errorf("op=cache.Get: %w", err)
	}
	var res domain.ScoreResult
	if err := json.Unmarshal(b, &res); err != nil {
		return domain.ScoreResult{}, false, fmt.Errorf("op=cache.Get: unmarshal: %w", err)
	}
	return res, true, nil
}

// Set stores the result under key with the configured TTL.
func (c *Cache) Set(ctx domain.Context, key string, r domain.ScoreResult) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("op=cache.Set: marshal: %w", err)
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("op=cache.Set: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
