// Package cache provides a Redis-backed cache for processed journal responses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores serialized process responses keyed by journal content.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a Redis-backed response cache.
func New(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: "process:",
		ttl:    ttl,
	}, nil
}

// NewWithClient creates a cache from an existing Redis client.
func NewWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "process:",
		ttl:    ttl,
	}
}

// Key derives the cache key for one (user, journal) pair. The same journal
// text from the same user always maps to the same key.
func Key(userName, journalText string) string {
	sum := sha256.Sum256([]byte(userName + "::" + journalText))
	return hex.EncodeToString(sum[:])[:16]
}

// Get retrieves a cached response into dst. Returns false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	jsonData, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal([]byte(jsonData), dst); err != nil {
		return false, fmt.Errorf("cache decode: %w", err)
	}
	return true, nil
}

// Set stores a response under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, jsonData, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
