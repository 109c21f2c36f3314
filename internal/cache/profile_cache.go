// Package cache provides a Redis read-through cache for the rendered
// profile aggregate. Every save invalidates the entry; the reload step of
// the read-modify-write cycle repopulates it.
package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const profileKey = "profile:main"

type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(redisURL string, ttl time.Duration) (*ProfileCache, error) {
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

	return &ProfileCache{client: client, ttl: ttl}, nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

// Get returns the cached aggregate document, if present. Cache errors are
// logged and treated as misses; the store remains the source of truth.
func (c *ProfileCache) Get(ctx context.Context) ([]byte, bool) {
	data, err := c.client.Get(ctx, profileKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: get profile: %v", err)
		return nil, false
	}
	return data, true
}

// Set stores the aggregate document with the configured TTL.
func (c *ProfileCache) Set(ctx context.Context, data []byte) {
	if err := c.client.Set(ctx, profileKey, data, c.ttl).Err(); err != nil {
		log.Printf("cache: set profile: %v", err)
	}
}

// Invalidate drops the cached document. Called after every merge-write so
// the next load observes the stored state.
func (c *ProfileCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, profileKey).Err(); err != nil {
		log.Printf("cache: invalidate profile: %v", err)
	}
}

// Ping checks if Redis is reachable.
func (c *ProfileCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *ProfileCache) Close() error {
	return c.client.Close()
}
