package oembed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "oembed:"

// RedisCache implements Cache on Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a RedisCache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func cacheKey(pageURL string) string {
	sum := sha256.Sum256([]byte(pageURL))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get loads cached data for pageURL.
func (c *RedisCache) Get(ctx context.Context, pageURL string) (Data, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(pageURL)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get oembed: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false, fmt.Errorf("unmarshal oembed: %w", err)
	}
	return data, true, nil
}

// Set stores data for pageURL.
func (c *RedisCache) Set(ctx context.Context, pageURL string, data Data, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal oembed: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(pageURL), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set oembed: %w", err)
	}
	return nil
}
