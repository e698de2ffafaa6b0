package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// RedisCache stores cache values as JSON in Redis so fundamentals survive
// across screener runs and are shared between instances. Values must be
// JSON round-trippable; Get returns json.RawMessage for the caller to
// decode.
type RedisCache struct {
	client *redis.Client
	hits   int64
	misses int64
}

// NewRedisCache connects to the given Redis address.
func NewRedisCache(addr string, db int) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &RedisCache{client: client}
}

// NewRedisCacheWithClient wraps an existing client (used by tests with
// redismock).
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a cached value. The returned value is a json.RawMessage.
func (c *RedisCache) Get(key string) (interface{}, bool) {
	data, err := c.client.Get(context.Background(), key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("Redis cache read failed")
		}
		atomic.AddInt64(&c.misses, 1)
		return nil, false
	}

	atomic.AddInt64(&c.hits, 1)
	return json.RawMessage(data), true
}

// Set stores a value as JSON with the given TTL. Serialization or transport
// failures are logged and dropped; the cache is best effort.
func (c *RedisCache) Set(key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Redis cache value not serializable")
		return
	}

	if err := c.client.Set(context.Background(), key, data, ttl).Err(); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Redis cache write failed")
	}
}

// Stats returns hit/miss counters for this process.
func (c *RedisCache) Stats() Stats {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)
	total := hits + misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return Stats{Hits: hits, Misses: misses, HitRatio: ratio}
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
