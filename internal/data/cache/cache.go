package cache

import "time"

// Cache is the quote/fundamentals cache contract. Both the in-memory TTL
// cache and the Redis-backed cache implement it.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Stats() Stats
}

// Stats reports cache effectiveness for the metrics endpoint.
type Stats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	Entries  int64   `json:"entries"`
	HitRatio float64 `json:"hit_ratio"`
}
