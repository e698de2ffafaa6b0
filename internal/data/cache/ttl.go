package cache

import (
	"sync"
	"time"
)

// TTLCache is an in-memory cache with time-based expiration and LRU
// eviction. It backs a screening pass when no Redis address is configured.
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int64
	stats      struct {
		hits   int64
		misses int64
	}

	stopCh chan struct{}
}

type cacheEntry struct {
	value    interface{}
	expires  time.Time
	accessed time.Time
}

// NewTTLCache creates a TTL cache bounded to maxEntries entries. A cleanup
// goroutine sweeps expired entries once a minute; Close stops it.
func NewTTLCache(maxEntries int64) *TTLCache {
	c := &TTLCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// Get retrieves a value if present and not expired.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expires) {
		c.stats.misses++
		return nil, false
	}

	entry.accessed = time.Now()
	c.stats.hits++
	return entry.value, true
}

// Set stores a value with the given TTL, evicting the least recently used
// entry when the cache is full.
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if int64(len(c.entries)) >= c.maxEntries {
		c.evictLRU()
	}

	c.entries[key] = &cacheEntry{
		value:    value,
		expires:  time.Now().Add(ttl),
		accessed: time.Now(),
	}
}

// Stats returns hit/miss counters.
func (c *TTLCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.stats.hits + c.stats.misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(c.stats.hits) / float64(total)
	}
	return Stats{
		Hits:     c.stats.hits,
		Misses:   c.stats.misses,
		Entries:  int64(len(c.entries)),
		HitRatio: ratio,
	}
}

// Close stops the cleanup goroutine.
func (c *TTLCache) Close() {
	close(c.stopCh)
}

func (c *TTLCache) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.accessed.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = entry.accessed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *TTLCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expires) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}
