package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_SetGetExpire(t *testing.T) {
	c := NewTTLCache(10)
	defer c.Close()

	c.Set("fundamentals:ACME", "value", 50*time.Millisecond)

	got, ok := c.Get("fundamentals:ACME")
	require.True(t, ok)
	assert.Equal(t, "value", got)

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get("fundamentals:ACME")
	assert.False(t, ok, "entry should expire after its TTL")
}

func TestTTLCache_EvictsLRUWhenFull(t *testing.T) {
	c := NewTTLCache(2)
	defer c.Close()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	// Touch "a" so "b" is the least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3, time.Minute)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestTTLCache_Stats(t *testing.T) {
	c := NewTTLCache(10)
	defer c.Close()

	c.Set("k", "v", time.Minute)
	c.Get("k")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	// The miss counter includes the lookup of "missing" and nothing else.
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRatio, 1e-9)
}

func TestRedisCache_SetGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client)

	payload := map[string]float64{"pe_ratio": 15.5}
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	mock.ExpectSet("fundamentals:ACME", data, time.Minute).SetVal("OK")
	c.Set("fundamentals:ACME", payload, time.Minute)

	mock.ExpectGet("fundamentals:ACME").SetVal(string(data))
	got, ok := c.Get("fundamentals:ACME")
	require.True(t, ok)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(got.(json.RawMessage), &decoded))
	assert.Equal(t, payload, decoded)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_MissIsNotAnError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheWithClient(client)

	mock.ExpectGet("missing").RedisNil()
	_, ok := c.Get("missing")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Misses)
}
