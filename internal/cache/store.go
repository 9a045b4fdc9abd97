// Package cache keeps timestamped JSON payloads in a key/value medium and
// treats them as fresh for a caller-supplied TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// TTLs per data category, chosen by the reader.
const (
	MarketDataTTL = 5 * time.Minute
	NewsTTL       = 15 * time.Minute
)

const (
	MarketDataPrefix = "sharada_market_data_cache_"
	NewsKey          = "sharada_news_cache_market"
)

// MarketDataKey returns the cache key for a symbol's quote.
func MarketDataKey(symbol string) string {
	return MarketDataPrefix + strings.ToUpper(strings.TrimSpace(symbol))
}

// ErrMiss is returned by a Backend when the key holds nothing.
var ErrMiss = errors.New("cache: miss")

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Expired  int64 `json:"expired"`
	Writes   int64 `json:"writes"`
	Failures int64 `json:"failures"`
}

type Cache struct {
	backend Backend
	now     func() time.Time

	hits     atomic.Int64
	misses   atomic.Int64
	expired  atomic.Int64
	writes   atomic.Int64
	failures atomic.Int64
}

type Option func(*Cache)

// WithClock replaces time.Now for expiry checks and write timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the payload stored under key into dst when it was written less
// than ttl ago. Any failure is logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, dst any) bool {
	if c == nil || c.backend == nil {
		return false
	}
	raw, err := c.backend.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		c.misses.Add(1)
		return false
	}
	if err != nil {
		c.failures.Add(1)
		log.Printf("cache read error for %s: %v", key, err)
		return false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.failures.Add(1)
		log.Printf("cache decode error for %s: %v", key, err)
		return false
	}
	age := c.now().Sub(time.UnixMilli(e.Timestamp))
	if age >= ttl {
		c.expired.Add(1)
		return false
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		c.failures.Add(1)
		log.Printf("cache payload decode error for %s: %v", key, err)
		return false
	}
	c.hits.Add(1)
	return true
}

// Set stores payload under key stamped with the current time. Failures are
// logged and otherwise ignored.
func (c *Cache) Set(ctx context.Context, key string, payload any) {
	if c == nil || c.backend == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		c.failures.Add(1)
		log.Printf("cache encode error for %s: %v", key, err)
		return
	}
	raw, err := json.Marshal(entry{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		c.failures.Add(1)
		log.Printf("cache encode error for %s: %v", key, err)
		return
	}
	if err := c.backend.Set(ctx, key, raw); err != nil {
		c.failures.Add(1)
		log.Printf("cache write error for %s: %v", key, err)
		return
	}
	c.writes.Add(1)
}

func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Expired:  c.expired.Load(),
		Writes:   c.writes.Load(),
		Failures: c.failures.Load(),
	}
}

// MemoryBackend is a process-local Backend.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
