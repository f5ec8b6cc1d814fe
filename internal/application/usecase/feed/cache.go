package feed

import (
	"sync"
	"time"

	"livefeed/internal/application/port"
)

type cacheEntry struct {
	price      float64
	observedAt time.Time
}

// Cache is the TTL-bounded last-known price per token.
type Cache struct {
	mu      sync.RWMutex
	clock   port.Clock
	ttl     time.Duration
	entries map[string]cacheEntry
}

func NewCache(clock port.Clock, ttl time.Duration) *Cache {
	return &Cache{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the price only while now-observedAt < TTL.
func (c *Cache) Get(token string) (float64, bool) {
	c.mu.RLock()
	e, ok := c.entries[token]
	c.mu.RUnlock()
	if !ok {
		return 0, false
	}
	if c.clock.Now().Sub(e.observedAt) >= c.ttl {
		return 0, false
	}
	return e.price, true
}

// Peek returns the last stored price regardless of age.
func (c *Cache) Peek(token string) (price float64, observedAt time.Time, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[token]
	return e.price, e.observedAt, ok
}

// Set overwrites the entry with observedAt = now.
func (c *Cache) Set(token string, price float64) {
	now := c.clock.Now()
	c.mu.Lock()
	c.entries[token] = cacheEntry{price: price, observedAt: now}
	c.mu.Unlock()
}

func (c *Cache) Delete(token string) {
	c.mu.Lock()
	delete(c.entries, token)
	c.mu.Unlock()
}
