// Package cache provides the short-lived report memo cache. Entries
// are opaque report structures keyed by report kind, user, period and
// tenant filter; there is no partial invalidation, entries simply
// expire.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL bounds how stale a served report may be. Within the TTL a
// cached report is returned as-is; no freshness re-validation happens.
const DefaultTTL = 900 * time.Second

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe TTL cache. Per-key operations are
// atomic; no cross-key transactions are needed or offered.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	nowFn   func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		nowFn:   time.Now,
	}
}

// Key joins the identifying parts with colons, skipping empty parts.
func Key(prefix string, parts ...string) string {
	kept := make([]string, 0, len(parts)+1)
	kept = append(kept, prefix)
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}

// Get returns the unexpired value for key.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.nowFn().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.nowFn().Add(ttl)}
}

// GetOrCompute returns the cached value for key, or invokes compute,
// stores its result and returns it. Failed computations are not
// cached.
func (c *Cache) GetOrCompute(key string, ttl time.Duration, compute func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.Set(key, v, ttl)
	return v, nil
}
