// Package cache provides the in-memory TTL maps backing the lead
// deduplication guard and the human-handoff suppression state. Entries are
// process-local and lost on restart.
package cache

import (
	"sync"
	"time"
)

// TTLCache maps a key to the timestamp it was last written. An entry is live
// while now minus its timestamp is below the cache TTL; expired entries are
// logically absent even before Sweep removes them.
type TTLCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]time.Time
}

// New creates a TTL cache with the given expiry window
func New(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
	}
}

// Put records key at the given instant, overwriting any previous entry.
// Writes also expire stale entries opportunistically, so under traffic the
// map stays tighter than the periodic sweep alone would keep it.
func (c *TTLCache) Put(key string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireLocked(now)
	c.entries[key] = now
}

// IsLive reports whether key has an unexpired entry at the given instant
func (c *TTLCache) IsLive(key string, now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.entries[key]
	return ok && now.Sub(ts) < c.ttl
}

// Claim atomically writes key if it has no live entry. It returns true when
// the claim succeeded. This is the check-and-set the lead deduplicator
// depends on: two concurrent claims for the same key can never both win.
func (c *TTLCache) Claim(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts, ok := c.entries[key]; ok && now.Sub(ts) < c.ttl {
		return false
	}
	c.expireLocked(now)
	c.entries[key] = now
	return true
}

// Timestamp returns the raw write timestamp for key, ignoring expiry
func (c *TTLCache) Timestamp(key string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.entries[key]
	return ts, ok
}

// Remove deletes key, releasing a claim so a later attempt can retry
func (c *TTLCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Sweep removes every expired entry and returns how many were removed.
// Safe to call concurrently with reads and writes.
func (c *TTLCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expireLocked(now)
}

func (c *TTLCache) expireLocked(now time.Time) int {
	removed := 0
	for key, ts := range c.entries {
		if now.Sub(ts) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of physically present entries, expired or not
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
