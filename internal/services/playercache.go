package services

import (
	"sync"
	"time"
)

// PlayerSearchCache memoizes player-search results in process. The clock,
// TTL and capacity are injected so eviction can be unit-tested and the
// whole thing swapped for the shared redis cache in a multi-instance
// deployment.
type PlayerSearchCache struct {
	mu       sync.Mutex
	entries  map[string]playerCacheEntry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

type playerCacheEntry struct {
	names    []string
	cachedAt time.Time
}

func NewPlayerSearchCache(ttl time.Duration, capacity int, now func() time.Time) *PlayerSearchCache {
	if now == nil {
		now = time.Now
	}
	if capacity <= 0 {
		capacity = 256
	}
	return &PlayerSearchCache{
		entries:  make(map[string]playerCacheEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      now,
	}
}

func (c *PlayerSearchCache) Get(query string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[query]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.cachedAt) > c.ttl {
		delete(c.entries, query)
		return nil, false
	}
	return entry.names, true
}

func (c *PlayerSearchCache) Put(query string, names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[query] = playerCacheEntry{
		names:    names,
		cachedAt: c.now(),
	}
}

func (c *PlayerSearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldestLocked drops the single stalest entry. Capacity overruns happen
// one insert at a time, so one eviction is enough.
func (c *PlayerSearchCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, entry := range c.entries {
		if first || entry.cachedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.cachedAt
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
