package trend

import (
	"sync"
	"time"

	"brandpulse/internal/domain/trend"
)

// gapCache caches gap analysis results per account set with a TTL. Freshness
// is an explicit predicate over an injected clock so it is testable without
// wall-clock sleeps.
type gapCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]gapCacheEntry
}

type gapCacheEntry struct {
	result     trend.GapResult
	computedAt time.Time
}

func (e gapCacheEntry) isFresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.computedAt) < ttl
}

func newGapCache(ttl time.Duration, now func() time.Time) *gapCache {
	return &gapCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]gapCacheEntry),
	}
}

// get returns the cached result for the key if it is still fresh.
func (c *gapCache) get(key string) (trend.GapResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || !entry.isFresh(c.now(), c.ttl) {
		return trend.GapResult{}, false
	}
	return entry.result, true
}

func (c *gapCache) put(key string, result trend.GapResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = gapCacheEntry{result: result, computedAt: c.now()}
}
