package chain

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ttlCache wraps a bounded LRU cache with a per-entry time-to-live. It is
// the envelope the chain client puts around hashicorp/golang-lru/v2 to get
// the stale-with-error fallback behavior the accessors need: Get reports
// a miss for an expired entry, but that entry is not evicted outright so
// GetStale can still hand back the last known value on a failed refresh.
type ttlCache[K comparable, V any] struct {
	mu    sync.Mutex
	cache *lru.Cache[K, ttlEntry[V]]
	ttl   time.Duration
	now   func() time.Time
}

type ttlEntry[V any] struct {
	value    V
	storedAt time.Time
}

func newTTLCache[K comparable, V any](size int, ttl time.Duration) *ttlCache[K, V] {
	c, err := lru.New[K, ttlEntry[V]](size)
	if err != nil {
		// Only returned by golang-lru when size <= 0; callers always pass
		// a positive configured cache size.
		panic(err)
	}
	return &ttlCache[K, V]{cache: c, ttl: ttl, now: time.Now}
}

// Get returns the cached value and true if present and not expired.
func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// GetStale returns the cached value regardless of expiry, for use as a
// fallback when a refresh fails. The second return value is false only
// when the key has never been stored.
func (c *ttlCache[K, V]) GetStale(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key, refreshing its time-to-live.
func (c *ttlCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, ttlEntry[V]{value: value, storedAt: c.now()})
}
