package infra

import (
	"sync"
	"sync/atomic"

	"github.com/olgasafonova/oblique-strategies-mcp-server/metrics"
	"golang.org/x/sync/singleflight"
)

// LoadCache memoizes loaded values per key for the lifetime of the cache.
// Entries are never evicted or expired. Concurrent loads of the same missing
// key are coalesced so the loader runs once and every caller shares the result.
type LoadCache[V any] struct {
	entries sync.Map // key (string) -> V
	count   atomic.Int64
	group   singleflight.Group
}

// NewLoadCache creates an empty LoadCache.
func NewLoadCache[V any]() *LoadCache[V] {
	return &LoadCache[V]{}
}

// Get returns the cached value for key, if present.
func (c *LoadCache[V]) Get(key string) (V, bool) {
	if v, ok := c.entries.Load(key); ok {
		return v.(V), true
	}
	var zero V
	return zero, false
}

// GetOrLoad returns the cached value for key, calling load to populate it on a miss.
// The boolean reports whether the value came from the cache. Failed loads are not
// cached, so the next call retries.
func (c *LoadCache[V]) GetOrLoad(key string, load func() (V, error)) (V, bool, error) {
	if v, ok := c.entries.Load(key); ok {
		metrics.RecordCacheAccess(true)
		return v.(V), true, nil
	}
	metrics.RecordCacheAccess(false)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A flight for this key may have completed between the miss above and Do.
		if v, ok := c.entries.Load(key); ok {
			return v, nil
		}
		loaded, err := load()
		if err != nil {
			return nil, err
		}
		actual, existed := c.entries.LoadOrStore(key, loaded)
		if !existed {
			c.count.Add(1)
			metrics.CacheEntries.Inc()
		}
		return actual, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	return v.(V), false, nil
}

// Size returns the number of cached entries.
func (c *LoadCache[V]) Size() int64 {
	return c.count.Load()
}

// Keys returns the cached keys in no particular order.
func (c *LoadCache[V]) Keys() []string {
	var keys []string
	c.entries.Range(func(key, _ interface{}) bool {
		keys = append(keys, key.(string))
		return true
	})
	return keys
}
