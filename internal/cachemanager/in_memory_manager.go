package cachemanager

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/tasktpl/internal/log"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

// ExpireFunc is called with entries that expired without being read or removed.
type ExpireFunc[K ~string, V any] func(key K, value V)

// NewInMemoryCacheManager creates a cache whose janitor removes expired entries
// every cleanupInterval.
func NewInMemoryCacheManager[K ~string, V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *InMemoryCacheManager[K, V] {
	c := &InMemoryCacheManager[K, V]{
		useCase:  useCase,
		cache:    gocache.New(defaultExpiration, cleanupInterval),
		removing: make(map[string]int),
	}
	c.cache.OnEvicted(c.evicted)
	return c
}

// InMemoryCacheManager implements CacheManager on top of go-cache.
type InMemoryCacheManager[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache

	mu       sync.Mutex
	onExpire ExpireFunc[K, V]

	rmu      sync.Mutex
	removing map[string]int // keys being removed explicitly, not expiring
}

var _ CacheManager[string, int] = (*InMemoryCacheManager[string, int])(nil)

// OnExpire registers fn for entries dropped by expiry. Explicit Take and
// Delete calls do not trigger it.
func (c *InMemoryCacheManager[K, V]) OnExpire(fn ExpireFunc[K, V]) {
	c.mu.Lock()
	c.onExpire = fn
	c.mu.Unlock()
}

// Get retrieves an item from the cache by its key.
func (c *InMemoryCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zeroValue V

	value, found := c.cache.Get(string(key))
	if !found {
		return zeroValue, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "cache", c.useCase, "key", key)

		return zeroValue, false
	}

	log.Debug(log.CatCache, "cache hit", "cache", c.useCase, "key", key)

	return v, true
}

// GetWithRefresh retrieves an item and, when found, extends its ttl by
// putting it back in the cache.
func (c *InMemoryCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	value, found := c.Get(ctx, key)
	if !found {
		return value, found
	}

	c.Set(ctx, key, value, ttl)

	return value, found
}

// Set stores value under key with the given ttl. gocache.DefaultExpiration
// (0) uses the cache default and gocache.NoExpiration (-1) never expires.
func (c *InMemoryCacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Take returns the value stored under key and removes it. Concurrent callers
// never both receive the same entry.
func (c *InMemoryCacheManager[K, V]) Take(ctx context.Context, key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.Get(ctx, key)
	if !ok {
		return value, false
	}
	c.removeLocked(string(key))

	return value, true
}

// Delete removes the values stored under keys.
func (c *InMemoryCacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	if len(keys) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		c.removeLocked(string(key))
	}

	return nil
}

// Flush removes every entry without calling the expiry hook.
func (c *InMemoryCacheManager[K, V]) Flush(ctx context.Context) error {
	c.cache.Flush()

	return nil
}

// Len returns the number of stored entries, including expired ones the
// janitor has not removed yet.
func (c *InMemoryCacheManager[K, V]) Len() int {
	return c.cache.ItemCount()
}

// DeleteExpired removes expired entries now instead of waiting for the janitor.
func (c *InMemoryCacheManager[K, V]) DeleteExpired() {
	c.cache.DeleteExpired()
}

// removeLocked deletes key while marking it as an explicit removal so the
// eviction callback, which go-cache runs synchronously, skips the expiry hook.
func (c *InMemoryCacheManager[K, V]) removeLocked(key string) {
	c.rmu.Lock()
	c.removing[key]++
	c.rmu.Unlock()

	c.cache.Delete(key)

	c.rmu.Lock()
	if c.removing[key]--; c.removing[key] <= 0 {
		delete(c.removing, key)
	}
	c.rmu.Unlock()
}

func (c *InMemoryCacheManager[K, V]) evicted(key string, value any) {
	c.rmu.Lock()
	explicit := c.removing[key] > 0
	c.rmu.Unlock()
	if explicit {
		return
	}

	c.mu.Lock()
	fn := c.onExpire
	c.mu.Unlock()

	log.Debug(log.CatCache, "cache entry expired", "cache", c.useCase, "key", key)
	if fn == nil {
		return
	}
	if v, ok := value.(V); ok {
		fn(K(key), v)
	}
}
