package blockindex

import (
	"context"
	"time"

	"github.com/zjrosen/tasktpl/internal/cachemanager"
	"github.com/zjrosen/tasktpl/internal/workflow"
)

// CachedLookup memoises reference lookups, misses included, for ttl.
type CachedLookup struct {
	refs *cachemanager.ReadThroughCache[string, *workflow.Record, string]
	ids  *cachemanager.ReadThroughCache[string, *workflow.Record, string]
	ttl  time.Duration
}

var (
	_ workflow.Lookup   = (*CachedLookup)(nil)
	_ workflow.IDLookup = (*CachedLookup)(nil)
)

// NewCachedLookup wraps x. A non-positive ttl disables caching.
func NewCachedLookup(x *Index, ttl time.Duration) *CachedLookup {
	cache := cachemanager.NewInMemoryCacheManager[string, *workflow.Record]("block lookups", ttl, cachemanager.DefaultCleanupInterval)
	bypass := ttl <= 0
	return &CachedLookup{
		refs: cachemanager.NewReadThroughCache(cachemanager.CacheManager[string, *workflow.Record](cache), x.Resolve, bypass),
		ids:  cachemanager.NewReadThroughCache(cachemanager.CacheManager[string, *workflow.Record](cache), x.ResolveID, bypass),
		ttl:  ttl,
	}
}

// Resolve implements workflow.Lookup.
func (c *CachedLookup) Resolve(ctx context.Context, ref string) (*workflow.Record, error) {
	return c.refs.Get(ctx, "ref:"+ref, ref, c.ttl)
}

// ResolveID implements workflow.IDLookup.
func (c *CachedLookup) ResolveID(ctx context.Context, id string) (*workflow.Record, error) {
	return c.ids.Get(ctx, "id:"+id, id, c.ttl)
}

// Invalidate forgets every cached lookup, e.g. after a rebuild.
func (c *CachedLookup) Invalidate(ctx context.Context) error {
	return c.refs.Invalidate(ctx)
}
