package cachemanager

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sessionKey string

type entry struct {
	ID   int
	Name string
}

func newCache[V any]() *InMemoryCacheManager[sessionKey, V] {
	return NewInMemoryCacheManager[sessionKey, V]("test", DefaultExpiration, DefaultCleanupInterval)
}

func TestInMemoryCacheManager_GetExistingValue_StructType(t *testing.T) {
	cache := newCache[entry]()
	want := entry{ID: 1, Name: "apple"}
	cache.Set(context.Background(), "ex:1", want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "ex:1")
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestInMemoryCacheManager_GetWithNoExistingValue(t *testing.T) {
	cache := newCache[string]()

	got, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithExistingInvalidValueType(t *testing.T) {
	cache := newCache[string]()
	cache.cache.Set("food", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "food")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Take(t *testing.T) {
	cache := newCache[string]()
	cache.Set(context.Background(), "s1", "patch", DefaultExpiration)

	got, ok := cache.Take(context.Background(), "s1")
	require.True(t, ok)
	require.Equal(t, "patch", got)

	_, ok = cache.Take(context.Background(), "s1")
	require.False(t, ok, "a taken entry is gone")
	require.Equal(t, 0, cache.Len())
}

func TestInMemoryCacheManager_TakeIsExclusive(t *testing.T) {
	cache := newCache[int]()
	cache.Set(context.Background(), "s1", 42, DefaultExpiration)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := cache.Take(context.Background(), "s1"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := newCache[string]()
	cache.Set(context.Background(), "k", "v", 20*time.Millisecond)

	got, ok := cache.GetWithRefresh(context.Background(), "k", time.Hour)
	require.True(t, ok)
	require.Equal(t, "v", got)

	time.Sleep(40 * time.Millisecond)
	_, ok = cache.Get(context.Background(), "k")
	require.True(t, ok, "refresh extended the ttl")
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	cache := newCache[string]()
	cache.Set(context.Background(), "a", "1", DefaultExpiration)
	cache.Set(context.Background(), "b", "2", DefaultExpiration)
	cache.Set(context.Background(), "c", "3", DefaultExpiration)

	require.NoError(t, cache.Delete(context.Background()))
	require.NoError(t, cache.Delete(context.Background(), "a", "b"))
	require.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Flush(context.Background()))
	require.Equal(t, 0, cache.Len())
}

func TestInMemoryCacheManager_OnExpireOnlyForExpiry(t *testing.T) {
	cache := newCache[string]()
	var expired []sessionKey
	cache.OnExpire(func(key sessionKey, value string) {
		expired = append(expired, key)
	})

	cache.Set(context.Background(), "taken", "x", time.Hour)
	cache.Set(context.Background(), "deleted", "x", time.Hour)
	cache.Set(context.Background(), "stale", "x", time.Millisecond)
	cache.Set(context.Background(), "fresh", "x", time.Hour)
	_, _ = cache.Take(context.Background(), "taken")
	require.NoError(t, cache.Delete(context.Background(), "deleted"))

	time.Sleep(5 * time.Millisecond)
	cache.DeleteExpired()

	require.Equal(t, []sessionKey{"stale"}, expired)
	require.Equal(t, 1, cache.Len())
}
