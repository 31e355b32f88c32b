package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type lookupInput struct {
	ID int
}

func countingLoader(calls *int, err error) func(context.Context, lookupInput) ([]*entry, error) {
	return func(ctx context.Context, in lookupInput) ([]*entry, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return []*entry{{ID: in.ID}}, nil
	}
}

func TestReadThroughCache_Get_CacheHit(t *testing.T) {
	cache := newCache[[]*entry]()
	cache.Set(context.Background(), "key", []*entry{{ID: 1, Name: "cached"}}, time.Minute)
	calls := 0

	rt := NewReadThroughCache[sessionKey, []*entry, lookupInput](cache, countingLoader(&calls, nil), false)

	got, err := rt.Get(context.Background(), "key", lookupInput{ID: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*entry{{ID: 1, Name: "cached"}}, got)
	require.Zero(t, calls)
}

func TestReadThroughCache_Get_MissLoadsAndStores(t *testing.T) {
	cache := newCache[[]*entry]()
	calls := 0

	rt := NewReadThroughCache[sessionKey, []*entry, lookupInput](cache, countingLoader(&calls, nil), false)

	for i := 0; i < 3; i++ {
		got, err := rt.Get(context.Background(), "key", lookupInput{ID: 7}, time.Minute)
		require.NoError(t, err)
		require.Equal(t, []*entry{{ID: 7}}, got)
	}
	require.Equal(t, 1, calls)
}

func TestReadThroughCache_Get_LoaderErrorIsNotCached(t *testing.T) {
	cache := newCache[[]*entry]()
	calls := 0

	rt := NewReadThroughCache[sessionKey, []*entry, lookupInput](cache, countingLoader(&calls, errors.New("failed to get data")), false)

	_, err := rt.Get(context.Background(), "key", lookupInput{ID: 1}, time.Minute)
	require.EqualError(t, err, "failed to get data")
	_, err = rt.GetWithRefresh(context.Background(), "key", lookupInput{ID: 1}, time.Minute)
	require.Error(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, 0, cache.Len())
}

func TestReadThroughCache_Bypass(t *testing.T) {
	cache := newCache[[]*entry]()
	calls := 0

	rt := NewReadThroughCache[sessionKey, []*entry, lookupInput](cache, countingLoader(&calls, nil), true)

	_, _ = rt.Get(context.Background(), "key", lookupInput{ID: 1}, time.Minute)
	_, _ = rt.GetWithRefresh(context.Background(), "key", lookupInput{ID: 1}, time.Minute)
	require.Equal(t, 2, calls)
	require.Equal(t, 0, cache.Len())
}

func TestReadThroughCache_Invalidate(t *testing.T) {
	cache := newCache[[]*entry]()
	calls := 0

	rt := NewReadThroughCache[sessionKey, []*entry, lookupInput](cache, countingLoader(&calls, nil), false)

	_, _ = rt.Get(context.Background(), "key", lookupInput{ID: 1}, time.Minute)
	require.NoError(t, rt.Invalidate(context.Background()))
	_, _ = rt.Get(context.Background(), "key", lookupInput{ID: 1}, time.Minute)
	require.Equal(t, 2, calls)
}
