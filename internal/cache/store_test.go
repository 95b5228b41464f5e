package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "a", "1", 0))
	require.NoError(t, store.Set(ctx, "b", "2", 0))
	require.NoError(t, store.Delete(ctx, "a", "b"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

type counts struct {
	Users int64 `json:"users"`
}

func TestGetOrLoadCachesResult(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	calls := 0
	load := func(context.Context) (counts, error) {
		calls++
		return counts{Users: 42}, nil
	}

	first, err := GetOrLoad(ctx, store, "stats", "stats:public", time.Minute, load)
	require.NoError(t, err)
	second, err := GetOrLoad(ctx, store, "stats", "stats:public", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, int64(42), first.Users)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoadWithoutStore(t *testing.T) {
	calls := 0
	load := func(context.Context) (counts, error) {
		calls++
		return counts{}, nil
	}
	_, _ = GetOrLoad[counts](context.Background(), nil, "stats", "k", time.Minute, load)
	_, _ = GetOrLoad[counts](context.Background(), nil, "stats", "k", time.Minute, load)
	assert.Equal(t, 2, calls)
}

func TestGetOrLoadPropagatesLoadError(t *testing.T) {
	store := NewMemoryStore()
	_, err := GetOrLoad(context.Background(), store, "stats", "k", time.Minute, func(context.Context) (counts, error) {
		return counts{}, errors.New("db down")
	})
	assert.Error(t, err)

	_, err = store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrMiss)
}
