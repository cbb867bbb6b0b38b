package label

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, ttl time.Duration, maxRows int) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "labels.db"), ttl, maxRows)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t, time.Hour, 0)
	ctx := context.Background()

	require.NoError(t, store.SetBulk(ctx, map[string]Labels{
		"Q42": {"en": "Douglas Adams", "de": "Douglas Adams"},
		"P31": {"en": "instance of"},
	}))

	got, err := store.Get(ctx, []string{"Q42", "P31", "Q999"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "Douglas Adams", got["Q42"]["en"])
	assert.Equal(t, "instance of", got["P31"]["en"])
	assert.NotContains(t, got, "Q999")
}

func TestStoreUpsertRefreshes(t *testing.T) {
	store := openTestStore(t, time.Hour, 0)
	ctx := context.Background()

	require.NoError(t, store.SetBulk(ctx, map[string]Labels{"Q1": {"en": "old"}}))
	require.NoError(t, store.SetBulk(ctx, map[string]Labels{"Q1": {"en": "new"}}))

	got, err := store.Get(ctx, []string{"Q1"})
	require.NoError(t, err)
	assert.Equal(t, "new", got["Q1"]["en"])
}

func TestStoreExpiry(t *testing.T) {
	store := openTestStore(t, 50*time.Millisecond, 0)
	ctx := context.Background()

	require.NoError(t, store.SetBulk(ctx, map[string]Labels{"Q1": {"en": "cat"}}))
	time.Sleep(80 * time.Millisecond)

	got, err := store.Get(ctx, []string{"Q1"})
	require.NoError(t, err)
	assert.Empty(t, got, "stale rows are invisible to Get")

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

func TestStoreSweepRowCap(t *testing.T) {
	store := openTestStore(t, time.Hour, 2)
	ctx := context.Background()

	// Separate writes so added_at establishes an eviction order.
	require.NoError(t, store.SetBulk(ctx, map[string]Labels{"Q1": {"en": "a"}}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.SetBulk(ctx, map[string]Labels{"Q2": {"en": "b"}}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.SetBulk(ctx, map[string]Labels{"Q3": {"en": "c"}}))

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	got, err := store.Get(ctx, []string{"Q1", "Q2", "Q3"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "Q1", "oldest row is evicted first")
}

func TestCachedResolverFallthrough(t *testing.T) {
	store := openTestStore(t, time.Hour, 0)
	ctx := context.Background()

	require.NoError(t, store.SetBulk(ctx, map[string]Labels{"Q1": {"en": "cached"}}))

	var fetched [][]string
	fetch := FetchFunc(func(_ context.Context, ids []string) (map[string]Labels, error) {
		fetched = append(fetched, ids)
		out := make(map[string]Labels, len(ids))
		for _, id := range ids {
			out[id] = Labels{"en": "fetched " + id}
		}
		return out, nil
	})

	resolver := NewCachedResolver(store, fetch)
	got, err := resolver.ResolveBatch(ctx, []string{"Q1", "Q2", "Q2", ""})
	require.NoError(t, err)

	assert.Equal(t, "cached", got["Q1"]["en"])
	assert.Equal(t, "fetched Q2", got["Q2"]["en"])
	require.Len(t, fetched, 1, "only misses reach the upstream fetcher")
	assert.Equal(t, []string{"Q2"}, fetched[0])

	// The miss is written back; a second resolve is store-only.
	_, err = resolver.ResolveBatch(ctx, []string{"Q2"})
	require.NoError(t, err)
	assert.Len(t, fetched, 1)
}

func TestCachedResolverWithoutStore(t *testing.T) {
	fetch := FetchFunc(func(_ context.Context, ids []string) (map[string]Labels, error) {
		return map[string]Labels{"Q1": {"en": "direct"}}, nil
	})
	resolver := NewCachedResolver(nil, fetch)

	got, err := resolver.ResolveBatch(context.Background(), []string{"Q1"})
	require.NoError(t, err)
	assert.Equal(t, "direct", got["Q1"]["en"])
}
