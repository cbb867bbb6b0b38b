package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStable(t *testing.T) {
	a := Key("https://www.wikidata.org/wiki/Special:EntityData/Q42.ttl")
	b := Key("https://www.wikidata.org/wiki/Special:EntityData/Q42.ttl")
	c := Key("https://www.wikidata.org/wiki/Special:EntityData/Q43.ttl")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "textifier:v1:")
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, found := c.Get("missing")
	assert.False(t, found)

	require.NoError(t, c.Set("k", []byte("v"), time.Minute))
	got, found := c.Get("k")
	assert.True(t, found)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	require.NoError(t, c.Set("k", []byte("v"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	require.NoError(t, c.Set(Key("u"), []byte("payload"), 0))
	got, found := c.Get(Key("u"))
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), got)

	// A fresh instance over the same directory still serves the entry.
	c2 := NewDiskCache(dir, time.Minute)
	got, found = c2.Get(Key("u"))
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), got)
}

func TestDiskCacheSelfExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	require.NoError(t, c.Set("k", []byte("v"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	// The entry carries its own expiry; the read removes it.
	_, found := c.Get("k")
	assert.False(t, found)
}

func TestLayeredCachePromotion(t *testing.T) {
	dir := t.TempDir()

	warm := NewLayeredCache(time.Minute, dir, time.Hour)
	require.NoError(t, warm.Set("k", []byte("v"), time.Hour))

	// A new process sees only the disk layer; the first read promotes.
	cold := NewLayeredCache(time.Minute, dir, time.Hour)
	got, found := cold.Get("k")
	require.True(t, found)
	assert.Equal(t, []byte("v"), got)

	// Remove the disk copy; the promoted memory entry still serves.
	require.NoError(t, NewDiskCache(dir, time.Hour).Delete("k"))
	got, found = cold.Get("k")
	assert.True(t, found)
	assert.Equal(t, []byte("v"), got)
}

func TestLayeredCacheDeleteAndClear(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)

	require.NoError(t, c.Set("k", []byte("v"), time.Hour))
	require.NoError(t, c.Delete("k"))
	_, found := c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("k2", []byte("v2"), time.Hour))
	require.NoError(t, c.Clear())
	_, found = c.Get("k2")
	assert.False(t, found)
}
