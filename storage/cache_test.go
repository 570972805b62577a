package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gamescraper/models"
)

type payload struct {
	Title string `json:"title"`
	Year  string `json:"year"`
}

func newTestCache(t *testing.T, kind, dir string, maxAge time.Duration) *Cache {
	t.Helper()
	backend, err := NewBackend(kind, dir)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return NewCache("gamefaqs", dir, backend, maxAge, zap.NewNop())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("Super Metroid.zip", "SNES"), Key("super metroid.zip ", "snes"))
	assert.NotEqual(t, Key("Super Metroid.zip", "SNES"), Key("Super Metroid.zip", "MAME"))
	assert.Len(t, Key("a", "b"), 40)
}

func TestCacheRoundTripAcrossInstances(t *testing.T) {
	for _, kind := range []string{models.CacheBackendJSON, models.CacheBackendSQLite} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()
			c := newTestCache(t, kind, dir, 0)
			key := Key("metroid", "SNES")

			assert.False(t, c.Has("metadata", key))
			require.NoError(t, c.Put("metadata", key, payload{Title: "Super Metroid", Year: "1994"}))
			assert.True(t, c.Has("metadata", key))
			assert.Equal(t, 1, c.Pending())

			require.NoError(t, c.Flush())
			assert.Equal(t, 0, c.Pending())

			fresh := newTestCache(t, kind, dir, 0)
			assert.True(t, fresh.Has("metadata", key))
			var got payload
			require.NoError(t, fresh.Get("metadata", key, &got))
			assert.Equal(t, "Super Metroid", got.Title)
			assert.Equal(t, "1994", got.Year)
		})
	}
}

func TestCacheGetMissing(t *testing.T) {
	c := newTestCache(t, models.CacheBackendJSON, t.TempDir(), 0)
	var got payload
	assert.ErrorIs(t, c.Get("metadata", "nope", &got), ErrNotFound)
}

func TestCacheUnflushedNotOnDisk(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, models.CacheBackendJSON, dir, 0)
	require.NoError(t, c.Put("candidates", "k", []string{"a"}))

	fresh := newTestCache(t, models.CacheBackendJSON, dir, 0)
	assert.False(t, fresh.Has("candidates", "k"))
}

func TestCacheFlushMergesConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	a := newTestCache(t, models.CacheBackendJSON, dir, 0)
	b := newTestCache(t, models.CacheBackendJSON, dir, 0)

	require.NoError(t, a.Put("metadata", "one", payload{Title: "One"}))
	require.NoError(t, b.Put("metadata", "two", payload{Title: "Two"}))
	require.NoError(t, a.Flush())
	require.NoError(t, b.Flush())

	fresh := newTestCache(t, models.CacheBackendJSON, dir, 0)
	assert.True(t, fresh.Has("metadata", "one"))
	assert.True(t, fresh.Has("metadata", "two"))
}

func TestCacheExpiry(t *testing.T) {
	c := newTestCache(t, models.CacheBackendJSON, t.TempDir(), time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Put("assets", "k", []string{"x"}))
	assert.True(t, c.Has("assets", "k"))

	now = now.Add(2 * time.Hour)
	assert.False(t, c.Has("assets", "k"))
	var got []string
	assert.ErrorIs(t, c.Get("assets", "k", &got), ErrNotFound)

	stats, err := c.Stats()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, BucketStats{Bucket: "assets", Entries: 1, Expired: 1, Pending: 1}, stats[0])
}

func TestCacheCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewJSONBackend(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(backend.FileName("gamefaqs", "metadata"), []byte("{not json"), 0o644))

	c := NewCache("gamefaqs", dir, backend, 0, nil)
	assert.False(t, c.Has("metadata", "k"))
	require.NoError(t, c.Put("metadata", "k", payload{Title: "x"}))
	require.NoError(t, c.Flush())

	fresh := NewCache("gamefaqs", dir, backend, 0, nil)
	assert.True(t, fresh.Has("metadata", "k"))
}

func TestCachePurgeAndStats(t *testing.T) {
	for _, kind := range []string{models.CacheBackendJSON, models.CacheBackendSQLite} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()
			c := newTestCache(t, kind, dir, 0)
			require.NoError(t, c.Put("candidates", "a", 1))
			require.NoError(t, c.Put("candidates", "b", 2))
			require.NoError(t, c.Put("metadata", "a", 3))
			require.NoError(t, c.Flush())

			fresh := newTestCache(t, kind, dir, 0)
			stats, err := fresh.Stats()
			require.NoError(t, err)
			require.Len(t, stats, 2)
			assert.Equal(t, "candidates", stats[0].Bucket)
			assert.Equal(t, 2, stats[0].Entries)
			assert.Equal(t, "metadata", stats[1].Bucket)
			assert.Equal(t, 1, stats[1].Entries)

			require.NoError(t, fresh.Purge())
			assert.False(t, fresh.Has("candidates", "a"))

			stats, err = newTestCache(t, kind, dir, 0).Stats()
			require.NoError(t, err)
			assert.Empty(t, stats)
		})
	}
}

func TestJSONBackendFileLayout(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, models.CacheBackendJSON, dir, 0)
	require.NoError(t, c.Put("candidates", "a", 1))
	require.NoError(t, c.Flush())

	_, err := os.Stat(filepath.Join(dir, "gamefaqs__candidates.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "gamefaqs__candidates.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewBackendUnknown(t *testing.T) {
	_, err := NewBackend("redis", t.TempDir())
	assert.Error(t, err)
}
