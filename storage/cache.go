// Package storage caches scraper results on disk so repeated runs skip
// the network. Values live in named buckets per scraper and are loaded
// lazily; writes stay in memory until Flush.
package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"gamescraper/logging"
)

// ErrNotFound is returned by Get for a missing or expired key.
var ErrNotFound = errors.New("cache entry not found")

// LockFileName is the lock taken while flushing.
const LockFileName = "cache.lock"

// Key builds a cache key from a name and a platform.
func Key(name, platform string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(name)) + "|" +
		strings.ToLower(strings.TrimSpace(platform))))
	return hex.EncodeToString(sum[:])
}

// BucketStats summarises one bucket.
type BucketStats struct {
	Bucket  string
	Entries int
	Expired int
	Pending int
}

type bucket struct {
	loaded  bool
	entries map[string]Entry
	dirty   map[string]struct{}
}

// Cache is the disk cache of one scraper.
type Cache struct {
	scraper string
	dir     string
	backend Backend
	maxAge  time.Duration
	lock    *flock.Flock
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewCache wraps backend for scraper. maxAge 0 keeps entries forever.
func NewCache(scraper, dir string, backend Backend, maxAge time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		scraper: scraper,
		dir:     dir,
		backend: backend,
		maxAge:  maxAge,
		lock:    flock.New(filepath.Join(dir, LockFileName)),
		logger:  logging.NewComponentLogger(logger, "cache").With(zap.String("scraper", scraper)),
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Scraper returns the scraper name the cache belongs to.
func (c *Cache) Scraper() string {
	return c.scraper
}

// bucketLocked returns the named bucket, loading it on first use.
func (c *Cache) bucketLocked(name string) *bucket {
	b, ok := c.buckets[name]
	if !ok {
		b = &bucket{entries: make(map[string]Entry), dirty: make(map[string]struct{})}
		c.buckets[name] = b
	}
	if !b.loaded {
		entries, err := c.backend.Load(c.scraper, name)
		if err != nil {
			c.logger.Warn("failed to load cache bucket, starting empty",
				zap.String("bucket", name), zap.Error(err))
		}
		for k, e := range entries {
			if _, pending := b.dirty[k]; !pending {
				b.entries[k] = e
			}
		}
		b.loaded = true
		c.logger.Debug("loaded cache bucket",
			zap.String("bucket", name), zap.Int("entry_count", len(b.entries)))
	}
	return b
}

func (c *Cache) expired(e Entry) bool {
	return c.maxAge > 0 && c.now().Sub(e.StoredAt) > c.maxAge
}

// Has reports whether a fresh entry exists for key.
func (c *Cache) Has(bucketName, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.bucketLocked(bucketName).entries[key]
	return ok && !c.expired(e)
}

// Get decodes the entry for key into v.
func (c *Cache) Get(bucketName, key string, v any) error {
	c.mu.Lock()
	e, ok := c.bucketLocked(bucketName).entries[key]
	c.mu.Unlock()
	if !ok || c.expired(e) {
		return ErrNotFound
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", bucketName, key, err)
	}
	return nil
}

// Put stores v under key. It is written on the next Flush.
func (c *Cache) Put(bucketName, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", bucketName, key, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucketLocked(bucketName)
	b.entries[key] = Entry{StoredAt: c.now().UTC(), Data: data}
	b.dirty[key] = struct{}{}
	return nil
}

// Delete drops key from memory. Disk copies expire or get purged.
func (c *Cache) Delete(bucketName, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucketLocked(bucketName)
	delete(b.entries, key)
	delete(b.dirty, key)
}

// Pending returns the number of unflushed entries.
func (c *Cache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.buckets {
		n += len(b.dirty)
	}
	return n
}

// Flush writes unflushed entries while holding the cache directory lock.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := make(map[string]map[string]Entry)
	for name, b := range c.buckets {
		if len(b.dirty) == 0 {
			continue
		}
		out := make(map[string]Entry, len(b.dirty))
		for k := range b.dirty {
			out[k] = b.entries[k]
		}
		pending[name] = out
	}
	if len(pending) == 0 {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("acquire cache lock: %w", err)
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("failed to release cache lock", zap.Error(err))
		}
	}()

	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := c.backend.Save(c.scraper, name, pending[name]); err != nil {
			errs = append(errs, fmt.Errorf("flush bucket %s: %w", name, err))
			continue
		}
		c.buckets[name].dirty = make(map[string]struct{})
		c.logger.Debug("flushed cache bucket",
			zap.String("bucket", name), zap.Int("entry_count", len(pending[name])))
	}
	return errors.Join(errs...)
}

// Purge removes every bucket of the scraper from memory and disk.
func (c *Cache) Purge() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets = make(map[string]*bucket)
	if err := c.backend.Purge(c.scraper); err != nil {
		return fmt.Errorf("purge cache: %w", err)
	}
	c.logger.Info("purged cache")
	return nil
}

// Stats counts entries per bucket, including buckets only on disk.
func (c *Cache) Stats() ([]BucketStats, error) {
	onDisk, err := c.backend.Buckets(c.scraper)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{})
	for _, name := range onDisk {
		seen[name] = struct{}{}
	}
	for name := range c.buckets {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	stats := make([]BucketStats, 0, len(names))
	for _, name := range names {
		b := c.bucketLocked(name)
		s := BucketStats{Bucket: name, Entries: len(b.entries), Pending: len(b.dirty)}
		for _, e := range b.entries {
			if c.expired(e) {
				s.Expired++
			}
		}
		stats = append(stats, s)
	}
	return stats, nil
}
