package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"gamescraper/models"
)

// Entry is one cached value.
type Entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// Backend persists cache buckets. A bucket belongs to one scraper.
type Backend interface {
	// Load returns every entry of a bucket. A bucket never written is empty.
	Load(scraper, bucket string) (map[string]Entry, error)
	// Save upserts entries; keys not in entries are left alone.
	Save(scraper, bucket string, entries map[string]Entry) error
	// Buckets lists the buckets that hold data for scraper.
	Buckets(scraper string) ([]string, error)
	// Purge deletes every bucket of scraper.
	Purge(scraper string) error
	Close() error
}

// NewBackend opens the backend named by kind inside dir.
func NewBackend(kind, dir string) (Backend, error) {
	switch kind {
	case "", models.CacheBackendJSON:
		return NewJSONBackend(dir)
	case models.CacheBackendSQLite:
		return NewSQLiteBackend(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", kind)
	}
}
