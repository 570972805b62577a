package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const bucketSep = "__"

// JSONBackend keeps one <scraper>__<bucket>.json file per bucket.
type JSONBackend struct {
	dir string
}

// NewJSONBackend creates dir if needed.
func NewJSONBackend(dir string) (*JSONBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &JSONBackend{dir: dir}, nil
}

// FileName returns the file holding a bucket.
func (b *JSONBackend) FileName(scraper, bucket string) string {
	return filepath.Join(b.dir, scraper+bucketSep+bucket+".json")
}

func (b *JSONBackend) Load(scraper, bucket string) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	data, err := os.ReadFile(b.FileName(scraper, bucket))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entries, nil
		}
		return entries, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return make(map[string]Entry), fmt.Errorf("parse cache file: %w", err)
	}
	return entries, nil
}

func (b *JSONBackend) Save(scraper, bucket string, entries map[string]Entry) error {
	// an unreadable file is replaced rather than blocking the write
	merged, _ := b.Load(scraper, bucket)
	for k, e := range entries {
		merged[k] = e
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	path := b.FileName(scraper, bucket)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (b *JSONBackend) Buckets(scraper string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(b.dir, scraper+bucketSep+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("list cache files: %w", err)
	}
	buckets := make([]string, 0, len(matches))
	prefix := scraper + bucketSep
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), prefix), ".json")
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)
	return buckets, nil
}

func (b *JSONBackend) Purge(scraper string) error {
	buckets, err := b.Buckets(scraper)
	if err != nil {
		return err
	}
	var errs []error
	for _, bucket := range buckets {
		if err := os.Remove(b.FileName(scraper, bucket)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *JSONBackend) Close() error { return nil }
