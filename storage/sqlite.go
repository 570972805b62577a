package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteFileName is the database file inside the cache directory.
const SQLiteFileName = "cache.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	scraper   TEXT    NOT NULL,
	bucket    TEXT    NOT NULL,
	key       TEXT    NOT NULL,
	stored_at INTEGER NOT NULL,
	data      BLOB    NOT NULL,
	PRIMARY KEY (scraper, bucket, key)
);`

// SQLiteBackend stores every bucket in a single table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens or creates cache.db in dir.
func NewSQLiteBackend(dir string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	path := filepath.Join(dir, SQLiteFileName)

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

// Path returns the database file path.
func (b *SQLiteBackend) Path() string {
	return b.path
}

func (b *SQLiteBackend) Load(scraper, bucket string) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	rows, err := b.db.Query(
		`SELECT key, stored_at, data FROM cache_entries WHERE scraper = ? AND bucket = ?`,
		scraper, bucket)
	if err != nil {
		return entries, fmt.Errorf("query bucket %s: %w", bucket, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key      string
			storedAt int64
			data     []byte
		)
		if err := rows.Scan(&key, &storedAt, &data); err != nil {
			return entries, fmt.Errorf("scan entry: %w", err)
		}
		entries[key] = Entry{StoredAt: time.Unix(0, storedAt).UTC(), Data: data}
	}
	return entries, rows.Err()
}

func (b *SQLiteBackend) Save(scraper, bucket string, entries map[string]Entry) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO cache_entries (scraper, bucket, key, stored_at, data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for key, e := range entries {
		if _, err := stmt.Exec(scraper, bucket, key, e.StoredAt.UnixNano(), []byte(e.Data)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Buckets(scraper string) ([]string, error) {
	rows, err := b.db.Query(
		`SELECT DISTINCT bucket FROM cache_entries WHERE scraper = ? ORDER BY bucket`, scraper)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	var buckets []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		buckets = append(buckets, name)
	}
	return buckets, rows.Err()
}

func (b *SQLiteBackend) Purge(scraper string) error {
	if _, err := b.db.Exec(`DELETE FROM cache_entries WHERE scraper = ?`, scraper); err != nil {
		return fmt.Errorf("purge %s: %w", scraper, err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
