package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var cacheTracer = otel.Tracer("github.com/chris-regnier/treecheck/internal/cache")

var _ Cache = (*SQLiteCache)(nil)

// SQLiteCache persists entries in a single SQLite file.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (creating if needed) the cache database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache pragma %q: %w", pragma, err)
		}
	}

	c := &SQLiteCache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating cache database: %w", err)
	}
	return c, nil
}

func (c *SQLiteCache) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS results (
			key TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_path ON results(path)`,
	}
	for _, m := range migrations {
		if _, err := c.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (c *SQLiteCache) Get(ctx context.Context, key Key) (*Entry, error) {
	ctx, span := cacheTracer.Start(ctx, "cache lookup")
	defer span.End()

	h := key.Hash()
	span.SetAttributes(attribute.String("treecheck.cache.key", h))

	var payload string
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM results WHERE key = ?`, h).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetAttributes(attribute.Bool("treecheck.cache.hit", false))
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, spanError(span, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return nil, spanError(span, err)
	}
	// A hash collision would return another file's findings.
	if entry.Key != key {
		span.SetAttributes(attribute.Bool("treecheck.cache.hit", false))
		return nil, ErrCacheMiss
	}
	span.SetAttributes(attribute.Bool("treecheck.cache.hit", true))
	return &entry, nil
}

func (c *SQLiteCache) Put(ctx context.Context, entry *Entry) error {
	ctx, span := cacheTracer.Start(ctx, "cache store")
	defer span.End()

	h := entry.Key.Hash()
	span.SetAttributes(attribute.String("treecheck.cache.key", h))

	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return spanError(span, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO results (key, path, fingerprint, payload, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		h, entry.Key.Path, entry.Key.Fingerprint, string(data), entry.Timestamp)
	if err != nil {
		return spanError(span, err)
	}
	return nil
}

// Prune deletes entries written under any other configuration fingerprint.
func (c *SQLiteCache) Prune(ctx context.Context, fingerprint string) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM results WHERE fingerprint <> ?`, fingerprint)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Path returns the database file path.