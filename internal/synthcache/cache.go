// Package synthcache stores narrative synthesis results in SQLite, keyed by
// a hash of the field name and the merged instances.
//
// Only synthesized text is stored. Source documents and assembled output
// never touch the cache.
package synthcache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultPath is the default cache location.
const DefaultPath = "~/.chartmerge/synthesis.db"

// Stats summarizes cache contents.
type Stats struct {
	Entries     int64            `json:"entries"`
	ByField     map[string]int64 `json:"by_field"`
	Hits        int64            `json:"hits"`
	DBSizeBytes int64            `json:"db_size_bytes"`
}

// Cache is a SQLite-backed synthesis cache. Safe for concurrent use.
type Cache struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the cache at path. Pass ":memory:" for tests.
func Open(path string) (*Cache, error) {
	if path == "" {
		path = expandPath(DefaultPath)
	}
	path = expandPath(path)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	c := &Cache{db: db, path: path}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating cache: %w", err)
	}
	return c, nil
}

func (c *Cache) migrate() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS synthesis (
			key        TEXT PRIMARY KEY,
			field      TEXT NOT NULL,
			value      TEXT NOT NULL,
			hits       INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			used_at    TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_synthesis_field ON synthesis(field);
	`)
	return err
}

// Scope identifies what produced a synthesis besides its instances: the
// field, the narrator that wrote it and the instructions it was given.
type Scope struct {
	Field        string
	Narrator     string
	Instructions string
}

// Key hashes a scope and its instances. Every part is NUL-separated so that
// ["ab", "c"] and ["a", "bc"] hash differently.
func Key(scope Scope, instances []string) string {
	h := sha256.New()
	for _, part := range []string{scope.Field, scope.Narrator, scope.Instructions} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	for _, in := range instances {
		h.Write([]byte{0})
		h.Write([]byte(in))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns the cached value for key.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM synthesis WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := c.db.ExecContext(ctx, `UPDATE synthesis SET hits = hits + 1, used_at = ? WHERE key = ?`, now, key); err != nil {
		return "", false, fmt.Errorf("updating cache hit: %w", err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (c *Cache) Put(ctx context.Context, key, field, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO synthesis (key, field, value, created_at, used_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, used_at = excluded.used_at`,
		key, field, value, now, now)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Stats reports entry counts and database size.
func (c *Cache) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByField: make(map[string]int64)}
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM synthesis`).Scan(&st.Entries, &st.Hits); err != nil {
		return nil, fmt.Errorf("counting cache entries: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, `SELECT field, COUNT(*) FROM synthesis GROUP BY field`)
	if err != nil {
		return nil, fmt.Errorf("counting cache fields: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var field string
		var n int64
		if err := rows.Scan(&field, &n); err != nil {
			return nil, err
		}
		st.ByField[field] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if c.path != ":memory:" {
		for _, p := range []string{c.path, c.path + "-wal"} {
			if info, err := os.Stat(p); err == nil {
				st.DBSizeBytes += info.Size()
			}
		}
	}
	return st, nil
}

// Purge deletes entries not used since before cutoff and returns how many
// were removed.
func (c *Cache) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM synthesis WHERE used_at < ?`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
