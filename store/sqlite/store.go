// Package sqlite provides an embedded key-value store on SQLite
// (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/xraph/rentbook/store"
	"github.com/xraph/rentbook/store/migrate"
)

// compile-time interface checks
var (
	_ store.Store   = (*Store)(nil)
	_ store.Batcher = (*Store)(nil)
)

const upsertSQL = `INSERT INTO rentbook_kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// Store implements store.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at dsn (a path, or ":memory:").
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("rentbook/sqlite: open: %w", err)
	}
	// SQLite has a single writer; one connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	return New(db), nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := migrate.Migrate(ctx, tracker{s.db}, Migrations); err != nil {
		return fmt.Errorf("rentbook/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM rentbook_kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrKeyNotFound
		}
		return nil, fmt.Errorf("rentbook/sqlite: get %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSQL, key, string(value), now()); err != nil {
		return fmt.Errorf("rentbook/sqlite: set %s: %w", key, err)
	}
	return nil
}

// SetMany implements store.Batcher in one transaction.
func (s *Store) SetMany(ctx context.Context, values map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rentbook/sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	ts := now()
	for k, v := range values {
		if _, err := tx.ExecContext(ctx, upsertSQL, k, string(v), ts); err != nil {
			return fmt.Errorf("rentbook/sqlite: set %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rentbook/sqlite: commit: %w", err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM rentbook_kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("rentbook/sqlite: keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("rentbook/sqlite: keys: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ──────────────────────────────────────────────────
// Migration tracking
// ──────────────────────────────────────────────────

type tracker struct {
	db *sql.DB
}

func (t tracker) Exec(ctx context.Context, query string, args ...any) error {
	_, err := t.db.ExecContext(ctx, query, args...)
	return err
}

func (t tracker) EnsureTable(ctx context.Context, table string) error {
	return t.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TEXT NOT NULL
)`)
}

func (t tracker) Applied(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT version FROM `+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (t tracker) Record(ctx context.Context, table, version, name string) error {
	return t.Exec(ctx, `INSERT INTO `+table+` (version, name, applied_at) VALUES (?, ?, ?)`, version, name, now())
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
