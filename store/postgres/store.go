// Package postgres provides a key-value store on PostgreSQL using pgx.
// Values are kept as JSONB so the collections stay queryable from SQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xraph/rentbook/store"
	"github.com/xraph/rentbook/store/migrate"
)

// compile-time interface checks
var (
	_ store.Store   = (*Store)(nil)
	_ store.Batcher = (*Store)(nil)
)

const upsertSQL = `INSERT INTO rentbook_kv (key, value, updated_at) VALUES ($1, $2::jsonb, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// Store implements store.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("rentbook/postgres: parse config: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("rentbook/postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("rentbook/postgres: ping: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate creates the required tables.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := migrate.Migrate(ctx, tracker{s.pool}, Migrations); err != nil {
		return fmt.Errorf("rentbook/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value::text FROM rentbook_kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrKeyNotFound
		}
		return nil, fmt.Errorf("rentbook/postgres: get %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx, upsertSQL, key, string(value)); err != nil {
		return fmt.Errorf("rentbook/postgres: set %s: %w", key, err)
	}
	return nil
}

// SetMany implements store.Batcher in one transaction.
func (s *Store) SetMany(ctx context.Context, values map[string][]byte) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for k, v := range values {
			if _, err := tx.Exec(ctx, upsertSQL, k, string(v)); err != nil {
				return fmt.Errorf("set %s: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rentbook/postgres: %w", err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key FROM rentbook_kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("rentbook/postgres: keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("rentbook/postgres: keys: %w", err)
	}
	return keys, nil
}

// ──────────────────────────────────────────────────
// Migration tracking
// ──────────────────────────────────────────────────

type tracker struct {
	pool *pgxpool.Pool
}

func (t tracker) Exec(ctx context.Context, query string, args ...any) error {
	_, err := t.pool.Exec(ctx, query, args...)
	return err
}

func (t tracker) EnsureTable(ctx context.Context, table string) error {
	return t.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+pgx.Identifier{table}.Sanitize()+` (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
}

func (t tracker) Applied(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := t.pool.Query(ctx, `SELECT version FROM `+pgx.Identifier{table}.Sanitize())
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

func (t tracker) Record(ctx context.Context, table, version, name string) error {
	return t.Exec(ctx, `INSERT INTO `+pgx.Identifier{table}.Sanitize()+` (version, name) VALUES ($1, $2)`, version, name)
}

// isNoRows checks for the pgx no-rows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
