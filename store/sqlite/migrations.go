package sqlite

import (
	"context"

	"github.com/xraph/rentbook/store/migrate"
)

// Migrations is the migration group for the rentbook store (SQLite).
var Migrations = migrate.NewGroup("rentbook")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_rentbook_kv",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				return exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rentbook_kv (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
			},
		},
	)
}
