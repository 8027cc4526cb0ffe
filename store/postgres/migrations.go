package postgres

import (
	"context"

	"github.com/xraph/rentbook/store/migrate"
)

// Migrations is the migration group for the rentbook store (PostgreSQL).
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
    value      JSONB NOT NULL DEFAULT '[]',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
			},
		},
	)
}
