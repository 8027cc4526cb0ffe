// Package migrate runs versioned schema migrations for the SQL backends.
package migrate

import (
	"context"
	"fmt"
	"sort"
)

// Executor runs a statement against the backing database.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// Tracker records which migration versions have been applied.
type Tracker interface {
	Executor
	// EnsureTable creates the bookkeeping table if it does not exist.
	EnsureTable(ctx context.Context, table string) error
	// Applied returns the versions already recorded in table.
	Applied(ctx context.Context, table string) (map[string]bool, error)
	// Record marks version as applied in table.
	Record(ctx context.Context, table, version, name string) error
}

// Migration is one schema step.
type Migration struct {
	Name    string
	Version string
	Up      func(ctx context.Context, exec Executor) error
}

// Group is an ordered set of migrations sharing a bookkeeping table.
type Group struct {
	name       string
	migrations []*Migration
}

// NewGroup creates an empty migration group.
func NewGroup(name string) *Group {
	return &Group{name: name}
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Table returns the bookkeeping table used by the group.
func (g *Group) Table() string { return g.name + "_migrations" }

// MustRegister adds migrations to the group. It panics on a duplicate
// version (programming error).
func (g *Group) MustRegister(ms ...*Migration) {
	for _, m := range ms {
		for _, existing := range g.migrations {
			if existing.Version == m.Version {
				panic(fmt.Sprintf("migrate: duplicate version %s in group %s", m.Version, g.name))
			}
		}
		g.migrations = append(g.migrations, m)
	}
	sort.Slice(g.migrations, func(i, j int) bool {
		return g.migrations[i].Version < g.migrations[j].Version
	})
}

// Migrations returns the registered migrations in version order.
func (g *Group) Migrations() []*Migration {
	out := make([]*Migration, len(g.migrations))
	copy(out, g.migrations)
	return out
}

// Migrate applies every migration in g that t has not recorded yet and
// returns the names of those applied.
func Migrate(ctx context.Context, t Tracker, g *Group) ([]string, error) {
	table := g.Table()
	if err := t.EnsureTable(ctx, table); err != nil {
		return nil, fmt.Errorf("migrate: ensure %s: %w", table, err)
	}

	applied, err := t.Applied(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("migrate: read %s: %w", table, err)
	}

	var ran []string
	for _, m := range g.migrations {
		if applied[m.Version] {
			continue
		}
		if err := m.Up(ctx, t); err != nil {
			return ran, fmt.Errorf("migrate: %s (%s): %w", m.Name, m.Version, err)
		}
		if err := t.Record(ctx, table, m.Version, m.Name); err != nil {
			return ran, fmt.Errorf("migrate: record %s: %w", m.Version, err)
		}
		ran = append(ran, m.Name)
	}
	return ran, nil
}
