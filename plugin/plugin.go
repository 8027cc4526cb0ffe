// Package plugin provides an extensible plugin system for rentbook.
// Plugins can hook into tenant and ledger lifecycle events to extend
// functionality without touching the billing core.
package plugin

import (
	"context"

	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the rentbook engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, rb interface{}) error
}

// OnShutdown is called when the rentbook engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Tenant hooks
// ──────────────────────────────────────────────────

// OnTenantCreated is called after a tenant is added.
type OnTenantCreated interface {
	Plugin
	OnTenantCreated(ctx context.Context, t *tenant.Tenant) error
}

// OnTenantUpdated is called after a tenant is edited.
type OnTenantUpdated interface {
	Plugin
	OnTenantUpdated(ctx context.Context, oldTenant, newTenant *tenant.Tenant) error
}

// OnTenantDeleted is called after a tenant and its ledger entries are removed.
type OnTenantDeleted interface {
	Plugin
	OnTenantDeleted(ctx context.Context, tenantID id.TenantID, removedEntries int) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnEntryCreated is called after a billing period is stored.
type OnEntryCreated interface {
	Plugin
	OnEntryCreated(ctx context.Context, e *entry.Entry) error
}

// OnEntryUpdated is called after an entry is patched.
type OnEntryUpdated interface {
	Plugin
	OnEntryUpdated(ctx context.Context, oldEntry, newEntry *entry.Entry) error
}

// OnEntryDeleted is called after an entry is removed.
type OnEntryDeleted interface {
	Plugin
	OnEntryDeleted(ctx context.Context, e *entry.Entry) error
}

// OnChainRepaired is called when later entries were re-threaded after an
// edit or delete.
type OnChainRepaired interface {
	Plugin
	OnChainRepaired(ctx context.Context, tenantID id.TenantID, repaired []*entry.Entry) error
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded is called after a payment is reconciled against an entry.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, e *entry.Entry) error
}

// OnBalanceSettled is called after an outstanding balance is settled out of band.
type OnBalanceSettled interface {
	Plugin
	OnBalanceSettled(ctx context.Context, e *entry.Entry, settled types.Money) error
}
