package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so each emit only visits the plugins that
// implement the hook.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onTenantCreated   []OnTenantCreated
	onTenantUpdated   []OnTenantUpdated
	onTenantDeleted   []OnTenantDeleted
	onEntryCreated    []OnEntryCreated
	onEntryUpdated    []OnEntryUpdated
	onEntryDeleted    []OnEntryDeleted
	onChainRepaired   []OnChainRepaired
	onPaymentRecorded []OnPaymentRecorded
	onBalanceSettled  []OnBalanceSettled
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTenantCreated); ok {
		r.onTenantCreated = append(r.onTenantCreated, v)
	}
	if v, ok := p.(OnTenantUpdated); ok {
		r.onTenantUpdated = append(r.onTenantUpdated, v)
	}
	if v, ok := p.(OnTenantDeleted); ok {
		r.onTenantDeleted = append(r.onTenantDeleted, v)
	}
	if v, ok := p.(OnEntryCreated); ok {
		r.onEntryCreated = append(r.onEntryCreated, v)
	}
	if v, ok := p.(OnEntryUpdated); ok {
		r.onEntryUpdated = append(r.onEntryUpdated, v)
	}
	if v, ok := p.(OnEntryDeleted); ok {
		r.onEntryDeleted = append(r.onEntryDeleted, v)
	}
	if v, ok := p.(OnChainRepaired); ok {
		r.onChainRepaired = append(r.onChainRepaired, v)
	}
	if v, ok := p.(OnPaymentRecorded); ok {
		r.onPaymentRecorded = append(r.onPaymentRecorded, v)
	}
	if v, ok := p.(OnBalanceSettled); ok {
		r.onBalanceSettled = append(r.onBalanceSettled, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnTenantCreated", reflect.TypeOf((*OnTenantCreated)(nil)).Elem()},
	{"OnTenantUpdated", reflect.TypeOf((*OnTenantUpdated)(nil)).Elem()},
	{"OnTenantDeleted", reflect.TypeOf((*OnTenantDeleted)(nil)).Elem()},
	{"OnEntryCreated", reflect.TypeOf((*OnEntryCreated)(nil)).Elem()},
	{"OnEntryUpdated", reflect.TypeOf((*OnEntryUpdated)(nil)).Elem()},
	{"OnEntryDeleted", reflect.TypeOf((*OnEntryDeleted)(nil)).Elem()},
	{"OnChainRepaired", reflect.TypeOf((*OnChainRepaired)(nil)).Elem()},
	{"OnPaymentRecorded", reflect.TypeOf((*OnPaymentRecorded)(nil)).Elem()},
	{"OnBalanceSettled", reflect.TypeOf((*OnBalanceSettled)(nil)).Elem()},
}

// implementedInterfaces returns the hook interfaces implemented by p.
func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, rb interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, rb)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitTenantCreated emits a tenant created event.
func (r *Registry) EmitTenantCreated(ctx context.Context, t *tenant.Tenant) {
	r.mu.RLock()
	plugins := r.onTenantCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnTenantCreated", p.Name(), func() error {
			return p.OnTenantCreated(ctx, t)
		})
	}
}

// EmitTenantUpdated emits a tenant updated event.
func (r *Registry) EmitTenantUpdated(ctx context.Context, oldTenant, newTenant *tenant.Tenant) {
	r.mu.RLock()
	plugins := r.onTenantUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnTenantUpdated", p.Name(), func() error {
			return p.OnTenantUpdated(ctx, oldTenant, newTenant)
		})
	}
}

// EmitTenantDeleted emits a tenant deleted event.
func (r *Registry) EmitTenantDeleted(ctx context.Context, tenantID id.TenantID, removedEntries int) {
	r.mu.RLock()
	plugins := r.onTenantDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnTenantDeleted", p.Name(), func() error {
			return p.OnTenantDeleted(ctx, tenantID, removedEntries)
		})
	}
}

// EmitEntryCreated emits an entry created event.
func (r *Registry) EmitEntryCreated(ctx context.Context, e *entry.Entry) {
	r.mu.RLock()
	plugins := r.onEntryCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnEntryCreated", p.Name(), func() error {
			return p.OnEntryCreated(ctx, e)
		})
	}
}

// EmitEntryUpdated emits an entry updated event.
func (r *Registry) EmitEntryUpdated(ctx context.Context, oldEntry, newEntry *entry.Entry) {
	r.mu.RLock()
	plugins := r.onEntryUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnEntryUpdated", p.Name(), func() error {
			return p.OnEntryUpdated(ctx, oldEntry, newEntry)
		})
	}
}

// EmitEntryDeleted emits an entry deleted event.
func (r *Registry) EmitEntryDeleted(ctx context.Context, e *entry.Entry) {
	r.mu.RLock()
	plugins := r.onEntryDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnEntryDeleted", p.Name(), func() error {
			return p.OnEntryDeleted(ctx, e)
		})
	}
}

// EmitChainRepaired emits a chain repaired event.
func (r *Registry) EmitChainRepaired(ctx context.Context, tenantID id.TenantID, repaired []*entry.Entry) {
	r.mu.RLock()
	plugins := r.onChainRepaired
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnChainRepaired", p.Name(), func() error {
			return p.OnChainRepaired(ctx, tenantID, repaired)
		})
	}
}

// EmitPaymentRecorded emits a payment recorded event.
func (r *Registry) EmitPaymentRecorded(ctx context.Context, e *entry.Entry) {
	r.mu.RLock()
	plugins := r.onPaymentRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnPaymentRecorded", p.Name(), func() error {
			return p.OnPaymentRecorded(ctx, e)
		})
	}
}

// EmitBalanceSettled emits a balance settled event.
func (r *Registry) EmitBalanceSettled(ctx context.Context, e *entry.Entry, settled types.Money) {
	r.mu.RLock()
	plugins := r.onBalanceSettled
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnBalanceSettled", p.Name(), func() error {
			return p.OnBalanceSettled(ctx, e, settled)
		})
	}
}

// dispatch runs one hook and logs its failure. Hook errors never reach
// the caller of the engine operation.
func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
