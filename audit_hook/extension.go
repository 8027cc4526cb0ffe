// Package audithook bridges Rentbook lifecycle events to an audit trail.
//
// It defines a local Recorder interface so any audit backend can be
// plugged in; LogRecorder writes the trail to a slog.Logger.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/plugin"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnTenantCreated   = (*Extension)(nil)
	_ plugin.OnTenantUpdated   = (*Extension)(nil)
	_ plugin.OnTenantDeleted   = (*Extension)(nil)
	_ plugin.OnEntryCreated    = (*Extension)(nil)
	_ plugin.OnEntryUpdated    = (*Extension)(nil)
	_ plugin.OnEntryDeleted    = (*Extension)(nil)
	_ plugin.OnChainRepaired   = (*Extension)(nil)
	_ plugin.OnPaymentRecorded = (*Extension)(nil)
	_ plugin.OnBalanceSettled  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// LogRecorder returns a Recorder writing each event to logger at level.
func LogRecorder(logger *slog.Logger, level slog.Level) Recorder {
	return RecorderFunc(func(ctx context.Context, event *AuditEvent) error {
		attrs := []slog.Attr{
			slog.String("action", event.Action),
			slog.String("resource", event.Resource),
			slog.String("resource_id", event.ResourceID),
			slog.String("outcome", event.Outcome),
			slog.String("severity", event.Severity),
		}
		for k, v := range event.Metadata {
			attrs = append(attrs, slog.Any(k, v))
		}
		logger.LogAttrs(ctx, level, "audit", attrs...)
		return nil
	})
}

// Extension bridges Rentbook lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Tenant lifecycle hooks
// ──────────────────────────────────────────────────

// OnTenantCreated implements plugin.OnTenantCreated.
func (e *Extension) OnTenantCreated(ctx context.Context, t *tenant.Tenant) error {
	return e.record(ctx, ActionTenantCreated, SeverityInfo, OutcomeSuccess,
		ResourceTenant, t.ID.String(), CategoryTenancy,
		"name", t.Name,
		"monthly_rent", t.MonthlyRent.String(),
	)
}

// OnTenantUpdated implements plugin.OnTenantUpdated.
func (e *Extension) OnTenantUpdated(ctx context.Context, oldTenant, newTenant *tenant.Tenant) error {
	kv := []any{"name", newTenant.Name}
	if !oldTenant.MonthlyRent.Equal(newTenant.MonthlyRent) {
		kv = append(kv, "old_monthly_rent", oldTenant.MonthlyRent.String(), "monthly_rent", newTenant.MonthlyRent.String())
	}
	if !oldTenant.ElectricityRate.Equal(newTenant.ElectricityRate) {
		currency := newTenant.MonthlyRent.Currency
		kv = append(kv,
			"old_electricity_rate", types.FormatRate(oldTenant.ElectricityRate, currency),
			"electricity_rate", types.FormatRate(newTenant.ElectricityRate, currency))
	}
	return e.record(ctx, ActionTenantUpdated, SeverityInfo, OutcomeSuccess,
		ResourceTenant, newTenant.ID.String(), CategoryTenancy, kv...)
}

// OnTenantDeleted implements plugin.OnTenantDeleted.
func (e *Extension) OnTenantDeleted(ctx context.Context, tenantID id.TenantID, removedEntries int) error {
	return e.record(ctx, ActionTenantDeleted, SeverityWarning, OutcomeSuccess,
		ResourceTenant, tenantID.String(), CategoryTenancy,
		"removed_entries", removedEntries,
	)
}

// ──────────────────────────────────────────────────
// Ledger lifecycle hooks
// ──────────────────────────────────────────────────

// OnEntryCreated implements plugin.OnEntryCreated.
func (e *Extension) OnEntryCreated(ctx context.Context, en *entry.Entry) error {
	return e.record(ctx, ActionEntryCreated, SeverityInfo, OutcomeSuccess,
		ResourceEntry, en.ID.String(), CategoryBilling,
		"tenant_id", en.TenantID.String(),
		"period", en.Period().String(),
		"total_rent", en.TotalRent.String(),
		"previous_balance", en.PreviousBalance.String(),
		"carried_credit", en.CarriedCredit.String(),
	)
}

// OnEntryUpdated implements plugin.OnEntryUpdated.
func (e *Extension) OnEntryUpdated(ctx context.Context, oldEntry, newEntry *entry.Entry) error {
	kv := []any{"tenant_id", newEntry.TenantID.String(), "period", newEntry.Period().String()}
	if !oldEntry.TotalRent.Equal(newEntry.TotalRent) {
		kv = append(kv, "old_total_rent", oldEntry.TotalRent.String(), "total_rent", newEntry.TotalRent.String())
	}
	if !oldEntry.Balance.Equal(newEntry.Balance) {
		kv = append(kv, "old_balance", oldEntry.Balance.String(), "balance", newEntry.Balance.String())
	}
	if oldEntry.PaymentStatus != newEntry.PaymentStatus {
		kv = append(kv, "old_status", string(oldEntry.PaymentStatus), "status", string(newEntry.PaymentStatus))
	}
	return e.record(ctx, ActionEntryUpdated, SeverityInfo, OutcomeSuccess,
		ResourceEntry, newEntry.ID.String(), CategoryBilling, kv...)
}

// OnEntryDeleted implements plugin.OnEntryDeleted.
func (e *Extension) OnEntryDeleted(ctx context.Context, en *entry.Entry) error {
	return e.record(ctx, ActionEntryDeleted, SeverityWarning, OutcomeSuccess,
		ResourceEntry, en.ID.String(), CategoryBilling,
		"tenant_id", en.TenantID.String(),
		"period", en.Period().String(),
	)
}

// OnChainRepaired implements plugin.OnChainRepaired.
func (e *Extension) OnChainRepaired(ctx context.Context, tenantID id.TenantID, repaired []*entry.Entry) error {
	ids := make([]string, len(repaired))
	for i, en := range repaired {
		ids[i] = en.ID.String()
	}
	return e.record(ctx, ActionChainRepaired, SeverityInfo, OutcomeSuccess,
		ResourceTenant, tenantID.String(), CategoryBilling,
		"entries", ids,
	)
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (e *Extension) OnPaymentRecorded(ctx context.Context, en *entry.Entry) error {
	outcome := OutcomeSuccess
	if en.PaymentStatus != entry.StatusPaid {
		outcome = OutcomePartial
	}
	paid := "none"
	if en.AmountPaid != nil {
		paid = en.AmountPaid.String()
	}
	return e.record(ctx, ActionPaymentRecorded, SeverityInfo, outcome,
		ResourceEntry, en.ID.String(), CategoryPayment,
		"tenant_id", en.TenantID.String(),
		"amount_paid", paid,
		"balance", en.Balance.String(),
		"advance_credit", en.AdvanceCredit.String(),
		"status", string(en.PaymentStatus),
	)
}

// OnBalanceSettled implements plugin.OnBalanceSettled.
func (e *Extension) OnBalanceSettled(ctx context.Context, en *entry.Entry, settled types.Money) error {
	kv := []any{"tenant_id", en.TenantID.String(), "settled", settled.String()}
	if en.BalancePaidDate != nil {
		kv = append(kv, "settled_on", en.BalancePaidDate.Format("2006-01-02"))
	}
	return e.record(ctx, ActionBalanceSettled, SeverityInfo, OutcomeSuccess,
		ResourceEntry, en.ID.String(), CategoryPayment, kv...)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
