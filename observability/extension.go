// Package observability provides a metrics extension for Rentbook that
// records lifecycle event counts and billed amounts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/plugin"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnTenantCreated   = (*MetricsExtension)(nil)
	_ plugin.OnTenantUpdated   = (*MetricsExtension)(nil)
	_ plugin.OnTenantDeleted   = (*MetricsExtension)(nil)
	_ plugin.OnEntryCreated    = (*MetricsExtension)(nil)
	_ plugin.OnEntryUpdated    = (*MetricsExtension)(nil)
	_ plugin.OnEntryDeleted    = (*MetricsExtension)(nil)
	_ plugin.OnChainRepaired   = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded = (*MetricsExtension)(nil)
	_ plugin.OnBalanceSettled  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger lifecycle metrics.
// Register it as a Rentbook plugin to track billing activity.
type MetricsExtension struct {
	factory MetricFactory

	// Tenant metrics
	TenantCreated  Counter
	TenantUpdated  Counter
	TenantDeleted  Counter
	EntriesRemoved Counter

	// Ledger metrics
	EntryCreated     Counter
	EntryUpdated     Counter
	EntryDeleted     Counter
	ChainRepairs     Counter
	EntriesRepaired  Counter
	EntryTotal       Histogram
	EntryConsumption Histogram

	// Payment metrics
	PaymentRecorded Counter
	PaymentPartial  Counter
	PaymentAmount   Histogram
	AdvanceCredit   Histogram
	BalanceSettled  Counter
	SettledAmount   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Tenant metrics
		TenantCreated:  factory.Counter("rentbook.tenant.created"),
		TenantUpdated:  factory.Counter("rentbook.tenant.updated"),
		TenantDeleted:  factory.Counter("rentbook.tenant.deleted"),
		EntriesRemoved: factory.Counter("rentbook.tenant.entries_removed"),

		// Ledger metrics
		EntryCreated:     factory.Counter("rentbook.entry.created"),
		EntryUpdated:     factory.Counter("rentbook.entry.updated"),
		EntryDeleted:     factory.Counter("rentbook.entry.deleted"),
		ChainRepairs:     factory.Counter("rentbook.chain.repairs"),
		EntriesRepaired:  factory.Counter("rentbook.chain.entries_repaired"),
		EntryTotal:       factory.Histogram("rentbook.entry.total_amount"),
		EntryConsumption: factory.Histogram("rentbook.entry.consumption_units"),

		// Payment metrics
		PaymentRecorded: factory.Counter("rentbook.payment.recorded"),
		PaymentPartial:  factory.Counter("rentbook.payment.partial"),
		PaymentAmount:   factory.Histogram("rentbook.payment.amount"),
		AdvanceCredit:   factory.Histogram("rentbook.payment.advance_credit"),
		BalanceSettled:  factory.Counter("rentbook.balance.settled"),
		SettledAmount:   factory.Histogram("rentbook.balance.settled_amount"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Tenant lifecycle hooks
// ──────────────────────────────────────────────────

// OnTenantCreated implements plugin.OnTenantCreated.
func (m *MetricsExtension) OnTenantCreated(_ context.Context, _ *tenant.Tenant) error {
	m.TenantCreated.Inc()
	return nil
}

// OnTenantUpdated implements plugin.OnTenantUpdated.
func (m *MetricsExtension) OnTenantUpdated(_ context.Context, _, _ *tenant.Tenant) error {
	m.TenantUpdated.Inc()
	return nil
}

// OnTenantDeleted implements plugin.OnTenantDeleted.
func (m *MetricsExtension) OnTenantDeleted(_ context.Context, _ id.TenantID, removedEntries int) error {
	m.TenantDeleted.Inc()
	m.EntriesRemoved.Add(float64(removedEntries))
	return nil
}

// ──────────────────────────────────────────────────
// Ledger lifecycle hooks
// ──────────────────────────────────────────────────

// OnEntryCreated implements plugin.OnEntryCreated.
func (m *MetricsExtension) OnEntryCreated(_ context.Context, e *entry.Entry) error {
	m.EntryCreated.Inc()
	m.EntryTotal.Observe(major(e.TotalRent))
	units, _ := e.Consumption().Float64()
	m.EntryConsumption.Observe(units)
	return nil
}

// OnEntryUpdated implements plugin.OnEntryUpdated.
func (m *MetricsExtension) OnEntryUpdated(_ context.Context, _, _ *entry.Entry) error {
	m.EntryUpdated.Inc()
	return nil
}

// OnEntryDeleted implements plugin.OnEntryDeleted.
func (m *MetricsExtension) OnEntryDeleted(_ context.Context, _ *entry.Entry) error {
	m.EntryDeleted.Inc()
	return nil
}

// OnChainRepaired implements plugin.OnChainRepaired.
func (m *MetricsExtension) OnChainRepaired(_ context.Context, _ id.TenantID, repaired []*entry.Entry) error {
	m.ChainRepairs.Inc()
	m.EntriesRepaired.Add(float64(len(repaired)))
	return nil
}

// ──────────────────────────────────────────────────
// Payment lifecycle hooks
// ──────────────────────────────────────────────────

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, e *entry.Entry) error {
	m.PaymentRecorded.Inc()
	if e.PaymentStatus == entry.StatusPartial {
		m.PaymentPartial.Inc()
	}
	if e.AmountPaid != nil {
		m.PaymentAmount.Observe(major(*e.AmountPaid))
	}
	if e.AdvanceCredit.IsPositive() {
		m.AdvanceCredit.Observe(major(e.AdvanceCredit))
	}
	return nil
}

// OnBalanceSettled implements plugin.OnBalanceSettled.
func (m *MetricsExtension) OnBalanceSettled(_ context.Context, _ *entry.Entry, settled types.Money) error {
	m.BalanceSettled.Inc()
	m.SettledAmount.Observe(major(settled))
	return nil
}

// major converts an amount to major units for observation.
func major(m types.Money) float64 {
	f, _ := m.Decimal().Float64()
	return f
}
