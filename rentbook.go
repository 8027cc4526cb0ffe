package rentbook

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/plugin"
	"github.com/xraph/rentbook/store"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// Rentbook is the rent bookkeeping engine. Every mutation runs as one
// serialized read-modify-write of the persisted collections.
type Rentbook struct {
	repo    *store.Repository
	plugins *plugin.Registry
	logger  *slog.Logger

	// Configuration
	currency   string
	duplicates DuplicatePolicy
	chain      ChainPolicy
	reminders  tenant.ReminderOpts
	clock      func() time.Time
}

// New creates a new Rentbook over s.
func New(s store.Store, opts ...Option) *Rentbook {
	rb := &Rentbook{
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		currency:   types.DefaultCurrency,
		duplicates: DuplicateAllow,
		chain:      ChainPreserve,
		clock:      time.Now,
	}

	for _, opt := range opts {
		opt(rb)
	}

	rb.repo = store.NewRepository(s,
		store.WithCodec(store.NewCodec(rb.currency)),
		store.WithRepositoryLogger(rb.logger),
	)
	return rb
}

// Option configures a Rentbook instance.
type Option func(*Rentbook)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rb *Rentbook) {
		rb.logger = logger
		rb.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(rb *Rentbook) {
		_ = rb.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithHookTimeout bounds how long a single plugin hook may run.
func WithHookTimeout(d time.Duration) Option {
	return func(rb *Rentbook) {
		rb.plugins.WithTimeout(d)
	}
}

// WithCurrency sets the ledger currency (ISO 4217, e.g. "inr").
func WithCurrency(currency string) Option {
	return func(rb *Rentbook) {
		if currency != "" {
			rb.currency = strings.ToLower(currency)
		}
	}
}

// WithDuplicatePolicy sets how repeated billing periods are treated.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(rb *Rentbook) {
		if p.Valid() {
			rb.duplicates = p
		}
	}
}

// WithChainPolicy sets how later entries react to edits of earlier ones.
func WithChainPolicy(p ChainPolicy) Option {
	return func(rb *Rentbook) {
		if p.Valid() {
			rb.chain = p
		}
	}
}

// WithReminderWindow sets the agreement reminder thresholds in days.
func WithReminderWindow(windowDays, urgentDays int) Option {
	return func(rb *Rentbook) {
		rb.reminders.WindowDays = windowDays
		rb.reminders.UrgentDays = urgentDays
	}
}

// WithClock overrides the time source used for timestamps and reminders.
func WithClock(now func() time.Time) Option {
	return func(rb *Rentbook) {
		if now != nil {
			rb.clock = now
		}
	}
}

// Start migrates the store, checks that the persisted data decodes, and
// initializes plugins.
func (rb *Rentbook) Start(ctx context.Context) error {
	s := rb.repo.Store()
	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("rentbook: migrate: %w", err)
	}

	snap, err := rb.repo.Load(ctx)
	if err != nil {
		return err
	}

	rb.plugins.EmitInit(ctx, rb)

	rb.logger.Info("rentbook started",
		"currency", rb.currency,
		"tenants", len(snap.Tenants),
		"entries", len(snap.Entries),
		"duplicate_periods", rb.duplicates,
		"chain_policy", rb.chain,
		"plugins", rb.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (rb *Rentbook) Stop() error {
	ctx := context.Background()
	rb.plugins.EmitShutdown(ctx)

	return rb.repo.Store().Close()
}

// Currency returns the ledger currency.
func (rb *Rentbook) Currency() string { return rb.currency }

// Plugins returns the plugin registry.
func (rb *Rentbook) Plugins() *plugin.Registry { return rb.plugins }

func (rb *Rentbook) now() time.Time {
	return rb.clock().UTC()
}

// ──────────────────────────────────────────────────
// Tenant Management
// ──────────────────────────────────────────────────

// CreateTenant adds a tenant. An ID is assigned when t has none.
func (rb *Rentbook) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	if t == nil {
		return ValidationError{Field: "tenant", Message: "is required"}
	}
	if t.ID.IsNil() {
		t.ID = id.NewTenantID()
	}
	t.Entity = types.NewEntityAt(rb.now())
	rb.normalizeTenant(t)

	if err := rb.validateTenant(t); err != nil {
		return err
	}

	err := rb.repo.Update(ctx, func(s *store.Snapshot) error {
		if s.Tenant(t.ID.String()) != nil {
			return ValidationError{Field: "id", Message: fmt.Sprintf("tenant %s already exists", t.ID)}
		}
		s.Tenants = append(s.Tenants, t.Clone())
		return nil
	})
	if err != nil {
		return err
	}

	rb.logger.Debug("tenant created", "tenant_id", t.ID.String(), "name", t.Name)
	rb.plugins.EmitTenantCreated(ctx, t.Clone())
	return nil
}

// UpdateTenant replaces every editable field of a tenant with in.
func (rb *Rentbook) UpdateTenant(ctx context.Context, tenantID id.TenantID, in tenant.Input) (*tenant.Tenant, error) {
	var before, after *tenant.Tenant

	err := rb.repo.Update(ctx, func(s *store.Snapshot) error {
		t := s.Tenant(tenantID.String())
		if t == nil {
			return fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
		}

		before = t.Clone()
		in.Apply(t)
		t.TouchAt(rb.now())
		rb.normalizeTenant(t)
		if err := rb.validateTenant(t); err != nil {
			return err
		}
		after = t.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	rb.logger.Debug("tenant updated", "tenant_id", tenantID.String())
	rb.plugins.EmitTenantUpdated(ctx, before, after)
	return after.Clone(), nil
}

// GetTenant retrieves a tenant by ID.
func (rb *Rentbook) GetTenant(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	snap, err := rb.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	t := snap.Tenant(tenantID.String())
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
	}
	return t, nil
}

// ListTenants returns every tenant in stored order.
func (rb *Rentbook) ListTenants(ctx context.Context) ([]*tenant.Tenant, error) {
	snap, err := rb.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Tenants, nil
}

// DeleteTenant removes a tenant and every ledger entry it owns in one
// write. It returns the number of entries removed.
func (rb *Rentbook) DeleteTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	removed := 0

	err := rb.repo.Update(ctx, func(s *store.Snapshot) error {
		kept := s.Tenants[:0]
		found := false
		for _, t := range s.Tenants {
			if t.ID.Equal(tenantID) {
				found = true
				continue
			}
			kept = append(kept, t)
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
		}
		s.Tenants = kept

		entries := s.Entries[:0]
		for _, e := range s.Entries {
			if e.TenantID.Equal(tenantID) {
				removed++
				continue
			}
			entries = append(entries, e)
		}
		s.Entries = entries
		return nil
	})
	if err != nil {
		return 0, err
	}

	rb.logger.Info("tenant deleted",
		"tenant_id", tenantID.String(),
		"removed_entries", removed,
	)
	rb.plugins.EmitTenantDeleted(ctx, tenantID, removed)
	return removed, nil
}

// ──────────────────────────────────────────────────
// Billing
// ──────────────────────────────────────────────────

// NextPeriod derives the defaults for a tenant's next billing period.
func (rb *Rentbook) NextPeriod(ctx context.Context, tenantID id.TenantID) (PeriodDefaults, error) {
	snap, err := rb.repo.Load(ctx)
	if err != nil {
		return PeriodDefaults{}, err
	}
	t := snap.Tenant(tenantID.String())
	if t == nil {
		return PeriodDefaults{}, fmt.Errorf("%w: %s", ErrTenantNotFound, tenantID)
	}
	return PrepareNextPeriod(t, snap.Entries), nil
}

// NewDraft returns an editable draft for a tenant's next period. For a
// first period the month is left for the caller and the year is the
// current one.
func (rb *Rentbook) NewDraft(ctx context.Context, tenantID id.TenantID) (*entry.Draft, error) {
	defaults, err := rb.NextPeriod(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	d := defaults.Draft()
	if d.Year == 0 {
		d.Year = rb.now().Year()
	}
	return d, nil
}

// CreateEntry finalizes d against its tenant and stores the entry. The
// carry-in amounts are taken from the draft as edited by the caller.
func (rb *Rentbook) CreateEntry(ctx context.Context, d *entry.Draft) (*entry.Entry, error) {
	if d == nil {
		return nil, ValidationError{Field: "draft", Message: "is required"}
	}

	var created *entry.Entry
	err := rb.repo.Update(ctx, func(s *store.Snapshot) error {
		t := s.Tenant(d.TenantID.String())
		if t == nil {
			return fmt.Errorf("%w: %s", ErrTenantNotFound, d.TenantID)
		}

		e, err := FinalizeEntry(t, d, d.PreviousBalance, d.AdvanceCredit)
		if err != nil {
			return err
		}
		if rb.duplicates == DuplicateReject && hasPeriod(s.Entries, t.ID, e.Period(), id.Nil) {
			return fmt.Errorf("%w: %s %s", ErrDuplicatePeriod, t.Name, e.Period())
		}

		e.Entity = types.NewEntityAt(rb.now())
		s.Entries = append(s.Entries, e)
		created = e.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	rb.logger.Info("entry created",
		"tenant_id", created.TenantID.String(),
		"entry_id", created.ID.String(),
		"period", created.Period().String(),
		"total_rent", created.TotalRent.String(),
		"status", created.PaymentStatus,
	)
	rb.plugins.EmitEntryCreated(ctx, created)
	if created.HasPayment() {
		rb.plugins.EmitPaymentRecorded(ctx, created)
	}
	return created, nil
}

// ──────────────────────────────────────────────────
// Ledger
// ──────────────────────────────────────────────────

// GetEntry retrieves an entry by ID.
func (rb *Rentbook) GetEntry(ctx context.Context, entryID id.EntryID) (*entry.Entry, error) {
	snap, err := rb.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	e := snap.Entry(entryID.String())
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	return e, nil
}

// ListEntries returns entries matching opts, most recently created first.
func (rb *Rentbook) ListEntries(ctx context.Context, opts entry.ListOpts) ([]*entry.Entry, error) {
	snap, err := rb.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*entry.Entry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		if !opts.TenantID.IsNil() && !e.TenantID.Equal(opts.TenantID) {
			continue
		}
		if opts.Status != "" && e.PaymentStatus != opts.Status {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return createdAfter(out[i], out[j])
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return []*entry.Entry{}, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

// UpdateEntry applies p to an entry. When p touches readings or amounts
// the period's total is recomputed and its payment reconciled again.
// Later entries of the tenant are re-threaded only under ChainRepair.
func (rb *Rentbook) UpdateEntry(ctx context.Context, entryID id.EntryID, p entry.Patch) (*entry.Entry, error) {
	if p.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		return nil, ValidationError{Field: "payment_status", Message: fmt.Sprintf("unknown status %q", *p.PaymentStatus)}
	}

	var (
		before, after                 *entry.Entry
		repairedBefore, repairedAfter []*entry.Entry
	)

	err := rb.repo.Update(ctx, func(s *store.Snapshot) error {
		e := s.Entry(entryID.String())
		if e == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
		}
		t := s.Tenant(e.TenantID.String())

		currency := e.TotalRent.Currency
		if currency == "" {
			currency = rb.currency
		}

		before = e.Clone()
		p.Apply(e)
		if err := validatePatched(e, currency); err != nil {
			return err
		}

		if p.ChangesBilling() {
			if t == nil {
				return fmt.Errorf("%w: %s", ErrTenantNotFound, e.TenantID)
			}
			total, err := ComputeTotals(t, e.PreviousReading, e.CurrentReading, e.AdditionalCharges)
			if err != nil {
				return err
			}
			e.TotalRent = total
			reconcile(e)
		}

		if (p.Month != nil || p.Year != nil) && rb.duplicates == DuplicateReject &&
			hasPeriod(s.Entries, e.TenantID, e.Period(), e.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicatePeriod, e.Period())
		}

		e.TouchAt(rb.now())
		after = e.Clone()

		if rb.chain == ChainRepair {
			repairedBefore, repairedAfter = rb.repairFrom(s.Entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rb.logger.Info("entry updated",
		"entry_id", entryID.String(),
		"tenant_id", after.TenantID.String(),
		"status", after.PaymentStatus,
		"repaired", len(repairedAfter),
	)
	rb.plugins.EmitEntryUpdated(ctx, before, after)
	rb.emitRepaired(ctx, after.TenantID, repairedBefore, repairedAfter)
	return after, nil
}

// DeleteEntry removes one entry. Later entries of the tenant are
// re-threaded only under ChainRepair.
func (rb *Rentbook) DeleteEntry(ctx context.Context, entryID id.EntryID) error {
	var (
		removed                       *entry.Entry
		repairedBefore, repairedAfter []*entry.Entry
	)

	err := rb.repo.Update(ctx, func(s *store.Snapshot) error {
		kept := s.Entries[:0]
		for _, e := range s.Entries {
			if removed == nil && e.ID.Equal(entryID) {
				removed = e
				continue
			}
			kept = append(kept, e)
		}
		if removed == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
		}
		s.Entries = kept

		if rb.chain == ChainRepair {
			chain := tenantChain(s.Entries, removed.TenantID)
			from := len(chain)
			for i, e := range chain {
				if createdAfter(e, removed) {
					from = i
					break
				}
			}
			repairedBefore, repairedAfter = repairChain(chain, from)
			for _, r := range repairedAfter {
				r.TouchAt(rb.now())
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	rb.logger.Info("entry deleted",
		"entry_id", entryID.String(),
		"tenant_id", removed.TenantID.String(),
		"repaired", len(repairedAfter),
	)
	rb.plugins.EmitEntryDeleted(ctx, removed)
	rb.emitRepaired(ctx, removed.TenantID, repairedBefore, repairedAfter)
	return nil
}

// ──────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────

// RecordPayment reconciles a payment against an entry and stores it.
func (rb *Rentbook) RecordPayment(ctx context.Context, entryID id.EntryID, in PaymentInput) (*entry.Entry, error) {
	var (
		before, after                 *entry.Entry
		repairedBefore, repairedAfter []*entry.Entry
	)

	err := rb.repo.Update(ctx, func(s *store.Snapshot) error {
		idx := indexOf(s.Entries, entryID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
		}
		before = s.Entries[idx]

		updated, err := RecordPayment(before, s.Tenant(before.TenantID.String()), in)
		if err != nil {
			return err
		}
		updated.TouchAt(rb.now())
		s.Entries[idx] = updated
		after = updated.Clone()

		if rb.chain == ChainRepair {
			repairedBefore, repairedAfter = rb.repairFrom(s.Entries, updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rb.logger.Info("payment recorded",
		"entry_id", entryID.String(),
		"tenant_id", after.TenantID.String(),
		"status", after.PaymentStatus,
		"balance", after.Balance.String(),
		"advance_credit", after.AdvanceCredit.String(),
	)
	rb.plugins.EmitPaymentRecorded(ctx, after)
	rb.plugins.EmitEntryUpdated(ctx, before, after)
	rb.emitRepaired(ctx, after.TenantID, repairedBefore, repairedAfter)
	return after, nil
}

// MarkBalancePaid settles an entry's outstanding balance out of band.
// A zero paidOn means today. Later entries are re-threaded only under
// ChainRepair.
func (rb *Rentbook) MarkBalancePaid(ctx context.Context, entryID id.EntryID, paidOn time.Time) (*entry.Entry, error) {
	if paidOn.IsZero() {
		paidOn = rb.now()
	}

	var (
		before, after                 *entry.Entry
		repairedBefore, repairedAfter []*entry.Entry
	)
	err := rb.repo.Update(ctx, func(s *store.Snapshot) error {
		idx := indexOf(s.Entries, entryID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
		}
		before = s.Entries[idx]

		updated, err := MarkBalancePaid(before, paidOn)
		if err != nil {
			return err
		}
		updated.TouchAt(rb.now())
		s.Entries[idx] = updated
		after = updated.Clone()

		if rb.chain == ChainRepair {
			repairedBefore, repairedAfter = rb.repairFrom(s.Entries, updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	rb.logger.Info("balance settled",
		"entry_id", entryID.String(),
		"tenant_id", after.TenantID.String(),
		"settled", before.Balance.String(),
	)
	rb.plugins.EmitBalanceSettled(ctx, after, before.Balance)
	rb.plugins.EmitEntryUpdated(ctx, before, after)
	rb.emitRepaired(ctx, after.TenantID, repairedBefore, repairedAfter)
	return after, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// TenantSummary is the standing of one tenant as of its latest entry.
type TenantSummary struct {
	Tenant      *tenant.Tenant `json:"tenant"`
	Entries     int            `json:"entries"`
	Latest      *entry.Entry   `json:"latest,omitempty"`
	Next        types.Period   `json:"next"`
	Outstanding types.Money    `json:"outstanding"`
	Credit      types.Money    `json:"credit"`
	TotalBilled types.Money    `json:"total_billed"`
	TotalPaid   types.Money    `json:"total_paid"`
}

// Summary reports every tenant's carried balance and credit, in stored
// tenant order.
func (rb *Rentbook) Summary(ctx context.Context) ([]TenantSummary, error) {
	snap, err := rb.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TenantSummary, 0, len(snap.Tenants))
	for _, t := range snap.Tenants {
		chain := tenantChain(snap.Entries, t.ID)
		defaults := PrepareNextPeriod(t, chain)

		sum := TenantSummary{
			Tenant:      t,
			Entries:     len(chain),
			Latest:      defaults.Latest,
			Next:        defaults.Period,
			Outstanding: defaults.PreviousBalance,
			Credit:      defaults.AdvanceCredit,
			TotalBilled: types.Zero(rb.currency),
			TotalPaid:   types.Zero(rb.currency),
		}
		for _, e := range chain {
			sum.TotalBilled = sum.TotalBilled.Add(e.TotalRent)
			if e.AmountPaid != nil {
				sum.TotalPaid = sum.TotalPaid.Add(*e.AmountPaid)
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

// Reminders lists tenants whose agreements end soon or have ended,
// skipping the dismissed tenant IDs.
func (rb *Rentbook) Reminders(ctx context.Context, dismissed ...id.TenantID) ([]tenant.Reminder, error) {
	tenants, err := rb.ListTenants(ctx)
	if err != nil {
		return nil, err
	}

	opts := rb.reminders
	if len(dismissed) > 0 {
		opts.Dismissed = make(map[string]bool, len(dismissed))
		for _, tid := range dismissed {
			opts.Dismissed[tid.String()] = true
		}
	}
	return tenant.Reminders(tenants, rb.now(), opts), nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (rb *Rentbook) normalizeTenant(t *tenant.Tenant) {
	t.Name = strings.TrimSpace(t.Name)
	t.MonthlyRent = t.MonthlyRent.WithCurrency(rb.currency)
	if t.AgreementStartDate != nil && t.AgreementStartDate.IsZero() {
		t.AgreementStartDate = nil
	}
}

func (rb *Rentbook) validateTenant(t *tenant.Tenant) error {
	var errs MultiError
	collect(&errs, validateStruct(t))
	if t.ElectricityRate.IsNegative() {
		errs.Add(ValidationError{Field: "electricity_rate", Message: "must not be negative"})
	}
	if t.InitialElectricityReading.IsNegative() {
		errs.Add(ValidationError{Field: "initial_electricity_reading", Message: "must not be negative"})
	}
	errs.Add(checkCurrency("monthly_rent", t.MonthlyRent, rb.currency))

	return errs.ErrOrNil()
}

// validatePatched checks the fields a patch may have broken and gives
// amounts without a currency the entry's.
func validatePatched(e *entry.Entry, currency string) error {
	var errs MultiError
	if e.Month < time.January || e.Month > time.December {
		errs.Add(ValidationError{Field: "month", Message: "is out of range"})
	}
	if e.Year <= 0 {
		errs.Add(ValidationError{Field: "year", Message: "must be positive"})
	}
	if e.PreviousReading.IsNegative() {
		errs.Add(ValidationError{Field: "previous_reading", Message: "must not be negative"})
	}
	if e.PreviousBalance.IsNegative() {
		errs.Add(ValidationError{Field: "previous_balance", Message: "must not be negative"})
	}
	if e.CarriedCredit.IsNegative() {
		errs.Add(ValidationError{Field: "advance_credit", Message: "must not be negative"})
	}
	errs.Add(checkCurrency("additional_charges", e.AdditionalCharges, currency))
	errs.Add(checkCurrency("previous_balance", e.PreviousBalance, currency))
	errs.Add(checkCurrency("advance_credit", e.CarriedCredit, currency))
	if err := errs.ErrOrNil(); err != nil {
		return err
	}

	e.AdditionalCharges = e.AdditionalCharges.WithCurrency(currency)
	e.PreviousBalance = e.PreviousBalance.WithCurrency(currency)
	e.CarriedCredit = e.CarriedCredit.WithCurrency(currency)
	e.AdvanceCredit = e.AdvanceCredit.WithCurrency(currency)
	return nil
}

// repairFrom re-threads the entries of e's tenant created after e.
func (rb *Rentbook) repairFrom(entries []*entry.Entry, e *entry.Entry) (before, after []*entry.Entry) {
	chain := tenantChain(entries, e.TenantID)
	before, after = repairChain(chain, indexOf(chain, e.ID)+1)
	for _, r := range after {
		r.TouchAt(rb.now())
	}
	return before, after
}

func (rb *Rentbook) emitRepaired(ctx context.Context, tenantID id.TenantID, before, after []*entry.Entry) {
	if len(after) == 0 {
		return
	}
	repaired := make([]*entry.Entry, len(after))
	for i := range after {
		repaired[i] = after[i].Clone()
		rb.plugins.EmitEntryUpdated(ctx, before[i], repaired[i])
	}
	rb.plugins.EmitChainRepaired(ctx, tenantID, repaired)
}

func indexOf(entries []*entry.Entry, entryID id.EntryID) int {
	for i, e := range entries {
		if e.ID.Equal(entryID) {
			return i
		}
	}
	return -1
}
