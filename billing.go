package rentbook

import (
	"fmt"
	"sort"

	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// PeriodDefaults holds the values prefilled for a tenant's next billing
// period. Period is zero for a tenant without history.
type PeriodDefaults struct {
	TenantID        id.TenantID   `json:"tenant_id"`
	Period          types.Period  `json:"period"`
	PreviousReading types.Reading `json:"previous_reading"`
	PreviousBalance types.Money   `json:"previous_balance"`
	AdvanceCredit   types.Money   `json:"advance_credit"`

	// Latest is the entry the defaults were derived from, nil for a
	// tenant's first period.
	Latest *entry.Entry `json:"-"`
}

// HasHistory reports whether the tenant already has a ledger entry.
func (d PeriodDefaults) HasHistory() bool {
	return d.Latest != nil
}

// Draft returns an editable draft seeded from d. The current reading
// starts at the previous one.
func (d PeriodDefaults) Draft() *entry.Draft {
	return &entry.Draft{
		TenantID:        d.TenantID,
		Month:           d.Period.Month,
		Year:            d.Period.Year,
		PreviousReading: d.PreviousReading,
		CurrentReading:  d.PreviousReading,
		PreviousBalance: d.PreviousBalance,
		AdvanceCredit:   d.AdvanceCredit,
	}
}

// PrepareNextPeriod derives the defaults for t's next billing period from
// history. Only entries of t are considered, in any order; the latest is
// the one created last.
func PrepareNextPeriod(t *tenant.Tenant, history []*entry.Entry) PeriodDefaults {
	currency := t.MonthlyRent.Currency
	d := PeriodDefaults{
		TenantID:        t.ID,
		PreviousReading: t.InitialElectricityReading,
		PreviousBalance: types.Zero(currency),
		AdvanceCredit:   types.Zero(currency),
	}

	latest := LatestEntry(t.ID, history)
	if latest == nil {
		return d
	}

	d.Latest = latest
	d.Period = latest.Period().Next()
	d.PreviousReading = latest.CurrentReading
	d.PreviousBalance, d.AdvanceCredit = carryOut(latest)
	return d
}

// LatestEntry returns the most recently created entry of tenantID, or nil.
// Equal creation times are ordered by ID.
func LatestEntry(tenantID id.TenantID, history []*entry.Entry) *entry.Entry {
	var latest *entry.Entry
	for _, e := range history {
		if e == nil || !e.TenantID.Equal(tenantID) {
			continue
		}
		if latest == nil || createdAfter(e, latest) {
			latest = e
		}
	}
	return latest
}

// ComputeTotals returns the period's own charge: rent, plus consumed units
// times the electricity rate, plus additional charges. The electricity
// product is computed exactly and rounded once, half away from zero, to
// the minor unit of the rent's currency.
func ComputeTotals(t *tenant.Tenant, previous, current types.Reading, additional types.Money) (types.Money, error) {
	if current.LessThan(previous) {
		return types.Money{}, &InvalidReadingError{Previous: previous, Current: current}
	}

	electricity := types.Charge(t.ElectricityRate, current.Sub(previous), t.MonthlyRent.Currency)
	return t.MonthlyRent.Add(electricity).Add(additional), nil
}

// FinalizeEntry turns a draft into a ledger entry for t. previousBalance
// and advanceCredit are stored as the entry's carry-in snapshot. When the
// draft carries a payment it is reconciled immediately.
func FinalizeEntry(t *tenant.Tenant, d *entry.Draft, previousBalance, advanceCredit types.Money) (*entry.Entry, error) {
	if err := validateDraft(t, d, previousBalance, advanceCredit); err != nil {
		return nil, err
	}

	total, err := ComputeTotals(t, d.PreviousReading, d.CurrentReading, d.AdditionalCharges)
	if err != nil {
		return nil, err
	}

	currency := total.Currency
	e := &entry.Entry{
		Entity:            types.NewEntity(),
		ID:                id.NewEntryID(),
		TenantID:          t.ID,
		Month:             d.Month,
		Year:              d.Year,
		PreviousReading:   d.PreviousReading,
		CurrentReading:    d.CurrentReading,
		AdditionalCharges: d.AdditionalCharges.WithCurrency(currency),
		PreviousBalance:   previousBalance.WithCurrency(currency),
		AdvanceCredit:     advanceCredit.WithCurrency(currency),
		CarriedCredit:     advanceCredit.WithCurrency(currency),
		TotalRent:         total,
		PaymentStatus:     entry.StatusUnpaid,
	}
	e.Balance = e.FinalAmountDue()

	if d.AmountPaid != nil || d.PaymentDate != nil || d.PaymentNotes != "" {
		return RecordPayment(e, t, PaymentInput{
			Amount: d.AmountPaid,
			Date:   d.PaymentDate,
			Notes:  d.PaymentNotes,
		})
	}
	return e, nil
}

func validateDraft(t *tenant.Tenant, d *entry.Draft, previousBalance, advanceCredit types.Money) error {
	if t == nil {
		return ValidationError{Field: "tenant", Message: "is required"}
	}
	if d == nil {
		return ValidationError{Field: "draft", Message: "is required"}
	}

	var errs MultiError
	collect(&errs, validateStruct(d))
	if !d.TenantID.IsNil() && !d.TenantID.Equal(t.ID) {
		errs.Add(ValidationError{Field: "tenant_id", Message: fmt.Sprintf("does not match tenant %s", t.ID)})
	}
	if d.PreviousReading.IsNegative() {
		errs.Add(ValidationError{Field: "previous_reading", Message: "must not be negative"})
	}
	if previousBalance.IsNegative() {
		errs.Add(ValidationError{Field: "previous_balance", Message: "must not be negative"})
	}
	if advanceCredit.IsNegative() {
		errs.Add(ValidationError{Field: "advance_credit", Message: "must not be negative"})
	}
	errs.Add(checkCurrency("additional_charges", d.AdditionalCharges, t.MonthlyRent.Currency))
	errs.Add(checkCurrency("previous_balance", previousBalance, t.MonthlyRent.Currency))
	errs.Add(checkCurrency("advance_credit", advanceCredit, t.MonthlyRent.Currency))

	return errs.ErrOrNil()
}

// ──────────────────────────────────────────────────
// Carry-forward
// ──────────────────────────────────────────────────

// carryOut returns what e hands on to the next period: its unpaid balance
// unless settled out of band, and its leftover advance credit.
func carryOut(e *entry.Entry) (balance, credit types.Money) {
	currency := e.TotalRent.Currency
	balance = types.Zero(currency)
	if e.Balance.IsPositive() && !e.IsBalancePaid {
		balance = e.Balance
	}
	return balance, leftoverCredit(e)
}

// leftoverCredit is the stored surplus once a payment is recorded. Before
// that, only the part of the carry-in credit the period's charges did not
// absorb is left.
func leftoverCredit(e *entry.Entry) types.Money {
	if e.HasPayment() {
		return e.AdvanceCredit.ClampZero()
	}
	return e.CarriedCredit.Subtract(e.TotalRent.Add(e.PreviousBalance)).ClampZero()
}

// createdAfter orders entries by creation time, then by ID.
func createdAfter(a, b *entry.Entry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() > b.ID.String()
}

// sortChronological sorts entries oldest first.
func sortChronological(entries []*entry.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return createdAfter(entries[j], entries[i])
	})
}
