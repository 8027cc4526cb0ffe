package entry

import (
	"time"

	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/types"
)

// Draft is an editable, unsaved entry. It has no persisted effect until it
// is finalized and stored.
type Draft struct {
	TenantID          id.TenantID   `json:"tenant_id" validate:"required"`
	Month             time.Month    `json:"month" validate:"required,min=1,max=12"`
	Year              int           `json:"year" validate:"required,gt=0"`
	PreviousReading   types.Reading `json:"previous_reading"`
	CurrentReading    types.Reading `json:"current_reading"`
	AdditionalCharges types.Money   `json:"additional_charges"`
	PreviousBalance   types.Money   `json:"previous_balance"`
	AdvanceCredit     types.Money   `json:"advance_credit"`

	// Optional payment recorded together with the entry.
	AmountPaid   *types.Money `json:"amount_paid,omitempty"`
	PaymentDate  *time.Time   `json:"payment_date,omitempty"`
	PaymentNotes string       `json:"payment_notes,omitempty"`
}

// Period returns the billing period of the draft.
func (d *Draft) Period() types.Period {
	return types.Period{Month: d.Month, Year: d.Year}
}

// Patch is a partial update of a stored entry. Nil fields are left as is.
type Patch struct {
	Month             *time.Month
	Year              *int
	PreviousReading   *types.Reading
	CurrentReading    *types.Reading
	AdditionalCharges *types.Money
	PreviousBalance   *types.Money
	AdvanceCredit     *types.Money

	PaymentStatus *Status
	PaymentDate   *time.Time
	PaymentNotes  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return !p.ChangesBilling() &&
		p.PaymentStatus == nil && p.PaymentDate == nil && p.PaymentNotes == nil
}

// ChangesBilling reports whether the patch touches a field that feeds the
// period's total or due amount.
func (p Patch) ChangesBilling() bool {
	return p.PreviousReading != nil || p.CurrentReading != nil ||
		p.AdditionalCharges != nil || p.PreviousBalance != nil ||
		p.AdvanceCredit != nil
}

// Apply copies the set fields onto e. A patched AdvanceCredit replaces the
// carry-in credit snapshot. Derived amounts are not recomputed here.
func (p Patch) Apply(e *Entry) {
	if p.Month != nil {
		e.Month = *p.Month
	}
	if p.Year != nil {
		e.Year = *p.Year
	}
	if p.PreviousReading != nil {
		e.PreviousReading = *p.PreviousReading
	}
	if p.CurrentReading != nil {
		e.CurrentReading = *p.CurrentReading
	}
	if p.AdditionalCharges != nil {
		e.AdditionalCharges = *p.AdditionalCharges
	}
	if p.PreviousBalance != nil {
		e.PreviousBalance = *p.PreviousBalance
	}
	if p.AdvanceCredit != nil {
		e.CarriedCredit = *p.AdvanceCredit
		if !e.HasPayment() {
			e.AdvanceCredit = *p.AdvanceCredit
		}
	}
	if p.PaymentStatus != nil {
		e.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentDate != nil {
		e.PaymentDate = cloneTime(p.PaymentDate)
	}
	if p.PaymentNotes != nil {
		e.PaymentNotes = *p.PaymentNotes
	}
}

// ListOpts filters ListEntries. A nil TenantID lists every tenant.
type ListOpts struct {
	TenantID id.TenantID
	Status   Status
	Limit    int
	Offset   int
}
