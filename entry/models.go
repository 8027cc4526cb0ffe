// Package entry defines the rent ledger entry: one billing period of one
// tenant, with its charges, carried balance or credit, and payment state.
package entry

import (
	"time"

	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/types"
)

// Status is the payment status of an entry.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusUnpaid  Status = "unpaid"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusUnpaid:
		return true
	}
	return false
}

// ParseStatus parses a status name. The empty string is unpaid.
func ParseStatus(s string) (Status, bool) {
	if s == "" {
		return StatusUnpaid, true
	}
	st := Status(s)
	return st, st.Valid()
}

// Entry is one row of the rent ledger.
//
// PreviousBalance and CarriedCredit are the carry-in snapshot taken when
// the entry was created. AdvanceCredit is the credit this entry hands on
// to the next period: the carry-in credit until a payment is recorded,
// then whatever credit is left over after that payment.
type Entry struct {
	types.Entity
	ID                id.EntryID    `json:"id"`
	TenantID          id.TenantID   `json:"tenant_id"`
	Month             time.Month    `json:"month"`
	Year              int           `json:"year"`
	PreviousReading   types.Reading `json:"previous_reading"`
	CurrentReading    types.Reading `json:"current_reading"`
	AdditionalCharges types.Money   `json:"additional_charges"`
	PreviousBalance   types.Money   `json:"previous_balance"`
	AdvanceCredit     types.Money   `json:"advance_credit"`
	CarriedCredit     types.Money   `json:"carried_credit"`
	TotalRent         types.Money   `json:"total_rent"`
	AmountPaid        *types.Money  `json:"amount_paid,omitempty"`
	Balance           types.Money   `json:"balance"`
	PaymentStatus     Status        `json:"payment_status"`
	PaymentDate       *time.Time    `json:"payment_date,omitempty"`
	PaymentNotes      string        `json:"payment_notes,omitempty"`
	IsBalancePaid     bool          `json:"is_balance_paid,omitempty"`
	BalancePaidDate   *time.Time    `json:"balance_paid_date,omitempty"`
}

// Period returns the billing period of the entry.
func (e *Entry) Period() types.Period {
	return types.Period{Month: e.Month, Year: e.Year}
}

// Consumption returns the metered units for the period.
func (e *Entry) Consumption() types.Reading {
	return e.CurrentReading.Sub(e.PreviousReading)
}

// FinalAmountDue returns max(0, TotalRent + PreviousBalance - CarriedCredit).
func (e *Entry) FinalAmountDue() types.Money {
	return e.TotalRent.Add(e.PreviousBalance).Subtract(e.CarriedCredit).ClampZero()
}

// Outstanding returns the balance still owed, zero once settled.
func (e *Entry) Outstanding() types.Money {
	if e.IsBalancePaid || !e.Balance.IsPositive() {
		return types.Zero(e.TotalRent.Currency)
	}
	return e.Balance
}

// HasPayment reports whether a payment amount has been recorded.
func (e *Entry) HasPayment() bool {
	return e.AmountPaid != nil
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.AmountPaid != nil {
		paid := *e.AmountPaid
		c.AmountPaid = &paid
	}
	c.PaymentDate = cloneTime(e.PaymentDate)
	c.BalancePaidDate = cloneTime(e.BalancePaidDate)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
