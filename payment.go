package rentbook

import (
	"fmt"
	"time"

	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// PaymentInput is a payment against one ledger entry. Every field is
// optional; a nil Amount records no payment.
type PaymentInput struct {
	Amount *types.Money `json:"amount,omitempty"`
	Date   *time.Time   `json:"date,omitempty"`
	Notes  string       `json:"notes,omitempty"`
}

// RecordPayment returns a copy of e reconciled against in.
//
// The amount due is derived from the entry's carry-in snapshot, so
// recording the same amount twice yields the same result. A payment that
// covers the due amount marks the entry paid and stores any surplus as its
// advance credit; a smaller one leaves a partial balance; none leaves the
// entry unpaid.
func RecordPayment(e *entry.Entry, t *tenant.Tenant, in PaymentInput) (*entry.Entry, error) {
	if e == nil {
		return nil, ValidationError{Field: "entry", Message: "is required"}
	}
	if t != nil && !t.ID.Equal(e.TenantID) {
		return nil, ValidationError{Field: "tenant", Message: fmt.Sprintf("entry %s belongs to tenant %s", e.ID, e.TenantID)}
	}

	currency := e.TotalRent.Currency
	if in.Amount != nil {
		if in.Amount.IsNegative() {
			return nil, ValidationError{Field: "amount_paid", Message: "must not be negative"}
		}
		if err := checkCurrency("amount_paid", *in.Amount, currency); err != nil {
			return nil, err
		}
	}

	out := e.Clone()
	out.PaymentNotes = in.Notes
	out.PaymentDate = nil
	if in.Date != nil {
		date := *in.Date
		out.PaymentDate = &date
	}
	out.AmountPaid = nil
	if in.Amount != nil {
		paid := in.Amount.WithCurrency(currency)
		out.AmountPaid = &paid
	}

	reconcile(out)
	return out, nil
}

// reconcile derives status, balance and advance credit from the entry's
// carry-in snapshot and its recorded payment.
func reconcile(e *entry.Entry) {
	currency := e.TotalRent.Currency
	// charge is what the period asks for after the carry-in credit; it is
	// negative when the credit exceeds the period's charges.
	charge := e.TotalRent.Add(e.PreviousBalance).Subtract(e.CarriedCredit)
	due := charge.ClampZero()

	switch {
	case e.AmountPaid == nil:
		e.PaymentStatus = entry.StatusUnpaid
		e.Balance = due
		e.AdvanceCredit = e.CarriedCredit
	default:
		paid := *e.AmountPaid
		switch {
		case paid.IsZero() && due.IsPositive():
			e.PaymentStatus = entry.StatusUnpaid
			e.Balance = due
		case paid.LessThan(due):
			e.PaymentStatus = entry.StatusPartial
			e.Balance = due.Subtract(paid)
		default:
			e.PaymentStatus = entry.StatusPaid
			e.Balance = types.Zero(currency)
		}
		e.AdvanceCredit = paid.Subtract(charge).ClampZero()
	}

	// A balance settled out of band stays settled.
	if e.IsBalancePaid {
		e.Balance = types.Zero(currency)
		e.PaymentStatus = entry.StatusPaid
	}
}

// MarkBalancePaid settles e's outstanding balance out of band on paidOn.
// The amount paid and the period's total are left unchanged.
func MarkBalancePaid(e *entry.Entry, paidOn time.Time) (*entry.Entry, error) {
	if e == nil {
		return nil, ValidationError{Field: "entry", Message: "is required"}
	}
	if !e.Balance.IsPositive() || e.IsBalancePaid {
		return nil, &PreconditionError{
			Op:     "mark balance paid",
			Reason: fmt.Sprintf("entry %s has no outstanding balance", e.ID),
		}
	}
	if paidOn.IsZero() {
		return nil, &PreconditionError{Op: "mark balance paid", Reason: "settlement date is required"}
	}

	out := e.Clone()
	out.IsBalancePaid = true
	out.BalancePaidDate = &paidOn
	out.Balance = types.Zero(e.Balance.Currency)
	out.PaymentStatus = entry.StatusPaid
	return out, nil
}
