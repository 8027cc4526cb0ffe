package rentbook

import (
	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/types"
)

// ChainPolicy decides what happens to later entries of a tenant when an
// earlier entry is edited or deleted.
type ChainPolicy string

const (
	// ChainPreserve leaves later entries as they were created. Their
	// carry-in snapshot may then disagree with the changed predecessor.
	ChainPreserve ChainPolicy = "preserve"
	// ChainRepair re-threads the carried balance and credit through every
	// later entry and reconciles its payment again.
	ChainRepair ChainPolicy = "repair"
)

// Valid reports whether p is a known policy.
func (p ChainPolicy) Valid() bool {
	return p == ChainPreserve || p == ChainRepair
}

// DuplicatePolicy decides whether a tenant may have several entries for
// the same month and year.
type DuplicatePolicy string

const (
	// DuplicateAllow accepts repeated periods, for corrections.
	DuplicateAllow DuplicatePolicy = "allow"
	// DuplicateReject fails with ErrDuplicatePeriod.
	DuplicateReject DuplicatePolicy = "reject"
)

// Valid reports whether p is a known policy.
func (p DuplicatePolicy) Valid() bool {
	return p == DuplicateAllow || p == DuplicateReject
}

// tenantChain returns the entries of tenantID oldest first.
func tenantChain(entries []*entry.Entry, tenantID id.TenantID) []*entry.Entry {
	var chain []*entry.Entry
	for _, e := range entries {
		if e.TenantID.Equal(tenantID) {
			chain = append(chain, e)
		}
	}
	sortChronological(chain)
	return chain
}

// repairChain re-threads chain[from:] from the entry before it and
// returns the entries whose amounts changed, as they were before and
// after. An entry with no predecessor starts from zero carry.
func repairChain(chain []*entry.Entry, from int) (before, after []*entry.Entry) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(chain); i++ {
		e := chain[i]
		currency := e.TotalRent.Currency
		balance, credit := types.Zero(currency), types.Zero(currency)
		if i > 0 {
			balance, credit = carryOut(chain[i-1])
		}

		if e.PreviousBalance.Equal(balance) && e.CarriedCredit.Equal(credit) {
			continue
		}

		old := e.Clone()
		e.PreviousBalance = balance
		e.CarriedCredit = credit
		reconcile(e)

		if amountsChanged(old, e) {
			before = append(before, old)
			after = append(after, e)
		}
	}
	return before, after
}

func amountsChanged(a, b *entry.Entry) bool {
	return !a.PreviousBalance.Equal(b.PreviousBalance) ||
		!a.CarriedCredit.Equal(b.CarriedCredit) ||
		!a.AdvanceCredit.Equal(b.AdvanceCredit) ||
		!a.Balance.Equal(b.Balance) ||
		a.PaymentStatus != b.PaymentStatus
}

// hasPeriod reports whether tenantID has an entry for p other than skip.
func hasPeriod(entries []*entry.Entry, tenantID id.TenantID, p types.Period, skip id.EntryID) bool {
	for _, e := range entries {
		if e.TenantID.Equal(tenantID) && e.Period() == p && !e.ID.Equal(skip) {
			return true
		}
	}
	return false
}
