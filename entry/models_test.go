package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/rentbook/types"
)

func TestFinalAmountDue(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  types.Money
	}{
		{"charge only", Entry{TotalRent: types.INR(550000)}, types.INR(550000)},
		{"with balance", Entry{TotalRent: types.INR(550000), PreviousBalance: types.INR(250000)}, types.INR(800000)},
		{"with credit", Entry{TotalRent: types.INR(550000), CarriedCredit: types.INR(50000)}, types.INR(500000)},
		{"credit exceeds", Entry{TotalRent: types.INR(10000), CarriedCredit: types.INR(50000)}, types.INR(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.entry.FinalAmountDue()), "got %v", tt.entry.FinalAmountDue())
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	paid := types.INR(100)
	when := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	e := &Entry{AmountPaid: &paid, PaymentDate: &when}

	c := e.Clone()
	c.AmountPaid.Amount = 999
	*c.PaymentDate = when.AddDate(1, 0, 0)

	assert.Equal(t, int64(100), e.AmountPaid.Amount)
	assert.Equal(t, when, *e.PaymentDate)
}

func TestOutstanding(t *testing.T) {
	e := &Entry{TotalRent: types.INR(100), Balance: types.INR(40)}
	assert.Equal(t, types.INR(40), e.Outstanding())

	e.IsBalancePaid = true
	assert.True(t, e.Outstanding().IsZero())
}

func TestPatchApply(t *testing.T) {
	e := &Entry{Month: time.January, Year: 2025, AdvanceCredit: types.INR(500), CarriedCredit: types.INR(500)}

	march := time.March
	credit := types.INR(700)
	notes := "cash"
	status := StatusPartial
	p := Patch{Month: &march, AdvanceCredit: &credit, PaymentNotes: &notes, PaymentStatus: &status}

	assert.False(t, p.IsEmpty())
	assert.True(t, p.ChangesBilling())

	p.Apply(e)
	assert.Equal(t, time.March, e.Month)
	assert.Equal(t, 2025, e.Year)
	assert.Equal(t, types.INR(700), e.CarriedCredit)
	assert.Equal(t, types.INR(700), e.AdvanceCredit)
	assert.Equal(t, "cash", e.PaymentNotes)
	assert.Equal(t, StatusPartial, e.PaymentStatus)

	assert.True(t, Patch{}.IsEmpty())
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus("")
	assert.True(t, ok)
	assert.Equal(t, StatusUnpaid, st)

	st, ok = ParseStatus("partial")
	assert.True(t, ok)
	assert.Equal(t, StatusPartial, st)

	_, ok = ParseStatus("overdue")
	assert.False(t, ok)
}
