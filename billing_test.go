package rentbook_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/rentbook"
	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

func testTenant() *tenant.Tenant {
	return &tenant.Tenant{
		ID:                        id.NewTenantID(),
		Name:                      "Asha",
		MonthlyRent:               types.INR(500000),
		ElectricityRate:           types.MustRate("10"),
		InitialElectricityReading: types.NewReading(100),
	}
}

func draftFor(t *tenant.Tenant, month time.Month, year int, prev, cur int64) *entry.Draft {
	return &entry.Draft{
		TenantID:        t.ID,
		Month:           month,
		Year:            year,
		PreviousReading: types.NewReading(prev),
		CurrentReading:  types.NewReading(cur),
	}
}

// januaryEntry is the reference period: rent 5000, 50 units at 10, total 5500.
func januaryEntry(t *testing.T, tn *tenant.Tenant) *entry.Entry {
	t.Helper()
	e, err := rentbook.FinalizeEntry(tn, draftFor(tn, time.January, 2025, 100, 150), types.Money{}, types.Money{})
	require.NoError(t, err)
	return e
}

func money(m types.Money) *types.Money { return &m }

func TestComputeTotals(t *testing.T) {
	tn := testTenant()

	tests := []struct {
		name       string
		prev, cur  string
		additional types.Money
		want       types.Money
	}{
		{"reference period", "100", "150", types.Money{}, types.INR(550000)},
		{"no consumption", "150", "150", types.Money{}, types.INR(500000)},
		{"fractional units", "100", "112.5", types.Money{}, types.INR(512500)},
		{"additional charges", "100", "150", types.INR(25050), types.INR(575050)},
		{"discount", "100", "150", types.INR(-50000), types.INR(500000)},
		{"sub-unit rounding", "0", "0.0005", types.Money{}, types.INR(500001)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rentbook.ComputeTotals(tn,
				mustReading(t, tt.prev), mustReading(t, tt.cur), tt.additional)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeTotalsExactRate(t *testing.T) {
	tn := &tenant.Tenant{
		ID:              id.NewTenantID(),
		Name:            "x",
		MonthlyRent:     types.INR(0),
		ElectricityRate: types.MustRate("7.255"),
	}

	tests := []struct {
		units string
		want  types.Money
	}{
		{"1000", types.INR(725500)},
		{"3", types.INR(2177)},
		{"2", types.INR(1451)},
		{"0.5", types.INR(363)},
	}

	for _, tt := range tests {
		t.Run(tt.units, func(t *testing.T) {
			got, err := rentbook.ComputeTotals(tn, types.NewReading(0), mustReading(t, tt.units), types.Money{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func mustReading(t *testing.T, s string) types.Reading {
	t.Helper()
	r, err := types.ParseReading(s)
	require.NoError(t, err)
	return r
}

func TestComputeTotalsInvalidReading(t *testing.T) {
	rents := []types.Money{types.INR(0), types.INR(500000), types.INR(99999999)}
	rates := []types.Rate{types.MustRate("0"), types.MustRate("0.01"), types.MustRate("10")}

	for _, rent := range rents {
		for _, rate := range rates {
			tn := &tenant.Tenant{ID: id.NewTenantID(), Name: "x", MonthlyRent: rent, ElectricityRate: rate}
			_, err := rentbook.ComputeTotals(tn, types.NewReading(150), mustReading(t, "149.99"), types.Money{})

			require.Error(t, err)
			assert.ErrorIs(t, err, rentbook.ErrInvalidReading)

			var readingErr *rentbook.InvalidReadingError
			require.True(t, errors.As(err, &readingErr))
			assert.True(t, readingErr.Previous.Equal(types.NewReading(150)))
		}
	}
}

func TestComputeTotalsMonotonic(t *testing.T) {
	tn := testTenant()
	prev := types.NewReading(100)

	last := types.INR(-1 << 40)
	for cur := int64(100); cur <= 400; cur += 7 {
		total, err := rentbook.ComputeTotals(tn, prev, types.NewReading(cur), types.Money{})
		require.NoError(t, err)
		assert.False(t, total.LessThan(last), "total decreased at reading %d", cur)
		last = total
	}

	last = types.INR(-1 << 40)
	for extra := int64(-100000); extra <= 100000; extra += 12345 {
		total, err := rentbook.ComputeTotals(tn, prev, types.NewReading(150), types.INR(extra))
		require.NoError(t, err)
		assert.False(t, total.LessThan(last), "total decreased at additional %d", extra)
		last = total
	}
}

func TestFinalizeEntry(t *testing.T) {
	tn := testTenant()

	t.Run("unpaid with carry", func(t *testing.T) {
		d := draftFor(tn, time.February, 2025, 150, 160)
		e, err := rentbook.FinalizeEntry(tn, d, types.INR(250000), types.INR(50000))
		require.NoError(t, err)

		assert.Equal(t, types.INR(510000), e.TotalRent)
		assert.Equal(t, types.INR(250000), e.PreviousBalance)
		assert.Equal(t, types.INR(50000), e.AdvanceCredit)
		assert.Equal(t, types.INR(50000), e.CarriedCredit)
		assert.Equal(t, types.INR(710000), e.FinalAmountDue())
		assert.Equal(t, types.INR(710000), e.Balance)
		assert.Equal(t, entry.StatusUnpaid, e.PaymentStatus)
		assert.Nil(t, e.AmountPaid)
		assert.Equal(t, id.PrefixEntry, e.ID.Prefix())
		assert.True(t, e.TenantID.Equal(tn.ID))
	})

	t.Run("credit exceeds charges", func(t *testing.T) {
		d := draftFor(tn, time.February, 2025, 150, 150)
		e, err := rentbook.FinalizeEntry(tn, d, types.Money{}, types.INR(600000))
		require.NoError(t, err)
		assert.True(t, e.FinalAmountDue().IsZero())
		assert.True(t, e.Balance.IsZero())
		assert.Equal(t, entry.StatusUnpaid, e.PaymentStatus)
	})

	t.Run("initial payment", func(t *testing.T) {
		d := draftFor(tn, time.January, 2025, 100, 150)
		d.AmountPaid = money(types.INR(550000))
		d.PaymentNotes = "cash"
		e, err := rentbook.FinalizeEntry(tn, d, types.Money{}, types.Money{})
		require.NoError(t, err)
		assert.Equal(t, entry.StatusPaid, e.PaymentStatus)
		assert.True(t, e.Balance.IsZero())
		assert.Equal(t, "cash", e.PaymentNotes)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(d *entry.Draft)
			field  string
		}{
			{"missing month", func(d *entry.Draft) { d.Month = 0 }, "month"},
			{"month out of range", func(d *entry.Draft) { d.Month = 13 }, "month"},
			{"missing year", func(d *entry.Draft) { d.Year = 0 }, "year"},
			{"negative previous reading", func(d *entry.Draft) {
				d.PreviousReading = types.NewReading(-1)
			}, "previous_reading"},
			{"foreign currency", func(d *entry.Draft) { d.AdditionalCharges = types.USD(100) }, "additional_charges"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				d := draftFor(tn, time.January, 2025, 100, 150)
				tt.mutate(d)
				_, err := rentbook.FinalizeEntry(tn, d, types.Money{}, types.Money{})
				require.Error(t, err)
				assert.ErrorIs(t, err, rentbook.ErrInvalidInput)

				var ve rentbook.ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, tt.field, ve.Field)
			})
		}
	})

	t.Run("negative carry", func(t *testing.T) {
		d := draftFor(tn, time.January, 2025, 100, 150)
		_, err := rentbook.FinalizeEntry(tn, d, types.INR(-1), types.INR(-1))
		require.Error(t, err)

		var multi rentbook.MultiError
		require.True(t, errors.As(err, &multi))
		assert.Len(t, multi.Errors, 2)
		assert.True(t, rentbook.IsValidation(err))
	})

	t.Run("reading goes backwards", func(t *testing.T) {
		d := draftFor(tn, time.January, 2025, 150, 100)
		_, err := rentbook.FinalizeEntry(tn, d, types.Money{}, types.Money{})
		assert.ErrorIs(t, err, rentbook.ErrInvalidReading)
	})
}

func TestPrepareNextPeriod(t *testing.T) {
	t.Run("first period", func(t *testing.T) {
		tn := testTenant()
		d := rentbook.PrepareNextPeriod(tn, nil)

		assert.False(t, d.HasHistory())
		assert.True(t, d.Period.IsZero())
		assert.True(t, d.PreviousReading.Equal(types.NewReading(100)))
		assert.True(t, d.PreviousBalance.IsZero())
		assert.True(t, d.AdvanceCredit.IsZero())
	})

	t.Run("carry-forward of partial payment", func(t *testing.T) {
		tn := testTenant()
		e1 := januaryEntry(t, tn)
		assert.Equal(t, types.INR(550000), e1.TotalRent)

		e1, err := rentbook.RecordPayment(e1, tn, rentbook.PaymentInput{Amount: money(types.INR(300000))})
		require.NoError(t, err)
		assert.Equal(t, entry.StatusPartial, e1.PaymentStatus)
		assert.Equal(t, types.INR(250000), e1.Balance)

		d := rentbook.PrepareNextPeriod(tn, []*entry.Entry{e1})
		assert.Equal(t, types.INR(250000), d.PreviousBalance)
		assert.True(t, d.PreviousReading.Equal(types.NewReading(150)))
		assert.Equal(t, types.Period{Month: time.February, Year: 2025}, d.Period)
		assert.True(t, d.AdvanceCredit.IsZero())

		draft := d.Draft()
		assert.True(t, draft.TenantID.Equal(tn.ID))
		assert.Equal(t, time.February, draft.Month)
		assert.True(t, draft.CurrentReading.Equal(draft.PreviousReading))
	})

	t.Run("overpayment becomes credit", func(t *testing.T) {
		tn := testTenant()
		e1, err := rentbook.RecordPayment(januaryEntry(t, tn), tn,
			rentbook.PaymentInput{Amount: money(types.INR(600000))})
		require.NoError(t, err)
		assert.Equal(t, entry.StatusPaid, e1.PaymentStatus)
		assert.True(t, e1.Balance.IsZero())
		assert.Equal(t, types.INR(50000), e1.AdvanceCredit)

		d := rentbook.PrepareNextPeriod(tn, []*entry.Entry{e1})
		assert.Equal(t, types.INR(50000), d.AdvanceCredit)
		assert.True(t, d.PreviousBalance.IsZero())

		e2, err := rentbook.FinalizeEntry(tn, d.Draft(), d.PreviousBalance, d.AdvanceCredit)
		require.NoError(t, err)
		assert.Equal(t, types.INR(500000), e2.TotalRent)
		assert.Equal(t, types.INR(450000), e2.FinalAmountDue())
	})

	t.Run("settled balance is not carried", func(t *testing.T) {
		tn := testTenant()
		e1, err := rentbook.RecordPayment(januaryEntry(t, tn), tn,
			rentbook.PaymentInput{Amount: money(types.INR(300000))})
		require.NoError(t, err)

		e1, err = rentbook.MarkBalancePaid(e1, time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, e1.Balance.IsZero())
		assert.True(t, e1.IsBalancePaid)

		d := rentbook.PrepareNextPeriod(tn, []*entry.Entry{e1})
		assert.True(t, d.PreviousBalance.IsZero())
	})

	t.Run("december rolls over", func(t *testing.T) {
		tn := testTenant()
		e, err := rentbook.FinalizeEntry(tn, draftFor(tn, time.December, 2024, 100, 120), types.Money{}, types.Money{})
		require.NoError(t, err)

		d := rentbook.PrepareNextPeriod(tn, []*entry.Entry{e})
		assert.Equal(t, types.Period{Month: time.January, Year: 2025}, d.Period)
	})

	t.Run("latest by creation time", func(t *testing.T) {
		tn := testTenant()
		other := testTenant()

		base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		older, err := rentbook.FinalizeEntry(tn, draftFor(tn, time.March, 2025, 100, 130), types.Money{}, types.Money{})
		require.NoError(t, err)
		older.CreatedAt = base
		newer, err := rentbook.FinalizeEntry(tn, draftFor(tn, time.January, 2025, 130, 170), types.Money{}, types.Money{})
		require.NoError(t, err)
		newer.CreatedAt = base.Add(time.Hour)
		foreign, err := rentbook.FinalizeEntry(other, draftFor(other, time.June, 2025, 100, 900), types.Money{}, types.Money{})
		require.NoError(t, err)
		foreign.CreatedAt = base.Add(48 * time.Hour)

		d := rentbook.PrepareNextPeriod(tn, []*entry.Entry{newer, foreign, older})
		assert.Same(t, newer, d.Latest)
		assert.Equal(t, time.February, d.Period.Month)
		assert.True(t, d.PreviousReading.Equal(types.NewReading(170)))
	})

	t.Run("unpaid entry hands on unused credit only", func(t *testing.T) {
		tn := testTenant()
		absorbed, err := rentbook.FinalizeEntry(tn, draftFor(tn, time.January, 2025, 100, 150), types.Money{}, types.INR(50000))
		require.NoError(t, err)
		d := rentbook.PrepareNextPeriod(tn, []*entry.Entry{absorbed})
		assert.True(t, d.AdvanceCredit.IsZero(), "credit was used by the unpaid period")
		assert.Equal(t, types.INR(500000), d.PreviousBalance)

		surplus, err := rentbook.FinalizeEntry(tn, draftFor(tn, time.January, 2025, 100, 150), types.Money{}, types.INR(600000))
		require.NoError(t, err)
		d = rentbook.PrepareNextPeriod(tn, []*entry.Entry{surplus})
		assert.Equal(t, types.INR(50000), d.AdvanceCredit)
		assert.True(t, d.PreviousBalance.IsZero())
	})
}
