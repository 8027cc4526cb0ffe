package rentbook_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/rentbook"
	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/store"
	"github.com/xraph/rentbook/store/memory"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// stepClock advances one minute per reading so creation order is strict.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

// recorder captures the events the engine emits.
type recorder struct {
	mu       sync.Mutex
	events   []string
	deleted  map[string]int
	repaired [][]*entry.Entry
	settled  []types.Money
}

func newRecorder() *recorder {
	return &recorder{deleted: map[string]int{}}
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) OnTenantCreated(context.Context, *tenant.Tenant) error {
	r.add("tenant.created")
	return nil
}

func (r *recorder) OnTenantDeleted(_ context.Context, tenantID id.TenantID, removed int) error {
	r.add("tenant.deleted")
	r.mu.Lock()
	r.deleted[tenantID.String()] = removed
	r.mu.Unlock()
	return nil
}

func (r *recorder) OnEntryCreated(context.Context, *entry.Entry) error {
	r.add("entry.created")
	return nil
}

func (r *recorder) OnPaymentRecorded(context.Context, *entry.Entry) error {
	r.add("payment.recorded")
	return nil
}

func (r *recorder) OnBalanceSettled(_ context.Context, _ *entry.Entry, settled types.Money) error {
	r.add("balance.settled")
	r.mu.Lock()
	r.settled = append(r.settled, settled)
	r.mu.Unlock()
	return nil
}

func (r *recorder) OnChainRepaired(_ context.Context, _ id.TenantID, repaired []*entry.Entry) error {
	r.add("chain.repaired")
	r.mu.Lock()
	r.repaired = append(r.repaired, repaired)
	r.mu.Unlock()
	return nil
}

func (r *recorder) count(ev string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == ev {
			n++
		}
	}
	return n
}

type harness struct {
	rb    *rentbook.Rentbook
	store *memory.Store
	rec   *recorder
	ctx   context.Context
}

func newHarness(t *testing.T, opts ...rentbook.Option) *harness {
	t.Helper()
	h := &harness{
		store: memory.New(),
		rec:   newRecorder(),
		ctx:   context.Background(),
	}
	clock := &stepClock{t: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)}

	base := []rentbook.Option{
		rentbook.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		rentbook.WithClock(clock.Now),
		rentbook.WithPlugin(h.rec),
	}
	h.rb = rentbook.New(h.store, append(base, opts...)...)
	require.NoError(t, h.rb.Start(h.ctx))
	t.Cleanup(func() { _ = h.rb.Stop() })
	return h
}

func (h *harness) addTenant(t *testing.T, name string) *tenant.Tenant {
	t.Helper()
	tn := &tenant.Tenant{
		Name:                      name,
		MonthlyRent:               types.INR(500000),
		ElectricityRate:           types.MustRate("10"),
		InitialElectricityReading: types.NewReading(100),
	}
	require.NoError(t, h.rb.CreateTenant(h.ctx, tn))
	return tn
}

// bill creates the tenant's next period with the given current reading
// and optional payment.
func (h *harness) bill(t *testing.T, tn *tenant.Tenant, month time.Month, year int, cur int64, paid *types.Money) *entry.Entry {
	t.Helper()
	d, err := h.rb.NewDraft(h.ctx, tn.ID)
	require.NoError(t, err)
	if d.Month == 0 {
		d.Month, d.Year = month, year
	}
	d.CurrentReading = types.NewReading(cur)
	d.AmountPaid = paid

	e, err := h.rb.CreateEntry(h.ctx, d)
	require.NoError(t, err)
	return e
}

func TestTenantLifecycle(t *testing.T) {
	h := newHarness(t)

	tn := h.addTenant(t, "  Asha  ")
	assert.Equal(t, id.PrefixTenant, tn.ID.Prefix())
	assert.Equal(t, "Asha", tn.Name)
	assert.False(t, tn.CreatedAt.IsZero())

	got, err := h.rb.GetTenant(h.ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, types.INR(500000), got.MonthlyRent)

	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	updated, err := h.rb.UpdateTenant(h.ctx, tn.ID, tenant.Input{
		Name:                      "Asha K",
		MonthlyRent:               types.INR(550000),
		ElectricityRate:           types.MustRate("11.375"),
		InitialElectricityReading: types.NewReading(90),
		AgreementStartDate:        &start,
		AgreementDuration:         12,
	})
	require.NoError(t, err)
	assert.True(t, updated.ID.Equal(tn.ID))
	assert.Equal(t, "Asha K", updated.Name)
	assert.True(t, updated.ElectricityRate.Equal(types.MustRate("11.375")))
	assert.True(t, tn.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	list, err := h.rb.ListTenants(h.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 12, list[0].AgreementDuration)

	assert.Equal(t, 1, h.rec.count("tenant.created"))
}

func TestTenantValidation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		tenant *tenant.Tenant
	}{
		{"empty name", &tenant.Tenant{Name: "   ", MonthlyRent: types.INR(1)}},
		{"negative rent", &tenant.Tenant{Name: "x", MonthlyRent: types.INR(-1)}},
		{"negative rate", &tenant.Tenant{Name: "x", ElectricityRate: types.MustRate("-0.01")}},
		{"negative reading", &tenant.Tenant{Name: "x", InitialElectricityReading: types.NewReading(-5)}},
		{"foreign currency", &tenant.Tenant{Name: "x", MonthlyRent: types.USD(100)}},
		{"non-positive duration", &tenant.Tenant{Name: "x", AgreementDuration: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.rb.CreateTenant(h.ctx, tt.tenant)
			require.Error(t, err)
			assert.True(t, rentbook.IsValidation(err), "got %v", err)
		})
	}

	list, err := h.rb.ListTenants(h.ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotFound(t *testing.T) {
	h := newHarness(t)
	missingTenant := id.NewTenantID()
	missingEntry := id.NewEntryID()

	_, err := h.rb.GetTenant(h.ctx, missingTenant)
	assert.ErrorIs(t, err, rentbook.ErrTenantNotFound)
	assert.True(t, rentbook.IsNotFound(err))

	_, err = h.rb.UpdateTenant(h.ctx, missingTenant, tenant.Input{Name: "x"})
	assert.ErrorIs(t, err, rentbook.ErrTenantNotFound)

	_, err = h.rb.DeleteTenant(h.ctx, missingTenant)
	assert.ErrorIs(t, err, rentbook.ErrTenantNotFound)

	_, err = h.rb.NewDraft(h.ctx, missingTenant)
	assert.ErrorIs(t, err, rentbook.ErrTenantNotFound)

	_, err = h.rb.CreateEntry(h.ctx, &entry.Draft{TenantID: missingTenant, Month: time.May, Year: 2025})
	assert.ErrorIs(t, err, rentbook.ErrTenantNotFound)

	_, err = h.rb.GetEntry(h.ctx, missingEntry)
	assert.ErrorIs(t, err, rentbook.ErrEntryNotFound)
	assert.True(t, rentbook.IsNotFound(err))

	assert.ErrorIs(t, h.rb.DeleteEntry(h.ctx, missingEntry), rentbook.ErrEntryNotFound)

	_, err = h.rb.RecordPayment(h.ctx, missingEntry, rentbook.PaymentInput{})
	assert.ErrorIs(t, err, rentbook.ErrEntryNotFound)

	_, err = h.rb.MarkBalancePaid(h.ctx, missingEntry, time.Time{})
	assert.ErrorIs(t, err, rentbook.ErrEntryNotFound)

	note := "x"
	_, err = h.rb.UpdateEntry(h.ctx, missingEntry, entry.Patch{PaymentNotes: &note})
	assert.ErrorIs(t, err, rentbook.ErrEntryNotFound)
}

func TestCarryForwardThroughEngine(t *testing.T) {
	h := newHarness(t)
	tn := h.addTenant(t, "Asha")

	jan := h.bill(t, tn, time.January, 2025, 150, nil)
	assert.Equal(t, types.INR(550000), jan.TotalRent)
	assert.Equal(t, entry.StatusUnpaid, jan.PaymentStatus)

	paid := types.INR(300000)
	jan, err := h.rb.RecordPayment(h.ctx, jan.ID, rentbook.PaymentInput{Amount: &paid})
	require.NoError(t, err)
	assert.Equal(t, entry.StatusPartial, jan.PaymentStatus)
	assert.Equal(t, types.INR(250000), jan.Balance)

	d, err := h.rb.NewDraft(h.ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, time.February, d.Month)
	assert.Equal(t, 2025, d.Year)
	assert.Equal(t, types.INR(250000), d.PreviousBalance)
	assert.True(t, d.PreviousReading.Equal(types.NewReading(150)))

	feb := h.bill(t, tn, 0, 0, 160, nil)
	assert.Equal(t, types.INR(510000), feb.TotalRent)
	assert.Equal(t, types.INR(760000), feb.Balance)

	over := types.INR(800000)
	feb, err = h.rb.RecordPayment(h.ctx, feb.ID, rentbook.PaymentInput{Amount: &over})
	require.NoError(t, err)
	assert.Equal(t, entry.StatusPaid, feb.PaymentStatus)
	assert.Equal(t, types.INR(40000), feb.AdvanceCredit)

	mar := h.bill(t, tn, 0, 0, 160, nil)
	assert.Equal(t, time.March, mar.Month)
	assert.Equal(t, types.INR(40000), mar.AdvanceCredit)
	assert.Equal(t, types.INR(460000), mar.Balance)

	assert.Equal(t, 3, h.rec.count("entry.created"))
	assert.Equal(t, 2, h.rec.count("payment.recorded"))
}

func TestCreateEntryWithInitialPayment(t *testing.T) {
	h := newHarness(t)
	tn := h.addTenant(t, "Asha")

	full := types.INR(550000)
	e := h.bill(t, tn, time.January, 2025, 150, &full)
	assert.Equal(t, entry.StatusPaid, e.PaymentStatus)
	assert.Equal(t, 1, h.rec.count("payment.recorded"))

	stored, err := h.rb.GetEntry(h.ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.StatusPaid, stored.PaymentStatus)
	assert.True(t, stored.Balance.IsZero())
}

func TestMarkBalancePaidThroughEngine(t *testing.T) {
	h := newHarness(t)
	tn := h.addTenant(t, "Asha")

	paid := types.INR(300000)
	jan := h.bill(t, tn, time.January, 2025, 150, &paid)

	settled, err := h.rb.MarkBalancePaid(h.ctx, jan.ID, time.Time{})
	require.NoError(t, err)
	assert.True(t, settled.IsBalancePaid)
	require.NotNil(t, settled.BalancePaidDate)
	assert.False(t, settled.BalancePaidDate.IsZero())

	d, err := h.rb.NextPeriod(h.ctx, tn.ID)
	require.NoError(t, err)
	assert.True(t, d.PreviousBalance.IsZero())

	_, err = h.rb.MarkBalancePaid(h.ctx, jan.ID, time.Time{})
	assert.ErrorIs(t, err, rentbook.ErrPrecondition)

	assert.Equal(t, []types.Money{types.INR(250000)}, h.rec.settled)
}

func TestListEntries(t *testing.T) {
	h := newHarness(t)
	a := h.addTenant(t, "Asha")
	b := h.addTenant(t, "Ravi")

	full := types.INR(550000)
	a1 := h.bill(t, a, time.January, 2025, 150, &full)
	b1 := h.bill(t, b, time.January, 2025, 120, nil)
	a2 := h.bill(t, a, 0, 0, 170, nil)

	all, err := h.rb.ListEntries(h.ctx, entry.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].ID.Equal(a2.ID))
	assert.True(t, all[1].ID.Equal(b1.ID))
	assert.True(t, all[2].ID.Equal(a1.ID))

	mine, err := h.rb.ListEntries(h.ctx, entry.ListOpts{TenantID: a.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].ID.Equal(a2.ID))

	unpaid, err := h.rb.ListEntries(h.ctx, entry.ListOpts{Status: entry.StatusUnpaid})
	require.NoError(t, err)
	assert.Len(t, unpaid, 2)

	page, err := h.rb.ListEntries(h.ctx, entry.ListOpts{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.True(t, page[0].ID.Equal(b1.ID))

	empty, err := h.rb.ListEntries(h.ctx, entry.ListOpts{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeleteTenantCascades(t *testing.T) {
	h := newHarness(t)
	a := h.addTenant(t, "Asha")
	b := h.addTenant(t, "Ravi")

	h.bill(t, a, time.January, 2025, 150, nil)
	h.bill(t, b, time.January, 2025, 120, nil)
	h.bill(t, a, 0, 0, 170, nil)
	h.bill(t, a, 0, 0, 190, nil)

	before, err := h.rb.ListEntries(h.ctx, entry.ListOpts{TenantID: a.ID})
	require.NoError(t, err)

	removed, err := h.rb.DeleteTenant(h.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, len(before), removed)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 3, h.rec.deleted[a.ID.String()])

	_, err = h.rb.GetTenant(h.ctx, a.ID)
	assert.ErrorIs(t, err, rentbook.ErrTenantNotFound)

	rest, err := h.rb.ListEntries(h.ctx, entry.ListOpts{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.True(t, rest[0].TenantID.Equal(b.ID))

	tenants, err := h.rb.ListTenants(h.ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.True(t, tenants[0].ID.Equal(b.ID))
}

func TestDuplicatePeriodPolicy(t *testing.T) {
	draft := func(tn *tenant.Tenant) *entry.Draft {
		return &entry.Draft{
			TenantID:        tn.ID,
			Month:           time.January,
			Year:            2025,
			PreviousReading: types.NewReading(100),
			CurrentReading:  types.NewReading(150),
		}
	}

	t.Run("allow", func(t *testing.T) {
		h := newHarness(t)
		tn := h.addTenant(t, "Asha")
		_, err := h.rb.CreateEntry(h.ctx, draft(tn))
		require.NoError(t, err)
		_, err = h.rb.CreateEntry(h.ctx, draft(tn))
		require.NoError(t, err)
	})

	t.Run("reject", func(t *testing.T) {
		h := newHarness(t, rentbook.WithDuplicatePolicy(rentbook.DuplicateReject))
		tn := h.addTenant(t, "Asha")
		other := h.addTenant(t, "Ravi")

		first, err := h.rb.CreateEntry(h.ctx, draft(tn))
		require.NoError(t, err)
		_, err = h.rb.CreateEntry(h.ctx, draft(tn))
		assert.ErrorIs(t, err, rentbook.ErrDuplicatePeriod)
		_, err = h.rb.CreateEntry(h.ctx, draft(other))
		require.NoError(t, err, "other tenants may bill the same period")

		feb, err := h.rb.CreateEntry(h.ctx, func() *entry.Draft {
			d := draft(tn)
			d.Month = time.February
			return d
		}())
		require.NoError(t, err)

		jan := time.January
		_, err = h.rb.UpdateEntry(h.ctx, feb.ID, entry.Patch{Month: &jan})
		assert.ErrorIs(t, err, rentbook.ErrDuplicatePeriod)

		note := "kept"
		_, err = h.rb.UpdateEntry(h.ctx, first.ID, entry.Patch{Month: &jan, PaymentNotes: &note})
		require.NoError(t, err, "an entry does not collide with itself")
	})
}

func TestUpdateEntry(t *testing.T) {
	h := newHarness(t)
	tn := h.addTenant(t, "Asha")
	paid := types.INR(300000)
	jan := h.bill(t, tn, time.January, 2025, 150, &paid)

	cur := types.NewReading(160)
	extra := types.INR(10000)
	updated, err := h.rb.UpdateEntry(h.ctx, jan.ID, entry.Patch{CurrentReading: &cur, AdditionalCharges: &extra})
	require.NoError(t, err)
	assert.Equal(t, types.INR(570000), updated.TotalRent)
	assert.Equal(t, types.INR(270000), updated.Balance)
	assert.Equal(t, entry.StatusPartial, updated.PaymentStatus)

	status := entry.StatusPaid
	notes := "paid in cash"
	updated, err = h.rb.UpdateEntry(h.ctx, jan.ID, entry.Patch{PaymentStatus: &status, PaymentNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, entry.StatusPaid, updated.PaymentStatus)
	assert.Equal(t, "paid in cash", updated.PaymentNotes)
	assert.Equal(t, types.INR(270000), updated.Balance, "status edits leave amounts alone")

	_, err = h.rb.UpdateEntry(h.ctx, jan.ID, entry.Patch{})
	assert.ErrorIs(t, err, rentbook.ErrEmptyPatch)

	bogus := entry.Status("late")
	_, err = h.rb.UpdateEntry(h.ctx, jan.ID, entry.Patch{PaymentStatus: &bogus})
	assert.ErrorIs(t, err, rentbook.ErrInvalidInput)

	back := types.NewReading(50)
	_, err = h.rb.UpdateEntry(h.ctx, jan.ID, entry.Patch{CurrentReading: &back})
	assert.ErrorIs(t, err, rentbook.ErrInvalidReading)

	t.Run("foreign currency amounts are rejected", func(t *testing.T) {
		usd := types.USD(100)
		for name, p := range map[string]entry.Patch{
			"additional_charges": {AdditionalCharges: &usd},
			"previous_balance":   {PreviousBalance: &usd},
			"advance_credit":     {AdvanceCredit: &usd},
		} {
			var err error
			require.NotPanics(t, func() {
				_, err = h.rb.UpdateEntry(h.ctx, jan.ID, p)
			}, name)
			require.ErrorIs(t, err, rentbook.ErrInvalidInput, name)

			var ve rentbook.ValidationError
			require.ErrorAs(t, err, &ve, name)
			assert.Equal(t, name, ve.Field)
		}
	})

	t.Run("amounts without a currency adopt the entry's", func(t *testing.T) {
		bare := types.Money{Amount: 5000}
		updated, err := h.rb.UpdateEntry(h.ctx, jan.ID, entry.Patch{AdditionalCharges: &bare})
		require.NoError(t, err)
		assert.Equal(t, types.INR(5000), updated.AdditionalCharges)
		assert.Equal(t, types.INR(565000), updated.TotalRent)
	})

	stored, err := h.rb.GetEntry(h.ctx, jan.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentReading.Equal(cur), "failed update leaves the entry unchanged")
}

func TestChainPolicy(t *testing.T) {
	setup := func(t *testing.T, policy rentbook.ChainPolicy) (*harness, []*entry.Entry) {
		h := newHarness(t, rentbook.WithChainPolicy(policy))
		tn := h.addTenant(t, "Asha")
		paid := types.INR(300000)
		jan := h.bill(t, tn, time.January, 2025, 150, &paid) // balance 2500
		feb := h.bill(t, tn, 0, 0, 150, nil)                 // 5000 + 2500 carried
		mar := h.bill(t, tn, 0, 0, 150, nil)                 // 5000 + 7500 carried
		return h, []*entry.Entry{jan, feb, mar}
	}

	t.Run("preserve leaves later entries alone", func(t *testing.T) {
		h, chain := setup(t, rentbook.ChainPreserve)
		full := types.INR(550000)
		_, err := h.rb.RecordPayment(h.ctx, chain[0].ID, rentbook.PaymentInput{Amount: &full})
		require.NoError(t, err)

		feb, err := h.rb.GetEntry(h.ctx, chain[1].ID)
		require.NoError(t, err)
		assert.Equal(t, types.INR(250000), feb.PreviousBalance)
		assert.Equal(t, 0, h.rec.count("chain.repaired"))
	})

	t.Run("repair after payment edit", func(t *testing.T) {
		h, chain := setup(t, rentbook.ChainRepair)
		assert.Equal(t, types.INR(1250000), chain[2].Balance)

		full := types.INR(550000)
		_, err := h.rb.RecordPayment(h.ctx, chain[0].ID, rentbook.PaymentInput{Amount: &full})
		require.NoError(t, err)

		feb, err := h.rb.GetEntry(h.ctx, chain[1].ID)
		require.NoError(t, err)
		assert.True(t, feb.PreviousBalance.IsZero())
		assert.Equal(t, types.INR(500000), feb.Balance)

		mar, err := h.rb.GetEntry(h.ctx, chain[2].ID)
		require.NoError(t, err)
		assert.Equal(t, types.INR(500000), mar.PreviousBalance)
		assert.Equal(t, types.INR(1000000), mar.Balance)

		assert.Equal(t, 1, h.rec.count("chain.repaired"))
		require.Len(t, h.rec.repaired, 1)
		assert.Len(t, h.rec.repaired[0], 2)
	})

	t.Run("repair after delete", func(t *testing.T) {
		h, chain := setup(t, rentbook.ChainRepair)
		require.NoError(t, h.rb.DeleteEntry(h.ctx, chain[1].ID))

		mar, err := h.rb.GetEntry(h.ctx, chain[2].ID)
		require.NoError(t, err)
		assert.Equal(t, types.INR(250000), mar.PreviousBalance, "re-threaded from January")
		assert.Equal(t, types.INR(750000), mar.Balance)
	})

	t.Run("deleting the first entry resets carry", func(t *testing.T) {
		h, chain := setup(t, rentbook.ChainRepair)
		require.NoError(t, h.rb.DeleteEntry(h.ctx, chain[0].ID))

		feb, err := h.rb.GetEntry(h.ctx, chain[1].ID)
		require.NoError(t, err)
		assert.True(t, feb.PreviousBalance.IsZero())

		mar, err := h.rb.GetEntry(h.ctx, chain[2].ID)
		require.NoError(t, err)
		assert.Equal(t, types.INR(500000), mar.PreviousBalance)
	})

	t.Run("deleting the latest entry repairs nothing", func(t *testing.T) {
		h, chain := setup(t, rentbook.ChainRepair)
		require.NoError(t, h.rb.DeleteEntry(h.ctx, chain[2].ID))
		assert.Equal(t, 0, h.rec.count("chain.repaired"))
	})
}

func TestSummary(t *testing.T) {
	h := newHarness(t)
	a := h.addTenant(t, "Asha")
	b := h.addTenant(t, "Ravi")
	c := h.addTenant(t, "Meera")

	partial := types.INR(300000)
	over := types.INR(600000)
	h.bill(t, a, time.January, 2025, 150, &partial)
	h.bill(t, b, time.January, 2025, 150, &over)

	sums, err := h.rb.Summary(h.ctx)
	require.NoError(t, err)
	require.Len(t, sums, 3)

	assert.Equal(t, "Asha", sums[0].Tenant.Name)
	assert.Equal(t, types.INR(250000), sums[0].Outstanding)
	assert.True(t, sums[0].Credit.IsZero())
	assert.Equal(t, types.Period{Month: time.February, Year: 2025}, sums[0].Next)
	assert.Equal(t, types.INR(550000), sums[0].TotalBilled)
	assert.Equal(t, types.INR(300000), sums[0].TotalPaid)

	assert.Equal(t, types.INR(50000), sums[1].Credit)
	assert.True(t, sums[1].Outstanding.IsZero())

	assert.True(t, sums[2].Tenant.ID.Equal(c.ID))
	assert.Equal(t, 0, sums[2].Entries)
	assert.Nil(t, sums[2].Latest)
}

func TestReminders(t *testing.T) {
	now := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	s := memory.New()
	rb := rentbook.New(s,
		rentbook.WithClock(func() time.Time { return now }),
		rentbook.WithReminderWindow(30, 7),
	)
	ctx := context.Background()
	require.NoError(t, rb.Start(ctx))
	defer rb.Stop()

	add := func(name string, start time.Time, months int) *tenant.Tenant {
		tn := &tenant.Tenant{Name: name, AgreementStartDate: &start, AgreementDuration: months}
		require.NoError(t, rb.CreateTenant(ctx, tn))
		return tn
	}

	expired := add("Expired", time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC), 12)
	urgent := add("Urgent", time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), 11)
	add("Far", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, rb.CreateTenant(ctx, &tenant.Tenant{Name: "No agreement"}))

	got, err := rb.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Expired", got[0].Tenant.Name)
	assert.Equal(t, tenant.SeverityExpired, got[0].Severity)
	assert.Equal(t, "Urgent", got[1].Tenant.Name)
	assert.Equal(t, tenant.SeverityUrgent, got[1].Severity)
	assert.Equal(t, 4, got[1].DaysRemaining)

	got, err = rb.Reminders(ctx, expired.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Tenant.ID.Equal(urgent.ID))
}

// failingStore wraps a memory store without batch support and fails
// every write to the tenants key.
type failingStore struct {
	mem *memory.Store
}

func (f failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return f.mem.Get(ctx, key)
}

func (f failingStore) Set(ctx context.Context, key string, value []byte) error {
	if key == store.KeyTenants {
		return errors.New("write refused")
	}
	return f.mem.Set(ctx, key, value)
}

func (f failingStore) Keys(ctx context.Context) ([]string, error) { return f.mem.Keys(ctx) }
func (f failingStore) Migrate(ctx context.Context) error          { return f.mem.Migrate(ctx) }
func (f failingStore) Ping(ctx context.Context) error             { return f.mem.Ping(ctx) }
func (f failingStore) Close() error                               { return nil }

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	rb := rentbook.New(mem)
	require.NoError(t, rb.Start(ctx))

	tn := &tenant.Tenant{Name: "Asha", MonthlyRent: types.INR(500000)}
	require.NoError(t, rb.CreateTenant(ctx, tn))
	d := &entry.Draft{TenantID: tn.ID, Month: time.January, Year: 2025}
	_, err := rb.CreateEntry(ctx, d)
	require.NoError(t, err)

	// Without batch support the engine writes entries then tenants.
	broken := rentbook.New(failingStore{mem})
	_, err = broken.DeleteTenant(ctx, tn.ID)
	require.Error(t, err)

	entries, err := rb.ListEntries(ctx, entry.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, entries, 1, "entries restored after the tenants write failed")
	tenants, err := rb.ListTenants(ctx)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
}

func TestStartLoadsLegacyData(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Set(ctx, store.KeyTenants, []byte(
		`[{"id":"1718092800000","name":"Asha","monthlyRent":5000,"electricityRate":10,"initialElectricityReading":100}]`)))
	require.NoError(t, mem.Set(ctx, store.KeyEntries, []byte(
		`[{"id":"1718179200000","tenantId":"1718092800000","month":"January","year":2025,"previousReading":100,`+
			`"currentReading":150,"additionalCharges":0,"totalRent":5500,"createdAt":"2025-01-31T10:15:00.000Z",`+
			`"paymentStatus":"partial","amountPaid":3000,"balance":2500}]`)))

	rb := rentbook.New(mem)
	require.NoError(t, rb.Start(ctx))

	tid, err := id.ParseTenantID("1718092800000")
	require.NoError(t, err)
	d, err := rb.NewDraft(ctx, tid)
	require.NoError(t, err)
	assert.Equal(t, time.February, d.Month)
	assert.Equal(t, types.INR(250000), d.PreviousBalance)

	d.CurrentReading = types.NewReading(160)
	feb, err := rb.CreateEntry(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, types.INR(760000), feb.Balance)

	bad := memory.New()
	require.NoError(t, bad.Set(ctx, store.KeyEntries, []byte(`{"not":"an array"}`)))
	assert.Error(t, rentbook.New(bad).Start(ctx))
}
