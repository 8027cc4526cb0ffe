// Package rentbook provides a rent bookkeeping engine for a landlord with a
// handful of tenants.
//
// Rentbook is designed as a library, not a service. It keeps two
// collections, tenants and their monthly ledger entries, in any key-value
// store and provides:
//
//   - Monthly bills from base rent, metered electricity and ad-hoc charges
//   - Carry-forward of unpaid balances and overpayment credit
//   - Payment reconciliation into paid, partial and unpaid states
//   - Out-of-band settlement of carried debt
//   - Agreement expiry reminders
//   - Lifecycle hooks for plugins and Prometheus metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/rentbook"
//	    "github.com/xraph/rentbook/store/sqlite"
//	)
//
//	s, err := sqlite.Open("rentbook.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rb := rentbook.New(s, rentbook.WithCurrency("inr"))
//	if err := rb.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer rb.Stop()
//
// # Billing a period
//
// A tenant pays a fixed monthly rent plus consumed electricity units at a
// per-unit rate:
//
//	t := &tenant.Tenant{
//	    Name:            "Asha",
//	    MonthlyRent:     rentbook.INR(500000),    // ₹5000.00
//	    ElectricityRate: rentbook.MustRate("10"), // ₹10.00 per unit
//	}
//	err := rb.CreateTenant(ctx, t)
//
// NewDraft prefills the next period from the tenant's latest entry: the
// previous meter reading, the following month, and any unpaid balance or
// leftover credit. The draft is a plain value until CreateEntry stores it:
//
//	d, err := rb.NewDraft(ctx, t.ID)
//	d.CurrentReading = rentbook.NewReading(150)
//	e, err := rb.CreateEntry(ctx, d)
//
//	e, err = rb.RecordPayment(ctx, e.ID, rentbook.PaymentInput{Amount: &paid})
//
// The billing and reconciliation rules are also available as pure
// functions: PrepareNextPeriod, ComputeTotals, FinalizeEntry,
// RecordPayment and MarkBalancePaid.
//
// # Money
//
// All monetary calculations use integer arithmetic in the smallest currency
// unit (paise for INR). Meter readings are exact decimals; the electricity
// charge is rounded to the nearest minor unit only when fractional readings
// require it.
//
// # TypeID
//
// Records use TypeIDs:
//
//	tnt_01h2xcejqtf2nbrexx3vqjhp41   // Tenant ID
//	rent_01h455vb4pex5vsknk084sn02q  // Ledger entry ID
//
// Identifiers written by earlier versions of the app, such as
// "1718092800000", are kept verbatim.
package rentbook
