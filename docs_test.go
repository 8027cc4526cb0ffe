package rentbook_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/rentbook"
	"github.com/xraph/rentbook/store/memory"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// TestDocumentationExamples verifies that the package documentation examples run.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Memory store for the demo; use sqlite or postgres for real ledgers.
		s := memory.New()

		rb := rentbook.New(s,
			rentbook.WithLogger(slog.Default()),
			rentbook.WithCurrency("inr"),
		)

		ctx := context.Background()
		if err := rb.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer rb.Stop()

		tn := &tenant.Tenant{
			Name:                      "Asha",
			MonthlyRent:               rentbook.INR(500000),    // ₹5000.00
			ElectricityRate:           rentbook.MustRate("10"), // ₹10.00 per unit
			InitialElectricityReading: rentbook.NewReading(100),
		}
		if err := rb.CreateTenant(ctx, tn); err != nil {
			t.Fatal(err)
		}

		d, err := rb.NewDraft(ctx, tn.ID)
		if err != nil {
			t.Fatal(err)
		}
		d.Month = time.January
		d.Year = 2025
		d.CurrentReading = rentbook.NewReading(150)

		e, err := rb.CreateEntry(ctx, d)
		if err != nil {
			t.Fatal(err)
		}
		if got := e.TotalRent.String(); got != "₹5500.00" {
			t.Errorf("TotalRent: got %s, want ₹5500.00", got)
		}

		paid := rentbook.INR(300000)
		e, err = rb.RecordPayment(ctx, e.ID, rentbook.PaymentInput{Amount: &paid})
		if err != nil {
			t.Fatal(err)
		}
		if got := e.Balance.String(); got != "₹2500.00" {
			t.Errorf("Balance: got %s, want ₹2500.00", got)
		}
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.INR(550000) // ₹5500.00
		_ = types.USD(4900)   // $49.00
		_ = types.Zero("inr") // ₹0.00

		// Arithmetic
		m1 := types.INR(100)
		m2 := types.INR(200)
		_ = m1.Add(m2)                  // ₹3.00
		_ = m1.Subtract(m2).ClampZero() // ₹0.00

		// Comparison
		if !m1.LessThan(m2) {
			t.Error("expected m1 < m2")
		}

		// Formatting
		if got := m1.String(); got != "₹1.00" {
			t.Errorf("String: got %s", got)
		}
		if got := m1.FormatMajor(); got != "1.00" {
			t.Errorf("FormatMajor: got %s", got)
		}
	})
}
