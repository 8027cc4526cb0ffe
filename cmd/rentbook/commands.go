package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/xraph/rentbook"
	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

const dateLayout = "2006-01-02"

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	return fs
}

// ──────────────────────────────────────────────────
// Tenants
// ──────────────────────────────────────────────────

func (a *app) tenantCmd(ctx context.Context, args []string, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: rentbook tenant add|edit|list|delete")
		return errUsage
	}
	switch args[0] {
	case "add":
		return a.tenantAdd(ctx, args[1:], stderr)
	case "edit":
		return a.tenantEdit(ctx, args[1:], stderr)
	case "list", "ls":
		return a.tenantList(ctx)
	case "delete", "rm":
		return a.tenantDelete(ctx, args[1:], stderr)
	}
	fmt.Fprintf(stderr, "rentbook: unknown tenant command %q\n", args[0])
	return errUsage
}

// tenantFlags binds the editable tenant fields.
type tenantFlags struct {
	fs      *pflag.FlagSet
	name    *string
	rent    *string
	rate    *string
	reading *string
	start   *string
	months  *int
}

func newTenantFlags(name string, stderr io.Writer) *tenantFlags {
	fs := newFlagSet(name, stderr)
	return &tenantFlags{
		fs:      fs,
		name:    fs.String("name", "", "tenant name"),
		rent:    fs.String("rent", "0", "monthly rent, major units"),
		rate:    fs.String("rate", "0", "electricity rate per unit, major units"),
		reading: fs.String("reading", "0", "initial meter reading"),
		start:   fs.String("start", "", "agreement start date (YYYY-MM-DD)"),
		months:  fs.Int("months", 0, fmt.Sprintf("agreement length in months (default %d)", tenant.DefaultAgreementMonths)),
	}
}

// apply copies the flags that were set, or every flag when all is true,
// onto in.
func (f *tenantFlags) apply(in *tenant.Input, currency string, all bool) error {
	set := func(name string) bool { return all || f.fs.Changed(name) }

	if set("name") {
		in.Name = *f.name
	}
	if set("rent") {
		m, err := types.ParseMoney(*f.rent, currency)
		if err != nil {
			return fmt.Errorf("--rent: %w", err)
		}
		in.MonthlyRent = m
	}
	if set("rate") {
		r, err := types.ParseRate(*f.rate)
		if err != nil {
			return fmt.Errorf("--rate: %w", err)
		}
		in.ElectricityRate = r
	}
	if set("reading") {
		r, err := types.ParseReading(*f.reading)
		if err != nil {
			return fmt.Errorf("--reading: %w", err)
		}
		in.InitialElectricityReading = r
	}
	if set("start") {
		in.AgreementStartDate = nil
		if *f.start != "" {
			d, err := time.Parse(dateLayout, *f.start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			in.AgreementStartDate = &d
		}
	}
	if set("months") {
		in.AgreementDuration = *f.months
	}
	return nil
}

func (a *app) tenantAdd(ctx context.Context, args []string, stderr io.Writer) error {
	f := newTenantFlags("tenant add", stderr)
	if err := f.fs.Parse(args); err != nil {
		return err
	}

	var in tenant.Input
	if err := f.apply(&in, a.rb.Currency(), true); err != nil {
		return err
	}
	t := &tenant.Tenant{}
	in.Apply(t)
	if err := a.rb.CreateTenant(ctx, t); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "added tenant %s (%s)\n", t.Name, t.ID)
	return nil
}

func (a *app) tenantEdit(ctx context.Context, args []string, stderr io.Writer) error {
	f := newTenantFlags("tenant edit", stderr)
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	tenantID, err := oneID(f.fs, "tenant edit <tenant-id>", id.ParseTenantID, stderr)
	if err != nil {
		return err
	}

	t, err := a.rb.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	in := tenant.Input{
		Name:                      t.Name,
		MonthlyRent:               t.MonthlyRent,
		ElectricityRate:           t.ElectricityRate,
		InitialElectricityReading: t.InitialElectricityReading,
		AgreementStartDate:        t.AgreementStartDate,
		AgreementDuration:         t.AgreementDuration,
	}
	if err := f.apply(&in, a.rb.Currency(), false); err != nil {
		return err
	}

	updated, err := a.rb.UpdateTenant(ctx, tenantID, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "updated tenant %s (%s)\n", updated.Name, updated.ID)
	return nil
}

func (a *app) tenantList(ctx context.Context) error {
	tenants, err := a.rb.ListTenants(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRENT\tRATE\tINITIAL READING\tAGREEMENT ENDS")
	for _, t := range tenants {
		ends := "-"
		if end, ok := t.AgreementEndDate(); ok {
			ends = end.Format(dateLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Name, t.MonthlyRent, types.FormatRate(t.ElectricityRate, t.MonthlyRent.Currency), t.InitialElectricityReading, ends)
	}
	return tw.Flush()
}

func (a *app) tenantDelete(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("tenant delete", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	tenantID, err := oneID(fs, "tenant delete <tenant-id>", id.ParseTenantID, stderr)
	if err != nil {
		return err
	}

	removed, err := a.rb.DeleteTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted tenant %s and %d entries\n", tenantID, removed)
	return nil
}

// ──────────────────────────────────────────────────
// Billing and payments
// ──────────────────────────────────────────────────

func (a *app) billCmd(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("bill", stderr)
	var (
		month    = fs.String("month", "", "billing month, name or number (default: month after the latest entry)")
		year     = fs.Int("year", 0, "billing year (default: year after the latest entry, or this year)")
		reading  = fs.String("reading", "", "current meter reading (default: previous reading)")
		extra    = fs.String("extra", "0", "additional charges, may be negative")
		prevBal  = fs.String("previous-balance", "", "override the carried balance")
		credit   = fs.String("advance-credit", "", "override the carried advance credit")
		paid     = fs.String("paid", "", "amount paid with this entry")
		paidOn   = fs.String("paid-on", "", "payment date (YYYY-MM-DD)")
		notes    = fs.String("notes", "", "payment notes")
		currency = a.rb.Currency()
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	tenantID, err := oneID(fs, "bill <tenant-id>", id.ParseTenantID, stderr)
	if err != nil {
		return err
	}

	d, err := a.rb.NewDraft(ctx, tenantID)
	if err != nil {
		return err
	}

	if *month != "" {
		if d.Month, err = types.ParseMonth(*month); err != nil {
			return fmt.Errorf("--month: %w", err)
		}
	}
	if d.Month == 0 {
		return fmt.Errorf("the first period of a tenant needs --month")
	}
	if *year != 0 {
		d.Year = *year
	}
	if *reading != "" {
		if d.CurrentReading, err = types.ParseReading(*reading); err != nil {
			return fmt.Errorf("--reading: %w", err)
		}
	}
	if d.AdditionalCharges, err = types.ParseMoney(*extra, currency); err != nil {
		return fmt.Errorf("--extra: %w", err)
	}
	if *prevBal != "" {
		if d.PreviousBalance, err = types.ParseMoney(*prevBal, currency); err != nil {
			return fmt.Errorf("--previous-balance: %w", err)
		}
	}
	if *credit != "" {
		if d.AdvanceCredit, err = types.ParseMoney(*credit, currency); err != nil {
			return fmt.Errorf("--advance-credit: %w", err)
		}
	}
	if d.AmountPaid, err = optionalMoney(*paid, currency); err != nil {
		return fmt.Errorf("--paid: %w", err)
	}
	if d.PaymentDate, err = optionalDate(*paidOn); err != nil {
		return fmt.Errorf("--paid-on: %w", err)
	}
	d.PaymentNotes = *notes

	e, err := a.rb.CreateEntry(ctx, d)
	if err != nil {
		return err
	}
	a.printEntry(e)
	return nil
}

func (a *app) payCmd(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("pay", stderr)
	var (
		amount = fs.String("amount", "", "amount paid, major units")
		date   = fs.String("date", "", "payment date (YYYY-MM-DD)")
		notes  = fs.String("notes", "", "payment notes")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	entryID, err := oneID(fs, "pay <entry-id> --amount N", id.ParseEntryID, stderr)
	if err != nil {
		return err
	}

	var in rentbook.PaymentInput
	if in.Amount, err = optionalMoney(*amount, a.rb.Currency()); err != nil {
		return fmt.Errorf("--amount: %w", err)
	}
	if in.Date, err = optionalDate(*date); err != nil {
		return fmt.Errorf("--date: %w", err)
	}
	in.Notes = *notes

	e, err := a.rb.RecordPayment(ctx, entryID, in)
	if err != nil {
		return err
	}
	a.printEntry(e)
	return nil
}

func (a *app) settleCmd(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("settle", stderr)
	date := fs.String("date", "", "settlement date (YYYY-MM-DD, default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	entryID, err := oneID(fs, "settle <entry-id>", id.ParseEntryID, stderr)
	if err != nil {
		return err
	}

	var paidOn time.Time
	if *date != "" {
		if paidOn, err = time.Parse(dateLayout, *date); err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}

	e, err := a.rb.MarkBalancePaid(ctx, entryID, paidOn)
	if err != nil {
		return err
	}
	a.printEntry(e)
	return nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

func (a *app) historyCmd(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("history", stderr)
	var (
		tenantFlag = fs.String("tenant", "", "only this tenant")
		status     = fs.String("status", "", "only this status (paid, partial, unpaid)")
		limit      = fs.Int("limit", 0, "maximum entries")
		offset     = fs.Int("offset", 0, "entries to skip")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := entry.ListOpts{Limit: *limit, Offset: *offset}
	if *tenantFlag != "" {
		tid, err := id.ParseTenantID(*tenantFlag)
		if err != nil {
			return fmt.Errorf("--tenant: %w", err)
		}
		opts.TenantID = tid
	}
	if *status != "" {
		st := entry.Status(strings.ToLower(*status))
		if !st.Valid() {
			return fmt.Errorf("--status: unknown status %q", *status)
		}
		opts.Status = st
	}

	entries, err := a.rb.ListEntries(ctx, opts)
	if err != nil {
		return err
	}

	names, err := a.tenantNames(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTENANT\tPERIOD\tUNITS\tTOTAL\tPAID\tBALANCE\tCREDIT\tSTATUS")
	for _, e := range entries {
		paid := "-"
		if e.AmountPaid != nil {
			paid = e.AmountPaid.String()
		}
		status := string(e.PaymentStatus)
		if e.IsBalancePaid {
			status += " (settled)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, names[e.TenantID.String()], e.Period(), e.Consumption(),
			e.TotalRent, paid, e.Balance, e.AdvanceCredit, status)
	}
	return tw.Flush()
}

func (a *app) remindersCmd(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("reminders", stderr)
	dismiss := fs.StringSlice("dismiss", nil, "tenant IDs to hide")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dismissed := make([]id.TenantID, 0, len(*dismiss))
	for _, s := range *dismiss {
		tid, err := id.ParseTenantID(s)
		if err != nil {
			return fmt.Errorf("--dismiss: %w", err)
		}
		dismissed = append(dismissed, tid)
	}

	reminders, err := a.rb.Reminders(ctx, dismissed...)
	if err != nil {
		return err
	}
	if len(reminders) == 0 {
		fmt.Fprintln(a.out, "no agreements end soon")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TENANT\tENDS\tDAYS\tSEVERITY")
	for _, r := range reminders {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Tenant.Name, r.EndDate.Format(dateLayout), r.DaysRemaining, r.Severity)
	}
	return tw.Flush()
}

func (a *app) summaryCmd(ctx context.Context, args []string, stderr io.Writer) error {
	fs := newFlagSet("summary", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sums, err := a.rb.Summary(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TENANT\tENTRIES\tNEXT\tOUTSTANDING\tCREDIT\tBILLED\tPAID")
	for _, s := range sums {
		next := "-"
		if !s.Next.IsZero() {
			next = s.Next.String()
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			s.Tenant.Name, s.Entries, next, s.Outstanding, s.Credit, s.TotalBilled, s.TotalPaid)
	}
	return tw.Flush()
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (a *app) printEntry(e *entry.Entry) {
	fmt.Fprintf(a.out, "entry %s  %s\n", e.ID, e.Period())
	fmt.Fprintf(a.out, "  total     %s\n", e.TotalRent)
	if e.PreviousBalance.IsPositive() {
		fmt.Fprintf(a.out, "  carried   %s\n", e.PreviousBalance)
	}
	if e.CarriedCredit.IsPositive() {
		fmt.Fprintf(a.out, "  credit in %s\n", e.CarriedCredit)
	}
	fmt.Fprintf(a.out, "  due       %s\n", e.FinalAmountDue())
	if e.AmountPaid != nil {
		fmt.Fprintf(a.out, "  paid      %s\n", e.AmountPaid)
	}
	fmt.Fprintf(a.out, "  balance   %s\n", e.Balance)
	if e.AdvanceCredit.IsPositive() {
		fmt.Fprintf(a.out, "  credit    %s\n", e.AdvanceCredit)
	}
	fmt.Fprintf(a.out, "  status    %s\n", e.PaymentStatus)
}

func (a *app) tenantNames(ctx context.Context) (map[string]string, error) {
	tenants, err := a.rb.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(tenants))
	for _, t := range tenants {
		names[t.ID.String()] = t.Name
	}
	return names, nil
}

// oneID parses the single positional argument of fs.
func oneID(fs *pflag.FlagSet, usage string, parse func(string) (id.ID, error), stderr io.Writer) (id.ID, error) {
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: rentbook", usage)
		return id.Nil, errUsage
	}
	return parse(fs.Arg(0))
}

func optionalMoney(s, currency string) (*types.Money, error) {
	if s == "" {
		return nil, nil
	}
	m, err := types.ParseMoney(s, currency)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
