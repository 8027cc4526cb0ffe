package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// Wire layouts.
const (
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
	dateLayout      = "2006-01-02"
)

// Codec converts between the domain records and the persisted JSON shape:
// flat camelCase objects with amounts and readings as plain numbers in
// major units. Optional fields are omitted, never null.
type Codec struct {
	// Currency is assigned to every decoded amount.
	Currency string
}

// NewCodec returns a codec for currency, defaulting to types.DefaultCurrency.
func NewCodec(currency string) Codec {
	if currency == "" {
		currency = types.DefaultCurrency
	}
	return Codec{Currency: strings.ToLower(currency)}
}

// number is a decimal that marshals as a bare JSON number.
type number struct {
	decimal.Decimal
}

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

func (n *number) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		n.Decimal = decimal.Zero
		return nil
	}
	return n.Decimal.UnmarshalJSON(data)
}

type wireTenant struct {
	ID                        string `json:"id"`
	Name                      string `json:"name"`
	MonthlyRent               number `json:"monthlyRent"`
	ElectricityRate           number `json:"electricityRate"`
	InitialElectricityReading number `json:"initialElectricityReading"`
	AgreementStartDate        string `json:"agreementStartDate,omitempty"`
	AgreementDuration         int    `json:"agreementDuration,omitempty"`
	CreatedAt                 string `json:"createdAt,omitempty"`
	UpdatedAt                 string `json:"updatedAt,omitempty"`
}

type wireEntry struct {
	ID                string  `json:"id"`
	TenantID          string  `json:"tenantId"`
	Month             string  `json:"month"`
	Year              int     `json:"year"`
	PreviousReading   number  `json:"previousReading"`
	CurrentReading    number  `json:"currentReading"`
	AdditionalCharges number  `json:"additionalCharges"`
	TotalRent         number  `json:"totalRent"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt,omitempty"`
	PaymentStatus     string  `json:"paymentStatus,omitempty"`
	PaymentDate       string  `json:"paymentDate,omitempty"`
	PaymentNotes      string  `json:"paymentNotes,omitempty"`
	AmountPaid        *number `json:"amountPaid,omitempty"`
	Balance           *number `json:"balance,omitempty"`
	PreviousBalance   *number `json:"previousBalance,omitempty"`
	AdvanceCredit     *number `json:"advanceCredit,omitempty"`
	CarriedCredit     *number `json:"carriedCredit,omitempty"`
	IsBalancePaid     bool    `json:"isBalancePaid,omitempty"`
	BalancePaidDate   string  `json:"balancePaidDate,omitempty"`
}

// ──────────────────────────────────────────────────
// Tenants
// ──────────────────────────────────────────────────

// EncodeTenants renders tenants as the persisted JSON array.
func (c Codec) EncodeTenants(tenants []*tenant.Tenant) ([]byte, error) {
	out := make([]wireTenant, 0, len(tenants))
	for _, t := range tenants {
		w := wireTenant{
			ID:                        t.ID.String(),
			Name:                      t.Name,
			MonthlyRent:               number{t.MonthlyRent.Decimal()},
			ElectricityRate:           number{t.ElectricityRate},
			InitialElectricityReading: number{t.InitialElectricityReading},
			AgreementDuration:         t.AgreementDuration,
			CreatedAt:                 formatTimestamp(t.CreatedAt),
			UpdatedAt:                 formatTimestamp(t.UpdatedAt),
		}
		if t.AgreementStartDate != nil {
			w.AgreementStartDate = t.AgreementStartDate.Format(dateLayout)
		}
		out = append(out, w)
	}
	return json.Marshal(out)
}

// DecodeTenants parses the persisted tenants array. Empty input is an
// empty collection.
func (c Codec) DecodeTenants(data []byte) ([]*tenant.Tenant, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []wireTenant
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rentbook/store: decode %s: %w", KeyTenants, err)
	}

	out := make([]*tenant.Tenant, 0, len(raw))
	for i, w := range raw {
		tid, err := id.ParseLenient(w.ID)
		if err != nil {
			return nil, fmt.Errorf("rentbook/store: decode %s[%d]: %w", KeyTenants, i, err)
		}
		t := &tenant.Tenant{
			ID:                        tid,
			Name:                      w.Name,
			MonthlyRent:               c.money(w.MonthlyRent),
			ElectricityRate:           w.ElectricityRate.Decimal,
			InitialElectricityReading: w.InitialElectricityReading.Decimal,
			AgreementDuration:         w.AgreementDuration,
		}
		if t.CreatedAt, err = parseOptionalTime(w.CreatedAt); err != nil {
			return nil, fmt.Errorf("rentbook/store: decode %s[%d].createdAt: %w", KeyTenants, i, err)
		}
		if t.UpdatedAt, err = parseOptionalTime(w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("rentbook/store: decode %s[%d].updatedAt: %w", KeyTenants, i, err)
		}
		if w.AgreementStartDate != "" {
			start, err := parseTime(w.AgreementStartDate)
			if err != nil {
				return nil, fmt.Errorf("rentbook/store: decode %s[%d].agreementStartDate: %w", KeyTenants, i, err)
			}
			t.AgreementStartDate = &start
		}
		out = append(out, t)
	}
	return out, nil
}

// ──────────────────────────────────────────────────
// Entries
// ──────────────────────────────────────────────────

// EncodeEntries renders entries as the persisted JSON array.
func (c Codec) EncodeEntries(entries []*entry.Entry) ([]byte, error) {
	out := make([]wireEntry, 0, len(entries))
	for _, e := range entries {
		w := wireEntry{
			ID:                e.ID.String(),
			TenantID:          e.TenantID.String(),
			Month:             e.Month.String(),
			Year:              e.Year,
			PreviousReading:   number{e.PreviousReading},
			CurrentReading:    number{e.CurrentReading},
			AdditionalCharges: number{e.AdditionalCharges.Decimal()},
			TotalRent:         number{e.TotalRent.Decimal()},
			CreatedAt:         formatTimestamp(e.CreatedAt),
			UpdatedAt:         formatTimestamp(e.UpdatedAt),
			PaymentStatus:     string(e.PaymentStatus),
			PaymentNotes:      e.PaymentNotes,
			IsBalancePaid:     e.IsBalancePaid,
			PreviousBalance:   optionalMoney(e.PreviousBalance),
			AdvanceCredit:     optionalMoney(e.AdvanceCredit),
		}
		if e.PaymentDate != nil {
			w.PaymentDate = e.PaymentDate.Format(dateLayout)
		}
		if e.BalancePaidDate != nil {
			w.BalancePaidDate = e.BalancePaidDate.Format(dateLayout)
		}
		if e.AmountPaid != nil {
			w.AmountPaid = &number{e.AmountPaid.Decimal()}
		}
		// A settled zero balance is omitted.
		if e.Balance.IsPositive() || (e.PaymentStatus != entry.StatusPaid && !e.IsBalancePaid) {
			w.Balance = &number{e.Balance.Decimal()}
		}
		if !e.CarriedCredit.IsZero() || !e.AdvanceCredit.IsZero() {
			w.CarriedCredit = &number{e.CarriedCredit.Decimal()}
		}
		out = append(out, w)
	}
	return json.Marshal(out)
}

// DecodeEntries parses the persisted entries array. Records written
// before carry tracking existed are upgraded in memory:
//   - a missing paymentStatus is unpaid;
//   - a missing balance on an unpaid, unpaid-for entry is its full due amount;
//   - a missing carriedCredit falls back to advanceCredit unless a payment
//     settled the entry, in which case advanceCredit is its surplus.
func (c Codec) DecodeEntries(data []byte) ([]*entry.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw []wireEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rentbook/store: decode %s: %w", KeyEntries, err)
	}

	out := make([]*entry.Entry, 0, len(raw))
	for i, w := range raw {
		e, err := c.decodeEntry(w)
		if err != nil {
			return nil, fmt.Errorf("rentbook/store: decode %s[%d]: %w", KeyEntries, i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (c Codec) decodeEntry(w wireEntry) (*entry.Entry, error) {
	eid, err := id.ParseLenient(w.ID)
	if err != nil {
		return nil, err
	}
	tid, err := id.ParseLenient(w.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenantId: %w", err)
	}
	month, err := types.ParseMonth(w.Month)
	if err != nil {
		return nil, err
	}
	status, ok := entry.ParseStatus(w.PaymentStatus)
	if !ok {
		return nil, fmt.Errorf("paymentStatus: unknown status %q", w.PaymentStatus)
	}

	e := &entry.Entry{
		ID:                eid,
		TenantID:          tid,
		Month:             month,
		Year:              w.Year,
		PreviousReading:   w.PreviousReading.Decimal,
		CurrentReading:    w.CurrentReading.Decimal,
		AdditionalCharges: c.money(w.AdditionalCharges),
		TotalRent:         c.money(w.TotalRent),
		PaymentStatus:     status,
		PaymentNotes:      w.PaymentNotes,
		IsBalancePaid:     w.IsBalancePaid,
		PreviousBalance:   c.optional(w.PreviousBalance),
		AdvanceCredit:     c.optional(w.AdvanceCredit),
	}

	if e.CreatedAt, err = parseOptionalTime(w.CreatedAt); err != nil {
		return nil, fmt.Errorf("createdAt: %w", err)
	}
	if e.UpdatedAt, err = parseOptionalTime(w.UpdatedAt); err != nil {
		return nil, fmt.Errorf("updatedAt: %w", err)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	if e.PaymentDate, err = parseOptionalDate(w.PaymentDate); err != nil {
		return nil, fmt.Errorf("paymentDate: %w", err)
	}
	if e.BalancePaidDate, err = parseOptionalDate(w.BalancePaidDate); err != nil {
		return nil, fmt.Errorf("balancePaidDate: %w", err)
	}
	if w.AmountPaid != nil {
		paid := c.money(*w.AmountPaid)
		e.AmountPaid = &paid
	}

	switch {
	case w.CarriedCredit != nil:
		e.CarriedCredit = c.money(*w.CarriedCredit)
	case e.AmountPaid != nil && status == entry.StatusPaid:
		e.CarriedCredit = types.Zero(c.Currency)
	default:
		e.CarriedCredit = e.AdvanceCredit
	}

	switch {
	case w.Balance != nil:
		e.Balance = c.money(*w.Balance)
	case status == entry.StatusPaid || e.IsBalancePaid:
		e.Balance = types.Zero(c.Currency)
	case e.AmountPaid != nil:
		e.Balance = e.FinalAmountDue().Subtract(*e.AmountPaid).ClampZero()
	default:
		e.Balance = e.FinalAmountDue()
	}

	return e, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (c Codec) money(n number) types.Money {
	return types.FromMajor(n.Decimal, c.Currency)
}

func (c Codec) optional(n *number) types.Money {
	if n == nil {
		return types.Zero(c.Currency)
	}
	return c.money(*n)
}

func optionalMoney(m types.Money) *number {
	if m.IsZero() {
		return nil
	}
	return &number{m.Decimal()}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// parseTime accepts RFC 3339 timestamps and bare dates.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return t, nil
}

func parseOptionalTime(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return parseTime(s)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
