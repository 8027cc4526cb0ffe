// Package tenant defines the tenant record and agreement-expiry reminders.
package tenant

import (
	"time"

	"github.com/xraph/rentbook/id"
	"github.com/xraph/rentbook/types"
)

// DefaultAgreementMonths is the agreement length assumed when a tenant has
// a start date but no explicit duration.
const DefaultAgreementMonths = 11

// Tenant is one occupant the landlord bills monthly: a fixed rent plus
// metered electricity at ElectricityRate per unit, counted from
// InitialElectricityReading for the first period.
type Tenant struct {
	types.Entity
	ID                        id.TenantID   `json:"id"`
	Name                      string        `json:"name" validate:"required"`
	MonthlyRent               types.Money   `json:"monthly_rent" validate:"gte=0"`
	ElectricityRate           types.Rate    `json:"electricity_rate"`
	InitialElectricityReading types.Reading `json:"initial_electricity_reading"`
	AgreementStartDate        *time.Time    `json:"agreement_start_date,omitempty"`
	AgreementDuration         int           `json:"agreement_duration,omitempty" validate:"omitempty,gt=0"`
}

// AgreementMonths returns the agreement length in months.
func (t *Tenant) AgreementMonths() int {
	if t.AgreementDuration > 0 {
		return t.AgreementDuration
	}
	return DefaultAgreementMonths
}

// AgreementEndDate returns start + duration months. The second result is
// false when the tenant has no agreement start date.
func (t *Tenant) AgreementEndDate() (time.Time, bool) {
	if t.AgreementStartDate == nil || t.AgreementStartDate.IsZero() {
		return time.Time{}, false
	}
	return t.AgreementStartDate.AddDate(0, t.AgreementMonths(), 0), true
}

// Clone returns a deep copy of t.
func (t *Tenant) Clone() *Tenant {
	c := *t
	if t.AgreementStartDate != nil {
		start := *t.AgreementStartDate
		c.AgreementStartDate = &start
	}
	return &c
}

// Input carries the editable tenant fields for add and edit.
type Input struct {
	Name                      string
	MonthlyRent               types.Money
	ElectricityRate           types.Rate
	InitialElectricityReading types.Reading
	AgreementStartDate        *time.Time
	AgreementDuration         int
}

// Apply replaces every editable field of t with the values in in.
// The ID and creation time are kept.
func (in Input) Apply(t *Tenant) {
	t.Name = in.Name
	t.MonthlyRent = in.MonthlyRent
	t.ElectricityRate = in.ElectricityRate
	t.InitialElectricityReading = in.InitialElectricityReading
	t.AgreementStartDate = in.AgreementStartDate
	t.AgreementDuration = in.AgreementDuration
}
