package rentbook

import (
	"github.com/xraph/rentbook/entry"
	"github.com/xraph/rentbook/tenant"
	"github.com/xraph/rentbook/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Reading is re-exported from types package.
type Reading = types.Reading

// Rate is re-exported from types package.
type Rate = types.Rate

// Period is re-exported from types package.
type Period = types.Period

// Entity is re-exported from types package.
type Entity = types.Entity

// Tenant is re-exported from tenant package.
type Tenant = tenant.Tenant

// Entry is re-exported from entry package.
type Entry = entry.Entry

// Draft is re-exported from entry package.
type Draft = entry.Draft

// Re-export Money constructors
var (
	INR        = types.INR
	USD        = types.USD
	Zero       = types.Zero
	ParseMoney = types.ParseMoney
)

// Re-export Reading and Rate constructors
var (
	NewReading   = types.NewReading
	ParseReading = types.ParseReading
	ParseRate    = types.ParseRate
	MustRate     = types.MustRate
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
