package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Reading is a cumulative electricity-meter value. Readings may be
// fractional, so they are kept as exact decimals rather than floats.
type Reading = decimal.Decimal

// NewReading creates a Reading from a whole number of units.
func NewReading(units int64) Reading {
	return decimal.NewFromInt(units)
}

// ParseReading parses a meter reading such as "1250" or "1250.5".
func ParseReading(s string) (Reading, error) {
	r, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Reading{}, fmt.Errorf("reading: parse %q: %w", s, err)
	}
	return r, nil
}
