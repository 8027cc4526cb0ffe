package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Rate is a price per metered unit in major currency units, such as 7.255
// rupees per kWh. Rates are kept exact; only a charge computed from one is
// rounded to the minor unit.
type Rate = decimal.Decimal

// ParseRate parses a per-unit price such as "10" or "7.255".
func ParseRate(s string) (Rate, error) {
	r, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Rate{}, fmt.Errorf("rate: parse %q: %w", s, err)
	}
	return r, nil
}

// MustRate is like ParseRate but panics on malformed input.
func MustRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Charge returns rate × units in currency, rounded half away from zero to
// the minor unit.
func Charge(rate Rate, units decimal.Decimal, currency string) Money {
	return FromMajor(rate.Mul(units), currency)
}

// FormatRate renders a rate with the currency symbol. At least the
// currency's minor-unit places are shown, more when the rate has them.
func FormatRate(rate Rate, currency string) string {
	places := int32(currencyDecimals(currency))
	if exp := -rate.Exponent(); exp > places {
		places = exp
	}
	return currencySymbol(currency) + rate.StringFixed(places)
}
