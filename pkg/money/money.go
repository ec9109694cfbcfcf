// Package money formats and aggregates peso amounts for display. Arithmetic
// inside the extraction pipeline stays on shopspring/decimal; this package
// converts those exact values into ISO-4217 ARS for user-facing output.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ARS is the only currency payroll statements carry.
const ARS = "ARS"

// centsScale shifts a decimal amount into minor units.
var centsScale = decimal.New(1, 2)

// Amount is an ARS value held in integer centavos.
type Amount struct {
	m *money.Money
}

// FromDecimal converts an exact decimal peso value, rounding half-up to the
// centavo. Pipeline amounts already carry two decimals, so rounding only
// matters for derived values such as averages.
func FromDecimal(d decimal.Decimal) Amount {
	cents := d.Mul(centsScale).Round(0).IntPart()
	return Amount{m: money.New(cents, ARS)}
}

// FromCents builds an Amount directly from centavos.
func FromCents(cents int64) Amount {
	return Amount{m: money.New(cents, ARS)}
}

func Zero() Amount {
	return FromCents(0)
}

// Cents returns the value in centavos.
func (a Amount) Cents() int64 {
	if a.m == nil {
		return 0
	}
	return a.m.Amount()
}

// Decimal returns the exact peso value.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Cents(), -2)
}

func (a Amount) IsZero() bool {
	return a.Cents() == 0
}

func (a Amount) IsNegative() bool {
	return a.Cents() < 0
}

// Add never fails: both operands are ARS by construction.
func (a Amount) Add(other Amount) Amount {
	return FromCents(a.Cents() + other.Cents())
}

// Display renders the amount in Argentine convention, e.g. "$1.234.567,89".
func (a Amount) Display() string {
	if a.m == nil {
		return money.New(0, ARS).Display()
	}
	return a.m.Display()
}

// String returns the plain decimal form with a dot separator, e.g. "1234567.89".
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}
