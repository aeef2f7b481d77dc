package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-floating monetary amount in major units (e.g. rupiah).
// All ledger arithmetic goes through decimal.Decimal so repeated sums of
// fractional values do not drift.
type Money struct {
	value decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney returns an amount of whole major units.
func NewMoney(units int64) Money {
	return Money{value: decimal.NewFromInt(units)}
}

// ParseMoney parses a decimal literal such as "20000" or "12.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("ParseMoney: %q: %w", s, err)
	}
	return Money{value: d}, nil
}

func (m Money) Add(n Money) Money        { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money        { return Money{value: m.value.Sub(n.value)} }
func (m Money) MulInt(n int64) Money     { return Money{value: m.value.Mul(decimal.NewFromInt(n))} }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsNegative() bool         { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool       { return m.value.Equal(n.value) }
func (m Money) Decimal() decimal.Decimal { return m.value }
func (m Money) String() string           { return m.value.String() }
func (m Money) InexactFloat64() float64  { return m.value.InexactFloat64() }

// MinorUnits returns the amount scaled by 10^fraction and rounded, as used
// by currency formatters that work on integer minor units.
func (m Money) MinorUnits(fraction int) int64 {
	return m.value.Shift(int32(fraction)).Round(0).IntPart()
}

// MarshalJSON encodes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	v, err := ParseMoney(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
