// Package money provides the monetary value type used by the ledger.
//
// Invariants:
//   - Amount is always stored in the smallest currency unit (cents).
//   - Decimal input is accepted only when it is exact to the cent.
//   - Percentages are rounded half-up to the cent.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the number of minor-unit digits carried by an Amount.
const Decimals = 2

// maxAbs bounds amounts so that sums of balances cannot overflow int64.
var maxAbs = decimal.New(1, 15)

// Amount represents a monetary amount as an integer in cents.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// FromDecimal converts a decimal value in major units to an Amount.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.Abs().GreaterThanOrEqual(maxAbs) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, d.String())
	}
	shifted := d.Shift(Decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s", ErrTooManyDecimals, d.String())
	}
	return Amount(shifted.IntPart()), nil
}

// Parse parses a decimal string such as "33.33" into an Amount.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("money.MustParse(%q): %v", s, err))
	}
	return a
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Decimals)
}

// String renders the amount with exactly two decimals.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Decimals)
}

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// Neg returns the negated amount.
func (a Amount) Neg() Amount {
	return -a
}

// MarshalJSON renders the amount as a JSON number in major units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string in major units.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Percent returns amount*rate rounded half-up to the cent.
func Percent(amount Amount, rate decimal.Decimal) Amount {
	return Amount(amount.Decimal().Mul(rate).Round(Decimals).Shift(Decimals).IntPart())
}

// Split is the division of a gross amount into a platform fee and the net remainder.
type Split struct {
	Gross Amount
	Fee   Amount
	Net   Amount
}

// SplitFee computes the fee on amount at rate (rounded half-up to the cent) and the
// remainder due to the payee. The computation is deterministic, so re-deriving the
// split from the gross amount always reproduces the original.
func SplitFee(amount Amount, rate decimal.Decimal) Split {
	fee := Percent(amount, rate)
	return Split{Gross: amount, Fee: fee, Net: amount - fee}
}
