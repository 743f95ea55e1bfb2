package money

import (
	"errors"
	"fmt"

	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/shopspring/decimal"
)

// ErrInvalidPercent is returned when a ratio falls outside [0, 1].
var ErrInvalidPercent = errors.New("invalid percent")

var (
	one     = decimal.NewFromInt(1)
	epsilon = decimal.NewFromFloat(constants.PercentEpsilon)
)

// Percent is a ratio held as a fraction in [0, 1].
type Percent struct {
	value decimal.Decimal
}

// ZeroPercent is 0%.
var ZeroPercent = Percent{value: decimal.Zero}

// FullPercent is 100%.
var FullPercent = Percent{value: one}

// PercentOfFraction builds a Percent from a 0-1 fraction.
func PercentOfFraction(fraction float64) (Percent, error) {
	return PercentFromDecimal(decimal.NewFromFloat(fraction))
}

// PercentOfPercent builds a Percent from a 0-100 value.
func PercentOfPercent(percent float64) (Percent, error) {
	return PercentFromDecimal(decimal.NewFromFloat(percent).Shift(-2))
}

// PercentFromDecimal builds a Percent from a decimal fraction.
func PercentFromDecimal(fraction decimal.Decimal) (Percent, error) {
	if fraction.IsNegative() || fraction.GreaterThan(one) {
		return Percent{}, fmt.Errorf("%w: %s is outside [0, 1]", ErrInvalidPercent, fraction.String())
	}
	return Percent{value: fraction}, nil
}

// MustPercent builds a Percent from a fraction and panics when it is out of
// range. Intended for constants and tests.
func MustPercent(fraction float64) Percent {
	p, err := PercentOfFraction(fraction)
	if err != nil {
		panic(err)
	}
	return p
}

// Value returns the fraction.
func (p Percent) Value() decimal.Decimal {
	return p.value
}

// Float64 returns the fraction as a float.
func (p Percent) Float64() float64 {
	return p.value.InexactFloat64()
}

// AsPercent returns the 0-100 representation.
func (p Percent) AsPercent() float64 {
	return p.value.Shift(2).InexactFloat64()
}

// IsZero reports whether the ratio is zero.
func (p Percent) IsZero() bool {
	return p.value.IsZero()
}

// Add returns p + other.
func (p Percent) Add(other Percent) (Percent, error) {
	return PercentFromDecimal(p.value.Add(other.value))
}

// Subtract returns p - other.
func (p Percent) Subtract(other Percent) (Percent, error) {
	return PercentFromDecimal(p.value.Sub(other.value))
}

// Complement returns 1 - p.
func (p Percent) Complement() Percent {
	return Percent{value: one.Sub(p.value)}
}

// Equal compares with a small tolerance.
func (p Percent) Equal(other Percent) bool {
	return p.value.Sub(other.value).Abs().LessThanOrEqual(epsilon)
}

// GreaterThan reports whether p > other.
func (p Percent) GreaterThan(other Percent) bool {
	return p.value.GreaterThan(other.value)
}

// MaxPercent returns the larger of the two.
func MaxPercent(a, b Percent) Percent {
	if b.value.GreaterThan(a.value) {
		return b
	}
	return a
}

// MinPercent returns the smaller of the two.
func MinPercent(a, b Percent) Percent {
	if b.value.LessThan(a.value) {
		return b
	}
	return a
}

// String renders the 0-100 form, e.g. "6.25%".
func (p Percent) String() string {
	return p.value.Shift(2).String() + "%"
}
