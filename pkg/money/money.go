// Package money provides the exact value types used by the mortgage engine:
// Money, Price and Percent. All of them are immutable and built on
// github.com/shopspring/decimal.
package money

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Errors returned when constructing or combining values.
var (
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// Currency is an ISO 4217 currency code.
type Currency struct {
	code string
}

// NewCurrency creates a Currency after validating the code is exactly 3 uppercase letters.
func NewCurrency(code string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("%w %q: must be exactly 3 uppercase letters", ErrInvalidCurrency, code)
	}
	return Currency{code: code}, nil
}

// MustCurrency creates a Currency and panics on error. Intended for package-level variable
// initialization only.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string {
	return c.code
}

// String returns the currency code.
func (c Currency) String() string {
	return c.code
}

// PHP is the Philippine peso, the currency every institution lends in.
var PHP = MustCurrency(constants.DefaultCurrency)

// RoundingMode selects how amounts are rounded to their precision.
type RoundingMode int

const (
	// RoundCeiling rounds towards positive infinity; used when aggregating
	// fees so a total is never understated.
	RoundCeiling RoundingMode = iota
	// RoundHalfUp rounds half away from zero; used for computed payments.
	RoundHalfUp
	// RoundFloor rounds towards negative infinity.
	RoundFloor
	// RoundHalfEven is banker's rounding.
	RoundHalfEven
)

// ParseRoundingMode maps a configuration string onto a RoundingMode.
func ParseRoundingMode(mode string) (RoundingMode, error) {
	switch mode {
	case "", "ceiling", "ceil":
		return RoundCeiling, nil
	case "half_up", "half-up":
		return RoundHalfUp, nil
	case "floor":
		return RoundFloor, nil
	case "half_even", "half-even", "bankers":
		return RoundHalfEven, nil
	default:
		return RoundCeiling, fmt.Errorf("unknown rounding mode %q", mode)
	}
}

// Apply rounds d to the given number of decimal places.
func (m RoundingMode) Apply(d decimal.Decimal, places int32) decimal.Decimal {
	switch m {
	case RoundHalfUp:
		return d.Round(places)
	case RoundFloor:
		return d.RoundFloor(places)
	case RoundHalfEven:
		return d.RoundBank(places)
	default:
		return d.RoundCeil(places)
	}
}

// Money represents an immutable monetary amount with currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates a Money value from a decimal amount and currency.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// Of creates a peso amount from a float.
func Of(amount float64) Money {
	return Money{amount: decimal.NewFromFloat(amount), currency: PHP}
}

// NewFromString parses an amount string and currency code into a Money value.
func NewFromString(amount string, currency string) (Money, error) {
	cur, err := NewCurrency(currency)
	if err != nil {
		return Money{}, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w %q: %v", ErrInvalidAmount, amount, err)
	}

	return Money{amount: d, currency: cur}, nil
}

// NonNegative builds an amount and rejects negative values.
func NonNegative(amount float64, currency Currency) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: %.2f", ErrNegativeAmount, amount)
	}
	return New(decimal.NewFromFloat(amount), currency), nil
}

// Zero returns a Money value of zero in the given currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency.
func (m Money) Currency() Currency {
	return m.currency
}

// Float64 returns the amount as a float, for presentation layers.
func (m Money) Float64() float64 {
	return m.amount.InexactFloat64()
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns the sum of m and other. Returns an error if the currencies do not match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: cannot add %s to %s", ErrCurrencyMismatch, other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns the difference of m minus other. Returns an error if the currencies do not match.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: cannot subtract %s from %s", ErrCurrencyMismatch, other.currency, m.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Mul returns m multiplied by the given factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// MulPercent returns m multiplied by a percent.
func (m Money) MulPercent(p Percent) Money {
	return m.Mul(p.Value())
}

// Div returns m divided by a non-zero divisor, keeping 16 decimal places.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("%w: division by zero", ErrInvalidAmount)
	}
	return Money{amount: m.amount.DivRound(divisor, 16), currency: m.currency}, nil
}

// Round returns m rounded to places using mode.
func (m Money) Round(mode RoundingMode, places int32) Money {
	return Money{amount: mode.Apply(m.amount, places), currency: m.currency}
}

// RoundCentavos rounds half up to two places, the rule for computed payments.
func (m Money) RoundCentavos() Money {
	return m.Round(RoundHalfUp, constants.CurrencyPlaces)
}

// NonNegative clamps negative amounts to zero.
func (m Money) NonNegative() Money {
	if m.amount.IsNegative() {
		return Zero(m.currency)
	}
	return m
}

// Cmp compares amounts; currencies are assumed to match.
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// GreaterThanOrEqual reports whether m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

// Equal returns true if both the amount and currency of m and other are equal.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String formats the Money value as "<amount> <currency>", for example "1000.00 PHP".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(constants.CurrencyPlaces), m.currency.Code())
}

// Sum adds amounts of the same currency, starting from zero in currency.
func Sum(currency Currency, amounts ...Money) (Money, error) {
	total := Zero(currency)
	for _, amount := range amounts {
		var err error
		if total, err = total.Add(amount); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
