package money

import (
	"fmt"

	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/shopspring/decimal"
)

// ModifierKind says how a modifier combines with the running amount.
type ModifierKind string

const (
	// Additive modifiers add an amount.
	Additive ModifierKind = "additive"
	// Multiplicative modifiers scale the running amount by a factor.
	Multiplicative ModifierKind = "multiplicative"
)

// Modifier is a named adjustment applied to a price's base amount. Key and
// Attributes record where the adjustment came from.
type Modifier struct {
	Key        string
	Kind       ModifierKind
	Amount     decimal.Decimal // additive
	Factor     decimal.Decimal // multiplicative
	Attributes map[string]string
}

// AddModifier builds an additive modifier.
func AddModifier(key string, amount Money, attributes map[string]string) Modifier {
	return Modifier{Key: key, Kind: Additive, Amount: amount.Amount(), Attributes: attributes}
}

// ScaleModifier builds a multiplicative modifier.
func ScaleModifier(key string, factor decimal.Decimal, attributes map[string]string) Modifier {
	return Modifier{Key: key, Kind: Multiplicative, Factor: factor, Attributes: attributes}
}

func (mod Modifier) apply(amount decimal.Decimal) (decimal.Decimal, error) {
	switch mod.Kind {
	case Additive:
		return amount.Add(mod.Amount), nil
	case Multiplicative:
		return amount.Mul(mod.Factor), nil
	default:
		return amount, fmt.Errorf("modifier %s: unknown kind %q", mod.Key, mod.Kind)
	}
}

// Price is a base amount plus an ordered list of modifiers. The base is never
// mutated; Inclusive evaluates the modifiers left to right.
type Price struct {
	base      Money
	modifiers []Modifier
	rounding  RoundingMode
	places    int32
}

// NewPrice wraps a base amount with the default rounding policy (ceiling, two places).
func NewPrice(base Money) Price {
	return Price{base: base, rounding: RoundCeiling, places: constants.CurrencyPlaces}
}

// WithRounding returns a copy using a different rounding mode.
func (p Price) WithRounding(mode RoundingMode) Price {
	p.modifiers = append([]Modifier(nil), p.modifiers...)
	p.rounding = mode
	return p
}

// With returns a copy with mod appended.
func (p Price) With(mod Modifier) Price {
	mods := make([]Modifier, 0, len(p.modifiers)+1)
	mods = append(mods, p.modifiers...)
	p.modifiers = append(mods, mod)
	return p
}

// Base returns the unmodified amount.
func (p Price) Base() Money {
	return p.base
}

// Modifiers returns a copy of the modifiers in application order.
func (p Price) Modifiers() []Modifier {
	return append([]Modifier(nil), p.modifiers...)
}

// Inclusive returns the base with every modifier applied, rounded with the
// price's rounding policy.
func (p Price) Inclusive() (Money, error) {
	amount := p.base.Amount()
	for _, mod := range p.modifiers {
		var err error
		if amount, err = mod.apply(amount); err != nil {
			return Money{}, err
		}
	}
	return New(p.rounding.Apply(amount, p.places), p.base.Currency()), nil
}

// MustInclusive is Inclusive for prices built only from known modifier kinds.
func (p Price) MustInclusive() Money {
	m, err := p.Inclusive()
	if err != nil {
		panic(err)
	}
	return m
}
