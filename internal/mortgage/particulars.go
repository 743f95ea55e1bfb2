package mortgage

import (
	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/pkg/money"
)

// Particulars bundles everything one computation reads.
type Particulars struct {
	buyer    Buyer
	property Property
	order    Order
	fees     map[string]config.FeeRule
	currency money.Currency
	rounding money.RoundingMode
}

// NewParticulars bundles a buyer, property and order with the fee rules from
// the configuration snapshot.
func NewParticulars(buyer Buyer, property Property, order Order, fees map[string]config.FeeRule) Particulars {
	cp := make(map[string]config.FeeRule, len(fees))
	for kind, rule := range fees {
		cp[kind] = rule
	}
	return Particulars{
		buyer:    buyer,
		property: property,
		order:    order,
		fees:     cp,
		currency: property.tcp.Base().Currency(),
	}
}

// The bundled entities.
func (p Particulars) Buyer() Buyer       { return p.buyer }
func (p Particulars) Property() Property { return p.property }
func (p Particulars) Order() Order       { return p.order }

// Currency is the currency amounts are computed in.
func (p Particulars) Currency() money.Currency { return p.currency }

// FeeRule returns the configured rule for a fee kind.
func (p Particulars) FeeRule(kind string) (config.FeeRule, bool) {
	rule, ok := p.fees[kind]
	return rule, ok
}

// WithOrder returns a copy using a different order.
func (p Particulars) WithOrder(order Order) Particulars {
	p.order = order
	return p
}

// Rounding is the mode used when aggregating fees. Defaults to ceiling.
func (p Particulars) Rounding() money.RoundingMode { return p.rounding }

// WithRounding returns a copy using a different aggregation rounding mode.
func (p Particulars) WithRounding(mode money.RoundingMode) Particulars {
	p.rounding = mode
	return p
}
