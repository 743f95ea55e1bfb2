package calculator

import (
	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/money"
	"github.com/shopspring/decimal"
)

var negligibleGap = decimal.NewFromFloat(constants.NegligibleEquityGap)

type requiredPercentDownPayment struct {
	r *Registry
}

// Calculate suggests the smallest whole-percent down payment that closes the
// equity gap. The gap is measured at zero down payment as a share of TCP and
// rounded up; gaps under 1% need no down payment. The suggestion is never
// below the current down payment and never above 100%.
func (c requiredPercentDownPayment) Calculate(p mortgage.Particulars) (money.Percent, error) {
	current := percentDownPayment(p)

	tcp, err := totalContractPrice(p)
	if err != nil {
		return money.Percent{}, err
	}
	if !tcp.IsPositive() {
		return current, nil
	}

	zeroDown := p.WithOrder(p.Order().With(mortgage.WithPercentDownPayment(money.ZeroPercent)))
	gap, err := amount(c.r, Equity, zeroDown)
	if err != nil {
		return money.Percent{}, err
	}

	ratio := gap.Amount().DivRound(tcp.Amount(), 16)
	suggested := money.ZeroPercent
	if ratio.GreaterThanOrEqual(negligibleGap) {
		whole := ratio.Shift(2).Ceil().Shift(-2)
		if whole.GreaterThan(decimal.NewFromInt(1)) {
			whole = decimal.NewFromInt(1)
		}
		if suggested, err = money.PercentFromDecimal(whole); err != nil {
			return money.Percent{}, err
		}
	}

	return money.MinPercent(money.FullPercent, money.MaxPercent(suggested, current)), nil
}
