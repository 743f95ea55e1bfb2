package calculator

import (
	"fmt"

	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/internal/mortgage/extractor"
	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/money"
	"github.com/shopspring/decimal"
)

type miscellaneousFee struct{}

// Full returns TCP x percent miscellaneous fees.
func (miscellaneousFee) Full(p mortgage.Particulars) (money.Money, error) {
	tcp, err := totalContractPrice(p)
	if err != nil {
		return money.Money{}, err
	}
	percent := extractor.PercentMiscellaneousFees.ExtractOr(p, money.ZeroPercent)
	return tcp.MulPercent(percent).Round(p.Rounding(), constants.CurrencyPlaces), nil
}

// Partial returns the share of the full fee collected upfront. Government
// institutions collect none of it. Banks collect it in proportion to the
// down payment, or in full when their fee rule does not split it.
func (c miscellaneousFee) Partial(p mortgage.Particulars) (money.Money, error) {
	full, err := c.Full(p)
	if err != nil {
		return money.Money{}, err
	}

	multiplier := percentDownPayment(p)
	if li, ok := extractor.LendingInstitution.Extract(p); ok {
		switch {
		case li.IsGovernment():
			multiplier = money.ZeroPercent
		case !li.MiscellaneousFeeApplies():
			multiplier = money.FullPercent
		}
	}
	return full.MulPercent(multiplier).Round(p.Rounding(), constants.CurrencyPlaces), nil
}

type fees struct{}

var monthsPerYear = decimal.NewFromInt(constants.MonthsPerYear)

// Calculate sums the monthly add-on fees the order opted into. A fixed
// amount on the order wins; otherwise the fee is TCP x annual rate / 12,
// with the institution's rate taking precedence over the configured rule.
func (fees) Calculate(p mortgage.Particulars) (money.Money, error) {
	total := money.Zero(p.Currency())
	opted := p.Order().OptedFees()
	if len(opted) == 0 {
		return total, nil
	}

	tcp, err := totalContractPrice(p)
	if err != nil {
		return money.Money{}, err
	}
	li, hasInstitution := extractor.LendingInstitution.Extract(p)

	for _, kind := range opted {
		monthly, ok := p.Order().MonthlyFee(kind)
		if !ok {
			rule, hasRule := p.FeeRule(kind)
			rate := rule.AnnualRate
			if hasInstitution {
				if override, ok := li.FeeRate(kind); ok {
					rate, hasRule = override, true
				}
			}
			if !hasRule {
				return money.Money{}, fmt.Errorf("%w: %s", ErrUnknownFee, kind)
			}
			if monthly, err = tcp.Mul(decimal.NewFromFloat(rate)).Div(monthsPerYear); err != nil {
				return money.Money{}, err
			}
		}
		if total, err = total.Add(monthly.RoundCentavos()); err != nil {
			return money.Money{}, fmt.Errorf("fee %s: %w", kind, err)
		}
	}
	return total, nil
}
