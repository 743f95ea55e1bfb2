package calculator

import (
	"fmt"

	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/internal/mortgage/extractor"
	"github.com/iwvelando/homeloan/pkg/money"
)

func institution(p mortgage.Particulars) (mortgage.LendingInstitution, error) {
	li, ok := extractor.LendingInstitution.Extract(p)
	if !ok {
		return mortgage.LendingInstitution{}, ErrMissingInstitution
	}
	return li, nil
}

func totalContractPrice(p mortgage.Particulars) (money.Money, error) {
	price, _ := extractor.TotalContractPrice.Extract(p)
	tcp, err := price.Inclusive()
	if err != nil {
		return money.Money{}, fmt.Errorf("total contract price: %w", err)
	}
	return tcp, nil
}

func percentDownPayment(p mortgage.Particulars) money.Percent {
	return extractor.PercentDownPayment.ExtractOr(p, money.ZeroPercent)
}

func interestRate(p mortgage.Particulars) (money.Percent, error) {
	rate, ok := extractor.InterestRate.Extract(p)
	if !ok {
		return money.Percent{}, ErrMissingInterestRate
	}
	return rate, nil
}

func incomeRequirementMultiplier(p mortgage.Particulars) (money.Percent, error) {
	m, ok := extractor.IncomeRequirementMultiplier.Extract(p)
	if !ok || m.IsZero() {
		return money.Percent{}, ErrMissingMultiplier
	}
	return m, nil
}

func amount(r *Registry, t Type, p mortgage.Particulars) (money.Money, error) {
	c, err := Resolve[AmountCalculator](r, t)
	if err != nil {
		return money.Money{}, err
	}
	return c.Calculate(p)
}

func term(r *Registry, p mortgage.Particulars) (int, error) {
	c, err := Resolve[TermCalculator](r, BalancePaymentTerm)
	if err != nil {
		return 0, err
	}
	return c.Calculate(p)
}

func amortization(r *Registry, p mortgage.Particulars) (Amortization, error) {
	c, err := Resolve[AmortizationCalculator](r, MonthlyAmortization)
	if err != nil {
		return Amortization{}, err
	}
	return c.Calculate(p)
}

func miscFees(r *Registry) (MiscFeeCalculator, error) {
	return Resolve[MiscFeeCalculator](r, MiscellaneousFee)
}
