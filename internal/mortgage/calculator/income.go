package calculator

import (
	"fmt"
	"math"

	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/pkg/money"
)

type balancePaymentTerm struct{}

// Calculate returns min(floor(maxPayingAge + offset - oldestAge), maximumTerm)
// in years. A buyer's maximum paying age override replaces the
// institution's, and an order's balance payment term caps the result. The
// result may be zero or negative for borrowers past the limits.
func (balancePaymentTerm) Calculate(p mortgage.Particulars) (int, error) {
	li, err := institution(p)
	if err != nil {
		return 0, fmt.Errorf("balance payment term: %w", err)
	}

	maxPayingAge := li.MaximumPayingAge()
	if override, ok := p.Buyer().MaximumPayingAge(); ok {
		maxPayingAge = override
	}

	oldest := p.Buyer().OldestAmongst()
	years := int(math.Floor(float64(maxPayingAge+li.BorrowingAgeOffset()) - oldest.Age()))
	if years > li.MaximumTerm() {
		years = li.MaximumTerm()
	}
	if limit, ok := p.Order().BalancePaymentTerm(); ok && limit < years {
		years = limit
	}
	return years, nil
}

type monthlyDisposableIncome struct{}

// Calculate returns the joint gross monthly income times the income
// requirement multiplier.
func (monthlyDisposableIncome) Calculate(p mortgage.Particulars) (money.Money, error) {
	joint, err := p.Buyer().JointMonthlyIncome()
	if err != nil {
		return money.Money{}, fmt.Errorf("disposable income: %w", err)
	}
	multiplier, err := incomeRequirementMultiplier(p)
	if err != nil {
		return money.Money{}, fmt.Errorf("disposable income: %w", err)
	}
	return joint.MulPercent(multiplier).RoundCentavos(), nil
}

type incomeGap struct {
	r *Registry
}

// Calculate returns max(0, amortization - disposable income). Zero means the
// buyer qualifies.
func (c incomeGap) Calculate(p mortgage.Particulars) (money.Money, error) {
	amort, err := amortization(c.r, p)
	if err != nil {
		return money.Money{}, err
	}
	disposable, err := amount(c.r, MonthlyDisposableIncome, p)
	if err != nil {
		return money.Money{}, err
	}
	gap, err := amort.Total.Sub(disposable)
	if err != nil {
		return money.Money{}, err
	}
	return gap.RoundCentavos().NonNegative(), nil
}

type incomeRequirement struct {
	r *Registry
}

// Calculate returns the gross monthly income needed to carry the
// amortization.
func (c incomeRequirement) Calculate(p mortgage.Particulars) (money.Money, error) {
	amort, err := amortization(c.r, p)
	if err != nil {
		return money.Money{}, err
	}
	multiplier, err := incomeRequirementMultiplier(p)
	if err != nil {
		return money.Money{}, fmt.Errorf("income requirement: %w", err)
	}
	required, err := amort.Total.Div(multiplier.Value())
	if err != nil {
		return money.Money{}, err
	}
	return required.RoundCentavos(), nil
}

type loanQualification struct {
	r *Registry
}

// Calculate reports whether disposable income covers the amortization.
func (c loanQualification) Calculate(p mortgage.Particulars) (bool, error) {
	amort, err := amortization(c.r, p)
	if err != nil {
		return false, err
	}
	disposable, err := amount(c.r, MonthlyDisposableIncome, p)
	if err != nil {
		return false, err
	}
	return disposable.GreaterThanOrEqual(amort.Total), nil
}
