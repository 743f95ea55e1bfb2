// Package calculator implements the mortgage calculator pipeline. Each
// calculator answers one question about a set of particulars and looks its
// dependencies up by Type through a Registry, so any of them can be swapped
// out in tests.
package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/pkg/money"
)

// Errors raised when a prerequisite of a calculation is missing.
var (
	ErrMissingMultiplier   = errors.New("income requirement multiplier is not set")
	ErrMissingInstitution  = errors.New("lending institution is not set")
	ErrMissingInterestRate = errors.New("interest rate is not set")
	ErrUnknownFee          = errors.New("no rule for fee kind")
	ErrUnknownCalculator   = errors.New("unknown calculator")
)

// Type identifies a calculator.
type Type string

const (
	BalancePaymentTerm         Type = "balance_payment_term"
	MonthlyDisposableIncome    Type = "monthly_disposable_income"
	PresentValue               Type = "present_value"
	LoanAmount                 Type = "loan_amount"
	Equity                     Type = "equity"
	MiscellaneousFee           Type = "miscellaneous_fee"
	MonthlyAmortization        Type = "monthly_amortization"
	Fees                       Type = "fees"
	CashOut                    Type = "cash_out"
	IncomeGap                  Type = "income_gap"
	IncomeRequirement          Type = "income_requirement"
	LoanQualification          Type = "loan_qualification"
	RequiredPercentDownPayment Type = "required_percent_down_payment"
)

// TermCalculator yields a whole number of years.
type TermCalculator interface {
	Calculate(p mortgage.Particulars) (int, error)
}

// AmountCalculator yields an amount of money.
type AmountCalculator interface {
	Calculate(p mortgage.Particulars) (money.Money, error)
}

// LoanAmountCalculator also exposes the down-payment-adjusted base.
type LoanAmountCalculator interface {
	AmountCalculator
	Base(p mortgage.Particulars) (money.Money, error)
}

// PercentCalculator yields a ratio.
type PercentCalculator interface {
	Calculate(p mortgage.Particulars) (money.Percent, error)
}

// VerdictCalculator yields a yes/no answer.
type VerdictCalculator interface {
	Calculate(p mortgage.Particulars) (bool, error)
}

// MiscFeeCalculator yields the full miscellaneous fee and the part collected
// upfront.
type MiscFeeCalculator interface {
	Full(p mortgage.Particulars) (money.Money, error)
	Partial(p mortgage.Particulars) (money.Money, error)
}

// AmortizationCalculator yields the monthly amortization.
type AmortizationCalculator interface {
	Calculate(p mortgage.Particulars) (Amortization, error)
}

// CashOutCalculator yields the upfront cash requirement.
type CashOutCalculator interface {
	Calculate(p mortgage.Particulars) (CashOutBreakdown, error)
}

// Factory builds a calculator bound to r.
type Factory func(r *Registry) any

func defaultFactories() map[Type]Factory {
	return map[Type]Factory{
		BalancePaymentTerm:         func(r *Registry) any { return balancePaymentTerm{} },
		MonthlyDisposableIncome:    func(r *Registry) any { return monthlyDisposableIncome{} },
		PresentValue:               func(r *Registry) any { return presentValue{r: r} },
		LoanAmount:                 func(r *Registry) any { return loanAmount{r: r} },
		Equity:                     func(r *Registry) any { return equity{r: r} },
		MiscellaneousFee:           func(r *Registry) any { return miscellaneousFee{} },
		MonthlyAmortization:        func(r *Registry) any { return monthlyAmortization{r: r} },
		Fees:                       func(r *Registry) any { return fees{} },
		CashOut:                    func(r *Registry) any { return cashOut{r: r} },
		IncomeGap:                  func(r *Registry) any { return incomeGap{r: r} },
		IncomeRequirement:          func(r *Registry) any { return incomeRequirement{r: r} },
		LoanQualification:          func(r *Registry) any { return loanQualification{r: r} },
		RequiredPercentDownPayment: func(r *Registry) any { return requiredPercentDownPayment{r: r} },
	}
}

// Registry maps calculator types to factories. Register before sharing a
// registry between goroutines; lookups are read-only.
type Registry struct {
	factories map[Type]Factory
}

// NewRegistry returns a registry holding every built-in calculator.
func NewRegistry() *Registry {
	return &Registry{factories: defaultFactories()}
}

// Register replaces the factory for t.
func (r *Registry) Register(t Type, f Factory) {
	r.factories[t] = f
}

// Types lists registered types in sorted order.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Resolve builds the calculator registered under t and asserts it to C.
func Resolve[C any](r *Registry, t Type) (C, error) {
	var zero C
	factory, ok := r.factories[t]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnknownCalculator, t)
	}
	c, ok := factory(r).(C)
	if !ok {
		return zero, fmt.Errorf("calculator %s does not implement %T", t, (*C)(nil))
	}
	return c, nil
}
