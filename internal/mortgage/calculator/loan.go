package calculator

import (
	"fmt"

	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/loans"
	"github.com/iwvelando/homeloan/pkg/money"
	"github.com/shopspring/decimal"
)

type presentValue struct {
	r *Registry
}

// Calculate discounts what is left of the disposable income after add-on
// fees as an ordinary annuity over the balance payment term.
func (c presentValue) Calculate(p mortgage.Particulars) (money.Money, error) {
	disposable, err := amount(c.r, MonthlyDisposableIncome, p)
	if err != nil {
		return money.Money{}, err
	}
	addOns, err := amount(c.r, Fees, p)
	if err != nil {
		return money.Money{}, err
	}
	payment, err := disposable.Sub(addOns)
	if err != nil {
		return money.Money{}, err
	}

	years, err := term(c.r, p)
	if err != nil {
		return money.Money{}, err
	}
	rate, err := interestRate(p)
	if err != nil {
		return money.Money{}, fmt.Errorf("present value: %w", err)
	}

	factor := loans.PresentValueFactor(rate.Float64(), years*constants.MonthsPerYear)
	return payment.NonNegative().Mul(decimal.NewFromFloat(factor)).RoundCentavos(), nil
}

type loanAmount struct {
	r *Registry
}

// Base returns TCP x (1 - percent down payment).
func (c loanAmount) Base(p mortgage.Particulars) (money.Money, error) {
	tcp, err := totalContractPrice(p)
	if err != nil {
		return money.Money{}, err
	}
	return tcp.MulPercent(percentDownPayment(p).Complement()).RoundCentavos(), nil
}

// Calculate adds the full miscellaneous fee to the base.
func (c loanAmount) Calculate(p mortgage.Particulars) (money.Money, error) {
	base, err := c.Base(p)
	if err != nil {
		return money.Money{}, err
	}
	misc, err := miscFees(c.r)
	if err != nil {
		return money.Money{}, err
	}
	full, err := misc.Full(p)
	if err != nil {
		return money.Money{}, err
	}
	return base.Add(full)
}

type equity struct {
	r *Registry
}

// Calculate returns max(0, loan amount - present value), the shortfall the
// buyer's income cannot carry. The result is zero exactly when disposable
// income covers the rounded amortization, and at least one centavo otherwise.
func (c equity) Calculate(p mortgage.Particulars) (money.Money, error) {
	amort, err := amortization(c.r, p)
	if err != nil {
		return money.Money{}, err
	}
	disposable, err := amount(c.r, MonthlyDisposableIncome, p)
	if err != nil {
		return money.Money{}, err
	}
	if disposable.GreaterThanOrEqual(amort.Total) {
		return money.Zero(amort.Total.Currency()), nil
	}

	loan, err := amount(c.r, LoanAmount, p)
	if err != nil {
		return money.Money{}, err
	}
	pv, err := amount(c.r, PresentValue, p)
	if err != nil {
		return money.Money{}, err
	}
	gap, err := loan.Sub(pv)
	if err != nil {
		return money.Money{}, err
	}
	gap = gap.RoundCentavos()
	if !gap.IsPositive() {
		return money.New(oneCentavo, gap.Currency()), nil
	}
	return gap, nil
}

var oneCentavo = decimal.New(1, -2)

// Amortization is the monthly payment split into loan principal and interest
// plus recurring add-on fees.
type Amortization struct {
	Principal money.Money
	AddOns    money.Money
	Total     money.Money
}

type monthlyAmortization struct {
	r *Registry
}

// Calculate amortizes the loan amount over the balance payment term and adds
// the monthly add-on fees.
func (c monthlyAmortization) Calculate(p mortgage.Particulars) (Amortization, error) {
	loan, err := amount(c.r, LoanAmount, p)
	if err != nil {
		return Amortization{}, err
	}
	years, err := term(c.r, p)
	if err != nil {
		return Amortization{}, err
	}
	rate, err := interestRate(p)
	if err != nil {
		return Amortization{}, fmt.Errorf("monthly amortization: %w", err)
	}
	addOns, err := amount(c.r, Fees, p)
	if err != nil {
		return Amortization{}, err
	}

	payment := loans.CalculateMonthlyPayment(loan.Float64(), rate.Float64(), years*constants.MonthsPerYear)
	principal := money.New(decimal.NewFromFloat(payment), loan.Currency()).RoundCentavos()
	total, err := principal.Add(addOns)
	if err != nil {
		return Amortization{}, err
	}
	return Amortization{Principal: principal, AddOns: addOns, Total: total}, nil
}
