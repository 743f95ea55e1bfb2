// Package scenario holds the what-if calculators that sit beside the
// mortgage engine: affordability, early payment, equity projection and
// refinance. They work on plain float64 inputs rounded to centavos and never
// run more than constants.MaxIterations months.
package scenario

import (
	"errors"
	"fmt"

	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/loans"
	"github.com/iwvelando/homeloan/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvalidInput is returned when an input makes the scenario meaningless.
var ErrInvalidInput = errors.New("invalid scenario input")

// AffordabilityInput describes a buyer shopping for a price range.
type AffordabilityInput struct {
	GrossMonthlyIncome float64 `json:"gross_monthly_income"`
	MonthlyDebts       float64 `json:"monthly_debts,omitempty"`
	InterestRate       float64 `json:"interest_rate"`
	TermYears          int     `json:"term_years"`
	PercentDownPayment float64 `json:"percent_down_payment,omitempty"`
}

// AffordabilityResult is the price range a buyer can carry.
type AffordabilityResult struct {
	MaxMonthlyPayment      float64 `json:"max_monthly_payment"`
	MaxLoanAmount          float64 `json:"max_loan_amount"`
	MaxHomePrice           float64 `json:"max_home_price"`
	RecommendedDownPayment float64 `json:"recommended_down_payment"`
	DebtToIncomeRatio      float64 `json:"debt_to_income_ratio"`
}

// CalculateAffordability caps housing plus existing debts at 33% of gross
// income, discounts the remaining payment over the term and grosses the loan
// back up by the down payment share to get the most expensive home the buyer
// can afford.
func CalculateAffordability(logger *zap.Logger, in AffordabilityInput) (AffordabilityResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if in.PercentDownPayment < 0 || in.PercentDownPayment >= 1 {
		return AffordabilityResult{}, fmt.Errorf("%w: percent down payment %.4f must be in [0, 1)", ErrInvalidInput, in.PercentDownPayment)
	}

	var result AffordabilityResult
	ceiling := mathutil.ApplyPercentage(in.GrossMonthlyIncome, constants.DebtToIncomeCeiling)
	result.MaxMonthlyPayment = mathutil.Round(mathutil.Max(0, ceiling-in.MonthlyDebts))

	maxLoan := loans.PresentValue(result.MaxMonthlyPayment, in.InterestRate, in.TermYears*constants.MonthsPerYear)
	result.MaxLoanAmount = mathutil.Round(maxLoan)

	maxPrice := maxLoan / (1 - in.PercentDownPayment)
	result.MaxHomePrice = mathutil.Round(maxPrice)
	result.RecommendedDownPayment = mathutil.Round(maxPrice * in.PercentDownPayment)
	result.DebtToIncomeRatio = mathutil.Round(mathutil.CalculatePercentage(in.MonthlyDebts, in.GrossMonthlyIncome))

	logger.Debug("calculated affordability",
		zap.String("op", "scenario.CalculateAffordability"),
		zap.Float64("max_payment", result.MaxMonthlyPayment),
		zap.Float64("max_price", result.MaxHomePrice),
	)
	return result, nil
}
