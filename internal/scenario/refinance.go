package scenario

import (
	"fmt"
	"math"

	"github.com/iwvelando/homeloan/pkg/loans"
	"github.com/iwvelando/homeloan/pkg/mathutil"
	"go.uber.org/zap"
)

// Refinance recommendations.
const (
	Recommended    = "recommended"
	NotRecommended = "not_recommended"
	Caution        = "caution"
)

// RefinanceInput describes the current loan and the offer replacing it.
type RefinanceInput struct {
	CurrentBalance             float64 `json:"current_balance"`
	CurrentRate                float64 `json:"current_rate"`
	CurrentMonthlyPayment      float64 `json:"current_monthly_payment,omitempty"`
	CurrentTermRemainingMonths int     `json:"current_term_remaining_months"`
	NewRate                    float64 `json:"new_rate"`
	NewTermMonths              int     `json:"new_term_months"`
	ClosingCosts               float64 `json:"closing_costs,omitempty"`
}

// RefinanceResult compares keeping the loan with refinancing it.
type RefinanceResult struct {
	CurrentMonthlyPayment float64 `json:"current_monthly_payment"`
	NewMonthlyPayment     float64 `json:"new_monthly_payment"`
	MonthlySavings        float64 `json:"monthly_savings"`
	CurrentTotalInterest  float64 `json:"current_total_interest"`
	NewTotalInterest      float64 `json:"new_total_interest"`
	InterestSavings       float64 `json:"interest_savings"`
	CurrentTotalCost      float64 `json:"current_total_cost"`
	NewTotalCost          float64 `json:"new_total_cost"`
	BreakEvenMonths       int     `json:"break_even_months"`
	Recommendation        string  `json:"recommendation"`
}

// CalculateRefinance prices the new loan on the current balance and reports
// how long the closing costs take to earn back. Refinancing is recommended
// when it saves money monthly and breaks even within a third of the new
// term.
func CalculateRefinance(logger *zap.Logger, in RefinanceInput) (RefinanceResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if in.CurrentTermRemainingMonths <= 0 || in.NewTermMonths <= 0 {
		return RefinanceResult{}, fmt.Errorf("%w: terms must be positive, got current %d and new %d",
			ErrInvalidInput, in.CurrentTermRemainingMonths, in.NewTermMonths)
	}
	if in.CurrentBalance < 0 {
		return RefinanceResult{}, fmt.Errorf("%w: current balance cannot be negative, got %.2f", ErrInvalidInput, in.CurrentBalance)
	}

	currentPayment := in.CurrentMonthlyPayment
	if currentPayment <= 0 {
		currentPayment = loans.CalculateMonthlyPayment(in.CurrentBalance, in.CurrentRate, in.CurrentTermRemainingMonths)
	}
	newPayment := loans.CalculateMonthlyPayment(in.CurrentBalance, in.NewRate, in.NewTermMonths)

	generator := loans.NewAmortizationScheduleGenerator(logger)
	current, err := generator.GenerateSchedule(loans.LoanConfig{
		Name:           "current",
		Principal:      in.CurrentBalance,
		InterestRate:   in.CurrentRate,
		TermMonths:     in.CurrentTermRemainingMonths,
		MonthlyPayment: currentPayment,
	})
	if err != nil {
		return RefinanceResult{}, err
	}
	refinanced, err := generator.GenerateSchedule(loans.LoanConfig{
		Name:           "refinanced",
		Principal:      in.CurrentBalance,
		InterestRate:   in.NewRate,
		TermMonths:     in.NewTermMonths,
		MonthlyPayment: newPayment,
	})
	if err != nil {
		return RefinanceResult{}, err
	}
	cur := loans.Summarize(current)
	ref := loans.Summarize(refinanced)

	savings := mathutil.Round(currentPayment - newPayment)
	result := RefinanceResult{
		CurrentMonthlyPayment: mathutil.Round(currentPayment),
		NewMonthlyPayment:     mathutil.Round(newPayment),
		MonthlySavings:        savings,
		CurrentTotalInterest:  mathutil.Round(cur.TotalInterest),
		NewTotalInterest:      mathutil.Round(ref.TotalInterest),
		InterestSavings:       mathutil.Round(cur.TotalInterest - ref.TotalInterest),
		CurrentTotalCost:      mathutil.Round(cur.TotalPaid),
		NewTotalCost:          mathutil.Round(ref.TotalPaid + in.ClosingCosts),
	}

	switch {
	case !mathutil.IsPositive(savings):
		result.Recommendation = NotRecommended
	default:
		result.BreakEvenMonths = int(math.Ceil(in.ClosingCosts / savings))
		if float64(result.BreakEvenMonths) <= float64(in.NewTermMonths)/3 {
			result.Recommendation = Recommended
		} else {
			result.Recommendation = Caution
		}
	}

	logger.Debug(fmt.Sprintf("refinance is %s", result.Recommendation),
		zap.String("op", "scenario.CalculateRefinance"),
		zap.Int("break_even_months", result.BreakEvenMonths),
		zap.Float64("monthly_savings", result.MonthlySavings),
	)
	return result, nil
}
