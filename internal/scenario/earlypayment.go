package scenario

import (
	"fmt"

	"github.com/iwvelando/homeloan/pkg/loans"
	"github.com/iwvelando/homeloan/pkg/mathutil"
	"go.uber.org/zap"
)

// EarlyPaymentInput describes an outstanding loan and a recurring extra
// principal payment. A zero MonthlyPayment is derived from the balance,
// rate and remaining term.
type EarlyPaymentInput struct {
	Balance             float64 `json:"balance"`
	InterestRate        float64 `json:"interest_rate"`
	MonthlyPayment      float64 `json:"monthly_payment,omitempty"`
	TermRemainingMonths int     `json:"term_remaining_months"`
	ExtraMonthlyPayment float64 `json:"extra_monthly_payment,omitempty"`
}

// EarlyPaymentResult compares paying as scheduled with paying extra.
type EarlyPaymentResult struct {
	MonthlyPayment       float64 `json:"monthly_payment"`
	StandardMonths       int     `json:"standard_months"`
	AcceleratedMonths    int     `json:"accelerated_months"`
	MonthsSaved          int     `json:"months_saved"`
	StandardInterest     float64 `json:"standard_interest"`
	AcceleratedInterest  float64 `json:"accelerated_interest"`
	InterestSaved        float64 `json:"interest_saved"`
	StandardTotalPaid    float64 `json:"standard_total_paid"`
	AcceleratedTotalPaid float64 `json:"accelerated_total_paid"`
	TotalSavings         float64 `json:"total_savings"`
}

// CalculateEarlyPayment runs the loan twice, once as scheduled and once with
// the extra payment, each until the balance is gone or the remaining term
// runs out.
func CalculateEarlyPayment(logger *zap.Logger, in EarlyPaymentInput) (EarlyPaymentResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if in.TermRemainingMonths <= 0 {
		return EarlyPaymentResult{}, fmt.Errorf("%w: term remaining must be positive, got %d", ErrInvalidInput, in.TermRemainingMonths)
	}
	if in.Balance < 0 {
		return EarlyPaymentResult{}, fmt.Errorf("%w: balance cannot be negative, got %.2f", ErrInvalidInput, in.Balance)
	}

	payment := in.MonthlyPayment
	if payment <= 0 {
		payment = loans.CalculateMonthlyPayment(in.Balance, in.InterestRate, in.TermRemainingMonths)
	}

	generator := loans.NewAmortizationScheduleGenerator(logger)
	standard, err := generator.GenerateSchedule(loans.LoanConfig{
		Name:           "standard",
		Principal:      in.Balance,
		InterestRate:   in.InterestRate,
		TermMonths:     in.TermRemainingMonths,
		MonthlyPayment: payment,
	})
	if err != nil {
		return EarlyPaymentResult{}, err
	}
	accelerated, err := generator.GenerateSchedule(loans.LoanConfig{
		Name:           "accelerated",
		Principal:      in.Balance,
		InterestRate:   in.InterestRate,
		TermMonths:     in.TermRemainingMonths,
		MonthlyPayment: payment,
		ExtraPayment:   mathutil.Max(0, in.ExtraMonthlyPayment),
	})
	if err != nil {
		return EarlyPaymentResult{}, err
	}

	std := loans.Summarize(standard)
	acc := loans.Summarize(accelerated)

	result := EarlyPaymentResult{
		MonthlyPayment:       mathutil.Round(payment),
		StandardMonths:       std.Months,
		AcceleratedMonths:    acc.Months,
		MonthsSaved:          std.Months - acc.Months,
		StandardInterest:     mathutil.Round(std.TotalInterest),
		AcceleratedInterest:  mathutil.Round(acc.TotalInterest),
		InterestSaved:        mathutil.Round(std.TotalInterest - acc.TotalInterest),
		StandardTotalPaid:    mathutil.Round(std.TotalPaid),
		AcceleratedTotalPaid: mathutil.Round(acc.TotalPaid),
		TotalSavings:         mathutil.Round(std.TotalPaid - acc.TotalPaid),
	}

	logger.Debug(fmt.Sprintf("early payment saves %d months", result.MonthsSaved),
		zap.String("op", "scenario.CalculateEarlyPayment"),
		zap.Float64("interest_saved", result.InterestSaved),
	)
	return result, nil
}
