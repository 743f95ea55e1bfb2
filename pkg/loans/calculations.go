// Package loans provides common loan processing utilities.
package loans

import (
	"fmt"
	"math"

	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/mathutil"
	"go.uber.org/zap"
)

// Payment holds the values for a given payment.
type Payment struct {
	Month              int
	Payment            float64
	Principal          float64
	Interest           float64
	ExtraPrincipal     float64
	RemainingPrincipal float64
}

// MonthlyRate converts an annual rate expressed as a fraction (0.0625) into
// the periodic monthly rate.
func MonthlyRate(annualInterestRate float64) float64 {
	return annualInterestRate / constants.MonthsPerYear
}

// IsZeroRate reports whether a periodic rate is small enough to be treated as
// interest free.
func IsZeroRate(periodicRate float64) bool {
	return math.Abs(periodicRate) < constants.RateTolerance
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the
// standard amortization formula. The annual rate is a fraction. A
// non-positive term makes the whole principal due at once.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return principal
	}

	periodicInterestRate := MonthlyRate(annualInterestRate)
	if IsZeroRate(periodicInterestRate) {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	return principal * periodicInterestRate * power / (power - 1.00)
}

// PresentValueFactor returns the ordinary annuity factor
// (1 - (1+r)^-n) / r, or n when the rate is zero.
func PresentValueFactor(annualInterestRate float64, termMonths int) float64 {
	if termMonths <= 0 {
		return 0
	}

	periodicInterestRate := MonthlyRate(annualInterestRate)
	if IsZeroRate(periodicInterestRate) {
		return float64(termMonths)
	}
	return (1 - math.Pow(1+periodicInterestRate, -float64(termMonths))) / periodicInterestRate
}

// PresentValue discounts a level monthly payment over the term.
func PresentValue(payment, annualInterestRate float64, termMonths int) float64 {
	return payment * PresentValueFactor(annualInterestRate, termMonths)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * MonthlyRate(annualInterestRate)
}

// LoanConfig represents the parameters of a month-by-month amortization run.
type LoanConfig struct {
	Name           string
	Principal      float64
	InterestRate   float64 // annual, as a fraction
	TermMonths     int
	MonthlyPayment float64 // derived from the other fields when zero
	ExtraPayment   float64 // applied to principal every month
}

// Summary aggregates an amortization run.
type Summary struct {
	Months        int
	TotalInterest float64
	TotalPaid     float64
	Balance       float64
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule runs the loan month by month until the balance reaches
// zero or the term (never more than constants.MaxIterations months) elapses.
func (g *AmortizationScheduleGenerator) GenerateSchedule(loan LoanConfig) ([]Payment, error) {
	if loan.Principal < 0 {
		return nil, fmt.Errorf("loan %s: principal cannot be negative", loan.Name)
	}
	if loan.TermMonths <= 0 {
		return nil, fmt.Errorf("loan %s: term must be positive, got %d", loan.Name, loan.TermMonths)
	}

	monthlyPayment := loan.MonthlyPayment
	if monthlyPayment == 0 {
		monthlyPayment = CalculateMonthlyPayment(loan.Principal, loan.InterestRate, loan.TermMonths)
	}

	limit := loan.TermMonths
	if limit > constants.MaxIterations {
		limit = constants.MaxIterations
	}

	schedule := make([]Payment, 0, limit)
	balance := loan.Principal
	for month := 1; month <= limit && mathutil.IsPositive(balance); month++ {
		var current Payment
		current.Month = month
		current.Interest = CalculateInterestPayment(balance, loan.InterestRate)
		current.Principal = math.Min(monthlyPayment-current.Interest, balance)
		if current.Principal < 0 {
			current.Principal = 0
		}

		current.ExtraPrincipal = CalculateExtraPrincipalWithOverpaymentPrevention(
			g.logger, loan.ExtraPayment, balance-current.Principal, month, loan.Name)

		current.Payment = current.Interest + current.Principal + current.ExtraPrincipal
		balance -= current.Principal + current.ExtraPrincipal
		if !mathutil.IsPositive(balance) {
			// We will get machine error otherwise so just set to 0.
			balance = 0
		}
		current.RemainingPrincipal = balance
		schedule = append(schedule, current)
	}

	g.logger.Debug(fmt.Sprintf("generated %d payments for loan %s", len(schedule), loan.Name),
		zap.String("op", "loans.GenerateSchedule"),
		zap.Float64("balance", balance),
	)
	return schedule, nil
}

// Summarize totals a schedule.
func Summarize(schedule []Payment) Summary {
	var summary Summary
	summary.Months = len(schedule)
	for _, payment := range schedule {
		summary.TotalInterest += payment.Interest
		summary.TotalPaid += payment.Payment
	}
	if len(schedule) > 0 {
		summary.Balance = schedule[len(schedule)-1].RemainingPrincipal
	}
	return summary
}

// CalculateExtraPrincipalWithOverpaymentPrevention caps an extra principal
// payment at the balance that remains after the scheduled principal.
func CalculateExtraPrincipalWithOverpaymentPrevention(
	logger *zap.Logger, extra, remainingBalance float64, month int, loanName string,
) float64 {
	if extra <= 0 {
		return 0
	}
	if remainingBalance <= 0 {
		return 0
	}

	// Prevent overpayment by capping extra payment to current balance
	if extra > remainingBalance {
		logger.Debug("Capping extra principal payment to prevent overpayment",
			zap.Int("month", month),
			zap.String("loan", loanName),
			zap.Float64("requested", extra),
			zap.Float64("capped_to_balance", remainingBalance))
		return remainingBalance
	}

	return extra
}
