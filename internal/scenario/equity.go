package scenario

import (
	"fmt"
	"math"

	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/loans"
	"github.com/iwvelando/homeloan/pkg/mathutil"
	"go.uber.org/zap"
)

// EquityInput describes an owned home and the loan against it. Rates are
// annual fractions; TargetEquityPercent is a percentage such as 20.
type EquityInput struct {
	HomeValue           float64 `json:"home_value"`
	Balance             float64 `json:"balance"`
	InterestRate        float64 `json:"interest_rate"`
	MonthlyPayment      float64 `json:"monthly_payment,omitempty"`
	TermRemainingMonths int     `json:"term_remaining_months"`
	AppreciationRate    float64 `json:"appreciation_rate,omitempty"`
	TargetEquityPercent float64 `json:"target_equity_percent,omitempty"`
}

// EquityProjection is the position at the end of a year.
type EquityProjection struct {
	Year          int     `json:"year"`
	HomeValue     float64 `json:"home_value"`
	Balance       float64 `json:"balance"`
	Equity        float64 `json:"equity"`
	EquityPercent float64 `json:"equity_percent"`
}

// EquityResult holds today's equity and its yearly projection.
type EquityResult struct {
	CurrentEquity        float64            `json:"current_equity"`
	CurrentEquityPercent float64            `json:"current_equity_percent"`
	Projections          []EquityProjection `json:"projections"`
	// MonthsToTarget is -1 when the target is not reached within
	// constants.MaxIterations months.
	MonthsToTarget int `json:"months_to_target"`
}

type equityState struct {
	homeValue float64
	balance   float64
}

func (s equityState) equity() float64 { return s.homeValue - s.balance }

func (s equityState) percent() float64 {
	return mathutil.CalculatePercentage(s.equity(), s.homeValue)
}

// step advances one month of loan paydown and home appreciation.
func (s equityState) step(payment, rate, appreciation float64) equityState {
	if mathutil.IsPositive(s.balance) {
		interest := loans.CalculateInterestPayment(s.balance, rate)
		principal := math.Min(math.Max(payment-interest, 0), s.balance)
		s.balance -= principal
		if !mathutil.IsPositive(s.balance) {
			s.balance = 0
		}
	}
	s.homeValue *= 1 + loans.MonthlyRate(appreciation)
	return s
}

// CalculateEquity projects equity for min(10, ceil(term/12)) years and
// searches for the month the target equity percent is first reached.
func CalculateEquity(logger *zap.Logger, in EquityInput) (EquityResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if in.HomeValue <= 0 {
		return EquityResult{}, fmt.Errorf("%w: home value must be positive", ErrInvalidInput)
	}

	payment := in.MonthlyPayment
	if payment <= 0 {
		payment = loans.CalculateMonthlyPayment(in.Balance, in.InterestRate, in.TermRemainingMonths)
	}

	start := equityState{homeValue: in.HomeValue, balance: in.Balance}
	result := EquityResult{
		CurrentEquity:        mathutil.Round(start.equity()),
		CurrentEquityPercent: mathutil.Round(start.percent()),
		MonthsToTarget:       -1,
	}

	years := int(math.Ceil(float64(in.TermRemainingMonths) / constants.MonthsPerYear))
	if years > constants.MaxProjectionYears {
		years = constants.MaxProjectionYears
	}

	state := start
	for year := 1; year <= years; year++ {
		for month := 0; month < constants.MonthsPerYear; month++ {
			state = state.step(payment, in.InterestRate, in.AppreciationRate)
		}
		result.Projections = append(result.Projections, EquityProjection{
			Year:          year,
			HomeValue:     mathutil.Round(state.homeValue),
			Balance:       mathutil.Round(state.balance),
			Equity:        mathutil.Round(state.equity()),
			EquityPercent: mathutil.Round(state.percent()),
		})
	}

	state = start
	for month := 0; month <= constants.MaxIterations; month++ {
		if state.percent() >= in.TargetEquityPercent {
			result.MonthsToTarget = month
			break
		}
		state = state.step(payment, in.InterestRate, in.AppreciationRate)
	}

	logger.Debug(fmt.Sprintf("projected equity over %d years", years),
		zap.String("op", "scenario.CalculateEquity"),
		zap.Int("months_to_target", result.MonthsToTarget),
	)
	return result, nil
}
