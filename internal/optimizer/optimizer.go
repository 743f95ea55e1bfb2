// Package optimizer searches order terms for the cheapest combination that
// still qualifies for a loan.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/internal/mortgage/computation"
	"github.com/iwvelando/homeloan/pkg/format"
	"github.com/iwvelando/homeloan/pkg/mathutil"
	"github.com/iwvelando/homeloan/pkg/optimization"
	"go.uber.org/zap"
)

// Down payments are searched in whole percents.
const (
	DefaultMinimum = 0.0
	DefaultMaximum = 0.9
	step           = 100
)

// ErrInvalidBounds is returned when a search range is empty or outside [0, 1).
var ErrInvalidBounds = errors.New("invalid optimizer bounds")

// Bounds limits the down payment fractions the search may propose. A zero
// value searches DefaultMinimum to DefaultMaximum.
type Bounds struct {
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

// Runner evaluates candidate orders through the particulars factory and a
// computation runner. It holds no per-search state and is safe to share.
type Runner struct {
	logger  *zap.Logger
	factory *mortgage.Factory
	runner  *computation.Runner
}

type evaluation struct {
	value        float64
	qualifies    bool
	amortization float64
	disposable   float64
}

func (e evaluation) headroom() float64 {
	return mathutil.Round(e.disposable - e.amortization)
}

// NewRunner returns an optimizer over factory. A nil runner uses the
// built-in calculators.
func NewRunner(logger *zap.Logger, factory *mortgage.Factory, runner *computation.Runner) (*Runner, error) {
	if factory == nil {
		return nil, errors.New("optimizer requires a particulars factory")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = computation.NewRunner(nil, logger)
	}
	return &Runner{logger: logger, factory: factory, runner: runner}, nil
}

// MinimumDownPayment finds the smallest whole percent down payment within
// bounds for which in qualifies. When even the maximum does not qualify the
// summary reports the maximum with Converged false.
func (r *Runner) MinimumDownPayment(in mortgage.Inputs, bounds Bounds) (optimization.Summary, error) {
	lo, hi, err := steps(bounds)
	if err != nil {
		return optimization.Summary{}, err
	}

	original := 0.0
	if in.PercentDownPayment != nil {
		original = *in.PercentDownPayment
	}
	summary := optimization.Summary{
		LendingInstitution: in.LendingInstitution,
		Field:              optimization.FieldPercentDownPayment,
		Original:           original,
		OriginalDisplay:    format.Percent(original),
		Minimum:            float64(lo) / step,
		Maximum:            float64(hi) / step,
	}

	upper, err := r.evaluate(in, hi)
	if err != nil {
		return optimization.Summary{}, err
	}
	if !upper.qualifies {
		summary.Notes = append(summary.Notes, fmt.Sprintf(
			"unable to qualify within bounds %s to %s",
			format.Percent(summary.Minimum),
			format.Percent(summary.Maximum),
		))
		return finish(summary, upper, 0, false), nil
	}

	lower, err := r.evaluate(in, lo)
	if err != nil {
		return optimization.Summary{}, err
	}
	if lower.qualifies {
		return finish(summary, lower, 0, true), nil
	}

	// lo never qualifies and hi always does.
	best := upper
	iterations := 0
	for hi-lo > 1 {
		iterations++
		mid := lo + (hi-lo)/2
		e, err := r.evaluate(in, mid)
		if err != nil {
			return optimization.Summary{}, err
		}
		if e.qualifies {
			hi, best = mid, e
		} else {
			lo = mid
		}
	}

	r.logger.Debug("down payment search converged",
		zap.String("op", "optimizer.MinimumDownPayment"),
		zap.String("institution", in.LendingInstitution),
		zap.Float64("value", best.value),
		zap.Int("iterations", iterations),
	)
	return finish(summary, best, iterations, true), nil
}

func finish(s optimization.Summary, e evaluation, iterations int, converged bool) optimization.Summary {
	s.Value = e.value
	s.ValueDisplay = format.Percent(e.value)
	s.MonthlyAmortization = e.amortization
	s.MonthlyDisposableIncome = e.disposable
	s.Headroom = e.headroom()
	s.Iterations = iterations
	s.Converged = converged
	return s
}

func (r *Runner) evaluate(in mortgage.Inputs, percent int) (evaluation, error) {
	value := float64(percent) / step
	in.PercentDownPayment = &value
	p, err := r.factory.Make(in)
	if err != nil {
		return evaluation{}, fmt.Errorf("failed to build particulars at %s: %w", format.Percent(value), err)
	}
	d, err := r.runner.Run(p)
	if err != nil {
		return evaluation{}, fmt.Errorf("failed to compute at %s: %w", format.Percent(value), err)
	}
	return evaluation{
		value:        value,
		qualifies:    d.Qualifies,
		amortization: d.MonthlyAmortization.Total.Amount().InexactFloat64(),
		disposable:   d.MonthlyDisposableIncome.Amount().InexactFloat64(),
	}, nil
}

func steps(b Bounds) (int, int, error) {
	if b.Minimum == 0 && b.Maximum == 0 {
		b.Maximum = DefaultMaximum
	}
	if b.Minimum < 0 || b.Maximum >= 1 || b.Minimum > b.Maximum {
		return 0, 0, fmt.Errorf("%w: %v to %v", ErrInvalidBounds, b.Minimum, b.Maximum)
	}
	return int(math.Ceil(b.Minimum*step - 1e-9)), int(math.Floor(b.Maximum*step + 1e-9)), nil
}
