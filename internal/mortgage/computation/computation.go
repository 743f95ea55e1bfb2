// Package computation runs the full calculator pipeline and assembles one
// immutable result snapshot.
package computation

import (
	"fmt"
	"time"

	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/internal/mortgage/calculator"
	"github.com/iwvelando/homeloan/internal/mortgage/extractor"
	"github.com/iwvelando/homeloan/pkg/money"
	"go.uber.org/zap"
)

// Reasons attached to a result.
const (
	ReasonSufficient   = "Sufficient disposable income"
	ReasonInsufficient = "Insufficient disposable income"
)

// Data is the result of one computation. Fields are read-only by convention;
// the snapshot is never modified after FromParticulars returns it.
type Data struct {
	LendingInstitution          string
	InterestRate                money.Percent
	PercentDownPayment          money.Percent
	PercentMiscellaneousFees    money.Percent
	IncomeRequirementMultiplier money.Percent
	BalancePaymentTerm          int
	MonthlyDisposableIncome     money.Money
	PresentValue                money.Money
	TotalContractPrice          money.Money
	LoanableBase                money.Money
	LoanAmount                  money.Money
	LoanableValue               money.Money
	RequiredEquity              money.Money
	MonthlyAmortization         calculator.Amortization
	FullMiscellaneousFee        money.Money
	PartialMiscellaneousFee     money.Money
	AddOnFees                   money.Money
	DownPayment                 money.Money
	ProcessingFee               money.Money
	CashOut                     calculator.CashOutBreakdown
	IncomeGap                   money.Money
	PercentDownPaymentRemedy    money.Percent
	RequiredIncome              money.Money
	Qualifies                   bool
	Reason                      string
}

// Runner runs computations against a calculator registry.
type Runner struct {
	registry *calculator.Registry
	logger   *zap.Logger
}

// NewRunner returns a runner. A nil registry uses the built-in calculators
// and a nil logger discards output.
func NewRunner(registry *calculator.Registry, logger *zap.Logger) *Runner {
	if registry == nil {
		registry = calculator.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{registry: registry, logger: logger}
}

var defaultRunner = NewRunner(nil, nil)

// FromParticulars runs the built-in pipeline over p.
func FromParticulars(p mortgage.Particulars) (*Data, error) {
	return defaultRunner.Run(p)
}

type step struct {
	name string
	run  func() error
}

// Run executes the pipeline in dependency order and returns the snapshot.
// The first calculator error is returned unchanged in meaning, wrapped with
// the failing step.
func (r *Runner) Run(p mortgage.Particulars) (*Data, error) {
	start := time.Now()
	d := &Data{}

	li, ok := extractor.LendingInstitution.Extract(p)
	if !ok {
		return nil, calculator.ErrMissingInstitution
	}
	d.LendingInstitution = li.Code()
	d.PercentDownPayment = extractor.PercentDownPayment.ExtractOr(p, money.ZeroPercent)
	d.PercentMiscellaneousFees = extractor.PercentMiscellaneousFees.ExtractOr(p, money.ZeroPercent)
	d.InterestRate, _ = extractor.InterestRate.Extract(p)
	d.IncomeRequirementMultiplier, _ = extractor.IncomeRequirementMultiplier.Extract(p)

	steps := []step{
		{"balance payment term", func() error {
			c, err := calculator.Resolve[calculator.TermCalculator](r.registry, calculator.BalancePaymentTerm)
			if err != nil {
				return err
			}
			d.BalancePaymentTerm, err = c.Calculate(p)
			return err
		}},
		{"disposable income", r.amount(calculator.MonthlyDisposableIncome, p, &d.MonthlyDisposableIncome)},
		{"present value", r.amount(calculator.PresentValue, p, &d.PresentValue)},
		{"loan amount", func() error {
			c, err := calculator.Resolve[calculator.LoanAmountCalculator](r.registry, calculator.LoanAmount)
			if err != nil {
				return err
			}
			if d.LoanableBase, err = c.Base(p); err != nil {
				return err
			}
			d.LoanAmount, err = c.Calculate(p)
			return err
		}},
		{"equity", r.amount(calculator.Equity, p, &d.RequiredEquity)},
		{"monthly amortization", func() error {
			c, err := calculator.Resolve[calculator.AmortizationCalculator](r.registry, calculator.MonthlyAmortization)
			if err != nil {
				return err
			}
			d.MonthlyAmortization, err = c.Calculate(p)
			return err
		}},
		{"miscellaneous fees", func() error {
			misc, err := calculator.Resolve[calculator.MiscFeeCalculator](r.registry, calculator.MiscellaneousFee)
			if err != nil {
				return err
			}
			if d.FullMiscellaneousFee, err = misc.Full(p); err != nil {
				return err
			}
			d.PartialMiscellaneousFee, err = misc.Partial(p)
			return err
		}},
		{"add-on fees", r.amount(calculator.Fees, p, &d.AddOnFees)},
		{"cash out", func() error {
			c, err := calculator.Resolve[calculator.CashOutCalculator](r.registry, calculator.CashOut)
			if err != nil {
				return err
			}
			if d.CashOut, err = c.Calculate(p); err != nil {
				return err
			}
			d.DownPayment = d.CashOut.DownPayment
			d.ProcessingFee = d.CashOut.ProcessingFee
			return nil
		}},
		{"income gap", r.amount(calculator.IncomeGap, p, &d.IncomeGap)},
		{"required percent down payment", func() error {
			c, err := calculator.Resolve[calculator.PercentCalculator](r.registry, calculator.RequiredPercentDownPayment)
			if err != nil {
				return err
			}
			d.PercentDownPaymentRemedy, err = c.Calculate(p)
			return err
		}},
		{"required income", r.amount(calculator.IncomeRequirement, p, &d.RequiredIncome)},
		{"loan qualification", func() error {
			c, err := calculator.Resolve[calculator.VerdictCalculator](r.registry, calculator.LoanQualification)
			if err != nil {
				return err
			}
			d.Qualifies, err = c.Calculate(p)
			return err
		}},
	}

	for _, s := range steps {
		if err := s.run(); err != nil {
			r.logger.Debug("mortgage computation failed",
				zap.String("op", "computation.Run"),
				zap.String("step", s.name),
				zap.String("institution", d.LendingInstitution),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}

	price, _ := extractor.TotalContractPrice.Extract(p)
	var err error
	if d.TotalContractPrice, err = price.Inclusive(); err != nil {
		return nil, fmt.Errorf("total contract price: %w", err)
	}
	if d.LoanableValue, err = p.Property().LoanableValue(); err != nil {
		return nil, fmt.Errorf("loanable value: %w", err)
	}

	d.Reason = ReasonInsufficient
	if d.Qualifies {
		d.Reason = ReasonSufficient
	}

	r.logger.Debug("mortgage computation complete",
		zap.String("op", "computation.Run"),
		zap.String("institution", d.LendingInstitution),
		zap.Int("term", d.BalancePaymentTerm),
		zap.Bool("qualifies", d.Qualifies),
		zap.Duration("elapsed", time.Since(start)),
	)
	return d, nil
}

func (r *Runner) amount(t calculator.Type, p mortgage.Particulars, dst *money.Money) func() error {
	return func() error {
		c, err := calculator.Resolve[calculator.AmountCalculator](r.registry, t)
		if err != nil {
			return err
		}
		*dst, err = c.Calculate(p)
		return err
	}
}
