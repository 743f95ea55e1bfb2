package mortgage

import (
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/pkg/datetime"
	"github.com/iwvelando/homeloan/pkg/money"
	"go.uber.org/zap"
)

// CoBorrowerInput describes one co-borrower.
type CoBorrowerInput struct {
	Age                int     `json:"age"`
	GrossMonthlyIncome float64 `json:"gross_monthly_income"`
}

// IncomeSource is a named amount folded into the buyer's gross income.
type IncomeSource struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Inputs is the flat request a Factory assembles particulars from. Rates and
// percentages are fractions.
type Inputs struct {
	LendingInstitution             string            `json:"lending_institution"`
	TotalContractPrice             float64           `json:"total_contract_price"`
	Age                            int               `json:"age"`
	GrossMonthlyIncome             float64           `json:"gross_monthly_income"`
	CoBorrowers                    []CoBorrowerInput `json:"co_borrowers,omitempty"`
	OtherIncome                    []IncomeSource    `json:"other_income,omitempty"`
	InterestRate                   *float64          `json:"interest_rate,omitempty"`
	PercentDownPayment             *float64          `json:"percent_down_payment,omitempty"`
	PercentMiscellaneousFees       *float64          `json:"percent_miscellaneous_fees,omitempty"`
	ProcessingFee                  *float64          `json:"processing_fee,omitempty"`
	WaivedProcessingFee            *float64          `json:"waived_processing_fee,omitempty"`
	IncomeRequirementMultiplier    *float64          `json:"income_requirement_multiplier,omitempty"`
	AddMortgageRedemptionInsurance bool              `json:"add_mri,omitempty"`
	AddFireInsurance               bool              `json:"add_fi,omitempty"`
	DesiredLoanTerm                *int              `json:"desired_loan_term,omitempty"`
	DownPaymentTerm                *int              `json:"down_payment_term,omitempty"`
	DevelopmentType                string            `json:"development_type,omitempty"`
	AppraisalValue                 *float64          `json:"appraisal_value,omitempty"`
}

// Factory turns flat inputs into Particulars using an injected configuration
// snapshot and reference clock.
type Factory struct {
	conf     config.MortgageConfig
	table    config.InstitutionTable
	currency money.Currency
	rounding money.RoundingMode
	clock    datetime.Clock
	logger   *zap.Logger
}

// NewFactory validates conf and returns a factory. A nil clock uses the
// wall clock; a nil logger discards output.
func NewFactory(conf config.MortgageConfig, clock datetime.Clock, logger *zap.Logger) (*Factory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	currency, err := conf.CurrencyCode()
	if err != nil {
		return nil, err
	}
	rounding, err := conf.Rounding()
	if err != nil {
		return nil, err
	}
	return &Factory{
		conf:     conf,
		table:    conf.InstitutionTable(),
		currency: currency,
		rounding: rounding,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Config returns the snapshot the factory was built with.
func (f *Factory) Config() config.MortgageConfig {
	return f.conf
}

// Institution resolves an institution from the factory's table.
func (f *Factory) Institution(code string) (LendingInstitution, error) {
	return NewLendingInstitution(code, f.table)
}

func (f *Factory) amount(name string, v float64) (money.Money, error) {
	m, err := money.NonNegative(v, f.currency)
	if err != nil {
		return money.Money{}, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

func percentInput(name string, v float64) (money.Percent, error) {
	p, err := money.PercentOfFraction(v)
	if err != nil {
		return money.Percent{}, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

// Make assembles particulars from in. The institution is bound to the
// property; rate, down payment, fee and term overrides go on the order and
// the income multiplier override on the buyer.
func (f *Factory) Make(in Inputs) (Particulars, error) {
	li, err := f.Institution(in.LendingInstitution)
	if err != nil {
		return Particulars{}, err
	}

	limits := AgeLimits{Minimum: f.conf.Defaults.MinimumBorrowingAge, Maximum: f.conf.Defaults.MaximumBorrowingAge}

	buyerBuilder := NewBuyerBuilder(limits, f.clock).Age(in.Age)
	gmi, err := f.amount("gross monthly income", in.GrossMonthlyIncome)
	if err != nil {
		return Particulars{}, err
	}
	buyerBuilder.GrossMonthlyIncome(gmi)

	for _, source := range in.OtherIncome {
		amount, err := f.amount("other income "+source.Name, source.Amount)
		if err != nil {
			return Particulars{}, err
		}
		buyerBuilder.OtherIncome(source.Name, amount)
	}

	oldest := datetime.BirthdateForAge(in.Age, f.clock())
	for i, co := range in.CoBorrowers {
		income, err := f.amount(fmt.Sprintf("co-borrower %d income", i+1), co.GrossMonthlyIncome)
		if err != nil {
			return Particulars{}, err
		}
		coBorrower, err := NewBuyerBuilder(limits, f.clock).
			Age(co.Age).
			GrossMonthlyIncome(income).
			Build()
		if err != nil {
			return Particulars{}, fmt.Errorf("co-borrower %d: %w", i+1, err)
		}
		buyerBuilder.CoBorrower(coBorrower)
		oldest = datetime.OldestBirthdate(oldest, coBorrower.Birthdate())
	}

	if in.IncomeRequirementMultiplier != nil {
		m, err := percentInput("income requirement multiplier", *in.IncomeRequirementMultiplier)
		if err != nil {
			return Particulars{}, err
		}
		buyerBuilder.IncomeRequirementMultiplier(m)
	}

	if in.DesiredLoanTerm != nil {
		// Solve the term formula for the paying age that yields exactly the
		// desired term.
		oldestAge := datetime.AgeInYears(oldest, f.clock())
		buyerBuilder.MaximumPayingAge(int(math.Ceil(oldestAge)) + *in.DesiredLoanTerm - li.BorrowingAgeOffset())
	}

	buyer, err := buyerBuilder.Build()
	if err != nil {
		return Particulars{}, err
	}

	tcp, err := f.amount("total contract price", in.TotalContractPrice)
	if err != nil {
		return Particulars{}, err
	}
	developmentType := in.DevelopmentType
	if developmentType == "" {
		developmentType = f.conf.Defaults.DevelopmentType
	}
	propertyBuilder := NewPropertyBuilder(tcp, f.conf.MarketSegments).
		DevelopmentType(developmentType).
		LendingInstitution(li)
	if in.AppraisalValue != nil {
		appraisal, err := f.amount("appraisal value", *in.AppraisalValue)
		if err != nil {
			return Particulars{}, err
		}
		propertyBuilder.AppraisalValue(appraisal)
	}
	property, err := propertyBuilder.Build()
	if err != nil {
		return Particulars{}, err
	}

	var opts []OrderOption
	if in.InterestRate != nil {
		rate, err := percentInput("interest rate", *in.InterestRate)
		if err != nil {
			return Particulars{}, err
		}
		opts = append(opts, WithInterestRate(rate))
	}
	if in.PercentDownPayment != nil {
		dp, err := percentInput("percent down payment", *in.PercentDownPayment)
		if err != nil {
			return Particulars{}, err
		}
		opts = append(opts, WithPercentDownPayment(dp))
	}
	if in.PercentMiscellaneousFees != nil {
		mf, err := percentInput("percent miscellaneous fees", *in.PercentMiscellaneousFees)
		if err != nil {
			return Particulars{}, err
		}
		opts = append(opts, WithPercentMiscellaneousFees(mf))
	}
	if in.ProcessingFee != nil {
		fee, err := f.amount("processing fee", *in.ProcessingFee)
		if err != nil {
			return Particulars{}, err
		}
		opts = append(opts, WithProcessingFee(fee))
	}
	if in.WaivedProcessingFee != nil {
		fee, err := f.amount("waived processing fee", *in.WaivedProcessingFee)
		if err != nil {
			return Particulars{}, err
		}
		opts = append(opts, WithWaivedProcessingFee(fee))
	}
	if in.DownPaymentTerm != nil {
		opts = append(opts, WithDownPaymentTerm(*in.DownPaymentTerm))
	}
	if in.AddMortgageRedemptionInsurance {
		opts = append(opts, WithFee(config.FeeMortgageRedemptionInsurance))
	}
	if in.AddFireInsurance {
		opts = append(opts, WithFee(config.FeeFireInsurance))
	}

	f.logger.Debug("assembled mortgage particulars",
		zap.String("op", "mortgage.Factory.Make"),
		zap.String("institution", li.Code()),
		zap.Int("age", in.Age),
		zap.Int("co_borrowers", len(in.CoBorrowers)),
	)

	return NewParticulars(buyer, property, NewOrder(opts...), f.conf.Fees).WithRounding(f.rounding), nil
}
