// Package validation checks mortgage requests before they reach the engine.
package validation

import (
	"errors"
	"fmt"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/internal/mortgage"
	"go.uber.org/multierr"
)

// ErrInvalidInputs wraps every problem found by ValidateInputs.
var ErrInvalidInputs = errors.New("invalid inputs")

func fractionField(name string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("%w: %s must be between 0 and 1, got %v", ErrInvalidInputs, name, *v)
	}
	return nil
}

func amountField(name string, v *float64) error {
	if v != nil && *v < 0 {
		return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidInputs, name, *v)
	}
	return nil
}

// ValidateInputs reports every malformed field of in at once. Limits that
// depend on the configuration, such as borrowing age, are left to the
// factory.
func ValidateInputs(in mortgage.Inputs) error {
	var err error

	if in.LendingInstitution == "" {
		err = multierr.Append(err, fmt.Errorf("%w: lending institution is required", ErrInvalidInputs))
	}
	if in.TotalContractPrice <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: total contract price must be positive, got %v", ErrInvalidInputs, in.TotalContractPrice))
	}
	if in.Age <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: age must be positive, got %d", ErrInvalidInputs, in.Age))
	}
	err = multierr.Append(err, amountField("gross monthly income", &in.GrossMonthlyIncome))

	for i, co := range in.CoBorrowers {
		if co.Age <= 0 {
			err = multierr.Append(err, fmt.Errorf("%w: co-borrower %d age must be positive, got %d", ErrInvalidInputs, i+1, co.Age))
		}
		err = multierr.Append(err, amountField(fmt.Sprintf("co-borrower %d income", i+1), &co.GrossMonthlyIncome))
	}
	for _, source := range in.OtherIncome {
		if source.Name == "" {
			err = multierr.Append(err, fmt.Errorf("%w: other income needs a name", ErrInvalidInputs))
		}
		err = multierr.Append(err, amountField("other income "+source.Name, &source.Amount))
	}

	err = multierr.Combine(err,
		fractionField("interest rate", in.InterestRate),
		fractionField("percent down payment", in.PercentDownPayment),
		fractionField("percent miscellaneous fees", in.PercentMiscellaneousFees),
		fractionField("income requirement multiplier", in.IncomeRequirementMultiplier),
		amountField("processing fee", in.ProcessingFee),
		amountField("waived processing fee", in.WaivedProcessingFee),
		amountField("appraisal value", in.AppraisalValue),
	)

	if in.DesiredLoanTerm != nil && *in.DesiredLoanTerm <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: desired loan term must be positive, got %d", ErrInvalidInputs, *in.DesiredLoanTerm))
	}
	if in.DownPaymentTerm != nil && *in.DownPaymentTerm < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: down payment term must not be negative, got %d", ErrInvalidInputs, *in.DownPaymentTerm))
	}
	if in.DevelopmentType != "" && in.DevelopmentType != config.DevelopmentHorizontal && in.DevelopmentType != config.DevelopmentVertical {
		err = multierr.Append(err, fmt.Errorf("%w: development type must be %s or %s, got %s",
			ErrInvalidInputs, config.DevelopmentHorizontal, config.DevelopmentVertical, in.DevelopmentType))
	}
	return err
}

// ValidateMaturity checks whether a loan of termYears taken at age ends after
// maxPayingAge.
func ValidateMaturity(institution string, age, termYears, maxPayingAge int) string {
	if age+termYears > maxPayingAge {
		return fmt.Sprintf("Loan from %s matures at age %d, after the maximum paying age of %d",
			institution, age+termYears, maxPayingAge)
	}
	return ""
}

// InputWarnings returns non-fatal findings about in that the engine will
// silently correct, such as a desired term it will cap.
func InputWarnings(in mortgage.Inputs, conf config.MortgageConfig) []string {
	var warnings []string

	entry, err := conf.InstitutionTable().Lookup(in.LendingInstitution)
	if err != nil {
		return nil
	}
	maxPayingAge := entry.MaximumPayingAge
	if maxPayingAge == 0 {
		maxPayingAge = conf.Defaults.MaximumPayingAge
	}

	if in.DesiredLoanTerm != nil {
		if *in.DesiredLoanTerm > entry.MaximumTerm {
			warnings = append(warnings, fmt.Sprintf("Desired loan term of %d years exceeds the %s maximum of %d years",
				*in.DesiredLoanTerm, in.LendingInstitution, entry.MaximumTerm))
		}
		if warning := ValidateMaturity(in.LendingInstitution, in.Age, *in.DesiredLoanTerm, maxPayingAge); warning != "" {
			warnings = append(warnings, warning)
		}
	}

	for i, co := range in.CoBorrowers {
		if co.Age > entry.BorrowingAge.Maximum && entry.BorrowingAge.Maximum > 0 {
			warnings = append(warnings, fmt.Sprintf("Co-borrower %d is older than the %s borrowing age of %d and shortens the term",
				i+1, in.LendingInstitution, entry.BorrowingAge.Maximum))
		}
	}

	if in.ProcessingFee != nil && in.WaivedProcessingFee != nil && *in.WaivedProcessingFee > *in.ProcessingFee {
		warnings = append(warnings, fmt.Sprintf("Waived processing fee %.2f exceeds the processing fee %.2f",
			*in.WaivedProcessingFee, *in.ProcessingFee))
	}

	if in.DownPaymentTerm != nil && *in.DownPaymentTerm > 0 && in.PercentDownPayment != nil && *in.PercentDownPayment == 0 {
		warnings = append(warnings, "Down payment term given without a down payment")
	}

	return warnings
}
