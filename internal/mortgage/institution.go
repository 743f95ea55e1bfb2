// Package mortgage holds the domain entities a computation is assembled from:
// the buyer, the property, the order and the lending institution. Entities
// are immutable once built.
package mortgage

import (
	"fmt"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/pkg/money"
)

// LendingInstitution is a resolved, validated institution parameter table.
type LendingInstitution struct {
	code                    string
	name                    string
	alias                   string
	kind                    string
	borrowingAge            config.BorrowingAge
	maximumTerm             int
	maximumPayingAge        int
	bufferMargin            money.Percent
	incomeMultiplier        *money.Percent
	interestRate            *money.Percent
	percentDownPayment      money.Percent
	percentMiscFees         money.Percent
	loanableValueMultiplier money.Percent
	miscFeeApplies          bool
	feeRates                map[string]float64
}

// NewLendingInstitution looks code up in table. Unknown codes return
// config.ErrInvalidInstitution and a missing buffer margin returns
// config.ErrMissingBufferMargin.
func NewLendingInstitution(code string, table config.InstitutionTable) (LendingInstitution, error) {
	entry, err := table.Lookup(code)
	if err != nil {
		return LendingInstitution{}, err
	}

	li := LendingInstitution{
		code:             code,
		name:             entry.Name,
		alias:            entry.Alias,
		kind:             entry.Type,
		borrowingAge:     entry.BorrowingAge,
		maximumTerm:      entry.MaximumTerm,
		maximumPayingAge: entry.MaximumPayingAge,
		miscFeeApplies:   entry.MiscellaneousFeeApplies,
		feeRates:         make(map[string]float64, len(entry.FeeRates)),
	}
	if li.maximumPayingAge == 0 {
		li.maximumPayingAge = table.Defaults.MaximumPayingAge
	}
	for kind, rate := range entry.FeeRates {
		li.feeRates[kind] = rate
	}

	margin := entry.BufferMargin
	if margin == nil {
		margin = table.Defaults.BufferMargin
	}
	if margin == nil {
		return LendingInstitution{}, fmt.Errorf("institution %s: %w", code, config.ErrMissingBufferMargin)
	}

	fields := []struct {
		name  string
		value float64
		dst   *money.Percent
	}{
		{"bufferMargin", *margin, &li.bufferMargin},
		{"percentDownPayment", entry.PercentDownPayment, &li.percentDownPayment},
		{"percentMiscellaneousFees", entry.PercentMiscellaneousFees, &li.percentMiscFees},
		{"loanableValueMultiplier", entry.LoanableValueMultiplier, &li.loanableValueMultiplier},
	}
	for _, f := range fields {
		p, err := money.PercentOfFraction(f.value)
		if err != nil {
			return LendingInstitution{}, fmt.Errorf("institution %s %s: %w", code, f.name, err)
		}
		*f.dst = p
	}

	if li.incomeMultiplier, err = optionalPercent(entry.IncomeRequirementMultiplier); err != nil {
		return LendingInstitution{}, fmt.Errorf("institution %s incomeRequirementMultiplier: %w", code, err)
	}
	if li.interestRate, err = optionalPercent(entry.InterestRate); err != nil {
		return LendingInstitution{}, fmt.Errorf("institution %s interestRate: %w", code, err)
	}

	return li, nil
}

func optionalPercent(v *float64) (*money.Percent, error) {
	if v == nil {
		return nil, nil
	}
	p, err := money.PercentOfFraction(*v)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Identity fields as configured.
func (li LendingInstitution) Code() string  { return li.code }
func (li LendingInstitution) Name() string  { return li.name }
func (li LendingInstitution) Alias() string { return li.alias }
func (li LendingInstitution) Type() string  { return li.kind }

// IsGovernment reports whether the institution is a government financial
// institution. Government institutions collect no miscellaneous fee upfront.
func (li LendingInstitution) IsGovernment() bool {
	return li.kind == config.TypeGovernment
}

// IsBank reports whether the institution is a bank.
func (li LendingInstitution) IsBank() bool {
	return !li.IsGovernment()
}

// Age and term limits. Ages are in whole years, the term in years.
func (li LendingInstitution) MinimumBorrowingAge() int { return li.borrowingAge.Minimum }
func (li LendingInstitution) MaximumBorrowingAge() int { return li.borrowingAge.Maximum }
func (li LendingInstitution) BorrowingAgeOffset() int  { return li.borrowingAge.Offset }
func (li LendingInstitution) MaximumTerm() int         { return li.maximumTerm }
func (li LendingInstitution) MaximumPayingAge() int    { return li.maximumPayingAge }

// Defaults the institution applies when neither property nor order overrides them.
func (li LendingInstitution) BufferMargin() money.Percent       { return li.bufferMargin }
func (li LendingInstitution) PercentDownPayment() money.Percent { return li.percentDownPayment }

// PercentMiscellaneousFees is the institution's miscellaneous fee rate.
func (li LendingInstitution) PercentMiscellaneousFees() money.Percent {
	return li.percentMiscFees
}

// LoanableValueMultiplier is the share of the appraised value the
// institution lends against.
func (li LendingInstitution) LoanableValueMultiplier() money.Percent {
	return li.loanableValueMultiplier
}

// MiscellaneousFeeApplies is false when the institution waives the
// miscellaneous fee split and collects it in full upfront.
func (li LendingInstitution) MiscellaneousFeeApplies() bool {
	return li.miscFeeApplies
}

// InterestRate returns the institution's own rate, if it sets one.
func (li LendingInstitution) InterestRate() (money.Percent, bool) {
	if li.interestRate == nil {
		return money.Percent{}, false
	}
	return *li.interestRate, true
}

// IncomeRequirementMultiplier returns the institution's multiplier, if set.
func (li LendingInstitution) IncomeRequirementMultiplier() (money.Percent, bool) {
	if li.incomeMultiplier == nil {
		return money.Percent{}, false
	}
	return *li.incomeMultiplier, true
}

// FeeRate returns an institution-specific annual rate for a fee kind.
func (li LendingInstitution) FeeRate(kind string) (float64, bool) {
	rate, ok := li.feeRates[kind]
	return rate, ok
}
