package config

import (
	"github.com/iwvelando/homeloan/pkg/constants"
)

// Fee kinds with built-in rules.
const (
	FeeMortgageRedemptionInsurance = "mri"
	FeeFireInsurance               = "fire_insurance"
	FeeOther                       = "other"
)

// Institution types.
const (
	TypeGovernment    = "government financial institution"
	TypeUniversalBank = "universal bank"
)

// Development types used to pick market segment ceilings.
const (
	DevelopmentHorizontal = "horizontal"
	DevelopmentVertical   = "vertical"
)

func fraction(v float64) *float64 {
	return &v
}

// Default returns the built-in configuration. Values loaded from a file are
// applied on top of it.
func Default() Configuration {
	return Configuration{
		Mortgage: DefaultMortgage(),
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Output:   OutputConfig{Format: constants.OutputFormatPretty},
	}
}

// DefaultMortgage returns the built-in institution tables, market segments
// and fee rules.
func DefaultMortgage() MortgageConfig {
	return MortgageConfig{
		Currency:     constants.DefaultCurrency,
		RoundingMode: "ceiling",
		Defaults: Defaults{
			BufferMargin:                fraction(0.1),
			IncomeRequirementMultiplier: 0.35,
			PercentDownPayment:          0,
			MinimumBorrowingAge:         18,
			MaximumBorrowingAge:         65,
			MaximumPayingAge:            70,
			DevelopmentType:             DevelopmentHorizontal,
		},
		Institutions: map[string]InstitutionConfig{
			InstitutionHDMF: {
				Name:                        "Home Development Mutual Fund",
				Alias:                       "Pag-IBIG",
				Type:                        TypeGovernment,
				BorrowingAge:                BorrowingAge{Minimum: 18, Maximum: 60, Offset: 1},
				MaximumTerm:                 30,
				MaximumPayingAge:            70,
				BufferMargin:                fraction(0.1),
				IncomeRequirementMultiplier: fraction(0.35),
				InterestRate:                fraction(0.0625),
				PercentDownPayment:          0,
				PercentMiscellaneousFees:    0,
				LoanableValueMultiplier:     1.0,
				MiscellaneousFeeApplies:     true,
			},
			InstitutionRCBC: {
				Name:                        "Rizal Commercial Banking Corporation",
				Alias:                       "RCBC",
				Type:                        TypeUniversalBank,
				BorrowingAge:                BorrowingAge{Minimum: 18, Maximum: 60, Offset: 0},
				MaximumTerm:                 20,
				MaximumPayingAge:            65,
				BufferMargin:                fraction(0.15),
				IncomeRequirementMultiplier: fraction(0.35),
				PercentDownPayment:          0.10,
				PercentMiscellaneousFees:    0,
				LoanableValueMultiplier:     0.9,
				MiscellaneousFeeApplies:     true,
			},
			InstitutionCBC: {
				Name:                        "China Banking Corporation",
				Alias:                       "China Bank",
				Type:                        TypeUniversalBank,
				BorrowingAge:                BorrowingAge{Minimum: 21, Maximum: 60, Offset: 0},
				MaximumTerm:                 20,
				MaximumPayingAge:            65,
				BufferMargin:                fraction(0.15),
				IncomeRequirementMultiplier: fraction(0.35),
				InterestRate:                fraction(0.07),
				PercentDownPayment:          0.20,
				PercentMiscellaneousFees:    0.085,
				LoanableValueMultiplier:     0.8,
				MiscellaneousFeeApplies:     true,
			},
		},
		MarketSegments: MarketSegments{
			Socialized: Segment{
				HorizontalCeiling:           850000,
				VerticalCeiling:             1800000,
				InterestRate:                0.03,
				IncomeRequirementMultiplier: 0.35,
				PercentLoanableValue:        1.0,
			},
			Economic: Segment{
				HorizontalCeiling:           2500000,
				VerticalCeiling:             2500000,
				InterestRate:                0.0625,
				IncomeRequirementMultiplier: 0.35,
				PercentLoanableValue:        0.95,
			},
			Open: Segment{
				InterestRate:                0.07,
				IncomeRequirementMultiplier: 0.30,
				PercentLoanableValue:        0.9,
			},
		},
		Fees: map[string]FeeRule{
			FeeMortgageRedemptionInsurance: {Name: "Mortgage Redemption Insurance", AnnualRate: 0.0027},
			FeeFireInsurance:               {Name: "Fire Insurance", AnnualRate: 0.00212584},
		},
	}
}
