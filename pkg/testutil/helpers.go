// Package testutil provides common fixtures for testing mortgage computations.
package testutil

import (
	"testing"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/pkg/datetime"
)

// ReferenceDate is the date every fixture computes against.
const ReferenceDate = "2024-06-15"

// Clock returns a clock pinned to ReferenceDate.
func Clock() datetime.Clock {
	return datetime.FixedClock(datetime.MustParseTime(datetime.DateTimeLayout, ReferenceDate))
}

// NewFactory builds a particulars factory from the default mortgage
// configuration and the fixture clock. It fails the test on error.
func NewFactory(tb testing.TB) *mortgage.Factory {
	tb.Helper()
	factory, err := mortgage.NewFactory(config.DefaultMortgage(), Clock(), nil)
	if err != nil {
		tb.Fatalf("Failed to build factory: %v", err)
	}
	return factory
}

// GovernmentInputs is the reference Pag-IBIG case: a 1,000,000 unit bought
// by a 49 year old earning 17,000 a month with no down payment.
func GovernmentInputs() mortgage.Inputs {
	return mortgage.Inputs{
		LendingInstitution: config.InstitutionHDMF,
		TotalContractPrice: 1000000,
		Age:                49,
		GrossMonthlyIncome: 17000,
	}
}

// Ptr returns a pointer to v, for optional input fields.
func Ptr[T any](v T) *T {
	return &v
}
