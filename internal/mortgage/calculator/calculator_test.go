package calculator

import (
	"testing"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/pkg/datetime"
	"github.com/iwvelando/homeloan/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func makeParticulars(t *testing.T, in mortgage.Inputs) mortgage.Particulars {
	t.Helper()
	clock := datetime.FixedClock(datetime.MustParseTime(datetime.DateTimeLayout, "2024-06-15"))
	factory, err := mortgage.NewFactory(config.DefaultMortgage(), clock, nil)
	require.NoError(t, err)
	p, err := factory.Make(in)
	require.NoError(t, err)
	return p
}

func hdmfInputs() mortgage.Inputs {
	return mortgage.Inputs{
		LendingInstitution: config.InstitutionHDMF,
		TotalContractPrice: 1000000,
		Age:                49,
		GrossMonthlyIncome: 17000,
	}
}

func mustAmount(t *testing.T, r *Registry, typ Type, p mortgage.Particulars) money.Money {
	t.Helper()
	c, err := Resolve[AmountCalculator](r, typ)
	require.NoError(t, err)
	m, err := c.Calculate(p)
	require.NoError(t, err)
	return m
}

func TestBalancePaymentTerm(t *testing.T) {
	tests := []struct {
		name     string
		inputs   mortgage.Inputs
		order    []mortgage.OrderOption
		expected int
	}{
		{
			name:     "Government offset",
			inputs:   hdmfInputs(),
			expected: 21,
		},
		{
			name:     "Bank without offset",
			inputs:   mortgage.Inputs{LendingInstitution: "rcbc", TotalContractPrice: 1000000, Age: 49, GrossMonthlyIncome: 17000},
			expected: 15,
		},
		{
			name:     "Capped by maximum term",
			inputs:   mortgage.Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1000000, Age: 18, GrossMonthlyIncome: 17000},
			expected: 30,
		},
		{
			name:     "Oldest co-borrower drives the term",
			inputs:   mortgage.Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1000000, Age: 30, CoBorrowers: []mortgage.CoBorrowerInput{{Age: 65}}},
			expected: 5,
		},
		{
			name:     "Desired term",
			inputs:   mortgage.Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1000000, Age: 49, DesiredLoanTerm: ptr(10)},
			expected: 10,
		},
		{
			name:     "Order caps the term",
			inputs:   hdmfInputs(),
			order:    []mortgage.OrderOption{mortgage.WithBalancePaymentTerm(12)},
			expected: 12,
		},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := makeParticulars(t, tt.inputs)
			if len(tt.order) > 0 {
				p = p.WithOrder(p.Order().With(tt.order...))
			}
			c, err := Resolve[TermCalculator](r, BalancePaymentTerm)
			require.NoError(t, err)
			years, err := c.Calculate(p)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, years)
			assert.LessOrEqual(t, years, 30)
		})
	}
}

func TestAmountCalculators(t *testing.T) {
	r := NewRegistry()
	p := makeParticulars(t, hdmfInputs())

	tests := []struct {
		typ      Type
		expected string
	}{
		{MonthlyDisposableIncome, "5950"},
		{PresentValue, "833878.13"},
		{LoanAmount, "1000000"},
		{Equity, "166121.87"},
		{IncomeGap, "1185.34"},
		{IncomeRequirement, "20386.69"},
		{Fees, "0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			got := mustAmount(t, r, tt.typ, p)
			assert.Equal(t, tt.expected, got.Amount().String())
		})
	}
}

func TestMonthlyAmortization(t *testing.T) {
	r := NewRegistry()
	c, err := Resolve[AmortizationCalculator](r, MonthlyAmortization)
	require.NoError(t, err)

	amort, err := c.Calculate(makeParticulars(t, hdmfInputs()))
	require.NoError(t, err)
	assert.Equal(t, "7135.34", amort.Principal.Amount().String())
	assert.True(t, amort.AddOns.IsZero())
	assert.Equal(t, "7135.34", amort.Total.Amount().String())

	in := mortgage.Inputs{
		LendingInstitution:             "rcbc",
		TotalContractPrice:             1000000,
		Age:                            49,
		GrossMonthlyIncome:             17000,
		PercentDownPayment:             ptr(0.31),
		AddMortgageRedemptionInsurance: true,
		AddFireInsurance:               true,
	}
	amort, err = c.Calculate(makeParticulars(t, in))
	require.NoError(t, err)
	assert.Equal(t, "5916.22", amort.Principal.Amount().String())
	assert.Equal(t, "402.15", amort.AddOns.Amount().String())
	assert.Equal(t, "6318.37", amort.Total.Amount().String())
}

func TestZeroInterestRate(t *testing.T) {
	r := NewRegistry()
	in := hdmfInputs()
	in.InterestRate = ptr(0.0)
	p := makeParticulars(t, in)

	// 21 years is 252 months.
	assert.Equal(t, "1499400", mustAmount(t, r, PresentValue, p).Amount().String())

	c, err := Resolve[AmortizationCalculator](r, MonthlyAmortization)
	require.NoError(t, err)
	amort, err := c.Calculate(p)
	require.NoError(t, err)
	assert.Equal(t, "3968.25", amort.Principal.Amount().String())
}

func TestLoanAmountBase(t *testing.T) {
	r := NewRegistry()
	c, err := Resolve[LoanAmountCalculator](r, LoanAmount)
	require.NoError(t, err)

	p := makeParticulars(t, mortgage.Inputs{LendingInstitution: "cbc", TotalContractPrice: 1000000, Age: 30, GrossMonthlyIncome: 50000})
	base, err := c.Base(p)
	require.NoError(t, err)
	assert.Equal(t, "800000", base.Amount().String())

	loan, err := c.Calculate(p)
	require.NoError(t, err)
	assert.Equal(t, "885000", loan.Amount().String())
}

func TestMiscellaneousFee(t *testing.T) {
	r := NewRegistry()
	c, err := Resolve[MiscFeeCalculator](r, MiscellaneousFee)
	require.NoError(t, err)

	tests := []struct {
		name            string
		inputs          mortgage.Inputs
		expectedFull    string
		expectedPartial string
	}{
		{
			name:            "Bank collects in proportion to down payment",
			inputs:          mortgage.Inputs{LendingInstitution: "cbc", TotalContractPrice: 1000000, Age: 30},
			expectedFull:    "85000",
			expectedPartial: "17000",
		},
		{
			name:            "Government collects nothing upfront",
			inputs:          mortgage.Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1000000, Age: 30, PercentMiscellaneousFees: ptr(0.05)},
			expectedFull:    "50000",
			expectedPartial: "0",
		},
		{
			name:            "No miscellaneous fee",
			inputs:          mortgage.Inputs{LendingInstitution: "rcbc", TotalContractPrice: 1000000, Age: 30},
			expectedFull:    "0",
			expectedPartial: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := makeParticulars(t, tt.inputs)
			full, err := c.Full(p)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedFull, full.Amount().String())
			partial, err := c.Partial(p)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPartial, partial.Amount().String())
		})
	}
}

func TestFees(t *testing.T) {
	r := NewRegistry()
	p := makeParticulars(t, hdmfInputs())

	mri := p.WithOrder(p.Order().With(mortgage.WithFee(config.FeeMortgageRedemptionInsurance)))
	assert.Equal(t, "225", mustAmount(t, r, Fees, mri).Amount().String())

	fixed := p.WithOrder(p.Order().With(
		mortgage.WithFee(config.FeeFireInsurance),
		mortgage.WithMonthlyFee(config.FeeOther, money.Of(150)),
	))
	assert.Equal(t, "327.15", mustAmount(t, r, Fees, fixed).Amount().String())

	unknown := p.WithOrder(p.Order().With(mortgage.WithFee("association_dues")))
	c, err := Resolve[AmountCalculator](r, Fees)
	require.NoError(t, err)
	_, err = c.Calculate(unknown)
	assert.ErrorIs(t, err, ErrUnknownFee)
}

func TestCashOut(t *testing.T) {
	r := NewRegistry()
	c, err := Resolve[CashOutCalculator](r, CashOut)
	require.NoError(t, err)

	in := mortgage.Inputs{
		LendingInstitution:  "cbc",
		TotalContractPrice:  1000000,
		Age:                 30,
		GrossMonthlyIncome:  50000,
		ProcessingFee:       ptr(5000.0),
		WaivedProcessingFee: ptr(2000.0),
		DownPaymentTerm:     ptr(12),
	}
	breakdown, err := c.Calculate(makeParticulars(t, in))
	require.NoError(t, err)
	assert.Equal(t, "200000", breakdown.DownPayment.Amount().String())
	assert.Equal(t, "17000", breakdown.PartialMiscellaneousFee.Amount().String())
	assert.Equal(t, "3000", breakdown.ProcessingFee.Amount().String())
	assert.Equal(t, "220000", breakdown.Total.Amount().String())
	assert.Equal(t, 12, breakdown.DownPaymentTerm)
	assert.Equal(t, "16666.67", breakdown.MonthlyDownPayment.Amount().String())

	in.WaivedProcessingFee = ptr(9000.0)
	in.DownPaymentTerm = nil
	breakdown, err = c.Calculate(makeParticulars(t, in))
	require.NoError(t, err)
	assert.True(t, breakdown.ProcessingFee.IsZero(), "waiver never makes the fee negative")
	assert.Equal(t, 0, breakdown.DownPaymentTerm)
	assert.Equal(t, breakdown.DownPayment, breakdown.MonthlyDownPayment)
}

func TestLoanQualificationAgreesWithGap(t *testing.T) {
	r := NewRegistry()
	verdict, err := Resolve[VerdictCalculator](r, LoanQualification)
	require.NoError(t, err)

	for _, dp := range []float64{0, 0.10, 0.16, 0.17, 0.25, 0.5} {
		in := hdmfInputs()
		in.PercentDownPayment = ptr(dp)
		p := makeParticulars(t, in)

		qualifies, err := verdict.Calculate(p)
		require.NoError(t, err)
		gap := mustAmount(t, r, IncomeGap, p)
		equity := mustAmount(t, r, Equity, p)
		assert.Equal(t, qualifies, gap.IsZero(), "dp %v", dp)
		assert.Equal(t, qualifies, equity.IsZero(), "dp %v", dp)
	}
}

func TestRequiredPercentDownPayment(t *testing.T) {
	r := NewRegistry()
	c, err := Resolve[PercentCalculator](r, RequiredPercentDownPayment)
	require.NoError(t, err)

	tests := []struct {
		name     string
		inputs   mortgage.Inputs
		expected float64
	}{
		{"Government fixture", hdmfInputs(), 0.17},
		{
			name:     "Bank fixture",
			inputs:   mortgage.Inputs{LendingInstitution: "rcbc", TotalContractPrice: 1000000, Age: 49, GrossMonthlyIncome: 17000, PercentDownPayment: ptr(0.21)},
			expected: 0.31,
		},
		{
			name:     "Never below the current down payment",
			inputs:   mortgage.Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1000000, Age: 49, GrossMonthlyIncome: 17000, PercentDownPayment: ptr(0.4)},
			expected: 0.4,
		},
		{
			name:     "Nothing to close",
			inputs:   mortgage.Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1000000, Age: 30, GrossMonthlyIncome: 100000},
			expected: 0,
		},
		{
			name:     "No income needs the whole price",
			inputs:   mortgage.Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1000000, Age: 49},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Calculate(makeParticulars(t, tt.inputs))
			require.NoError(t, err)
			assert.True(t, got.Equal(money.MustPercent(tt.expected)), "got %s", got)
		})
	}

	t.Run("Gap under one percent snaps to zero", func(t *testing.T) {
		p := makeParticulars(t, mortgage.Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1000000, Age: 49, GrossMonthlyIncome: 20250})

		equity := mustAmount(t, r, Equity, p)
		assert.Equal(t, "6703.99", equity.Amount().String())

		verdict, err := Resolve[VerdictCalculator](r, LoanQualification)
		require.NoError(t, err)
		qualifies, err := verdict.Calculate(p)
		require.NoError(t, err)
		assert.False(t, qualifies)

		got, err := c.Calculate(p)
		require.NoError(t, err)
		assert.True(t, got.IsZero(), "got %s", got)
	})
}

type fixedIncome struct {
	amount money.Money
}

func (f fixedIncome) Calculate(mortgage.Particulars) (money.Money, error) {
	return f.amount, nil
}

func TestRegistrySubstitution(t *testing.T) {
	r := NewRegistry()
	r.Register(MonthlyDisposableIncome, func(*Registry) any {
		return fixedIncome{amount: money.Of(10000)}
	})

	p := makeParticulars(t, hdmfInputs())
	assert.True(t, mustAmount(t, r, IncomeGap, p).IsZero())

	verdict, err := Resolve[VerdictCalculator](r, LoanQualification)
	require.NoError(t, err)
	qualifies, err := verdict.Calculate(p)
	require.NoError(t, err)
	assert.True(t, qualifies)

	builtIn := NewRegistry()
	assert.Equal(t, "1185.34", mustAmount(t, builtIn, IncomeGap, p).Amount().String(), "registries are independent")
}

func TestResolveErrors(t *testing.T) {
	r := NewRegistry()

	_, err := Resolve[AmountCalculator](r, Type("nope"))
	assert.ErrorIs(t, err, ErrUnknownCalculator)

	_, err = Resolve[AmountCalculator](r, BalancePaymentTerm)
	assert.Error(t, err)

	assert.Len(t, r.Types(), 13)
}

func TestMissingMultiplier(t *testing.T) {
	in := hdmfInputs()
	in.IncomeRequirementMultiplier = ptr(0.0)
	p := makeParticulars(t, in)

	c, err := Resolve[AmountCalculator](NewRegistry(), MonthlyDisposableIncome)
	require.NoError(t, err)
	_, err = c.Calculate(p)
	assert.ErrorIs(t, err, ErrMissingMultiplier)
}
