package computation

import (
	"testing"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/internal/mortgage/calculator"
	"github.com/iwvelando/homeloan/pkg/money"
	"github.com/iwvelando/homeloan/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func compute(t *testing.T, in mortgage.Inputs) *Data {
	t.Helper()
	p, err := testutil.NewFactory(t).Make(in)
	require.NoError(t, err)
	d, err := FromParticulars(p)
	require.NoError(t, err)
	return d
}

func TestGovernmentFixture(t *testing.T) {
	d := compute(t, mortgage.Inputs{
		LendingInstitution: config.InstitutionHDMF,
		TotalContractPrice: 1000000,
		Age:                49,
		GrossMonthlyIncome: 17000,
	})

	assert.Equal(t, "hdmf", d.LendingInstitution)
	assert.Equal(t, 21, d.BalancePaymentTerm)
	assert.Equal(t, "5950", d.MonthlyDisposableIncome.Amount().String())
	assert.Equal(t, "833878.13", d.PresentValue.Amount().String())
	assert.Equal(t, "1000000", d.LoanAmount.Amount().String())
	assert.Equal(t, "166121.87", d.RequiredEquity.Amount().String())
	assert.Equal(t, "7135.34", d.MonthlyAmortization.Total.Amount().String())
	assert.Equal(t, "1185.34", d.IncomeGap.Amount().String())
	assert.True(t, d.PercentDownPaymentRemedy.Equal(money.MustPercent(0.17)), "remedy %s", d.PercentDownPaymentRemedy)
	assert.False(t, d.Qualifies)
	assert.Equal(t, ReasonInsufficient, d.Reason)
	assert.True(t, d.InterestRate.Equal(money.MustPercent(0.0625)))
	assert.True(t, d.CashOut.Total.IsZero())
	assert.Equal(t, "1000000", d.TotalContractPrice.Amount().String())
	assert.Equal(t, "950000", d.LoanableValue.Amount().String())
}

func TestGovernmentFixtureWithRemedy(t *testing.T) {
	d := compute(t, mortgage.Inputs{
		LendingInstitution: config.InstitutionHDMF,
		TotalContractPrice: 1000000,
		Age:                49,
		GrossMonthlyIncome: 17000,
		PercentDownPayment: testutil.Ptr(0.17),
	})

	assert.True(t, d.RequiredEquity.IsZero())
	assert.True(t, d.IncomeGap.IsZero())
	assert.True(t, d.Qualifies)
	assert.Equal(t, ReasonSufficient, d.Reason)
	assert.Equal(t, "170000", d.DownPayment.Amount().String())
	assert.Equal(t, "830000", d.LoanableBase.Amount().String())
}

func TestBankFixtures(t *testing.T) {
	tests := []struct {
		name              string
		dp                float64
		expectedEquity    string
		expectedAmort     string
		expectedQualifies bool
	}{
		{"Sufficient down payment", 0.31, "0", "5916.22", true},
		{"Insufficient down payment", 0.21, "96060.03", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := compute(t, mortgage.Inputs{
				LendingInstitution: config.InstitutionRCBC,
				TotalContractPrice: 1000000,
				Age:                49,
				GrossMonthlyIncome: 17000,
				PercentDownPayment: testutil.Ptr(tt.dp),
			})

			assert.Equal(t, 15, d.BalancePaymentTerm)
			assert.Equal(t, "693939.97", d.PresentValue.Amount().String())
			assert.Equal(t, tt.expectedEquity, d.RequiredEquity.Amount().String())
			if tt.expectedAmort != "" {
				assert.Equal(t, tt.expectedAmort, d.MonthlyAmortization.Total.Amount().String())
			}
			assert.Equal(t, tt.expectedQualifies, d.Qualifies)
			assert.True(t, d.InterestRate.Equal(money.MustPercent(0.0625)), "economic segment rate")
		})
	}
}

func TestDeterminism(t *testing.T) {
	factory := testutil.NewFactory(t)
	in := mortgage.Inputs{
		LendingInstitution:             config.InstitutionCBC,
		TotalContractPrice:             3200000,
		Age:                            35,
		GrossMonthlyIncome:             90000,
		CoBorrowers:                    []mortgage.CoBorrowerInput{{Age: 37, GrossMonthlyIncome: 40000}},
		AddMortgageRedemptionInsurance: true,
		AddFireInsurance:               true,
	}
	p, err := factory.Make(in)
	require.NoError(t, err)

	first, err := FromParticulars(p)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := FromParticulars(p)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestQualificationSignalsAgree(t *testing.T) {
	factory := testutil.NewFactory(t)

	for _, code := range config.InstitutionCodes {
		for _, income := range []float64{0, 12000, 17000, 25000, 60000} {
			for _, dp := range []float64{0, 0.1, 0.2, 0.35, 0.6} {
				p, err := factory.Make(mortgage.Inputs{
					LendingInstitution:             code,
					TotalContractPrice:             1500000,
					Age:                            42,
					GrossMonthlyIncome:             income,
					PercentDownPayment:             testutil.Ptr(dp),
					AddMortgageRedemptionInsurance: true,
				})
				require.NoError(t, err)
				d, err := FromParticulars(p)
				require.NoError(t, err)

				assert.Equal(t, d.Qualifies, d.IncomeGap.IsZero(), "%s income %v dp %v", code, income, dp)
				assert.Equal(t, d.Qualifies, d.RequiredEquity.IsZero(), "%s income %v dp %v", code, income, dp)

				current := d.PercentDownPayment
				assert.False(t, d.PercentDownPaymentRemedy.Value().LessThan(current.Value()), "remedy below current")
				assert.False(t, d.PercentDownPaymentRemedy.GreaterThan(money.FullPercent), "remedy above the whole price")
				assert.LessOrEqual(t, d.BalancePaymentTerm, 30)
			}
		}
	}
}

// TestQualificationSignalsAgreeAtBreakEven walks the income in centavo steps
// across the point where the rounded amortization meets disposable income.
func TestQualificationSignalsAgreeAtBreakEven(t *testing.T) {
	factory := testutil.NewFactory(t)
	in := mortgage.Inputs{
		LendingInstitution: config.InstitutionHDMF,
		TotalContractPrice: 937137,
		Age:                40,
	}

	in.GrossMonthlyIncome = 16486.02
	p, err := factory.Make(in)
	require.NoError(t, err)
	d, err := FromParticulars(p)
	require.NoError(t, err)
	assert.True(t, d.Qualifies)
	assert.True(t, d.IncomeGap.IsZero())
	assert.True(t, d.RequiredEquity.IsZero(), "equity %s", d.RequiredEquity)

	start := decimal.RequireFromString("16484.00")
	step := decimal.New(1, -2)
	for i := 0; i <= 400; i++ {
		in.GrossMonthlyIncome = start.Add(step.Mul(decimal.NewFromInt(int64(i)))).InexactFloat64()
		p, err := factory.Make(in)
		require.NoError(t, err)
		d, err := FromParticulars(p)
		require.NoError(t, err)
		assert.Equal(t, d.Qualifies, d.IncomeGap.IsZero(), "income %v", in.GrossMonthlyIncome)
		assert.Equal(t, d.Qualifies, d.RequiredEquity.IsZero(), "income %v equity %s", in.GrossMonthlyIncome, d.RequiredEquity)
	}
}

func TestZeroInterestRate(t *testing.T) {
	d := compute(t, mortgage.Inputs{
		LendingInstitution: config.InstitutionHDMF,
		TotalContractPrice: 1000000,
		Age:                49,
		GrossMonthlyIncome: 17000,
		InterestRate:       testutil.Ptr(0.0),
	})

	months := int64(d.BalancePaymentTerm * 12)
	assert.Equal(t, "1499400", d.PresentValue.Amount().String())
	assert.True(t, d.MonthlyDisposableIncome.Amount().Mul(decimal.NewFromInt(months)).Equal(d.PresentValue.Amount()))
	assert.Equal(t, "3968.25", d.MonthlyAmortization.Principal.Amount().String())
	assert.True(t, d.Qualifies)
}

func TestRunnerErrors(t *testing.T) {
	factory := testutil.NewFactory(t)
	p, err := factory.Make(mortgage.Inputs{
		LendingInstitution:          config.InstitutionHDMF,
		TotalContractPrice:          1000000,
		Age:                         49,
		GrossMonthlyIncome:          17000,
		IncomeRequirementMultiplier: testutil.Ptr(0.0),
	})
	require.NoError(t, err)

	runner := NewRunner(nil, zaptest.NewLogger(t))
	_, err = runner.Run(p)
	assert.ErrorIs(t, err, calculator.ErrMissingMultiplier)

	empty := calculator.NewRegistry()
	empty.Register(calculator.BalancePaymentTerm, func(*calculator.Registry) any { return nil })
	_, err = NewRunner(empty, nil).Run(p)
	assert.Error(t, err)
}

func TestRunnerUsesRegistry(t *testing.T) {
	p, err := testutil.NewFactory(t).Make(mortgage.Inputs{
		LendingInstitution: config.InstitutionHDMF,
		TotalContractPrice: 1000000,
		Age:                49,
		GrossMonthlyIncome: 17000,
	})
	require.NoError(t, err)

	registry := calculator.NewRegistry()
	registry.Register(calculator.MonthlyDisposableIncome, func(*calculator.Registry) any {
		return stubIncome{amount: money.Of(8000)}
	})

	d, err := NewRunner(registry, nil).Run(p)
	require.NoError(t, err)
	assert.Equal(t, "8000", d.MonthlyDisposableIncome.Amount().String())
	assert.True(t, d.Qualifies)
	assert.True(t, d.IncomeGap.IsZero())
}

type stubIncome struct {
	amount money.Money
}

func (s stubIncome) Calculate(mortgage.Particulars) (money.Money, error) {
	return s.amount, nil
}
