package mortgage

import (
	"testing"
	"time"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/pkg/datetime"
	"github.com/iwvelando/homeloan/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var referenceDate = datetime.MustParseTime(datetime.DateTimeLayout, "2024-06-15")

var defaultLimits = AgeLimits{Minimum: 18, Maximum: 65}

func fixedClock() datetime.Clock {
	return datetime.FixedClock(referenceDate)
}

func mustInstitution(t *testing.T, code string) LendingInstitution {
	t.Helper()
	li, err := NewLendingInstitution(code, config.DefaultMortgage().InstitutionTable())
	require.NoError(t, err)
	return li
}

func TestNewLendingInstitution(t *testing.T) {
	hdmf := mustInstitution(t, config.InstitutionHDMF)
	assert.Equal(t, "hdmf", hdmf.Code())
	assert.Equal(t, "Pag-IBIG", hdmf.Alias())
	assert.True(t, hdmf.IsGovernment())
	assert.False(t, hdmf.IsBank())
	assert.Equal(t, 1, hdmf.BorrowingAgeOffset())
	assert.Equal(t, 30, hdmf.MaximumTerm())
	assert.Equal(t, 70, hdmf.MaximumPayingAge())
	rate, ok := hdmf.InterestRate()
	require.True(t, ok)
	assert.True(t, rate.Equal(money.MustPercent(0.0625)))

	rcbc := mustInstitution(t, config.InstitutionRCBC)
	assert.True(t, rcbc.IsBank())
	_, ok = rcbc.InterestRate()
	assert.False(t, ok, "rcbc defers its rate to the market segment")
	assert.True(t, rcbc.PercentDownPayment().Equal(money.MustPercent(0.10)))
}

func TestNewLendingInstitutionErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		mutate  func(m *config.MortgageConfig)
		wantErr error
	}{
		{
			name:    "Unknown code",
			code:    "bdo",
			mutate:  func(m *config.MortgageConfig) {},
			wantErr: config.ErrInvalidInstitution,
		},
		{
			name: "Missing buffer margin",
			code: config.InstitutionRCBC,
			mutate: func(m *config.MortgageConfig) {
				m.Defaults.BufferMargin = nil
				rcbc := m.Institutions[config.InstitutionRCBC]
				rcbc.BufferMargin = nil
				m.Institutions[config.InstitutionRCBC] = rcbc
			},
			wantErr: config.ErrMissingBufferMargin,
		},
		{
			name: "Percent out of range",
			code: config.InstitutionCBC,
			mutate: func(m *config.MortgageConfig) {
				cbc := m.Institutions[config.InstitutionCBC]
				cbc.PercentDownPayment = 1.5
				m.Institutions[config.InstitutionCBC] = cbc
			},
			wantErr: money.ErrInvalidPercent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := config.DefaultMortgage()
			tt.mutate(&m)
			_, err := NewLendingInstitution(tt.code, m.InstitutionTable())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBuyerBuilderAgeLimits(t *testing.T) {
	tests := []struct {
		name    string
		age     int
		wantErr bool
	}{
		{"Minimum age", 18, false},
		{"Typical", 49, false},
		{"Maximum age", 65, false},
		{"Too young", 17, true},
		{"Too old", 66, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuyerBuilder(defaultLimits, fixedClock()).
				Age(tt.age).
				GrossMonthlyIncome(money.Of(17000)).
				Build()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBorrowerAge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuyerRequiresBirthdate(t *testing.T) {
	_, err := NewBuyerBuilder(defaultLimits, fixedClock()).GrossMonthlyIncome(money.Of(1)).Build()
	assert.ErrorIs(t, err, ErrBorrowerAge)
}

func TestBuyerIncome(t *testing.T) {
	co1, err := NewBuyerBuilder(defaultLimits, fixedClock()).Age(55).GrossMonthlyIncome(money.Of(10000)).Build()
	require.NoError(t, err)
	co2, err := NewBuyerBuilder(defaultLimits, fixedClock()).Age(30).GrossMonthlyIncome(money.Of(8000)).
		OtherIncome("freelance", money.Of(2000)).Build()
	require.NoError(t, err)

	buyer, err := NewBuyerBuilder(defaultLimits, fixedClock()).
		Age(49).
		OtherIncome("rental", money.Of(3000)).
		GrossMonthlyIncome(money.Of(17000)).
		CoBorrower(co1).
		CoBorrower(co2).
		Build()
	require.NoError(t, err)

	gross, err := buyer.GrossMonthlyIncome()
	require.NoError(t, err)
	assert.Equal(t, 20000.0, gross.Float64(), "other income survives a later base income")

	joint, err := buyer.JointMonthlyIncome()
	require.NoError(t, err)
	assert.Equal(t, 40000.0, joint.Float64())

	mods := buyer.IncomePrice().Modifiers()
	require.Len(t, mods, 1)
	assert.Equal(t, OtherIncomeTag, mods[0].Attributes["tag"])
	assert.Equal(t, "rental", mods[0].Key)

	oldest := buyer.OldestAmongst()
	assert.InDelta(t, 55.0, oldest.Age(), 0.01)
	assert.Len(t, buyer.CoBorrowers(), 2)
}

func TestBuyerNegativeIncome(t *testing.T) {
	_, err := NewBuyerBuilder(defaultLimits, fixedClock()).Age(30).GrossMonthlyIncome(money.Of(-1)).Build()
	assert.ErrorIs(t, err, money.ErrNegativeAmount)

	_, err = NewBuyerBuilder(defaultLimits, fixedClock()).Age(30).OtherIncome("loss", money.Of(-1)).Build()
	assert.ErrorIs(t, err, money.ErrNegativeAmount)
}

func TestBuyerOverrides(t *testing.T) {
	li := mustInstitution(t, config.InstitutionCBC)
	buyer, err := NewBuyerBuilder(defaultLimits, fixedClock()).
		Age(40).
		LendingInstitution(li).
		InterestRate(money.MustPercent(0.05)).
		IncomeRequirementMultiplier(money.MustPercent(0.4)).
		MaximumPayingAge(60).
		Build()
	require.NoError(t, err)

	bound, ok := buyer.LendingInstitution()
	require.True(t, ok)
	assert.Equal(t, "cbc", bound.Code())

	rate, ok := buyer.InterestRate()
	require.True(t, ok)
	assert.True(t, rate.Equal(money.MustPercent(0.05)))

	m, ok := buyer.IncomeRequirementMultiplier()
	require.True(t, ok)
	assert.True(t, m.Equal(money.MustPercent(0.4)))

	age, ok := buyer.MaximumPayingAge()
	require.True(t, ok)
	assert.Equal(t, 60, age)
}

func TestPropertyMarketSegment(t *testing.T) {
	segments := config.DefaultMortgage().MarketSegments

	tests := []struct {
		name            string
		tcp             float64
		developmentType string
		expected        MarketSegment
		expectedRate    float64
	}{
		{"Socialized horizontal at ceiling", 850000, config.DevelopmentHorizontal, Socialized, 0.03},
		{"Economic horizontal", 1000000, config.DevelopmentHorizontal, Economic, 0.0625},
		{"Socialized vertical", 1500000, config.DevelopmentVertical, Socialized, 0.03},
		{"Economic vertical", 2000000, config.DevelopmentVertical, Economic, 0.0625},
		{"Open", 5000000, config.DevelopmentHorizontal, Open, 0.07},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			property, err := NewPropertyBuilder(money.Of(tt.tcp), segments).
				DevelopmentType(tt.developmentType).
				BufferMargin(money.MustPercent(0.1)).
				Build()
			require.NoError(t, err)

			segment := property.MarketSegment()
			assert.Equal(t, tt.expected, segment.Name)
			rate, ok := property.InterestRate()
			require.True(t, ok)
			assert.True(t, rate.Equal(money.MustPercent(tt.expectedRate)), "rate %s", rate)
		})
	}
}

func TestPropertyFallbacks(t *testing.T) {
	segments := config.DefaultMortgage().MarketSegments
	cbc := mustInstitution(t, config.InstitutionCBC)

	property, err := NewPropertyBuilder(money.Of(1000000), segments).LendingInstitution(cbc).Build()
	require.NoError(t, err)

	rate, _ := property.InterestRate()
	assert.True(t, rate.Equal(money.MustPercent(0.07)), "institution rate beats segment rate")
	dp, ok := property.PercentDownPayment()
	require.True(t, ok)
	assert.True(t, dp.Equal(money.MustPercent(0.20)))
	assert.True(t, property.BufferMargin().Equal(money.MustPercent(0.15)))
	_, ok = property.PercentMiscellaneousFees()
	assert.False(t, ok, "property has no own misc fee")

	own, err := NewPropertyBuilder(money.Of(1000000), segments).
		LendingInstitution(cbc).
		InterestRate(money.MustPercent(0.055)).
		PercentDownPayment(money.MustPercent(0.15)).
		Build()
	require.NoError(t, err)
	rate, _ = own.InterestRate()
	assert.True(t, rate.Equal(money.MustPercent(0.055)))
	dp, _ = own.PercentDownPayment()
	assert.True(t, dp.Equal(money.MustPercent(0.15)))
}

func TestPropertyLoanableValue(t *testing.T) {
	segments := config.DefaultMortgage().MarketSegments

	property, err := NewPropertyBuilder(money.Of(1000000), segments).
		BufferMargin(money.MustPercent(0.1)).
		Build()
	require.NoError(t, err)
	value, err := property.LoanableValue()
	require.NoError(t, err)
	assert.Equal(t, 950000.0, value.Float64(), "economic segment lends 95%")

	appraised, err := NewPropertyBuilder(money.Of(1000000), segments).
		BufferMargin(money.MustPercent(0.1)).
		AppraisalValue(money.Of(800000)).
		PercentLoanableValue(money.MustPercent(0.9)).
		Build()
	require.NoError(t, err)
	value, err = appraised.LoanableValue()
	require.NoError(t, err)
	assert.Equal(t, 720000.0, value.Float64())
}

func TestPropertyBuildErrors(t *testing.T) {
	segments := config.DefaultMortgage().MarketSegments

	_, err := NewPropertyBuilder(money.Of(1000000), segments).Build()
	assert.ErrorIs(t, err, config.ErrMissingBufferMargin)

	_, err = NewPropertyBuilder(money.Of(-1), segments).BufferMargin(money.ZeroPercent).Build()
	assert.ErrorIs(t, err, money.ErrNegativeAmount)

	_, err = NewPropertyBuilder(money.Of(1), segments).DevelopmentType("diagonal").BufferMargin(money.ZeroPercent).Build()
	assert.Error(t, err)
}

func TestOrderIsImmutable(t *testing.T) {
	order := NewOrder(WithPercentDownPayment(money.MustPercent(0.2)), WithFee("mri"))
	changed := order.With(WithPercentDownPayment(money.ZeroPercent), WithFee("fire_insurance"))

	dp, _ := order.PercentDownPayment()
	assert.True(t, dp.Equal(money.MustPercent(0.2)))
	assert.Equal(t, []string{"mri"}, order.OptedFees())

	dp, _ = changed.PercentDownPayment()
	assert.True(t, dp.IsZero())
	assert.Equal(t, []string{"fire_insurance", "mri"}, changed.OptedFees())
}

func TestOrderOptionalFields(t *testing.T) {
	empty := NewOrder()
	_, ok := empty.PercentDownPayment()
	assert.False(t, ok)
	_, ok = empty.DownPaymentTerm()
	assert.False(t, ok)
	assert.Empty(t, empty.OptedFees())

	order := NewOrder(
		WithMonthlyFee("other", money.Of(150)),
		WithDownPaymentTerm(12),
		WithBalancePaymentTerm(10),
		WithDiscount(money.Of(5000)),
		WithConsultingFee(money.Of(1000)),
		WithLowCashOut(money.Of(0)),
	)
	fee, ok := order.MonthlyFee("other")
	require.True(t, ok)
	assert.Equal(t, 150.0, fee.Float64())
	assert.Equal(t, []string{"other"}, order.OptedFees())
	months, _ := order.DownPaymentTerm()
	assert.Equal(t, 12, months)
	years, _ := order.BalancePaymentTerm()
	assert.Equal(t, 10, years)
	discount, _ := order.Discount()
	assert.Equal(t, 5000.0, discount.Float64())
}

func TestFactoryMake(t *testing.T) {
	factory, err := NewFactory(config.DefaultMortgage(), fixedClock(), nil)
	require.NoError(t, err)

	dp := 0.17
	term := 15
	p, err := factory.Make(Inputs{
		LendingInstitution: config.InstitutionHDMF,
		TotalContractPrice: 1000000,
		Age:                49,
		GrossMonthlyIncome: 17000,
		CoBorrowers:        []CoBorrowerInput{{Age: 52, GrossMonthlyIncome: 12000}},
		OtherIncome:        []IncomeSource{{Name: "rental", Amount: 3000}},
		PercentDownPayment: &dp,
		AddFireInsurance:   true,
		DesiredLoanTerm:    &term,
	})
	require.NoError(t, err)

	li, ok := p.Property().LendingInstitution()
	require.True(t, ok)
	assert.Equal(t, "hdmf", li.Code())

	joint, err := p.Buyer().JointMonthlyIncome()
	require.NoError(t, err)
	assert.Equal(t, 32000.0, joint.Float64())

	orderDP, ok := p.Order().PercentDownPayment()
	require.True(t, ok)
	assert.True(t, orderDP.Equal(money.MustPercent(0.17)))
	assert.Equal(t, []string{config.FeeFireInsurance}, p.Order().OptedFees())

	// the co-borrower is exactly 52: 52 + 15 - offset 1
	maxPayingAge, ok := p.Buyer().MaximumPayingAge()
	require.True(t, ok)
	assert.Equal(t, 66, maxPayingAge)
}

func TestFactoryMakeErrors(t *testing.T) {
	factory, err := NewFactory(config.DefaultMortgage(), fixedClock(), nil)
	require.NoError(t, err)

	tooHigh := 1.2
	negative := -100.0

	tests := []struct {
		name    string
		inputs  Inputs
		wantErr error
	}{
		{
			name:    "Unknown institution",
			inputs:  Inputs{LendingInstitution: "bdo", TotalContractPrice: 1, Age: 30},
			wantErr: config.ErrInvalidInstitution,
		},
		{
			name:    "Borrower too old",
			inputs:  Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1, Age: 70},
			wantErr: ErrBorrowerAge,
		},
		{
			name:    "Co-borrower too young",
			inputs:  Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1, Age: 30, CoBorrowers: []CoBorrowerInput{{Age: 16}}},
			wantErr: ErrBorrowerAge,
		},
		{
			name:    "Percent down payment above one",
			inputs:  Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1, Age: 30, PercentDownPayment: &tooHigh},
			wantErr: money.ErrInvalidPercent,
		},
		{
			name:    "Negative processing fee",
			inputs:  Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1, Age: 30, ProcessingFee: &negative},
			wantErr: money.ErrNegativeAmount,
		},
		{
			name:    "Negative income",
			inputs:  Inputs{LendingInstitution: "hdmf", TotalContractPrice: 1, Age: 30, GrossMonthlyIncome: -1},
			wantErr: money.ErrNegativeAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.Make(tt.inputs)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewFactoryRejectsInvalidConfig(t *testing.T) {
	m := config.DefaultMortgage()
	m.Currency = "pesos"
	_, err := NewFactory(m, time.Now, nil)
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestParticularsWithOrder(t *testing.T) {
	factory, err := NewFactory(config.DefaultMortgage(), fixedClock(), nil)
	require.NoError(t, err)
	p, err := factory.Make(Inputs{LendingInstitution: "rcbc", TotalContractPrice: 1000000, Age: 49, GrossMonthlyIncome: 17000})
	require.NoError(t, err)

	replaced := p.WithOrder(NewOrder(WithPercentDownPayment(money.MustPercent(0.3))))
	_, ok := p.Order().PercentDownPayment()
	assert.False(t, ok, "original particulars keep their order")
	_, ok = replaced.Order().PercentDownPayment()
	assert.True(t, ok)

	rule, ok := p.FeeRule(config.FeeMortgageRedemptionInsurance)
	require.True(t, ok)
	assert.Equal(t, 0.0027, rule.AnnualRate)
	assert.Equal(t, money.RoundCeiling, p.Rounding())
}
