package extractor

import (
	"testing"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/pkg/datetime"
	"github.com/iwvelando/homeloan/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	hdmf mortgage.LendingInstitution
	rcbc mortgage.LendingInstitution
	cbc  mortgage.LendingInstitution
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	table := config.DefaultMortgage().InstitutionTable()
	var f fixture
	var err error
	f.hdmf, err = mortgage.NewLendingInstitution(config.InstitutionHDMF, table)
	require.NoError(t, err)
	f.rcbc, err = mortgage.NewLendingInstitution(config.InstitutionRCBC, table)
	require.NoError(t, err)
	f.cbc, err = mortgage.NewLendingInstitution(config.InstitutionCBC, table)
	require.NoError(t, err)
	return f
}

func particulars(t *testing.T, buyer func(*mortgage.BuyerBuilder), property func(*mortgage.PropertyBuilder), order mortgage.Order) mortgage.Particulars {
	t.Helper()
	clock := datetime.FixedClock(datetime.MustParseTime(datetime.DateTimeLayout, "2024-06-15"))
	bb := mortgage.NewBuyerBuilder(mortgage.AgeLimits{Minimum: 18, Maximum: 65}, clock).
		Age(40).
		GrossMonthlyIncome(money.Of(50000))
	if buyer != nil {
		buyer(bb)
	}
	b, err := bb.Build()
	require.NoError(t, err)

	pb := mortgage.NewPropertyBuilder(money.Of(1000000), config.DefaultMortgage().MarketSegments).
		BufferMargin(money.MustPercent(0.1))
	if property != nil {
		property(pb)
	}
	p, err := pb.Build()
	require.NoError(t, err)

	return mortgage.NewParticulars(b, p, order, config.DefaultMortgage().Fees)
}

func TestLendingInstitutionPrecedence(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		buyer    func(*mortgage.BuyerBuilder)
		property func(*mortgage.PropertyBuilder)
		order    mortgage.Order
		expected string
		found    bool
	}{
		{
			name:  "None",
			order: mortgage.NewOrder(),
		},
		{
			name:     "Property only",
			property: func(pb *mortgage.PropertyBuilder) { pb.LendingInstitution(f.cbc) },
			order:    mortgage.NewOrder(),
			expected: "cbc",
			found:    true,
		},
		{
			name:     "Order beats property",
			property: func(pb *mortgage.PropertyBuilder) { pb.LendingInstitution(f.cbc) },
			order:    mortgage.NewOrder(mortgage.WithLendingInstitution(f.rcbc)),
			expected: "rcbc",
			found:    true,
		},
		{
			name:     "Buyer beats order",
			buyer:    func(bb *mortgage.BuyerBuilder) { bb.LendingInstitution(f.hdmf) },
			property: func(pb *mortgage.PropertyBuilder) { pb.LendingInstitution(f.cbc) },
			order:    mortgage.NewOrder(mortgage.WithLendingInstitution(f.rcbc)),
			expected: "hdmf",
			found:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := particulars(t, tt.buyer, tt.property, tt.order)
			li, ok := LendingInstitution.Extract(p)
			assert.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.expected, li.Code())
			}
		})
	}
}

func TestInterestRatePrecedence(t *testing.T) {
	f := newFixture(t)

	segmentOnly := particulars(t, nil, nil, mortgage.NewOrder())
	rate, ok := InterestRate.Extract(segmentOnly)
	require.True(t, ok)
	assert.True(t, rate.Equal(money.MustPercent(0.0625)), "economic segment rate, got %s", rate)

	withInstitution := particulars(t, nil, func(pb *mortgage.PropertyBuilder) { pb.LendingInstitution(f.cbc) }, mortgage.NewOrder())
	rate, _ = InterestRate.Extract(withInstitution)
	assert.True(t, rate.Equal(money.MustPercent(0.07)))

	withOrder := withInstitution.WithOrder(mortgage.NewOrder(mortgage.WithInterestRate(money.MustPercent(0.05))))
	rate, _ = InterestRate.Extract(withOrder)
	assert.True(t, rate.Equal(money.MustPercent(0.05)))

	withBuyer := particulars(t,
		func(bb *mortgage.BuyerBuilder) { bb.InterestRate(money.MustPercent(0.04)) },
		func(pb *mortgage.PropertyBuilder) { pb.LendingInstitution(f.cbc) },
		mortgage.NewOrder(mortgage.WithInterestRate(money.MustPercent(0.05))),
	)
	rate, _ = InterestRate.Extract(withBuyer)
	assert.True(t, rate.Equal(money.MustPercent(0.04)))
}

func TestPercentDownPayment(t *testing.T) {
	f := newFixture(t)

	none := particulars(t, nil, nil, mortgage.NewOrder())
	_, ok := PercentDownPayment.Extract(none)
	assert.False(t, ok)
	assert.True(t, PercentDownPayment.ExtractOr(none, money.ZeroPercent).IsZero())

	institution := particulars(t, nil, func(pb *mortgage.PropertyBuilder) { pb.LendingInstitution(f.rcbc) }, mortgage.NewOrder())
	dp, ok := PercentDownPayment.Extract(institution)
	require.True(t, ok)
	assert.True(t, dp.Equal(money.MustPercent(0.10)))

	order := institution.WithOrder(mortgage.NewOrder(mortgage.WithPercentDownPayment(money.MustPercent(0.31))))
	dp, _ = PercentDownPayment.Extract(order)
	assert.True(t, dp.Equal(money.MustPercent(0.31)))
}

func TestPercentMiscellaneousFees(t *testing.T) {
	f := newFixture(t)

	fromInstitution := particulars(t, nil, func(pb *mortgage.PropertyBuilder) { pb.LendingInstitution(f.cbc) }, mortgage.NewOrder())
	mf, ok := PercentMiscellaneousFees.Extract(fromInstitution)
	require.True(t, ok)
	assert.True(t, mf.Equal(money.MustPercent(0.085)))

	fromProperty := particulars(t, nil, func(pb *mortgage.PropertyBuilder) {
		pb.LendingInstitution(f.cbc).PercentMiscellaneousFees(money.MustPercent(0.05))
	}, mortgage.NewOrder())
	mf, _ = PercentMiscellaneousFees.Extract(fromProperty)
	assert.True(t, mf.Equal(money.MustPercent(0.05)))

	fromOrder := fromProperty.WithOrder(mortgage.NewOrder(mortgage.WithPercentMiscellaneousFees(money.MustPercent(0.02))))
	mf, _ = PercentMiscellaneousFees.Extract(fromOrder)
	assert.True(t, mf.Equal(money.MustPercent(0.02)))

	_, ok = PercentMiscellaneousFees.Extract(particulars(t, nil, nil, mortgage.NewOrder()))
	assert.False(t, ok)
}

func TestIncomeRequirementMultiplier(t *testing.T) {
	f := newFixture(t)

	segment := particulars(t, nil, func(pb *mortgage.PropertyBuilder) {
		pb.DevelopmentType(config.DevelopmentHorizontal)
	}, mortgage.NewOrder())
	m, ok := IncomeRequirementMultiplier.Extract(segment)
	require.True(t, ok)
	assert.True(t, m.Equal(money.MustPercent(0.35)))

	buyerInstitution := particulars(t, func(bb *mortgage.BuyerBuilder) { bb.LendingInstitution(f.hdmf) }, nil, mortgage.NewOrder())
	m, _ = IncomeRequirementMultiplier.Extract(buyerInstitution)
	assert.True(t, m.Equal(money.MustPercent(0.35)))

	override := particulars(t, func(bb *mortgage.BuyerBuilder) {
		bb.LendingInstitution(f.hdmf).IncomeRequirementMultiplier(money.MustPercent(0.4))
	}, nil, mortgage.NewOrder())
	m, _ = IncomeRequirementMultiplier.Extract(override)
	assert.True(t, m.Equal(money.MustPercent(0.4)))
}

func TestTotalContractPriceAndProcessingFee(t *testing.T) {
	p := particulars(t, nil, func(pb *mortgage.PropertyBuilder) { pb.ProcessingFee(money.Of(5000)) }, mortgage.NewOrder())

	price, ok := TotalContractPrice.Extract(p)
	require.True(t, ok)
	assert.Equal(t, 1000000.0, price.MustInclusive().Float64())

	fee, ok := ProcessingFee.Extract(p)
	require.True(t, ok)
	assert.Equal(t, 5000.0, fee.Float64())

	overridden := p.WithOrder(mortgage.NewOrder(
		mortgage.WithTotalContractPrice(money.NewPrice(money.Of(2000000))),
		mortgage.WithProcessingFee(money.Of(0)),
	))
	price, _ = TotalContractPrice.Extract(overridden)
	assert.Equal(t, 2000000.0, price.MustInclusive().Float64())
	fee, _ = ProcessingFee.Extract(overridden)
	assert.True(t, fee.IsZero())
}

func TestRegistry(t *testing.T) {
	p := particulars(t, nil, nil, mortgage.NewOrder())

	for _, typ := range Types() {
		t.Run(string(typ), func(t *testing.T) {
			_, registered := registry[typ]
			assert.True(t, registered)
		})
	}

	v, ok := Extract(TypeTotalContractPrice, p)
	require.True(t, ok)
	assert.IsType(t, money.Price{}, v)

	_, ok = Extract(TypeLendingInstitution, p)
	assert.False(t, ok)

	_, ok = Extract(Type("unknown"), p)
	assert.False(t, ok)
}
