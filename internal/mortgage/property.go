package mortgage

import (
	"fmt"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/pkg/money"
)

// MarketSegment names the price band a property falls in.
type MarketSegment string

const (
	Socialized MarketSegment = "socialized"
	Economic   MarketSegment = "economic"
	Open       MarketSegment = "open"
)

// Segment is a resolved market segment with its defaults.
type Segment struct {
	Name                        MarketSegment
	InterestRate                money.Percent
	IncomeRequirementMultiplier money.Percent
	PercentLoanableValue        money.Percent
}

// Property is the unit being financed.
type Property struct {
	tcp                  money.Price
	developmentType      string
	developmentForm      string
	housingType          string
	appraisalValue       *money.Money
	processingFee        *money.Money
	bufferMargin         money.Percent
	institution          *LendingInstitution
	incomeMultiplier     *money.Percent
	percentMiscFees      *money.Percent
	percentDownPayment   *money.Percent
	percentLoanableValue *money.Percent
	interestRate         *money.Percent
	segments             config.MarketSegments
}

// TotalContractPrice returns the TCP with its modifiers.
func (p Property) TotalContractPrice() money.Price { return p.tcp }

// Descriptive attributes. DevelopmentType also feeds MarketSegment.
func (p Property) DevelopmentType() string { return p.developmentType }
func (p Property) DevelopmentForm() string { return p.developmentForm }
func (p Property) HousingType() string     { return p.housingType }

// BufferMargin is the margin the institution requires on this property.
func (p Property) BufferMargin() money.Percent { return p.bufferMargin }

// AppraisalValue returns the appraised value, if known.
func (p Property) AppraisalValue() (money.Money, bool) {
	if p.appraisalValue == nil {
		return money.Money{}, false
	}
	return *p.appraisalValue, true
}

// ProcessingFee returns the property's processing fee, if any.
func (p Property) ProcessingFee() (money.Money, bool) {
	if p.processingFee == nil {
		return money.Money{}, false
	}
	return *p.processingFee, true
}

// LendingInstitution returns the institution financing the property, if set.
func (p Property) LendingInstitution() (LendingInstitution, bool) {
	if p.institution == nil {
		return LendingInstitution{}, false
	}
	return *p.institution, true
}

// MarketSegment derives the segment from the TCP and development type.
func (p Property) MarketSegment() Segment {
	tcp := p.tcp.MustInclusive().Float64()
	vertical := p.developmentType == config.DevelopmentVertical

	ceiling := func(s config.Segment) float64 {
		if vertical {
			return s.VerticalCeiling
		}
		return s.HorizontalCeiling
	}

	switch {
	case tcp <= ceiling(p.segments.Socialized):
		return resolveSegment(Socialized, p.segments.Socialized)
	case tcp <= ceiling(p.segments.Economic):
		return resolveSegment(Economic, p.segments.Economic)
	default:
		return resolveSegment(Open, p.segments.Open)
	}
}

func resolveSegment(name MarketSegment, s config.Segment) Segment {
	// Segment tables are validated by the property builder.
	return Segment{
		Name:                        name,
		InterestRate:                money.MustPercent(s.InterestRate),
		IncomeRequirementMultiplier: money.MustPercent(s.IncomeRequirementMultiplier),
		PercentLoanableValue:        money.MustPercent(s.PercentLoanableValue),
	}
}

// InterestRate resolves own rate, then the institution's, then the market
// segment default.
func (p Property) InterestRate() (money.Percent, bool) {
	if p.interestRate != nil {
		return *p.interestRate, true
	}
	if p.institution != nil {
		if rate, ok := p.institution.InterestRate(); ok {
			return rate, true
		}
	}
	return p.MarketSegment().InterestRate, true
}

// IncomeRequirementMultiplier resolves own multiplier, then the
// institution's, then the market segment default.
func (p Property) IncomeRequirementMultiplier() (money.Percent, bool) {
	if p.incomeMultiplier != nil {
		return *p.incomeMultiplier, true
	}
	if p.institution != nil {
		if m, ok := p.institution.IncomeRequirementMultiplier(); ok {
			return m, true
		}
	}
	m := p.MarketSegment().IncomeRequirementMultiplier
	return m, !m.IsZero()
}

// PercentDownPayment resolves own value, then the institution's.
func (p Property) PercentDownPayment() (money.Percent, bool) {
	if p.percentDownPayment != nil {
		return *p.percentDownPayment, true
	}
	if p.institution != nil {
		return p.institution.PercentDownPayment(), true
	}
	return money.Percent{}, false
}

// PercentMiscellaneousFees returns the property's own override.
func (p Property) PercentMiscellaneousFees() (money.Percent, bool) {
	return percentOrAbsent(p.percentMiscFees)
}

// PercentLoanableValue resolves own value, then the market segment default.
func (p Property) PercentLoanableValue() money.Percent {
	if p.percentLoanableValue != nil {
		return *p.percentLoanableValue
	}
	return p.MarketSegment().PercentLoanableValue
}

// LoanableValue is the lesser of TCP and appraisal value times the percent
// loanable value, rounded half up.
func (p Property) LoanableValue() (money.Money, error) {
	base, err := p.tcp.Inclusive()
	if err != nil {
		return money.Money{}, err
	}
	if appraisal, ok := p.AppraisalValue(); ok && appraisal.Cmp(base) < 0 {
		base = appraisal
	}
	return base.MulPercent(p.PercentLoanableValue()).RoundCentavos(), nil
}

// PropertyBuilder assembles a Property.
type PropertyBuilder struct {
	property Property
	margin   *money.Percent
	err      error
}

// NewPropertyBuilder starts a property priced at tcp.
func NewPropertyBuilder(tcp money.Money, segments config.MarketSegments) *PropertyBuilder {
	pb := &PropertyBuilder{property: Property{
		tcp:             money.NewPrice(tcp),
		developmentType: config.DevelopmentHorizontal,
		segments:        segments,
	}}
	if tcp.IsNegative() {
		pb.err = fmt.Errorf("total contract price: %w", money.ErrNegativeAmount)
	}
	return pb
}

// TotalContractPriceModifier adds a named adjustment to the TCP.
func (pb *PropertyBuilder) TotalContractPriceModifier(mod money.Modifier) *PropertyBuilder {
	pb.property.tcp = pb.property.tcp.With(mod)
	return pb
}

// DevelopmentType sets horizontal or vertical development.
func (pb *PropertyBuilder) DevelopmentType(kind string) *PropertyBuilder {
	if kind != "" && kind != config.DevelopmentHorizontal && kind != config.DevelopmentVertical && pb.err == nil {
		pb.err = fmt.Errorf("unknown development type %q", kind)
	}
	if kind != "" {
		pb.property.developmentType = kind
	}
	return pb
}

// DevelopmentForm sets the development form, e.g. subdivision or condominium.
func (pb *PropertyBuilder) DevelopmentForm(form string) *PropertyBuilder {
	pb.property.developmentForm = form
	return pb
}

// HousingType sets the housing type, e.g. house and lot or condominium unit.
func (pb *PropertyBuilder) HousingType(kind string) *PropertyBuilder {
	pb.property.housingType = kind
	return pb
}

// AppraisalValue sets the appraised value, which caps the loanable base when lower than the TCP.
func (pb *PropertyBuilder) AppraisalValue(value money.Money) *PropertyBuilder {
	pb.property.appraisalValue = &value
	return pb
}

// ProcessingFee sets the processing fee charged for this property.
func (pb *PropertyBuilder) ProcessingFee(fee money.Money) *PropertyBuilder {
	pb.property.processingFee = &fee
	return pb
}

// BufferMargin sets the buffer margin, overriding the lending institution.
func (pb *PropertyBuilder) BufferMargin(margin money.Percent) *PropertyBuilder {
	pb.margin = &margin
	return pb
}

// LendingInstitution binds the property to a lender.
func (pb *PropertyBuilder) LendingInstitution(li LendingInstitution) *PropertyBuilder {
	pb.property.institution = &li
	return pb
}

// IncomeRequirementMultiplier sets the share of income available for amortization.
func (pb *PropertyBuilder) IncomeRequirementMultiplier(m money.Percent) *PropertyBuilder {
	pb.property.incomeMultiplier = &m
	return pb
}

// PercentMiscellaneousFees sets the miscellaneous fee share of the TCP.
func (pb *PropertyBuilder) PercentMiscellaneousFees(p money.Percent) *PropertyBuilder {
	pb.property.percentMiscFees = &p
	return pb
}

// PercentDownPayment sets the developer down payment share of the TCP.
func (pb *PropertyBuilder) PercentDownPayment(p money.Percent) *PropertyBuilder {
	pb.property.percentDownPayment = &p
	return pb
}

// PercentLoanableValue sets the share of the TCP a lender will finance.
func (pb *PropertyBuilder) PercentLoanableValue(p money.Percent) *PropertyBuilder {
	pb.property.percentLoanableValue = &p
	return pb
}

// InterestRate sets the annual interest rate offered for this property.
func (pb *PropertyBuilder) InterestRate(rate money.Percent) *PropertyBuilder {
	pb.property.interestRate = &rate
	return pb
}

// Build returns the property. The buffer margin comes from the builder or the
// lending institution; without either Build fails with
// config.ErrMissingBufferMargin.
func (pb *PropertyBuilder) Build() (Property, error) {
	if pb.err != nil {
		return Property{}, pb.err
	}
	for name, s := range map[string]config.Segment{
		"socialized": pb.property.segments.Socialized,
		"economic":   pb.property.segments.Economic,
		"open":       pb.property.segments.Open,
	} {
		for _, v := range []float64{s.InterestRate, s.IncomeRequirementMultiplier, s.PercentLoanableValue} {
			if _, err := money.PercentOfFraction(v); err != nil {
				return Property{}, fmt.Errorf("market segment %s: %w", name, err)
			}
		}
	}

	property := pb.property
	switch {
	case pb.margin != nil:
		property.bufferMargin = *pb.margin
	case property.institution != nil:
		property.bufferMargin = property.institution.BufferMargin()
	default:
		return Property{}, fmt.Errorf("property: %w", config.ErrMissingBufferMargin)
	}
	return property, nil
}
