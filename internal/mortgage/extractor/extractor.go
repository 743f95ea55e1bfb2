// Package extractor resolves single values from mortgage particulars by
// walking an ordered chain of sources. The first source that has a value
// wins.
package extractor

import (
	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/pkg/money"
)

// Resolver reads one source. The bool reports whether the source had a value.
type Resolver[T any] func(p mortgage.Particulars) (T, bool)

// Chain is an ordered list of resolvers.
type Chain[T any] []Resolver[T]

// Extract returns the first value found along the chain.
func (c Chain[T]) Extract(p mortgage.Particulars) (T, bool) {
	for _, resolve := range c {
		if v, ok := resolve(p); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// ExtractOr returns the first value found, or fallback.
func (c Chain[T]) ExtractOr(p mortgage.Particulars, fallback T) T {
	if v, ok := c.Extract(p); ok {
		return v
	}
	return fallback
}

// LendingInstitution resolves Buyer, then Order, then Property.
var LendingInstitution = Chain[mortgage.LendingInstitution]{
	func(p mortgage.Particulars) (mortgage.LendingInstitution, bool) { return p.Buyer().LendingInstitution() },
	func(p mortgage.Particulars) (mortgage.LendingInstitution, bool) { return p.Order().LendingInstitution() },
	func(p mortgage.Particulars) (mortgage.LendingInstitution, bool) { return p.Property().LendingInstitution() },
}

// InterestRate resolves Buyer, then Order, then Property. The property
// itself falls back to its institution and market segment.
var InterestRate = Chain[money.Percent]{
	func(p mortgage.Particulars) (money.Percent, bool) { return p.Buyer().InterestRate() },
	func(p mortgage.Particulars) (money.Percent, bool) { return p.Order().InterestRate() },
	func(p mortgage.Particulars) (money.Percent, bool) { return p.Property().InterestRate() },
}

// PercentDownPayment resolves Order, then Property (own, then institution).
var PercentDownPayment = Chain[money.Percent]{
	func(p mortgage.Particulars) (money.Percent, bool) { return p.Order().PercentDownPayment() },
	func(p mortgage.Particulars) (money.Percent, bool) { return p.Property().PercentDownPayment() },
}

// PercentMiscellaneousFees resolves Order, then Property, then the resolved
// lending institution.
var PercentMiscellaneousFees = Chain[money.Percent]{
	func(p mortgage.Particulars) (money.Percent, bool) { return p.Order().PercentMiscellaneousFees() },
	func(p mortgage.Particulars) (money.Percent, bool) { return p.Property().PercentMiscellaneousFees() },
	func(p mortgage.Particulars) (money.Percent, bool) {
		li, ok := LendingInstitution.Extract(p)
		if !ok {
			return money.Percent{}, false
		}
		return li.PercentMiscellaneousFees(), true
	},
}

// IncomeRequirementMultiplier resolves Buyer, then the buyer's institution,
// then Property.
var IncomeRequirementMultiplier = Chain[money.Percent]{
	func(p mortgage.Particulars) (money.Percent, bool) { return p.Buyer().IncomeRequirementMultiplier() },
	func(p mortgage.Particulars) (money.Percent, bool) {
		li, ok := p.Buyer().LendingInstitution()
		if !ok {
			return money.Percent{}, false
		}
		return li.IncomeRequirementMultiplier()
	},
	func(p mortgage.Particulars) (money.Percent, bool) { return p.Property().IncomeRequirementMultiplier() },
}

// TotalContractPrice resolves Order, then Property.
var TotalContractPrice = Chain[money.Price]{
	func(p mortgage.Particulars) (money.Price, bool) { return p.Order().TotalContractPrice() },
	func(p mortgage.Particulars) (money.Price, bool) { return p.Property().TotalContractPrice(), true },
}

// ProcessingFee resolves Order, then Property. Callers treat absence as zero.
var ProcessingFee = Chain[money.Money]{
	func(p mortgage.Particulars) (money.Money, bool) { return p.Order().ProcessingFee() },
	func(p mortgage.Particulars) (money.Money, bool) { return p.Property().ProcessingFee() },
}

// Type names an extractor.
type Type string

const (
	TypeLendingInstitution          Type = "lending_institution"
	TypeInterestRate                Type = "interest_rate"
	TypePercentDownPayment          Type = "percent_down_payment"
	TypePercentMiscellaneousFees    Type = "percent_miscellaneous_fees"
	TypeIncomeRequirementMultiplier Type = "income_requirement_multiplier"
	TypeTotalContractPrice          Type = "total_contract_price"
	TypeProcessingFee               Type = "processing_fee"
)

func erase[T any](c Chain[T]) func(mortgage.Particulars) (any, bool) {
	return func(p mortgage.Particulars) (any, bool) {
		v, ok := c.Extract(p)
		if !ok {
			return nil, false
		}
		return v, true
	}
}

var registry = map[Type]func(mortgage.Particulars) (any, bool){
	TypeLendingInstitution:          erase(LendingInstitution),
	TypeInterestRate:                erase(InterestRate),
	TypePercentDownPayment:          erase(PercentDownPayment),
	TypePercentMiscellaneousFees:    erase(PercentMiscellaneousFees),
	TypeIncomeRequirementMultiplier: erase(IncomeRequirementMultiplier),
	TypeTotalContractPrice:          erase(TotalContractPrice),
	TypeProcessingFee:               erase(ProcessingFee),
}

// Extract runs the extractor registered under t. Unknown types report no
// value.
func Extract(t Type, p mortgage.Particulars) (any, bool) {
	extract, ok := registry[t]
	if !ok {
		return nil, false
	}
	return extract(p)
}

// Types lists the registered extractor types.
func Types() []Type {
	return []Type{
		TypeLendingInstitution,
		TypeInterestRate,
		TypePercentDownPayment,
		TypePercentMiscellaneousFees,
		TypeIncomeRequirementMultiplier,
		TypeTotalContractPrice,
		TypeProcessingFee,
	}
}
