package mortgage

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/homeloan/pkg/datetime"
	"github.com/iwvelando/homeloan/pkg/money"
)

// ErrBorrowerAge is returned when a birthdate puts the borrower outside the
// allowed borrowing age.
var ErrBorrowerAge = errors.New("borrower age outside allowed range")

// OtherIncomeTag is the attribute key identifying other income modifiers.
const OtherIncomeTag = "other_income"

// AgeLimits bounds the whole-year age of a borrower.
type AgeLimits struct {
	Minimum int
	Maximum int
}

// Buyer is a borrower with optional co-borrowers.
type Buyer struct {
	birthdate        time.Time
	asOf             time.Time
	income           money.Price
	coBorrowers      []Buyer
	institution      *LendingInstitution
	interestRate     *money.Percent
	incomeMultiplier *money.Percent
	maxPayingAge     *int
}

// Birthdate returns the buyer's birthdate.
func (b Buyer) Birthdate() time.Time {
	return b.birthdate
}

// Age is the age in fractional years at the buyer's reference time.
func (b Buyer) Age() float64 {
	return datetime.AgeInYears(b.birthdate, b.asOf)
}

// GrossMonthlyIncome is the buyer's own income including other income
// sources.
func (b Buyer) GrossMonthlyIncome() (money.Money, error) {
	return b.income.Inclusive()
}

// IncomePrice exposes the income with its modifiers for auditing.
func (b Buyer) IncomePrice() money.Price {
	return b.income
}

// JointMonthlyIncome adds the gross monthly income of every co-borrower to
// the buyer's own.
func (b Buyer) JointMonthlyIncome() (money.Money, error) {
	total, err := b.GrossMonthlyIncome()
	if err != nil {
		return money.Money{}, err
	}
	for i, co := range b.coBorrowers {
		income, err := co.GrossMonthlyIncome()
		if err != nil {
			return money.Money{}, fmt.Errorf("co-borrower %d: %w", i+1, err)
		}
		if total, err = total.Add(income); err != nil {
			return money.Money{}, fmt.Errorf("co-borrower %d: %w", i+1, err)
		}
	}
	return total, nil
}

// CoBorrowers returns a copy of the co-borrowers.
func (b Buyer) CoBorrowers() []Buyer {
	return append([]Buyer(nil), b.coBorrowers...)
}

// OldestAmongst returns whichever of the buyer and co-borrowers has the
// earliest birthdate.
func (b Buyer) OldestAmongst() Buyer {
	oldest := b
	for _, co := range b.coBorrowers {
		if co.birthdate.Before(oldest.birthdate) {
			oldest = co
		}
	}
	return oldest
}

// LendingInstitution returns the institution the buyer is bound to, if any.
func (b Buyer) LendingInstitution() (LendingInstitution, bool) {
	if b.institution == nil {
		return LendingInstitution{}, false
	}
	return *b.institution, true
}

// InterestRate returns the buyer's rate override.
func (b Buyer) InterestRate() (money.Percent, bool) {
	return percentOrAbsent(b.interestRate)
}

// IncomeRequirementMultiplier returns the buyer's multiplier override.
func (b Buyer) IncomeRequirementMultiplier() (money.Percent, bool) {
	return percentOrAbsent(b.incomeMultiplier)
}

// MaximumPayingAge returns the override set when a loan term is requested.
func (b Buyer) MaximumPayingAge() (int, bool) {
	if b.maxPayingAge == nil {
		return 0, false
	}
	return *b.maxPayingAge, true
}

func percentOrAbsent(p *money.Percent) (money.Percent, bool) {
	if p == nil {
		return money.Percent{}, false
	}
	return *p, true
}

// BuyerBuilder assembles a Buyer. The first error encountered is kept and
// returned by Build.
type BuyerBuilder struct {
	buyer  Buyer
	limits AgeLimits
	clock  datetime.Clock
	hasAge bool
	err    error
}

// NewBuyerBuilder starts a buyer whose ages are measured against clock.
func NewBuyerBuilder(limits AgeLimits, clock datetime.Clock) *BuyerBuilder {
	if clock == nil {
		clock = time.Now
	}
	return &BuyerBuilder{
		buyer:  Buyer{income: money.NewPrice(money.Zero(money.PHP))},
		limits: limits,
		clock:  clock,
	}
}

// Birthdate sets the birthdate, failing with ErrBorrowerAge when the whole
// year age lies outside the limits.
func (bb *BuyerBuilder) Birthdate(birthdate time.Time) *BuyerBuilder {
	if bb.err != nil {
		return bb
	}
	asOf := bb.clock()
	age := datetime.AgeInYears(birthdate, asOf)
	years := int(math.Floor(age))
	if years < bb.limits.Minimum || years > bb.limits.Maximum {
		bb.err = fmt.Errorf("%w: age %d is outside [%d, %d]", ErrBorrowerAge, years, bb.limits.Minimum, bb.limits.Maximum)
		return bb
	}
	bb.buyer.birthdate = birthdate
	bb.buyer.asOf = asOf
	bb.hasAge = true
	return bb
}

// Age sets the birthdate of someone turning age today.
func (bb *BuyerBuilder) Age(age int) *BuyerBuilder {
	return bb.Birthdate(datetime.BirthdateForAge(age, bb.clock()))
}

// GrossMonthlyIncome sets the base income, replacing any earlier base but
// keeping other income sources.
func (bb *BuyerBuilder) GrossMonthlyIncome(income money.Money) *BuyerBuilder {
	if bb.err != nil {
		return bb
	}
	if income.IsNegative() {
		bb.err = fmt.Errorf("gross monthly income: %w", money.ErrNegativeAmount)
		return bb
	}
	price := money.NewPrice(income)
	for _, mod := range bb.buyer.income.Modifiers() {
		price = price.With(mod)
	}
	bb.buyer.income = price
	return bb
}

// OtherIncome folds a named income source into gross income.
func (bb *BuyerBuilder) OtherIncome(name string, amount money.Money) *BuyerBuilder {
	if bb.err != nil {
		return bb
	}
	if amount.IsNegative() {
		bb.err = fmt.Errorf("other income %q: %w", name, money.ErrNegativeAmount)
		return bb
	}
	bb.buyer.income = bb.buyer.income.With(money.AddModifier(name, amount, map[string]string{
		"tag":  OtherIncomeTag,
		"name": name,
	}))
	return bb
}

// CoBorrower adds a co-borrower.
func (bb *BuyerBuilder) CoBorrower(co Buyer) *BuyerBuilder {
	bb.buyer.coBorrowers = append(bb.buyer.coBorrowers, co)
	return bb
}

// LendingInstitution binds the buyer to an institution.
func (bb *BuyerBuilder) LendingInstitution(li LendingInstitution) *BuyerBuilder {
	bb.buyer.institution = &li
	return bb
}

// InterestRate overrides the resolved rate.
func (bb *BuyerBuilder) InterestRate(rate money.Percent) *BuyerBuilder {
	bb.buyer.interestRate = &rate
	return bb
}

// IncomeRequirementMultiplier overrides the resolved multiplier.
func (bb *BuyerBuilder) IncomeRequirementMultiplier(multiplier money.Percent) *BuyerBuilder {
	bb.buyer.incomeMultiplier = &multiplier
	return bb
}

// MaximumPayingAge overrides the institution's maximum paying age.
func (bb *BuyerBuilder) MaximumPayingAge(age int) *BuyerBuilder {
	bb.buyer.maxPayingAge = &age
	return bb
}

// Build returns the buyer. A birthdate is required.
func (bb *BuyerBuilder) Build() (Buyer, error) {
	if bb.err != nil {
		return Buyer{}, bb.err
	}
	if !bb.hasAge {
		return Buyer{}, fmt.Errorf("%w: birthdate is required", ErrBorrowerAge)
	}
	buyer := bb.buyer
	buyer.coBorrowers = append([]Buyer(nil), bb.buyer.coBorrowers...)
	return buyer, nil
}
