package mortgage

import (
	"sort"

	"github.com/iwvelando/homeloan/pkg/money"
)

// Order carries transaction-level overrides. Every field is optional; an
// absent value defers to the property or the lending institution.
type Order struct {
	percentDownPayment  *money.Percent
	monthlyFees         map[string]money.Money
	optedFees           map[string]bool
	discount            *money.Money
	lowCashOut          *money.Money
	consultingFee       *money.Money
	processingFee       *money.Money
	waivedProcessingFee *money.Money
	downPaymentTerm     *int
	balancePaymentTerm  *int
	institution         *LendingInstitution
	tcp                 *money.Price
	interestRate        *money.Percent
	percentMiscFees     *money.Percent
}

// OrderOption sets one Order field.
type OrderOption func(*Order)

// NewOrder builds an order from options.
func NewOrder(opts ...OrderOption) Order {
	o := Order{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPercentDownPayment overrides the down payment share of the TCP.
func WithPercentDownPayment(p money.Percent) OrderOption {
	return func(o *Order) { o.percentDownPayment = &p }
}

// WithMonthlyFee fixes the monthly amount for a fee kind instead of deriving
// it from the TCP, and opts the order into that fee.
func WithMonthlyFee(kind string, amount money.Money) OrderOption {
	return func(o *Order) {
		fees := make(map[string]money.Money, len(o.monthlyFees)+1)
		for k, v := range o.monthlyFees {
			fees[k] = v
		}
		fees[kind] = amount
		o.monthlyFees = fees
		WithFee(kind)(o)
	}
}

// WithFee opts the order into a recurring add-on fee.
func WithFee(kind string) OrderOption {
	return func(o *Order) {
		opted := make(map[string]bool, len(o.optedFees)+1)
		for k, v := range o.optedFees {
			opted[k] = v
		}
		opted[kind] = true
		o.optedFees = opted
	}
}

// WithDiscount records a developer discount on the TCP.
func WithDiscount(amount money.Money) OrderOption {
	return func(o *Order) { o.discount = &amount }
}

// WithLowCashOut records a promotional reduction of the cash out.
func WithLowCashOut(amount money.Money) OrderOption {
	return func(o *Order) { o.lowCashOut = &amount }
}

// WithConsultingFee records a one-time consulting fee.
func WithConsultingFee(amount money.Money) OrderOption {
	return func(o *Order) { o.consultingFee = &amount }
}

// WithProcessingFee overrides the processing fee charged at signing.
func WithProcessingFee(amount money.Money) OrderOption {
	return func(o *Order) { o.processingFee = &amount }
}

// WithWaivedProcessingFee sets how much of the processing fee is waived.
func WithWaivedProcessingFee(amount money.Money) OrderOption {
	return func(o *Order) { o.waivedProcessingFee = &amount }
}

// WithDownPaymentTerm spreads the down payment over months.
func WithDownPaymentTerm(months int) OrderOption {
	return func(o *Order) { o.downPaymentTerm = &months }
}

// WithBalancePaymentTerm caps the loan term in years.
func WithBalancePaymentTerm(years int) OrderOption {
	return func(o *Order) { o.balancePaymentTerm = &years }
}

// WithLendingInstitution overrides the lender bound to the property.
func WithLendingInstitution(li LendingInstitution) OrderOption {
	return func(o *Order) { o.institution = &li }
}

// WithTotalContractPrice overrides the property TCP.
func WithTotalContractPrice(tcp money.Price) OrderOption {
	return func(o *Order) { o.tcp = &tcp }
}

// WithInterestRate overrides the annual interest rate.
func WithInterestRate(rate money.Percent) OrderOption {
	return func(o *Order) { o.interestRate = &rate }
}

// WithPercentMiscellaneousFees overrides the miscellaneous fee share of the TCP.
func WithPercentMiscellaneousFees(p money.Percent) OrderOption {
	return func(o *Order) { o.percentMiscFees = &p }
}

// With returns a copy of the order with more options applied. The receiver
// is left untouched.
func (o Order) With(opts ...OrderOption) Order {
	cp := o
	for _, opt := range opts {
		opt(&cp)
	}
	return cp
}

// PercentDownPayment returns the down payment override, if set.
func (o Order) PercentDownPayment() (money.Percent, bool) {
	return percentOrAbsent(o.percentDownPayment)
}

// InterestRate returns the interest rate override, if set.
func (o Order) InterestRate() (money.Percent, bool) {
	return percentOrAbsent(o.interestRate)
}

// PercentMiscellaneousFees returns the miscellaneous fee override, if set.
func (o Order) PercentMiscellaneousFees() (money.Percent, bool) {
	return percentOrAbsent(o.percentMiscFees)
}

// MonthlyFee returns a fixed monthly amount for a fee kind, if set.
func (o Order) MonthlyFee(kind string) (money.Money, bool) {
	fee, ok := o.monthlyFees[kind]
	return fee, ok
}

// OptedFees returns the opted-in fee kinds in sorted order.
func (o Order) OptedFees() []string {
	kinds := make([]string, 0, len(o.optedFees))
	for kind, opted := range o.optedFees {
		if opted {
			kinds = append(kinds, kind)
		}
	}
	sort.Strings(kinds)
	return kinds
}

// Amounts recorded on the order. The bool reports whether each was set.
func (o Order) Discount() (money.Money, bool)            { return moneyOrAbsent(o.discount) }
func (o Order) LowCashOut() (money.Money, bool)          { return moneyOrAbsent(o.lowCashOut) }
func (o Order) ConsultingFee() (money.Money, bool)       { return moneyOrAbsent(o.consultingFee) }
func (o Order) ProcessingFee() (money.Money, bool)       { return moneyOrAbsent(o.processingFee) }
func (o Order) WaivedProcessingFee() (money.Money, bool) { return moneyOrAbsent(o.waivedProcessingFee) }

// Terms recorded on the order, in months and years respectively.
func (o Order) DownPaymentTerm() (int, bool)    { return intOrAbsent(o.downPaymentTerm) }
func (o Order) BalancePaymentTerm() (int, bool) { return intOrAbsent(o.balancePaymentTerm) }

// LendingInstitution returns the lender override, if set.
func (o Order) LendingInstitution() (LendingInstitution, bool) {
	if o.institution == nil {
		return LendingInstitution{}, false
	}
	return *o.institution, true
}

// TotalContractPrice returns the TCP override, if set.
func (o Order) TotalContractPrice() (money.Price, bool) {
	if o.tcp == nil {
		return money.Price{}, false
	}
	return *o.tcp, true
}

func moneyOrAbsent(m *money.Money) (money.Money, bool) {
	if m == nil {
		return money.Money{}, false
	}
	return *m, true
}

func intOrAbsent(v *int) (int, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}
