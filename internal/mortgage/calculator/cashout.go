package calculator

import (
	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/internal/mortgage/extractor"
	"github.com/iwvelando/homeloan/pkg/money"
	"github.com/shopspring/decimal"
)

// CashOutBreakdown is what the buyer pays before the loan starts.
type CashOutBreakdown struct {
	DownPayment             money.Money
	PartialMiscellaneousFee money.Money
	ProcessingFee           money.Money
	Total                   money.Money
	// DownPaymentTerm is the number of monthly installments, zero when the
	// down payment is paid at once.
	DownPaymentTerm    int
	MonthlyDownPayment money.Money
}

type cashOut struct {
	r *Registry
}

// Calculate returns down payment + partial miscellaneous fee + processing
// fee, net of any waived processing fee.
func (c cashOut) Calculate(p mortgage.Particulars) (CashOutBreakdown, error) {
	tcp, err := totalContractPrice(p)
	if err != nil {
		return CashOutBreakdown{}, err
	}
	downPayment := tcp.MulPercent(percentDownPayment(p)).RoundCentavos()

	misc, err := miscFees(c.r)
	if err != nil {
		return CashOutBreakdown{}, err
	}
	partial, err := misc.Partial(p)
	if err != nil {
		return CashOutBreakdown{}, err
	}

	processing := extractor.ProcessingFee.ExtractOr(p, money.Zero(p.Currency()))
	if waived, ok := p.Order().WaivedProcessingFee(); ok {
		if processing, err = processing.Sub(waived); err != nil {
			return CashOutBreakdown{}, err
		}
		processing = processing.NonNegative()
	}

	total, err := money.Sum(p.Currency(), downPayment, partial, processing)
	if err != nil {
		return CashOutBreakdown{}, err
	}

	breakdown := CashOutBreakdown{
		DownPayment:             downPayment,
		PartialMiscellaneousFee: partial,
		ProcessingFee:           processing,
		Total:                   total,
		MonthlyDownPayment:      downPayment,
	}
	if months, ok := p.Order().DownPaymentTerm(); ok && months > 0 {
		monthly, err := downPayment.Div(decimal.NewFromInt(int64(months)))
		if err != nil {
			return CashOutBreakdown{}, err
		}
		breakdown.DownPaymentTerm = months
		breakdown.MonthlyDownPayment = monthly.RoundCentavos()
	}
	return breakdown, nil
}
