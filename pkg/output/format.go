// Package output provides utilities for formatting and displaying mortgage
// computations and product rankings.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/homeloan/internal/matching"
	"github.com/iwvelando/homeloan/internal/mortgage/computation"
	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/format"
	"github.com/iwvelando/homeloan/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type kind int

const (
	amount kind = iota
	percent
	count
	text
)

type row struct {
	label string
	kind  kind
	value float64
	text  string
}

func rows(d *computation.Data) []row {
	qualifies := "no"
	if d.Qualifies {
		qualifies = "yes"
	}
	out := []row{
		{label: "Lending institution", kind: text, text: d.LendingInstitution},
		{label: "Total contract price", kind: amount, value: d.TotalContractPrice.Float64()},
		{label: "Interest rate", kind: percent, value: d.InterestRate.Float64()},
		{label: "Balance payment term (years)", kind: count, value: float64(d.BalancePaymentTerm)},
		{label: "Percent down payment", kind: percent, value: d.PercentDownPayment.Float64()},
		{label: "Down payment", kind: amount, value: d.DownPayment.Float64()},
		{label: "Loanable base", kind: amount, value: d.LoanableBase.Float64()},
		{label: "Miscellaneous fees", kind: amount, value: d.FullMiscellaneousFee.Float64()},
		{label: "Loan amount", kind: amount, value: d.LoanAmount.Float64()},
		{label: "Loanable value", kind: amount, value: d.LoanableValue.Float64()},
		{label: "Monthly principal and interest", kind: amount, value: d.MonthlyAmortization.Principal.Float64()},
		{label: "Monthly add-on fees", kind: amount, value: d.MonthlyAmortization.AddOns.Float64()},
		{label: "Monthly amortization", kind: amount, value: d.MonthlyAmortization.Total.Float64()},
		{label: "Disposable monthly income", kind: amount, value: d.MonthlyDisposableIncome.Float64()},
		{label: "Present value", kind: amount, value: d.PresentValue.Float64()},
		{label: "Required equity", kind: amount, value: d.RequiredEquity.Float64()},
		{label: "Processing fee", kind: amount, value: d.ProcessingFee.Float64()},
		{label: "Cash out", kind: amount, value: d.CashOut.Total.Float64()},
	}
	if d.CashOut.DownPaymentTerm > 0 {
		out = append(out,
			row{label: "Down payment term (months)", kind: count, value: float64(d.CashOut.DownPaymentTerm)},
			row{label: "Monthly down payment", kind: amount, value: d.CashOut.MonthlyDownPayment.Float64()},
		)
	}
	out = append(out,
		row{label: "Income gap", kind: amount, value: d.IncomeGap.Float64()},
		row{label: "Required income", kind: amount, value: d.RequiredIncome.Float64()},
		row{label: "Suggested percent down payment", kind: percent, value: d.PercentDownPaymentRemedy.Float64()},
		row{label: "Qualifies", kind: text, text: qualifies},
		row{label: "Reason", kind: text, text: d.Reason},
	)
	return out
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, d *computation.Data) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "--- Results for %s ---\n", strings.ToUpper(d.LendingInstitution))
	_, _ = fmt.Fprintf(w, "Item                           | Value\n")
	_, _ = fmt.Fprintf(w, "____                           | _____\n")
	for _, r := range rows(d) {
		switch r.kind {
		case amount:
			_, _ = p.Fprintf(w, "%-30s | %s%.2f\n", r.label, constants.CurrencySymbol, r.value)
		case percent:
			_, _ = p.Fprintf(w, "%-30s | %s\n", r.label, format.Percent(r.value))
		case count:
			_, _ = p.Fprintf(w, "%-30s | %d\n", r.label, int(r.value))
		default:
			_, _ = p.Fprintf(w, "%-30s | %s\n", r.label, r.text)
		}
	}
}

// CsvFormat writes the computation in comma-separated value format.
func CsvFormat(w io.Writer, d *computation.Data) {
	_, _ = fmt.Fprintf(w, `"item","value"`+"\n")
	for _, r := range rows(d) {
		var value string
		switch r.kind {
		case amount:
			value = fmt.Sprintf("%.2f", r.value)
		case percent:
			value = fmt.Sprintf("%.4f", r.value)
		case count:
			value = fmt.Sprintf("%d", int(r.value))
		default:
			value = r.text
		}
		_, _ = fmt.Fprintf(w, `"%s","%s"`+"\n", r.label, value)
	}
}

// PrettyMatches writes ranked products as a table.
func PrettyMatches(w io.Writer, matches []matching.Match) {
	_, _ = fmt.Fprintf(w, "Rank | Product | Institution | Score | Amortization | Cash out | Notes\n")
	_, _ = fmt.Fprintf(w, "____ | _______ | ___________ | _____ | ____________ | ________ | _____\n")
	for i, m := range matches {
		_, _ = fmt.Fprintf(w, "%d | %s | %s | %.2f | %s | %s | %s\n",
			i+1, m.Product.Name, m.Product.LendingInstitution, m.Score,
			format.Currency(m.MonthlyAmortization), format.Currency(m.CashOut), notes(m))
	}
}

// CsvMatches writes ranked products in comma-separated value format.
func CsvMatches(w io.Writer, matches []matching.Match) {
	_, _ = fmt.Fprintf(w, `"rank","id","institution","score","qualifies","monthly amortization","cash out","notes"`+"\n")
	for i, m := range matches {
		_, _ = fmt.Fprintf(w, `"%d","%s","%s","%.2f","%t","%.2f","%.2f","%s"`+"\n",
			i+1, m.Product.ID, m.Product.LendingInstitution, m.Score, m.Qualifies,
			m.MonthlyAmortization, m.CashOut, notes(m))
	}
}

func notes(m matching.Match) string {
	var out []string
	if m.Error != "" {
		out = append(out, m.Error)
	} else if !m.Qualifies {
		out = append(out, "income gap "+format.NumericCurrency(m.IncomeGap))
	}
	if m.Rule != "" {
		out = append(out, "rule "+m.Rule)
	}
	return strings.Join(out, ",")
}

// PrettyOptimization prints a down payment search result as one sentence.
func PrettyOptimization(w io.Writer, s optimization.Summary) {
	if !s.Converged {
		_, _ = fmt.Fprintf(w, "No down payment qualifies for %s: %s\n", strings.ToUpper(s.LendingInstitution), strings.Join(s.Notes, "; "))
		return
	}
	_, _ = fmt.Fprintf(w, "Minimum down payment for %s: %s (amortization %s, headroom %s, %d iterations)\n",
		strings.ToUpper(s.LendingInstitution), s.ValueDisplay,
		format.Currency(s.MonthlyAmortization), format.Currency(s.Headroom), s.Iterations)
}

// CsvOptimization prints a down payment search result as one CSV row.
func CsvOptimization(w io.Writer, s optimization.Summary) {
	_, _ = fmt.Fprintf(w, `"institution","field","original","value","monthly amortization","headroom","converged"`+"\n")
	_, _ = fmt.Fprintf(w, `"%s","%s","%.2f","%.2f","%.2f","%.2f","%t"`+"\n",
		s.LendingInstitution, s.Field, s.Original, s.Value, s.MonthlyAmortization, s.Headroom, s.Converged)
}
