// Package optimization provides shared data structures for optimization results.
package optimization

// FieldPercentDownPayment names the input the optimizer adjusts.
const FieldPercentDownPayment = "percent_down_payment"

// Summary captures the result of a single optimization run.
type Summary struct {
	LendingInstitution      string   `json:"lending_institution"`
	Field                   string   `json:"field"`
	Original                float64  `json:"original"`
	Value                   float64  `json:"value"`
	Minimum                 float64  `json:"minimum"`
	Maximum                 float64  `json:"maximum"`
	MonthlyAmortization     float64  `json:"monthly_amortization"`
	MonthlyDisposableIncome float64  `json:"monthly_disposable_income"`
	Headroom                float64  `json:"headroom"`
	Iterations              int      `json:"iterations"`
	Converged               bool     `json:"converged"`
	Notes                   []string `json:"notes,omitempty"`
	OriginalDisplay         string   `json:"original_display,omitempty"`
	ValueDisplay            string   `json:"value_display,omitempty"`
}
