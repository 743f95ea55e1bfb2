// Package matching ranks loan products for a buyer. Every product is run
// through the mortgage engine, scored, and then filtered, weighted and sorted
// according to the first matching rule.
package matching

import (
	"fmt"
	"sort"

	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/internal/mortgage/computation"
	"github.com/iwvelando/homeloan/internal/rules"
	"github.com/iwvelando/homeloan/pkg/mathutil"
	"go.uber.org/zap"
)

// Sort fields understood by Rank.
const (
	SortByScore               = "score"
	SortByMonthlyAmortization = "monthly_amortization"
	SortByCashOut             = "cash_out"
	SortByInterestRate        = "interest_rate"
	SortByTotalContractPrice  = "total_contract_price"
)

// Profile is the buyer side of a match.
type Profile struct {
	Age                            int                        `json:"age"`
	GrossMonthlyIncome             float64                    `json:"gross_monthly_income"`
	CoBorrowers                    []mortgage.CoBorrowerInput `json:"co_borrowers,omitempty"`
	OtherIncome                    []mortgage.IncomeSource    `json:"other_income,omitempty"`
	AddMortgageRedemptionInsurance bool                       `json:"add_mri,omitempty"`
	AddFireInsurance               bool                       `json:"add_fi,omitempty"`
}

// Product is one financing offer on one property.
type Product struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	LendingInstitution string   `json:"lending_institution"`
	TotalContractPrice float64  `json:"total_contract_price"`
	DevelopmentType    string   `json:"development_type,omitempty"`
	InterestRate       *float64 `json:"interest_rate,omitempty"`
	PercentDownPayment *float64 `json:"percent_down_payment,omitempty"`
}

// Match is a scored product. Error is set when the product could not be
// computed for the profile; such matches score zero.
type Match struct {
	Product             Product `json:"product"`
	Score               float64 `json:"score"`
	Qualifies           bool    `json:"qualifies"`
	MonthlyAmortization float64 `json:"monthly_amortization"`
	CashOut             float64 `json:"cash_out"`
	InterestRate        float64 `json:"interest_rate"`
	IncomeGap           float64 `json:"income_gap"`
	Rule                string  `json:"rule,omitempty"`
	Error               string  `json:"error,omitempty"`
	data                *computation.Data
}

// Data returns the computation behind the match, nil for failed products.
func (m Match) Data() *computation.Data { return m.data }

// Matcher ranks products with a shared factory, runner and rule engine.
type Matcher struct {
	factory *mortgage.Factory
	runner  *computation.Runner
	engine  *rules.Engine
	logger  *zap.Logger
}

// NewMatcher returns a matcher. A nil runner uses the built-in calculators and
// a nil engine ranks by score alone.
func NewMatcher(factory *mortgage.Factory, runner *computation.Runner, engine *rules.Engine, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = computation.NewRunner(nil, logger)
	}
	if engine == nil {
		engine = rules.NewEngine(logger)
	}
	return &Matcher{factory: factory, runner: runner, engine: engine, logger: logger}
}

func (p Profile) facts() map[string]any {
	return map[string]any{
		"age":                  p.Age,
		"gross_monthly_income": p.GrossMonthlyIncome,
		"co_borrowers":         len(p.CoBorrowers),
	}
}

func (p Profile) factsFor(product Product) map[string]any {
	facts := p.facts()
	facts["lending_institution"] = product.LendingInstitution
	facts["total_contract_price"] = product.TotalContractPrice
	facts["development_type"] = product.DevelopmentType
	return facts
}

func (p Profile) inputs(product Product) mortgage.Inputs {
	return mortgage.Inputs{
		LendingInstitution:             product.LendingInstitution,
		TotalContractPrice:             product.TotalContractPrice,
		Age:                            p.Age,
		GrossMonthlyIncome:             p.GrossMonthlyIncome,
		CoBorrowers:                    p.CoBorrowers,
		OtherIncome:                    p.OtherIncome,
		InterestRate:                   product.InterestRate,
		PercentDownPayment:             product.PercentDownPayment,
		AddMortgageRedemptionInsurance: p.AddMortgageRedemptionInsurance,
		AddFireInsurance:               p.AddFireInsurance,
		DevelopmentType:                product.DevelopmentType,
	}
}

// score puts every qualifying product in [50, 100] by income headroom and
// every other product in [0, 50) by how much of the amortization the income
// covers.
func score(d *computation.Data) float64 {
	disposable := d.MonthlyDisposableIncome.Float64()
	amortization := d.MonthlyAmortization.Total.Float64()
	if d.Qualifies {
		if disposable <= 0 {
			return 50
		}
		headroom := (disposable - amortization) / disposable
		return mathutil.Round(50 + 50*mathutil.Min(1, mathutil.Max(0, headroom)))
	}
	if amortization <= 0 {
		return 0
	}
	covered := 1 - d.IncomeGap.Float64()/amortization
	return mathutil.Round(mathutil.Min(49.99, 50*mathutil.Max(0, covered)))
}

// Rank computes and scores every product for profile. Each product is
// weighted by the rule matching the profile together with that product; a
// rule naming a preferred institution drops products from other
// institutions. The order comes from the rule matching the profile alone,
// by score descending when no rule says otherwise. Failed products sort last.
func (m *Matcher) Rank(profile Profile, products []Product) ([]Match, error) {
	matches := make([]Match, 0, len(products))
	for _, product := range products {
		match := Match{Product: product}

		rule, matched, err := m.engine.Evaluate(profile.factsFor(product))
		if err != nil {
			return nil, err
		}
		if matched {
			match.Rule = rule.Name
			if preferred := rule.Action.PreferredInstitution; preferred != "" && preferred != product.LendingInstitution {
				continue
			}
		}

		p, err := m.factory.Make(profile.inputs(product))
		if err == nil {
			match.data, err = m.runner.Run(p)
		}
		if err != nil {
			m.logger.Debug(fmt.Sprintf("product %s could not be computed", product.ID),
				zap.String("op", "matching.Rank"),
				zap.Error(err),
			)
			match.Error = err.Error()
			matches = append(matches, match)
			continue
		}

		d := match.data
		match.Qualifies = d.Qualifies
		match.MonthlyAmortization = d.MonthlyAmortization.Total.Float64()
		match.CashOut = d.CashOut.Total.Float64()
		match.InterestRate = d.InterestRate.Float64()
		match.IncomeGap = d.IncomeGap.Float64()
		match.Score = score(d)
		if matched && rule.Action.ScoreMultiplier > 0 {
			match.Score = mathutil.Round(match.Score * rule.Action.ScoreMultiplier)
		}
		matches = append(matches, match)
	}

	field, direction := SortByScore, rules.Descending
	rule, matched, err := m.engine.Evaluate(profile.facts())
	if err != nil {
		return nil, err
	}
	if matched {
		if rule.Action.SortField != "" && rule.Action.SortField != SortByScore {
			field = rule.Action.SortField
			direction = rules.Ascending
		}
		if rule.Action.SortDirection != "" {
			direction = rule.Action.SortDirection
		}
	}
	if err := sortMatches(matches, field, direction); err != nil {
		return nil, err
	}

	m.logger.Debug(fmt.Sprintf("ranked %d of %d products", len(matches), len(products)),
		zap.String("op", "matching.Rank"),
		zap.String("sort_field", field),
		zap.String("sort_direction", direction),
	)
	return matches, nil
}

func sortMatches(matches []Match, field, direction string) error {
	var key func(Match) float64
	switch field {
	case SortByScore:
		key = func(m Match) float64 { return m.Score }
	case SortByMonthlyAmortization:
		key = func(m Match) float64 { return m.MonthlyAmortization }
	case SortByCashOut:
		key = func(m Match) float64 { return m.CashOut }
	case SortByInterestRate:
		key = func(m Match) float64 { return m.InterestRate }
	case SortByTotalContractPrice:
		key = func(m Match) float64 { return m.Product.TotalContractPrice }
	default:
		return fmt.Errorf("unknown sort field %q", field)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if (a.Error == "") != (b.Error == "") {
			return a.Error == ""
		}
		if direction == rules.Descending {
			return key(a) > key(b)
		}
		return key(a) < key(b)
	})
	return nil
}
