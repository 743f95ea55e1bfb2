// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/money"
	"github.com/spf13/viper"
)

// Configuration errors. They are fatal and raised when the configuration or an
// entity built from it is constructed.
var (
	ErrMissingBufferMargin = errors.New("missing buffer margin")
	ErrInvalidInstitution  = errors.New("invalid lending institution")
)

// Institution codes accepted by the engine.
const (
	InstitutionHDMF = "hdmf"
	InstitutionRCBC = "rcbc"
	InstitutionCBC  = "cbc"
)

// InstitutionCodes lists the known institution codes in display order.
var InstitutionCodes = []string{InstitutionHDMF, InstitutionRCBC, InstitutionCBC}

// IsKnownInstitution reports whether code is one of InstitutionCodes.
func IsKnownInstitution(code string) bool {
	for _, known := range InstitutionCodes {
		if code == known {
			return true
		}
	}
	return false
}

// Configuration holds all configuration for homeloan.
type Configuration struct {
	Mortgage MortgageConfig `yaml:"mortgage,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Matching MatchingConfig `yaml:"matching,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// MatchingConfig points at the product ranking rules. Without a rules file
// products are ranked by score alone.
type MatchingConfig struct {
	RulesFile string `yaml:"rulesFile,omitempty"`
}

// MortgageConfig is the read-only snapshot the mortgage engine is built from.
type MortgageConfig struct {
	Currency       string                       `yaml:"currency"`
	RoundingMode   string                       `yaml:"roundingMode"`
	Defaults       Defaults                     `yaml:"defaults"`
	Institutions   map[string]InstitutionConfig `yaml:"institutions"`
	MarketSegments MarketSegments               `yaml:"marketSegments"`
	Fees           map[string]FeeRule           `yaml:"fees"`
}

// Defaults apply when neither the buyer, the order, the property nor the
// institution supplies a value.
type Defaults struct {
	BufferMargin                *float64 `yaml:"bufferMargin,omitempty"`
	IncomeRequirementMultiplier float64  `yaml:"incomeRequirementMultiplier"`
	PercentDownPayment          float64  `yaml:"percentDownPayment"`
	MinimumBorrowingAge         int      `yaml:"minimumBorrowingAge"`
	MaximumBorrowingAge         int      `yaml:"maximumBorrowingAge"`
	MaximumPayingAge            int      `yaml:"maximumPayingAge"`
	DevelopmentType             string   `yaml:"developmentType"`
}

// BorrowingAge holds an institution's age limits. Offset is added to the
// maximum paying age when deriving the balance payment term.
type BorrowingAge struct {
	Minimum int `yaml:"minimum"`
	Maximum int `yaml:"maximum"`
	Offset  int `yaml:"offset"`
}

// InstitutionConfig is the parameter table for one lending institution.
// Rates and percentages are fractions (0.0625 for 6.25%).
type InstitutionConfig struct {
	Name                        string             `yaml:"name"`
	Alias                       string             `yaml:"alias"`
	Type                        string             `yaml:"type"`
	BorrowingAge                BorrowingAge       `yaml:"borrowingAge"`
	MaximumTerm                 int                `yaml:"maximumTerm"`
	MaximumPayingAge            int                `yaml:"maximumPayingAge"`
	BufferMargin                *float64           `yaml:"bufferMargin,omitempty"`
	IncomeRequirementMultiplier *float64           `yaml:"incomeRequirementMultiplier,omitempty"`
	InterestRate                *float64           `yaml:"interestRate,omitempty"`
	PercentDownPayment          float64            `yaml:"percentDownPayment"`
	PercentMiscellaneousFees    float64            `yaml:"percentMiscellaneousFees"`
	LoanableValueMultiplier     float64            `yaml:"loanableValueMultiplier"`
	MiscellaneousFeeApplies     bool               `yaml:"miscellaneousFeeApplies"`
	FeeRates                    map[string]float64 `yaml:"feeRates,omitempty"`
}

// Segment carries the inclusive price ceilings and defaults for one market
// segment. The open segment's ceilings are ignored.
type Segment struct {
	HorizontalCeiling           float64 `yaml:"horizontalCeiling"`
	VerticalCeiling             float64 `yaml:"verticalCeiling"`
	InterestRate                float64 `yaml:"interestRate"`
	IncomeRequirementMultiplier float64 `yaml:"incomeRequirementMultiplier"`
	PercentLoanableValue        float64 `yaml:"percentLoanableValue"`
}

// MarketSegments holds the three segments in ascending price order.
type MarketSegments struct {
	Socialized Segment `yaml:"socialized"`
	Economic   Segment `yaml:"economic"`
	Open       Segment `yaml:"open"`
}

// FeeRule computes a monthly add-on fee as TCP x AnnualRate / 12.
type FeeRule struct {
	Name       string  `yaml:"name"`
	AnnualRate float64 `yaml:"annualRate"`
}

// InstitutionTable is the lookup handed to mortgage.NewLendingInstitution.
type InstitutionTable struct {
	Entries  map[string]InstitutionConfig
	Defaults Defaults
}

// Lookup returns the entry for code.
func (t InstitutionTable) Lookup(code string) (InstitutionConfig, error) {
	if !IsKnownInstitution(code) {
		return InstitutionConfig{}, fmt.Errorf("%w: %q is not one of %s",
			ErrInvalidInstitution, code, strings.Join(InstitutionCodes, ", "))
	}
	entry, ok := t.Entries[code]
	if !ok {
		return InstitutionConfig{}, fmt.Errorf("%w: %q is not configured", ErrInvalidInstitution, code)
	}
	return entry, nil
}

// InstitutionTable returns the lookup for this configuration.
func (m MortgageConfig) InstitutionTable() InstitutionTable {
	return InstitutionTable{Entries: m.Institutions, Defaults: m.Defaults}
}

// CurrencyCode returns the validated currency.
func (m MortgageConfig) CurrencyCode() (money.Currency, error) {
	return money.NewCurrency(m.Currency)
}

// Rounding returns the validated aggregation rounding mode.
func (m MortgageConfig) Rounding() (money.RoundingMode, error) {
	return money.ParseRoundingMode(m.RoundingMode)
}

// FeeKinds returns the configured fee kinds in sorted order.
func (m MortgageConfig) FeeKinds() []string {
	kinds := make([]string, 0, len(m.Fees))
	for kind := range m.Fees {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there on top of Default(). Environment variables prefixed
// with HOMELOAN_ override file values. An institution or fee present in the
// file replaces the default entry for that key.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	configuration := Default()
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := configuration.Mortgage.Validate(); err != nil {
		return nil, err
	}

	return &configuration, nil
}

// Validate checks the configuration errors the engine cannot recover from.
func (m MortgageConfig) Validate() error {
	if _, err := m.CurrencyCode(); err != nil {
		return fmt.Errorf("mortgage.currency: %w", err)
	}
	if _, err := m.Rounding(); err != nil {
		return fmt.Errorf("mortgage.roundingMode: %w", err)
	}

	codes := make([]string, 0, len(m.Institutions))
	for code := range m.Institutions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if !IsKnownInstitution(code) {
			return fmt.Errorf("mortgage.institutions: %w: %q", ErrInvalidInstitution, code)
		}
		entry := m.Institutions[code]
		if entry.BufferMargin == nil && m.Defaults.BufferMargin == nil {
			return fmt.Errorf("mortgage.institutions.%s: %w", code, ErrMissingBufferMargin)
		}
		if entry.MaximumTerm <= 0 {
			return fmt.Errorf("mortgage.institutions.%s: maximumTerm must be positive, got %d", code, entry.MaximumTerm)
		}
	}

	if m.Defaults.MinimumBorrowingAge > m.Defaults.MaximumBorrowingAge {
		return fmt.Errorf("mortgage.defaults: minimumBorrowingAge %d exceeds maximumBorrowingAge %d",
			m.Defaults.MinimumBorrowingAge, m.Defaults.MaximumBorrowingAge)
	}
	return nil
}
