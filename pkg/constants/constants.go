// Package constants provides shared constants for the homeloan engine.
package constants

// DateTimeLayout is the date format accepted for birthdates and reference
// dates.
const DateTimeLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYear is the average year length used to derive ages
	DaysPerYear = 365.25

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyPlaces is the number of decimal places kept on money amounts
	CurrencyPlaces = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 centavo)
	CurrencyTolerance = 0.01

	// RateTolerance is the threshold under which a monthly rate is treated as zero
	RateTolerance = 1e-12

	// PercentEpsilon is the tolerance used when comparing percents
	PercentEpsilon = 1e-9
)

// Default currency
const (
	// DefaultCurrency is the ISO 4217 code amounts are denominated in
	DefaultCurrency = "PHP"

	// CurrencySymbol is prefixed to formatted peso amounts
	CurrencySymbol = "₱"
)

// Scenario calculator constants
const (
	// MaxIterations caps every month-by-month simulation
	MaxIterations = 360

	// DebtToIncomeCeiling is the share of gross income allowed for housing and debts
	DebtToIncomeCeiling = 33.0

	// MaxProjectionYears caps equity projections
	MaxProjectionYears = 10

	// NegligibleEquityGap is the gap ratio below which no extra down payment is suggested
	NegligibleEquityGap = 0.01
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes environment overrides picked up by viper
	EnvPrefix = "HOMELOAN"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)
