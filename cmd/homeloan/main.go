package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/internal/matching"
	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/internal/mortgage/computation"
	"github.com/iwvelando/homeloan/internal/optimizer"
	"github.com/iwvelando/homeloan/internal/rules"
	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/datetime"
	"github.com/iwvelando/homeloan/pkg/output"
	"github.com/iwvelando/homeloan/pkg/validation"
	"go.uber.org/zap"
)

// optionalFloat leaves the field unset unless the flag was given.
func optionalFloat(set map[string]bool, name string, v float64) *float64 {
	if !set[name] {
		return nil
	}
	return &v
}

func optionalInt(set map[string]bool, name string, v int) *int {
	if !set[name] {
		return nil
	}
	return &v
}

func loadConfiguration(path string, explicit bool) (*config.Configuration, error) {
	conf, err := config.LoadConfiguration(path)
	if err == nil {
		return conf, nil
	}
	if _, statErr := os.Stat(path); !explicit && errors.Is(statErr, fs.ErrNotExist) {
		defaults := config.Default()
		return &defaults, nil
	}
	return nil, err
}

func loadProducts(path string) ([]matching.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read products file %s: %w", path, err)
	}
	var products []matching.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products file %s: %w", path, err)
	}
	return products, nil
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	referenceDate := flag.String("reference-date", "", "date ages are computed at (YYYY-MM-DD), defaults to today")

	institution := flag.String("institution", config.InstitutionHDMF, "lending institution code: hdmf, rcbc, cbc")
	tcp := flag.Float64("tcp", 0, "total contract price")
	age := flag.Int("age", 0, "age of the principal borrower")
	income := flag.Float64("income", 0, "gross monthly income of the principal borrower")
	rate := flag.Float64("rate", 0, "annual interest rate override as a fraction")
	dp := flag.Float64("dp", 0, "percent down payment override as a fraction")
	mf := flag.Float64("mf", 0, "percent miscellaneous fees override as a fraction")
	processingFee := flag.Float64("processing-fee", 0, "processing fee")
	waivedFee := flag.Float64("waived-processing-fee", 0, "waived part of the processing fee")
	term := flag.Int("term", 0, "desired loan term in years")
	dpTerm := flag.Int("dp-term", 0, "number of monthly down payment installments")
	development := flag.String("development-type", "", "development type: horizontal, vertical")
	mri := flag.Bool("mri", false, "add mortgage redemption insurance")
	fire := flag.Bool("fi", false, "add fire insurance")
	products := flag.String("products", "", "rank the products in this JSON file instead of computing one loan")
	optimize := flag.Bool("optimize", false, "search for the smallest down payment that qualifies instead of computing one loan")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	conf, err := loadConfiguration(*configLocation, set["config"])
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config.
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	var clock datetime.Clock
	if *referenceDate != "" {
		at, err := datetime.ParseDate(*referenceDate)
		if err != nil {
			logger.Fatal("invalid reference date",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		clock = datetime.FixedClock(at)
	}

	factory, err := mortgage.NewFactory(conf.Mortgage, clock, logger)
	if err != nil {
		logger.Fatal("invalid mortgage configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	runner := computation.NewRunner(nil, logger)

	if *products != "" {
		catalog, err := loadProducts(*products)
		if err != nil {
			logger.Fatal("failed to load products",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}

		var ruleSet []rules.Rule
		if conf.Matching.RulesFile != "" {
			ruleSet, err = rules.LoadRulesFile(conf.Matching.RulesFile)
			if err != nil {
				logger.Fatal("failed to load matching rules",
					zap.String("op", "main"),
					zap.Error(err),
				)
			}
		}

		matcher := matching.NewMatcher(factory, runner, rules.NewEngine(logger, ruleSet...), logger)
		matches, err := matcher.Rank(matching.Profile{
			Age:                            *age,
			GrossMonthlyIncome:             *income,
			AddMortgageRedemptionInsurance: *mri,
			AddFireInsurance:               *fire,
		}, catalog)
		if err != nil {
			logger.Fatal("failed to rank products",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}

		switch outputFormat {
		case constants.OutputFormatPretty:
			output.PrettyMatches(os.Stdout, matches)
		case constants.OutputFormatCSV:
			output.CsvMatches(os.Stdout, matches)
		}
		return
	}

	in := mortgage.Inputs{
		LendingInstitution:             *institution,
		TotalContractPrice:             *tcp,
		Age:                            *age,
		GrossMonthlyIncome:             *income,
		InterestRate:                   optionalFloat(set, "rate", *rate),
		PercentDownPayment:             optionalFloat(set, "dp", *dp),
		PercentMiscellaneousFees:       optionalFloat(set, "mf", *mf),
		ProcessingFee:                  optionalFloat(set, "processing-fee", *processingFee),
		WaivedProcessingFee:            optionalFloat(set, "waived-processing-fee", *waivedFee),
		DesiredLoanTerm:                optionalInt(set, "term", *term),
		DownPaymentTerm:                optionalInt(set, "dp-term", *dpTerm),
		DevelopmentType:                *development,
		AddMortgageRedemptionInsurance: *mri,
		AddFireInsurance:               *fire,
	}

	if err := validation.ValidateInputs(in); err != nil {
		logger.Fatal("invalid inputs",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	for _, warning := range validation.InputWarnings(in, conf.Mortgage) {
		logger.Warn("Input warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if *optimize {
		optimizerRunner, err := optimizer.NewRunner(logger, factory, runner)
		if err != nil {
			logger.Fatal("failed to build optimizer",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		summary, err := optimizerRunner.MinimumDownPayment(in, optimizer.Bounds{})
		if err != nil {
			logger.Fatal("failed to optimize down payment",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		switch outputFormat {
		case constants.OutputFormatPretty:
			output.PrettyOptimization(os.Stdout, summary)
		case constants.OutputFormatCSV:
			output.CsvOptimization(os.Stdout, summary)
		}
		return
	}

	p, err := factory.Make(in)
	if err != nil {
		logger.Fatal("failed to assemble mortgage particulars",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	d, err := runner.Run(p)
	if err != nil {
		logger.Fatal("failed to compute mortgage",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, d)
	case constants.OutputFormatCSV:
		output.CsvFormat(os.Stdout, d)
	}
}
