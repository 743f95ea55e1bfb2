package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iwvelando/homeloan/internal/config"
	"github.com/iwvelando/homeloan/internal/matching"
	"github.com/iwvelando/homeloan/internal/mortgage"
	"github.com/iwvelando/homeloan/internal/mortgage/computation"
	"github.com/iwvelando/homeloan/internal/optimizer"
	"github.com/iwvelando/homeloan/internal/rules"
	"github.com/iwvelando/homeloan/internal/scenario"
	"github.com/iwvelando/homeloan/pkg/constants"
	"github.com/iwvelando/homeloan/pkg/datetime"
	"github.com/iwvelando/homeloan/pkg/output"
	"github.com/iwvelando/homeloan/pkg/validation"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options wires the handler to the mortgage engine.
type Options struct {
	Mortgage    config.MortgageConfig
	Rules       []rules.Rule
	Clock       datetime.Clock
	MaxBodySize int64
	Version     string
}

type handler struct {
	logger      *zap.Logger
	conf        config.MortgageConfig
	factory     *mortgage.Factory
	runner      *computation.Runner
	matcher     *matching.Matcher
	optimizer   *optimizer.Runner
	metrics     *metrics
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler that serves the mortgage API. The
// mortgage configuration is validated once here; a nil clock uses the wall
// clock.
func NewHandler(logger *zap.Logger, opts Options) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	factory, err := mortgage.NewFactory(opts.Mortgage, opts.Clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build mortgage factory: %w", err)
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	runner := computation.NewRunner(nil, logger)
	optimizerRunner, err := optimizer.NewRunner(logger, factory, runner)
	if err != nil {
		return nil, fmt.Errorf("failed to build optimizer: %w", err)
	}
	h := &handler{
		logger:      logger,
		conf:        opts.Mortgage,
		factory:     factory,
		runner:      runner,
		matcher:     matching.NewMatcher(factory, runner, rules.NewEngine(logger, opts.Rules...), logger),
		optimizer:   optimizerRunner,
		metrics:     newMetrics(),
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
	}

	mux := http.NewServeMux()
	routes := map[string]http.HandlerFunc{
		"/api/compute":       h.handleCompute,
		"/api/affordability": h.handleAffordability,
		"/api/early-payment": h.handleEarlyPayment,
		"/api/equity":        h.handleEquity,
		"/api/refinance":     h.handleRefinance,
		"/api/match":         h.handleMatch,
		"/api/optimize":      h.handleOptimize,
		"/api/institutions":  h.handleInstitutions,
		"/api/config":        h.handleConfig,
		"/api/version":       h.handleVersion,
	}
	known := make(map[string]bool, len(routes)+1)
	for path, fn := range routes {
		mux.HandleFunc(path, fn)
		known[path] = true
	}
	mux.Handle("/metrics", h.metrics.handler())
	known["/metrics"] = true

	return h.instrument(known, mux), nil
}

type amortizationBody struct {
	Principal float64 `json:"principal"`
	AddOns    float64 `json:"add_ons"`
	Total     float64 `json:"total"`
}

type cashOutBody struct {
	DownPayment             float64 `json:"down_payment"`
	PartialMiscellaneousFee float64 `json:"partial_miscellaneous_fee"`
	ProcessingFee           float64 `json:"processing_fee"`
	Total                   float64 `json:"total"`
	DownPaymentTerm         int     `json:"down_payment_term,omitempty"`
	MonthlyDownPayment      float64 `json:"monthly_down_payment,omitempty"`
}

type computeResponse struct {
	LendingInstitution          string           `json:"lending_institution"`
	InterestRate                float64          `json:"interest_rate"`
	PercentDownPayment          float64          `json:"percent_down_payment"`
	PercentMiscellaneousFees    float64          `json:"percent_miscellaneous_fees"`
	IncomeRequirementMultiplier float64          `json:"income_requirement_multiplier"`
	BalancePaymentTerm          int              `json:"balance_payment_term"`
	TotalContractPrice          float64          `json:"total_contract_price"`
	DownPayment                 float64          `json:"down_payment"`
	LoanableBase                float64          `json:"loanable_base"`
	MiscellaneousFees           float64          `json:"miscellaneous_fees"`
	LoanAmount                  float64          `json:"loan_amount"`
	LoanableValue               float64          `json:"loanable_value"`
	MonthlyAmortization         amortizationBody `json:"monthly_amortization"`
	MonthlyDisposableIncome     float64          `json:"monthly_disposable_income"`
	PresentValue                float64          `json:"present_value"`
	RequiredEquity              float64          `json:"required_equity"`
	CashOut                     cashOutBody      `json:"cash_out"`
	IncomeGap                   float64          `json:"income_gap"`
	RequiredIncome              float64          `json:"required_income"`
	PercentDownPaymentRemedy    float64          `json:"percent_down_payment_remedy"`
	Qualifies                   bool             `json:"qualifies"`
	Reason                      string           `json:"reason"`
	Warnings                    []string         `json:"warnings,omitempty"`
	CSV                         string           `json:"csv"`
	Duration                    string           `json:"duration"`
}

func newComputeResponse(d *computation.Data) computeResponse {
	var csv bytes.Buffer
	output.CsvFormat(&csv, d)
	return computeResponse{
		LendingInstitution:          d.LendingInstitution,
		InterestRate:                d.InterestRate.Float64(),
		PercentDownPayment:          d.PercentDownPayment.Float64(),
		PercentMiscellaneousFees:    d.PercentMiscellaneousFees.Float64(),
		IncomeRequirementMultiplier: d.IncomeRequirementMultiplier.Float64(),
		BalancePaymentTerm:          d.BalancePaymentTerm,
		TotalContractPrice:          d.TotalContractPrice.Float64(),
		DownPayment:                 d.DownPayment.Float64(),
		LoanableBase:                d.LoanableBase.Float64(),
		MiscellaneousFees:           d.FullMiscellaneousFee.Float64(),
		LoanAmount:                  d.LoanAmount.Float64(),
		LoanableValue:               d.LoanableValue.Float64(),
		MonthlyAmortization: amortizationBody{
			Principal: d.MonthlyAmortization.Principal.Float64(),
			AddOns:    d.MonthlyAmortization.AddOns.Float64(),
			Total:     d.MonthlyAmortization.Total.Float64(),
		},
		MonthlyDisposableIncome: d.MonthlyDisposableIncome.Float64(),
		PresentValue:            d.PresentValue.Float64(),
		RequiredEquity:          d.RequiredEquity.Float64(),
		CashOut: cashOutBody{
			DownPayment:             d.CashOut.DownPayment.Float64(),
			PartialMiscellaneousFee: d.CashOut.PartialMiscellaneousFee.Float64(),
			ProcessingFee:           d.CashOut.ProcessingFee.Float64(),
			Total:                   d.CashOut.Total.Float64(),
			DownPaymentTerm:         d.CashOut.DownPaymentTerm,
			MonthlyDownPayment:      d.CashOut.MonthlyDownPayment.Float64(),
		},
		IncomeGap:                d.IncomeGap.Float64(),
		RequiredIncome:           d.RequiredIncome.Float64(),
		PercentDownPaymentRemedy: d.PercentDownPaymentRemedy.Float64(),
		Qualifies:                d.Qualifies,
		Reason:                   d.Reason,
		CSV:                      csv.String(),
	}
}

func (h *handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompute"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	var in mortgage.Inputs
	if !h.decode(w, r, &in, op) {
		return
	}

	if err := validation.ValidateInputs(in); err != nil {
		h.respondErrors(w, http.StatusBadRequest, multierr.Errors(err), op)
		return
	}

	p, err := h.factory.Make(in)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}
	d, err := h.runner.Run(p)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}
	h.metrics.computed(d.LendingInstitution, d.Qualifies)

	response := newComputeResponse(d)
	response.Warnings = validation.InputWarnings(in, h.conf)
	response.Duration = time.Since(start).String()

	h.logger.Info("mortgage computed",
		zap.String("op", op),
		zap.String("request_id", w.Header().Get(headerRequestID)),
		zap.String("institution", d.LendingInstitution),
		zap.Bool("qualifies", d.Qualifies),
	)
	h.writeJSON(w, http.StatusOK, response)
}

// scenarioHandler decodes In, runs calc and maps scenario.ErrInvalidInput to
// a bad request.
func scenarioHandler[In, Out any](h *handler, op string, calc func(*zap.Logger, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		var in In
		if !h.decode(w, r, &in, op) {
			return
		}
		result, err := calc(h.logger, in)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, scenario.ErrInvalidInput) {
				status = http.StatusBadRequest
			}
			h.respondError(w, status, err.Error(), op)
			return
		}
		h.writeJSON(w, http.StatusOK, result)
	}
}

func (h *handler) handleAffordability(w http.ResponseWriter, r *http.Request) {
	scenarioHandler(h, "server.handleAffordability", scenario.CalculateAffordability)(w, r)
}

func (h *handler) handleEarlyPayment(w http.ResponseWriter, r *http.Request) {
	scenarioHandler(h, "server.handleEarlyPayment", scenario.CalculateEarlyPayment)(w, r)
}

func (h *handler) handleEquity(w http.ResponseWriter, r *http.Request) {
	scenarioHandler(h, "server.handleEquity", scenario.CalculateEquity)(w, r)
}

func (h *handler) handleRefinance(w http.ResponseWriter, r *http.Request) {
	scenarioHandler(h, "server.handleRefinance", scenario.CalculateRefinance)(w, r)
}

type matchRequest struct {
	Profile  matching.Profile   `json:"profile"`
	Products []matching.Product `json:"products"`
}

type matchResponse struct {
	Matches  []matching.Match `json:"matches"`
	Duration string           `json:"duration"`
}

func (h *handler) handleMatch(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMatch"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	var req matchRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if len(req.Products) == 0 {
		h.respondError(w, http.StatusBadRequest, "at least one product is required", op)
		return
	}

	matches, err := h.matcher.Rank(req.Profile, req.Products)
	if err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, err.Error(), op)
		return
	}
	for _, m := range matches {
		if d := m.Data(); d != nil {
			h.metrics.computed(d.LendingInstitution, d.Qualifies)
		}
	}

	h.writeJSON(w, http.StatusOK, matchResponse{Matches: matches, Duration: time.Since(start).String()})
}

type optimizeRequest struct {
	Inputs mortgage.Inputs  `json:"inputs"`
	Bounds optimizer.Bounds `json:"bounds"`
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req optimizeRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if err := validation.ValidateInputs(req.Inputs); err != nil {
		h.respondErrors(w, http.StatusBadRequest, multierr.Errors(err), op)
		return
	}

	summary, err := h.optimizer.MinimumDownPayment(req.Inputs, req.Bounds)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, optimizer.ErrInvalidBounds) {
			status = http.StatusBadRequest
		}
		h.respondError(w, status, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

type institutionBody struct {
	Code               string   `json:"code"`
	Name               string   `json:"name"`
	Alias              string   `json:"alias"`
	Type               string   `json:"type"`
	InterestRate       *float64 `json:"interest_rate,omitempty"`
	PercentDownPayment float64  `json:"percent_down_payment"`
	MaximumTerm        int      `json:"maximum_term"`
	MaximumPayingAge   int      `json:"maximum_paying_age"`
	MinimumAge         int      `json:"minimum_borrowing_age"`
	MaximumAge         int      `json:"maximum_borrowing_age"`
}

func (h *handler) handleInstitutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	institutions := make([]institutionBody, 0, len(h.conf.Institutions))
	for _, code := range config.InstitutionCodes {
		entry, ok := h.conf.Institutions[code]
		if !ok {
			continue
		}
		maxPayingAge := entry.MaximumPayingAge
		if maxPayingAge == 0 {
			maxPayingAge = h.conf.Defaults.MaximumPayingAge
		}
		institutions = append(institutions, institutionBody{
			Code:               code,
			Name:               entry.Name,
			Alias:              entry.Alias,
			Type:               entry.Type,
			InterestRate:       entry.InterestRate,
			PercentDownPayment: entry.PercentDownPayment,
			MaximumTerm:        entry.MaximumTerm,
			MaximumPayingAge:   maxPayingAge,
			MinimumAge:         entry.BorrowingAge.Minimum,
			MaximumAge:         entry.BorrowingAge.Maximum,
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"institutions": institutions})
}

func (h *handler) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	data, err := yaml.Marshal(map[string]config.MortgageConfig{"mortgage": h.conf})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfig")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write YAML response", zap.String("op", "server.handleConfig"), zap.Error(err))
	}
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// decode reads a JSON body into dst. It writes the error response itself and
// reports whether the handler may continue.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("request_id", w.Header().Get(headerRequestID)),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) respondErrors(w http.ResponseWriter, status int, errs []error, op string) {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Error())
	}
	h.logger.Error("request rejected",
		zap.String("op", op),
		zap.String("request_id", w.Header().Get(headerRequestID)),
		zap.Int("status", status),
		zap.Strings("errors", messages),
	)

	h.writeJSON(w, status, map[string]interface{}{
		"error":   strings.Join(messages, "; "),
		"details": messages,
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
