// Package rules evaluates prioritized JSON conditions against a flat map of
// facts. The first enabled rule whose condition matches decides the action.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"
)

// Errors returned while decoding or evaluating conditions.
var (
	ErrUnknownOperator  = errors.New("unknown operator")
	ErrInvalidCondition = errors.New("invalid condition")
)

// Operator compares a fact with a rule value.
type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpLess           Operator = "<"
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
	OpBetween        Operator = "between"
	OpNotBetween     Operator = "not_between"
	OpIn             Operator = "in"
	OpNotIn          Operator = "not_in"
)

func (o Operator) valid() bool {
	switch o {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual,
		OpBetween, OpNotBetween, OpIn, OpNotIn:
		return true
	}
	return false
}

// Predicate is one field test.
type Predicate struct {
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Condition maps fact names to predicates. Every predicate must hold; an
// empty condition always matches. In JSON a bare value stands for equality:
//
//	{"lending_institution": "hdmf", "age": {"operator": "between", "value": [21, 45]}}
type Condition map[string]Predicate

// UnmarshalJSON accepts literals and operator objects per field.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCondition, err)
	}

	out := make(Condition, len(raw))
	for field, msg := range raw {
		var value any
		if err := json.Unmarshal(msg, &value); err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrInvalidCondition, field, err)
		}
		obj, isObject := value.(map[string]any)
		if !isObject {
			out[field] = Predicate{Operator: OpEqual, Value: value}
			continue
		}

		op, ok := obj["operator"].(string)
		if !ok {
			return fmt.Errorf("%w: field %s: object without operator", ErrInvalidCondition, field)
		}
		p := Predicate{Operator: Operator(op), Value: obj["value"]}
		if err := p.validate(); err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		out[field] = p
	}
	*c = out
	return nil
}

func (p Predicate) validate() error {
	if !p.Operator.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownOperator, p.Operator)
	}
	switch p.Operator {
	case OpBetween, OpNotBetween:
		bounds, ok := p.Value.([]any)
		if !ok || len(bounds) != 2 {
			return fmt.Errorf("%w: %s needs a two element list", ErrInvalidCondition, p.Operator)
		}
	case OpIn, OpNotIn:
		if _, ok := p.Value.([]any); !ok {
			return fmt.Errorf("%w: %s needs a list", ErrInvalidCondition, p.Operator)
		}
	}
	return nil
}

// Matches reports whether every predicate holds for facts. A fact missing
// from facts fails its predicate.
func (c Condition) Matches(facts map[string]any) (bool, error) {
	fields := make([]string, 0, len(c))
	for field := range c {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		fact, ok := facts[field]
		if !ok {
			return false, nil
		}
		hold, err := c[field].holds(fact)
		if err != nil {
			return false, fmt.Errorf("field %s: %w", field, err)
		}
		if !hold {
			return false, nil
		}
	}
	return true, nil
}

func (p Predicate) holds(fact any) (bool, error) {
	if err := p.validate(); err != nil {
		return false, err
	}

	switch p.Operator {
	case OpEqual:
		return equal(fact, p.Value), nil
	case OpNotEqual:
		return !equal(fact, p.Value), nil
	case OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual:
		cmp, ok := compare(fact, p.Value)
		if !ok {
			return false, nil
		}
		switch p.Operator {
		case OpGreater:
			return cmp > 0, nil
		case OpLess:
			return cmp < 0, nil
		case OpGreaterOrEqual:
			return cmp >= 0, nil
		default:
			return cmp <= 0, nil
		}
	case OpBetween, OpNotBetween:
		bounds := p.Value.([]any)
		low, okLow := compare(fact, bounds[0])
		high, okHigh := compare(fact, bounds[1])
		inside := okLow && okHigh && low >= 0 && high <= 0
		if p.Operator == OpBetween {
			return inside, nil
		}
		return okLow && okHigh && !inside, nil
	default:
		found := false
		for _, candidate := range p.Value.([]any) {
			if equal(fact, candidate) {
				found = true
				break
			}
		}
		if p.Operator == OpIn {
			return found, nil
		}
		return !found, nil
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func equal(a, b any) bool {
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x == y
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

// compare orders two numbers or two strings. The bool is false when the
// values are not comparable.
func compare(a, b any) (int, bool) {
	if x, ok := number(a); ok {
		y, ok := number(b)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	x, okA := a.(string)
	y, okB := b.(string)
	if !okA || !okB {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

// Sort directions.
const (
	Ascending  = "asc"
	Descending = "desc"
)

// Action is what a matching rule asks the caller to do.
type Action struct {
	PreferredInstitution string  `json:"preferred_institution,omitempty"`
	ScoreMultiplier      float64 `json:"score_multiplier,omitempty"`
	SortField            string  `json:"sort_field,omitempty"`
	SortDirection        string  `json:"sort_direction,omitempty"`
}

// Rule pairs a condition with an action.
type Rule struct {
	Name      string    `json:"name"`
	Priority  int       `json:"priority"`
	Disabled  bool      `json:"disabled,omitempty"`
	Condition Condition `json:"condition"`
	Action    Action    `json:"action"`
}

// Engine holds rules in evaluation order.
type Engine struct {
	rules  []Rule
	logger *zap.Logger
}

// NewEngine orders rules by descending priority. Rules of equal priority keep
// their given order.
func NewEngine(logger *zap.Logger, rules ...Rule) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	sorted := append([]Rule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return &Engine{rules: sorted, logger: logger}
}

// Rules returns the rules in evaluation order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate returns the first enabled rule matching facts.
func (e *Engine) Evaluate(facts map[string]any) (Rule, bool, error) {
	for _, rule := range e.rules {
		if rule.Disabled {
			continue
		}
		ok, err := rule.Condition.Matches(facts)
		if err != nil {
			return Rule{}, false, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		if ok {
			e.logger.Debug(fmt.Sprintf("rule %s matched", rule.Name),
				zap.String("op", "rules.Evaluate"),
				zap.Int("priority", rule.Priority),
			)
			return rule, true, nil
		}
	}
	return Rule{}, false, nil
}

// LoadRules decodes a JSON array of rules.
func LoadRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	if err := json.NewDecoder(r).Decode(&rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	for _, rule := range rules {
		if rule.Action.SortDirection != "" && rule.Action.SortDirection != Ascending && rule.Action.SortDirection != Descending {
			return nil, fmt.Errorf("rule %s: %w: sort direction %q", rule.Name, ErrInvalidCondition, rule.Action.SortDirection)
		}
	}
	return rules, nil
}

// LoadRulesFile reads rules from a JSON file.
func LoadRulesFile(path string) ([]Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file %s: %w", path, err)
	}
	defer f.Close()
	return LoadRules(f)
}
