package policyfile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/ppiankov/walletgate/internal/budget"
	"github.com/ppiankov/walletgate/internal/model"
	"github.com/ppiankov/walletgate/internal/policy"
	"github.com/ppiankov/walletgate/internal/ratelimit"
)

// Rule kinds.
const (
	RuleDeny      = "deny"
	RuleAllow     = "allow"
	RuleMaxValue  = "max_value"
	RuleAllowList = "allow_list"
	RuleRateLimit = "rate_limit"
	RuleBudget    = "budget"
)

// Rules lists every supported rule kind.
func Rules() []string {
	return []string{RuleDeny, RuleAllow, RuleMaxValue, RuleAllowList, RuleRateLimit, RuleBudget}
}

const defaultField = "value"

type maxValueParams struct {
	Field string `mapstructure:"field"`
	Max   string `mapstructure:"max"`
}

type allowListParams struct {
	Field  string   `mapstructure:"field"`
	Values []string `mapstructure:"values"`
}

type budgetParams struct {
	Field  string        `mapstructure:"field"`
	Max    string        `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

// Builder turns specs into policies. Rate limit and budget counters live in
// the builder and survive rebuilds.
type Builder struct {
	rates   *ratelimit.Tracker
	budgets *budget.Tracker
}

// NewBuilder creates a Builder. A nil clock uses time.Now.
func NewBuilder(now func() time.Time) *Builder {
	return &Builder{
		rates:   ratelimit.NewTracker(now),
		budgets: budget.NewTracker(now),
	}
}

// Build converts every spec in f. All spec errors are reported together.
func (b *Builder) Build(f *File) ([]policy.Policy, error) {
	var result *multierror.Error
	policies := make([]policy.Policy, 0, len(f.Policies))
	seen := make(map[string]bool, len(f.Policies))
	for i, spec := range f.Policies {
		p, err := b.BuildOne(spec)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "policies[%d]", i))
			continue
		}
		if seen[p.Name] {
			result = multierror.Append(result, errors.Errorf("policies[%d]: duplicate policy name %q", i, p.Name))
			continue
		}
		seen[p.Name] = true
		policies = append(policies, p)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return policies, nil
}

// BuildOne converts a single spec.
func (b *Builder) BuildOne(spec Spec) (policy.Policy, error) {
	eval, err := b.evaluator(spec)
	if err != nil {
		return policy.Policy{}, err
	}
	p := policy.Policy{
		Name:     spec.Name,
		Methods:  []string(spec.Method),
		Target:   spec.Target,
		Evaluate: eval,
	}
	if err := p.Validate(); err != nil {
		return policy.Policy{}, err
	}
	return p, nil
}

func (b *Builder) evaluator(spec Spec) (policy.Evaluator, error) {
	switch spec.Rule {
	case RuleDeny:
		return policy.Static(false), nil
	case RuleAllow:
		return policy.Static(true), nil
	case RuleMaxValue:
		return maxValue(spec.Params)
	case RuleAllowList:
		return allowList(spec.Params)
	case RuleRateLimit:
		return b.rateLimit(spec.Name, spec.Params)
	case RuleBudget:
		return b.budget(spec.Name, spec.Params)
	case "":
		return nil, errors.Errorf("policy %q: rule is required", spec.Name)
	default:
		return nil, errors.Errorf("policy %q: unknown rule %q (want one of %s)",
			spec.Name, spec.Rule, strings.Join(Rules(), ", "))
	}
}

func maxValue(params map[string]any) (policy.Evaluator, error) {
	var p maxValueParams
	if err := decodeParams(params, &p); err != nil {
		return nil, errors.Wrap(err, "max_value params")
	}
	if p.Max == "" {
		return nil, errors.New("max_value: max is required")
	}
	limit, err := parseAmount(p.Max)
	if err != nil {
		return nil, errors.Wrap(err, "max_value")
	}
	field := fieldOrDefault(p.Field)
	return func(_ context.Context, call model.Call) (bool, error) {
		v, _ := Field(call.Params, field)
		amount, err := Amount(v)
		if err != nil {
			return false, errors.Wrapf(err, "field %q", field)
		}
		return !amount.Gt(limit), nil
	}, nil
}

func allowList(params map[string]any) (policy.Evaluator, error) {
	var p allowListParams
	if err := decodeParams(params, &p); err != nil {
		return nil, errors.Wrap(err, "allow_list params")
	}
	if p.Field == "" {
		return nil, errors.New("allow_list: field is required")
	}
	if len(p.Values) == 0 {
		return nil, errors.New("allow_list: values must not be empty")
	}
	allowed := make(map[string]bool, len(p.Values))
	for _, v := range p.Values {
		allowed[strings.ToLower(v)] = true
	}
	return func(_ context.Context, call model.Call) (bool, error) {
		v, ok := Field(call.Params, p.Field)
		if !ok || v == nil {
			return false, nil
		}
		return allowed[strings.ToLower(fmt.Sprint(v))], nil
	}, nil
}

func (b *Builder) rateLimit(name string, params map[string]any) (policy.Evaluator, error) {
	var limit ratelimit.Limit
	if err := decodeParams(params, &limit); err != nil {
		return nil, errors.Wrap(err, "rate_limit params")
	}
	if !limit.HasLimit() {
		return nil, errors.New("rate_limit: max_calls and window must be positive")
	}
	return func(_ context.Context, call model.Call) (bool, error) {
		return !b.rates.Allow(counterKey(name, call), limit).Exceeded, nil
	}, nil
}

func (b *Builder) budget(name string, params map[string]any) (policy.Evaluator, error) {
	var p budgetParams
	if err := decodeParams(params, &p); err != nil {
		return nil, errors.Wrap(err, "budget params")
	}
	if p.Max == "" {
		return nil, errors.New("budget: max is required")
	}
	ceiling, err := parseAmount(p.Max)
	if err != nil {
		return nil, errors.Wrap(err, "budget")
	}
	if p.Window <= 0 {
		return nil, errors.New("budget: window must be positive")
	}
	limit := budget.Limit{Max: ceiling, Window: p.Window}
	field := fieldOrDefault(p.Field)
	return func(_ context.Context, call model.Call) (bool, error) {
		v, _ := Field(call.Params, field)
		amount, err := Amount(v)
		if err != nil {
			return false, errors.Wrapf(err, "field %q", field)
		}
		return !b.budgets.Reserve(counterKey(name, call), amount, limit).Exceeded, nil
	}, nil
}

// Spent reports the budget consumed by policy name for target in the
// policy's current window.
func (b *Builder) Spent(name string, target model.Target) *uint256.Int {
	return b.budgets.Spent(name + "|" + target.Key())
}

// Calls reports how many calls the rate_limit policy name admitted for
// target in the policy's current window.
func (b *Builder) Calls(name string, target model.Target) int {
	return b.rates.Snapshot(name + "|" + target.Key())
}

func counterKey(name string, call model.Call) string {
	return name + "|" + call.Target.Key()
}

func fieldOrDefault(f string) string {
	if f == "" {
		return defaultField
	}
	return f
}
