package policy

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ppiankov/walletgate/internal/model"
	"github.com/ppiankov/walletgate/internal/mutating"
)

// Evaluator decides whether a call may proceed. Returning false rejects the
// call; returning an error aborts it with that error.
type Evaluator func(ctx context.Context, call model.Call) (bool, error)

// Predicate adapts a plain boolean check into an Evaluator.
func Predicate(fn func(call model.Call) bool) Evaluator {
	return func(_ context.Context, call model.Call) (bool, error) {
		return fn(call), nil
	}
}

// Static returns an Evaluator with a fixed answer.
func Static(allowed bool) Evaluator {
	return func(context.Context, model.Call) (bool, error) {
		return allowed, nil
	}
}

// Policy is a named predicate, optionally scoped by method and target.
type Policy struct {
	// Name identifies the policy in rejection errors.
	Name string
	// Methods restricts the policy to these method names. Empty means every
	// mutating method.
	Methods []string
	// Target restricts the policy to a blockchain or a protocol. Nil means
	// global.
	Target   *model.Target
	Evaluate Evaluator
}

// AppliesTo reports whether p should be evaluated for call. Scope-less
// policies use methods as their method scope; a nil set means the canonical
// mutating list.
func (p Policy) AppliesTo(call model.Call, methods *mutating.Set) bool {
	return p.matchMethod(call.Method, methods) && p.matchTarget(call.Target)
}

func (p Policy) matchMethod(method string, methods *mutating.Set) bool {
	if len(p.Methods) == 0 {
		return methods.Contains(method)
	}
	for _, m := range p.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// matchTarget compares the filter against a call descriptor. A blockchain
// filter only matches account-level calls; a protocol filter needs both
// fields to be equal.
func (p Policy) matchTarget(target model.Target) bool {
	f := p.Target
	if f == nil {
		return true
	}
	switch {
	case f.Protocol != nil:
		return target.Protocol != nil &&
			target.Protocol.Blockchain == f.Protocol.Blockchain &&
			target.Protocol.Label == f.Protocol.Label
	case f.Blockchain != "":
		return target.Protocol == nil && target.Blockchain == f.Blockchain
	case f.Wallet != "":
		return target.Wallet == f.Wallet
	default:
		return true
	}
}

// Validate checks the policy is usable.
func (p Policy) Validate() error {
	if p.Name == "" {
		return errors.New("policy name is required")
	}
	if p.Evaluate == nil {
		return errors.Errorf("policy %q has no evaluator", p.Name)
	}
	if t := p.Target; t != nil {
		if t.Protocol != nil && t.Blockchain != "" {
			return errors.Errorf("policy %q: target must be either a blockchain or a protocol", p.Name)
		}
		if t.Protocol != nil && (t.Protocol.Blockchain == "" || t.Protocol.Label == "") {
			return errors.Errorf("policy %q: protocol target needs blockchain and label", p.Name)
		}
	}
	return nil
}

// ValidateAll validates every policy and rejects duplicate names.
func ValidateAll(policies []Policy) error {
	seen := make(map[string]bool, len(policies))
	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return errors.Errorf("duplicate policy name %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
