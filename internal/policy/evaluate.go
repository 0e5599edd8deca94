package policy

import (
	"context"

	"github.com/ppiankov/walletgate/internal/model"
	"github.com/ppiankov/walletgate/internal/mutating"
)

// Trace records what one evaluation pass did.
type Trace struct {
	// Evaluated lists the applicable policies in the order they ran.
	Evaluated []string
	// Rejected is the name of the policy that stopped the pass, if any.
	Rejected string
}

// Evaluate runs policies against call using the canonical mutating list.
func Evaluate(ctx context.Context, policies []Policy, call model.Call) error {
	_, err := EvaluateWithTrace(ctx, policies, call, nil)
	return err
}

// EvaluateWithTrace evaluates policies in order against call.
//
// Non-applicable policies are skipped without being called. The first
// policy that returns false stops the pass with a *PolicyViolationError;
// an evaluator error stops it and is returned unchanged. A policy without
// an evaluator rejects. Policies never run concurrently.
func EvaluateWithTrace(ctx context.Context, policies []Policy, call model.Call, methods *mutating.Set) (Trace, error) {
	var trace Trace
	for _, p := range policies {
		if !p.AppliesTo(call, methods) {
			continue
		}
		trace.Evaluated = append(trace.Evaluated, p.Name)

		allowed := false
		if p.Evaluate != nil {
			var err error
			allowed, err = p.Evaluate(ctx, call)
			if err != nil {
				trace.Rejected = p.Name
				return trace, err
			}
		}
		if !allowed {
			trace.Rejected = p.Name
			return trace, &PolicyViolationError{
				Policy: p.Name,
				Method: call.Method,
				Target: call.Target,
			}
		}
	}
	return trace, nil
}
