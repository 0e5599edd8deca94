package policy

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ppiankov/walletgate/internal/model"
)

// PolicyViolationError is returned when a policy rejects a call. The
// underlying method is never invoked.
type PolicyViolationError struct {
	Policy string
	Method string
	Target model.Target
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("Policy %q rejected method %q for %s", e.Policy, e.Method, e.Target.Describe())
}

// AsViolation extracts a *PolicyViolationError from err's chain.
func AsViolation(err error) (*PolicyViolationError, bool) {
	var v *PolicyViolationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
