package walletgate

import (
	"fmt"

	"github.com/ppiankov/walletgate/internal/policy"
	"github.com/ppiankov/walletgate/internal/registry"
)

type (
	// UnregisteredWalletError is returned when no wallet is registered for
	// the requested blockchain.
	UnregisteredWalletError = registry.UnregisteredWalletError
	// UnregisteredProtocolError is returned when no protocol of the
	// requested capability is registered under a label.
	UnregisteredProtocolError = registry.UnregisteredProtocolError
	// PolicyViolationError is returned when a policy rejects a call.
	PolicyViolationError = policy.PolicyViolationError
)

// UnknownMethodError is returned by Call for a method the account or
// protocol does not expose.
type UnknownMethodError struct {
	Method string
	Target Target
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("Method %q is not available on %s", e.Method, e.Target.Key())
}
