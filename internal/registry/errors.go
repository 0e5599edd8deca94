package registry

import "fmt"

// UnregisteredWalletError is returned when an operation targets a blockchain
// with no wallet registration.
type UnregisteredWalletError struct {
	Blockchain string
}

func (e *UnregisteredWalletError) Error() string {
	return fmt.Sprintf("No wallet registered for blockchain: %s.", e.Blockchain)
}

// UnregisteredProtocolError is returned when a capability lookup finds no
// matching protocol registration for a label.
type UnregisteredProtocolError struct {
	Capability string
	Label      string
}

func (e *UnregisteredProtocolError) Error() string {
	return fmt.Sprintf("No %s protocol registered for label: %s.", e.Capability, e.Label)
}
