package walletgate

import (
	"context"

	"github.com/ppiankov/walletgate/internal/model"
)

// ProtocolFactory creates a protocol bound to an account. Capability tells
// which Get*Protocol accessor may return it.
type ProtocolFactory interface {
	Capability() Capability
	New(account *Account, config any) (RawProtocol, error)
}

// ProtocolFunc builds a RawProtocol for an account.
type ProtocolFunc func(account *Account, config any) (RawProtocol, error)

type protocolFactory struct {
	capability Capability
	fn         ProtocolFunc
}

func (f protocolFactory) Capability() Capability { return f.capability }

func (f protocolFactory) New(account *Account, config any) (RawProtocol, error) {
	return f.fn(account, config)
}

// NewProtocolFactory tags fn with capability.
func NewProtocolFactory(capability Capability, fn ProtocolFunc) ProtocolFactory {
	return protocolFactory{capability: capability, fn: fn}
}

// SwapFactory tags fn as a swap protocol.
func SwapFactory(fn ProtocolFunc) ProtocolFactory { return NewProtocolFactory(Swap, fn) }

// BridgeFactory tags fn as a bridge protocol.
func BridgeFactory(fn ProtocolFunc) ProtocolFactory { return NewProtocolFactory(Bridge, fn) }

// LendingFactory tags fn as a lending protocol.
func LendingFactory(fn ProtocolFunc) ProtocolFactory { return NewProtocolFactory(Lending, fn) }

// Protocol is a decorated protocol instance. Its mutating methods are
// evaluated with the descriptor {protocol: {blockchain, label}}.
type Protocol struct {
	account    *Account
	capability Capability
	label      string
	raw        RawProtocol
	target     Target
	methods    MethodSet
}

func newProtocol(a *Account, capability Capability, label string, raw RawProtocol) *Protocol {
	target := model.ProtocolTarget(a.blockchain, label)
	return &Protocol{
		account:    a,
		capability: capability,
		label:      label,
		raw:        raw,
		target:     target,
		methods:    a.manager.decorate(raw.Methods(), target),
	}
}

// Label returns the registration label.
func (p *Protocol) Label() string { return p.label }

// Capability returns the protocol family.
func (p *Protocol) Capability() Capability { return p.capability }

// Account returns the decorated account the protocol was created for.
func (p *Protocol) Account() *Account { return p.account }

// Raw returns the undecorated protocol. Calls made on it bypass policies.
func (p *Protocol) Raw() RawProtocol { return p.raw }

// Methods returns the decorated method table.
func (p *Protocol) Methods() MethodSet { return p.methods }

// Has reports whether the protocol exposes method.
func (p *Protocol) Has(method string) bool {
	_, ok := p.methods[method]
	return ok
}

// Call invokes method with params, evaluating policies first for mutating
// methods.
func (p *Protocol) Call(ctx context.Context, method string, params any) (any, error) {
	fn, ok := p.methods[method]
	if !ok {
		return nil, &UnknownMethodError{Method: method, Target: p.target}
	}
	return fn(ctx, params)
}
