package walletgate

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ppiankov/walletgate/internal/model"
	"github.com/ppiankov/walletgate/internal/registry"
)

// Account is a decorated wallet account. Mutating methods are evaluated
// against the Manager's policies; everything else is forwarded as is.
type Account struct {
	manager    *Manager
	blockchain string
	raw        RawAccount
	target     Target
	methods    MethodSet

	local *registry.Protocols[ProtocolFactory]

	mu        sync.Mutex
	protocols map[string]*Protocol
}

func newAccount(m *Manager, blockchain string, raw RawAccount) *Account {
	target := model.WalletTarget(blockchain)
	return &Account{
		manager:    m,
		blockchain: blockchain,
		raw:        raw,
		target:     target,
		methods:    m.decorate(raw.Methods(), target),
		local:      registry.NewProtocols[ProtocolFactory](),
		protocols:  make(map[string]*Protocol),
	}
}

// Blockchain returns the blockchain the account belongs to.
func (a *Account) Blockchain() string { return a.blockchain }

// Raw returns the undecorated account. Calls made on it bypass policies.
func (a *Account) Raw() RawAccount { return a.raw }

// Methods returns the decorated method table.
func (a *Account) Methods() MethodSet { return a.methods }

// Has reports whether the account exposes method.
func (a *Account) Has(method string) bool {
	_, ok := a.methods[method]
	return ok
}

// Call invokes method with params. Mutating methods are evaluated first; a
// rejection returns *PolicyViolationError without reaching the backend.
func (a *Account) Call(ctx context.Context, method string, params any) (any, error) {
	fn, ok := a.methods[method]
	if !ok {
		return nil, &UnknownMethodError{Method: method, Target: a.target}
	}
	return fn(ctx, params)
}

// RegisterProtocol makes a protocol available to this account only. It
// shadows a blockchain-wide registration with the same label.
func (a *Account) RegisterProtocol(label string, factory ProtocolFactory, config any) *Account {
	a.local.Register(registry.ProtocolRegistration[ProtocolFactory]{
		Blockchain: a.blockchain,
		Label:      label,
		Factory:    factory,
		Config:     config,
	})
	a.mu.Lock()
	delete(a.protocols, label)
	a.mu.Unlock()
	return a
}

// GetSwapProtocol returns the swap protocol registered under label.
func (a *Account) GetSwapProtocol(label string) (*Protocol, error) {
	return a.GetProtocol(Swap, label)
}

// GetBridgeProtocol returns the bridge protocol registered under label.
func (a *Account) GetBridgeProtocol(label string) (*Protocol, error) {
	return a.GetProtocol(Bridge, label)
}

// GetLendingProtocol returns the lending protocol registered under label.
func (a *Account) GetLendingProtocol(label string) (*Protocol, error) {
	return a.GetProtocol(Lending, label)
}

// GetProtocol returns the decorated protocol of capability registered under
// label, creating it on first use. Account-local registrations win over
// blockchain-wide ones. The factory must not request protocols from the
// same account.
func (a *Account) GetProtocol(capability Capability, label string) (*Protocol, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.protocols[label]; ok {
		if p.capability != capability {
			return nil, &UnregisteredProtocolError{Capability: string(capability), Label: label}
		}
		return p, nil
	}

	reg, ok := registry.Resolve(a.blockchain, label, a.local, a.manager.protocols)
	if !ok || reg.Factory == nil || reg.Factory.Capability() != capability {
		return nil, &UnregisteredProtocolError{Capability: string(capability), Label: label}
	}

	raw, err := reg.Factory.New(a, reg.Config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s protocol %q on %s", capability, label, a.blockchain)
	}
	if raw == nil {
		return nil, errors.Errorf("%s protocol factory %q on %s returned nothing", capability, label, a.blockchain)
	}

	p := newProtocol(a, capability, label, raw)
	a.protocols[label] = p
	a.manager.logger.Debug("protocol created",
		zap.String("blockchain", a.blockchain),
		zap.String("label", label),
		zap.String("capability", string(capability)))
	return p, nil
}
