package walletgate

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ppiankov/walletgate/internal/alert"
	"github.com/ppiankov/walletgate/internal/policy"
	"github.com/ppiankov/walletgate/internal/policyfile"
	"github.com/ppiankov/walletgate/internal/registry"
	"github.com/ppiankov/walletgate/internal/reload"
)

const tracerName = "github.com/ppiankov/walletgate"

// Middleware runs on every freshly decorated account before it is returned.
// An error aborts the account request.
type Middleware func(ctx context.Context, account *Account) error

type policySet struct {
	policies []Policy
	hash     string
}

// Manager owns wallet and protocol registrations, account middlewares and
// the active policy set. Safe for concurrent use.
type Manager struct {
	cfg       managerConfig
	logger    *zap.Logger
	tracer    trace.Tracer
	wallets   *registry.Wallets
	protocols *registry.Protocols[ProtocolFactory]
	builder   *policyfile.Builder
	alerts    *alert.Dispatcher

	mu          sync.RWMutex
	middlewares map[string][]Middleware

	policies atomic.Pointer[policySet]
}

// New creates a Manager. Wallet backends receive seed when constructed.
func New(seed string, opts ...Option) *Manager {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	m := &Manager{
		cfg:         cfg,
		logger:      cfg.logger,
		tracer:      cfg.tracerProvider.Tracer(tracerName),
		wallets:     registry.NewWallets(seed, cfg.logger),
		protocols:   registry.NewProtocols[ProtocolFactory](),
		builder:     policyfile.NewBuilder(cfg.now),
		alerts:      alert.NewDispatcher(cfg.alerts, cfg.logger),
		middlewares: make(map[string][]Middleware),
	}
	m.policies.Store(&policySet{})
	return m
}

// RegisterWallet registers the wallet factory for blockchain, replacing any
// previous registration.
func (m *Manager) RegisterWallet(blockchain string, factory WalletFactory, config any) *Manager {
	m.wallets.Register(registry.WalletRegistration{
		Blockchain: blockchain,
		Factory:    factory,
		Config:     config,
	})
	return m
}

// RegisterProtocol makes a protocol available to every account of
// blockchain under label.
func (m *Manager) RegisterProtocol(blockchain, label string, factory ProtocolFactory, config any) *Manager {
	m.protocols.Register(registry.ProtocolRegistration[ProtocolFactory]{
		Blockchain: blockchain,
		Label:      label,
		Factory:    factory,
		Config:     config,
	})
	return m
}

// RegisterMiddleware appends fn to the middlewares of blockchain.
func (m *Manager) RegisterMiddleware(blockchain string, fn Middleware) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.middlewares[blockchain] = append(m.middlewares[blockchain], fn)
	return m
}

// RegisterPolicies replaces the active policy set. Calls already being
// evaluated keep the set they started with. An invalid set is still
// installed and logged at warn; a policy without an evaluator fails closed.
func (m *Manager) RegisterPolicies(policies []Policy) *Manager {
	if err := policy.ValidateAll(policies); err != nil {
		m.logger.Warn("registered policies are invalid", zap.Error(err))
	}
	m.storePolicies(policies, "")
	return m
}

// Policies returns a copy of the active policy set.
func (m *Manager) Policies() []Policy {
	set := m.policies.Load()
	out := make([]Policy, len(set.policies))
	copy(out, set.policies)
	return out
}

func (m *Manager) storePolicies(policies []Policy, hash string) {
	cp := make([]Policy, len(policies))
	copy(cp, policies)
	m.policies.Store(&policySet{policies: cp, hash: hash})
}

// LoadPolicyFile builds the policies in a YAML file and makes them active.
// On error the previous set stays active.
func (m *Manager) LoadPolicyFile(path string) error {
	loaded, err := m.builder.Load(path)
	if err != nil {
		return errors.Wrapf(err, "failed to load policies from %s", path)
	}
	m.storePolicies(loaded.Policies, loaded.Hash)
	m.logger.Info("policies loaded",
		zap.String("path", path),
		zap.Int("count", len(loaded.Policies)),
		zap.String("hash", loaded.Hash))
	return nil
}

// Usage is the counter state of a rate_limit or budget policy loaded from a
// policy file.
type Usage struct {
	Calls int
	Spent *big.Int
}

// PolicyUsage reports the calls admitted and the amount spent under policy
// name for target in the policy's own current window. Reading usage never
// resets a counter. Counters persist across reloads.
func (m *Manager) PolicyUsage(name string, target Target) Usage {
	return Usage{
		Calls: m.builder.Calls(name, target),
		Spent: m.builder.Spent(name, target).ToBig(),
	}
}

// WatchPolicyFile loads path and reloads it whenever it changes, until ctx
// is cancelled. A failed reload keeps the previous set.
func (m *Manager) WatchPolicyFile(ctx context.Context, path string) error {
	if err := m.LoadPolicyFile(path); err != nil {
		return err
	}
	w, err := reload.New(path, m.LoadPolicyFile, m.logger, m.cfg.reloadDebounce)
	if err != nil {
		return err
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			m.logger.Warn("policy watcher stopped", zap.Error(err))
		}
	}()
	return nil
}

// GetAccount returns the decorated account at index on blockchain.
func (m *Manager) GetAccount(ctx context.Context, blockchain string, index uint32) (*Account, error) {
	backend, err := m.backend(blockchain)
	if err != nil {
		return nil, err
	}
	raw, err := backend.GetAccount(ctx, index)
	if err != nil {
		return nil, err
	}
	return m.account(ctx, blockchain, raw)
}

// GetAccountByPath returns the decorated account at a derivation path.
func (m *Manager) GetAccountByPath(ctx context.Context, blockchain, path string) (*Account, error) {
	backend, err := m.backend(blockchain)
	if err != nil {
		return nil, err
	}
	raw, err := backend.GetAccountByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	return m.account(ctx, blockchain, raw)
}

// GetFeeRates returns the backend's fee rates for blockchain. Not gated.
func (m *Manager) GetFeeRates(ctx context.Context, blockchain string) (FeeRates, error) {
	backend, err := m.backend(blockchain)
	if err != nil {
		return FeeRates{}, err
	}
	return backend.GetFeeRates(ctx)
}

// Dispose disposes every wallet backend created so far, including backends
// of replaced registrations. Registrations are kept; the next request
// creates a fresh backend. Pending alert deliveries are flushed first.
func (m *Manager) Dispose() {
	m.alerts.Wait()
	n := m.wallets.Dispose()
	m.cfg.metrics.SetBackendInstances(0)
	m.logger.Debug("wallet backends disposed", zap.Int("count", n))
}

func (m *Manager) backend(blockchain string) (WalletBackend, error) {
	backend, err := m.wallets.Backend(blockchain)
	if err != nil {
		return nil, err
	}
	m.cfg.metrics.SetBackendInstances(m.wallets.Instances())
	return backend, nil
}

func (m *Manager) account(ctx context.Context, blockchain string, raw RawAccount) (*Account, error) {
	if raw == nil {
		return nil, errors.Errorf("wallet backend for %s returned no account", blockchain)
	}
	account := newAccount(m, blockchain, raw)
	m.logger.Debug("account decorated",
		zap.String("blockchain", blockchain),
		zap.Strings("methods", account.Methods().Names()))

	m.mu.RLock()
	chain := append([]Middleware(nil), m.middlewares[blockchain]...)
	m.mu.RUnlock()

	for _, mw := range chain {
		if err := mw(ctx, account); err != nil {
			return nil, err
		}
	}
	return account, nil
}
