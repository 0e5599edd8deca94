package registry

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type walletEntry struct {
	reg     WalletRegistration
	backend WalletBackend
}

// Wallets holds wallet registrations and their lazily created backends.
// Concurrent first requests for the same blockchain share one construction.
type Wallets struct {
	seed   string
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]*walletEntry
	retired []WalletBackend
	group   singleflight.Group
}

// NewWallets creates an empty registry. Backends are constructed with seed.
func NewWallets(seed string, logger *zap.Logger) *Wallets {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wallets{
		seed:    seed,
		logger:  logger,
		entries: make(map[string]*walletEntry),
	}
}

// Register upserts the registration for reg.Blockchain. A backend already
// created for the previous registration is retired and disposed with the
// rest on Dispose.
func (w *Wallets) Register(reg WalletRegistration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if old, ok := w.entries[reg.Blockchain]; ok && old.backend != nil {
		w.retired = append(w.retired, old.backend)
	}
	w.entries[reg.Blockchain] = &walletEntry{reg: reg}
}

// Backend returns the backend for blockchain, creating it on first use.
// Returns *UnregisteredWalletError without constructing anything when the
// blockchain has no registration.
func (w *Wallets) Backend(blockchain string) (WalletBackend, error) {
	w.mu.RLock()
	entry, ok := w.entries[blockchain]
	var backend WalletBackend
	if ok {
		backend = entry.backend
	}
	w.mu.RUnlock()

	if !ok {
		return nil, &UnregisteredWalletError{Blockchain: blockchain}
	}
	if backend != nil {
		return backend, nil
	}

	v, err, _ := w.group.Do(blockchain, func() (any, error) {
		return w.instantiate(blockchain)
	})
	if err != nil {
		return nil, err
	}
	return v.(WalletBackend), nil
}

func (w *Wallets) instantiate(blockchain string) (WalletBackend, error) {
	w.mu.RLock()
	entry, ok := w.entries[blockchain]
	w.mu.RUnlock()
	if !ok {
		return nil, &UnregisteredWalletError{Blockchain: blockchain}
	}
	if entry.backend != nil {
		return entry.backend, nil
	}
	if entry.reg.Factory == nil {
		return nil, errors.Errorf("wallet registration for %s has no factory", blockchain)
	}

	backend, err := entry.reg.Factory(w.seed, entry.reg.Config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create wallet backend for %s", blockchain)
	}
	if backend == nil {
		return nil, errors.Errorf("wallet factory for %s returned no backend", blockchain)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if current := w.entries[blockchain]; current != entry {
		// Re-registered while we were constructing; keep the result for this
		// caller but make sure it is disposed.
		w.retired = append(w.retired, backend)
	} else {
		entry.backend = backend
	}
	w.logger.Debug("wallet backend created", zap.String("blockchain", blockchain))
	return backend, nil
}

// Instances returns the number of live and retired backends.
func (w *Wallets) Instances() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n := len(w.retired)
	for _, e := range w.entries {
		if e.backend != nil {
			n++
		}
	}
	return n
}

// Dispose disposes every backend that was created, exactly once, and
// forgets them. Registrations are kept. Returns the number disposed.
func (w *Wallets) Dispose() int {
	w.mu.Lock()
	backends := w.retired
	w.retired = nil
	for chain, e := range w.entries {
		if e.backend != nil {
			backends = append(backends, e.backend)
			e.backend = nil
			w.logger.Debug("disposing wallet backend", zap.String("blockchain", chain))
		}
	}
	w.mu.Unlock()

	for _, b := range backends {
		b.Dispose()
	}
	return len(backends)
}
