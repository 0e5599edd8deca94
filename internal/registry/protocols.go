package registry

import (
	"sync"

	"github.com/ppiankov/walletgate/internal/model"
)

// ProtocolRegistration binds a protocol factory to a blockchain and label.
// F is the factory type of the layer that consumes the registry.
type ProtocolRegistration[F any] struct {
	Blockchain string
	Label      string
	Factory    F
	Config     any
}

// Protocols is one layer of protocol registrations.
type Protocols[F any] struct {
	mu   sync.RWMutex
	regs map[model.ProtocolRef]ProtocolRegistration[F]
}

// NewProtocols creates an empty layer.
func NewProtocols[F any]() *Protocols[F] {
	return &Protocols[F]{regs: make(map[model.ProtocolRef]ProtocolRegistration[F])}
}

// Register upserts reg under (reg.Blockchain, reg.Label).
func (p *Protocols[F]) Register(reg ProtocolRegistration[F]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regs[model.ProtocolRef{Blockchain: reg.Blockchain, Label: reg.Label}] = reg
}

// Lookup returns the registration for (blockchain, label).
func (p *Protocols[F]) Lookup(blockchain, label string) (ProtocolRegistration[F], bool) {
	if p == nil {
		return ProtocolRegistration[F]{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	reg, ok := p.regs[model.ProtocolRef{Blockchain: blockchain, Label: label}]
	return reg, ok
}

// Len returns the number of registrations in the layer.
func (p *Protocols[F]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.regs)
}

// Resolve consults the layers in order and returns the first match, so an
// account-local layer passed first shadows the blockchain-wide one.
func Resolve[F any](blockchain, label string, layers ...*Protocols[F]) (ProtocolRegistration[F], bool) {
	for _, layer := range layers {
		if reg, ok := layer.Lookup(blockchain, label); ok {
			return reg, true
		}
	}
	return ProtocolRegistration[F]{}, false
}
