package model

import (
	"context"
	"encoding/json"
	"sort"
)

// Capability identifies the protocol family a protocol implementation serves.
type Capability string

const (
	Swap    Capability = "swap"
	Bridge  Capability = "bridge"
	Lending Capability = "lending"
)

// ProtocolRef identifies one protocol registration.
type ProtocolRef struct {
	Blockchain string `json:"blockchain" yaml:"blockchain"`
	Label      string `json:"label" yaml:"label"`
}

// Target is either a policy's scope filter or the descriptor of a live call.
//
// Account-level calls produce {Blockchain}; protocol-level calls produce
// {Protocol}. Wallet is never set by the decorators and only affects how a
// descriptor renders in rejection messages.
type Target struct {
	Wallet     string       `json:"wallet,omitempty" yaml:"wallet,omitempty"`
	Blockchain string       `json:"blockchain,omitempty" yaml:"blockchain,omitempty"`
	Protocol   *ProtocolRef `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

// WalletTarget returns the descriptor for an account-level call.
func WalletTarget(blockchain string) Target {
	return Target{Blockchain: blockchain}
}

// ProtocolTarget returns the descriptor for a protocol-level call.
func ProtocolTarget(blockchain, label string) Target {
	return Target{Protocol: &ProtocolRef{Blockchain: blockchain, Label: label}}
}

// Scope returns "protocol", "wallet" or "blockchain" depending on which
// field is set, and "global" for the zero Target.
func (t Target) Scope() string {
	switch {
	case t.Protocol != nil:
		return "protocol"
	case t.Wallet != "":
		return "wallet"
	case t.Blockchain != "":
		return "blockchain"
	default:
		return "global"
	}
}

// Key returns a compact identifier usable as a map key.
func (t Target) Key() string {
	switch {
	case t.Protocol != nil:
		return t.Protocol.Blockchain + "/" + t.Protocol.Label
	case t.Wallet != "":
		return "wallet:" + t.Wallet
	default:
		return t.Blockchain
	}
}

// Describe renders the target the way rejection messages show it:
// "wallet: <id>", "protocol: <json>" or "global". A Blockchain-only
// descriptor renders as "global".
func (t Target) Describe() string {
	switch {
	case t.Wallet != "":
		return "wallet: " + t.Wallet
	case t.Protocol != nil:
		b, err := json.Marshal(t.Protocol)
		if err != nil {
			return "protocol: " + t.Protocol.Blockchain + "/" + t.Protocol.Label
		}
		return "protocol: " + string(b)
	default:
		return "global"
	}
}

// Call is what a policy evaluator sees for one gated invocation.
type Call struct {
	Method string `json:"method"`
	Params any    `json:"params"`
	Target Target `json:"target"`
}

// MethodFunc is one callable operation on an account or protocol.
type MethodFunc func(ctx context.Context, params any) (any, error)

// MethodSet is the explicit method table an account or protocol exposes.
type MethodSet map[string]MethodFunc

// Names returns the method names in sorted order.
func (ms MethodSet) Names() []string {
	names := make([]string, 0, len(ms))
	for n := range ms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Decision is the outcome recorded for one gated call.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
	Error Decision = "error"
)
