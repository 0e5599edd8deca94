package policyfile

import (
	"github.com/ppiankov/walletgate/internal/policy"
)

// Loaded is the result of building a policy file.
type Loaded struct {
	Path     string
	Hash     string
	Policies []policy.Policy
}

// Load reads path and builds its policies.
func (b *Builder) Load(path string) (*Loaded, error) {
	f, hash, err := ReadWithHash(path)
	if err != nil {
		return nil, err
	}
	policies, err := b.Build(f)
	if err != nil {
		return nil, err
	}
	return &Loaded{Path: path, Hash: hash, Policies: policies}, nil
}

// Parse builds policies from raw YAML.
func (b *Builder) Parse(data []byte) (*Loaded, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	policies, err := b.Build(f)
	if err != nil {
		return nil, err
	}
	return &Loaded{Hash: Hash(data), Policies: policies}, nil
}

// DefaultYAML returns a starter policy file.
func DefaultYAML() string {
	return `# walletgate policy file
#
# Policies are evaluated in order. The first rejection stops evaluation.
# A policy without "method" applies to every mutating method.
# A "blockchain" target matches account calls only; use a "protocol" target
# for swap, bridge or lending calls.

policies:
  - name: max-transfer-1eth
    method: [sendTransaction, transfer]
    target:
      blockchain: ethereum
    rule: max_value
    params:
      field: value
      max: "1000000000000000000"

  - name: ethereum-hourly-budget
    method: sendTransaction
    target:
      blockchain: ethereum
    rule: budget
    params:
      field: value
      max: "5000000000000000000"
      window: 1h

  - name: swap-rate-limit
    method: swap
    target:
      protocol:
        blockchain: ethereum
        label: velora
    rule: rate_limit
    params:
      max_calls: 10
      window: 1m

  - name: no-bridging
    method: bridge
    rule: deny
`
}
