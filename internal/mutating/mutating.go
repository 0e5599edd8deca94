// Package mutating holds the canonical set of state-changing wallet and
// protocol method names. Policies that omit a method filter apply to exactly
// these names.
package mutating

// defaults is the canonical list, grouped by the kind of operation.
var defaults = []string{
	// Wallet operations
	"sign",
	"signMessage",
	"sendTransaction",
	"transfer",
	"approve",
	"deposit",
	"withdraw",

	// Bridge
	"bridge",

	// Staking / lending
	"stake",
	"unstake",
	"claimRewards",
	"borrow",
	"repay",
	"mint",
	"burn",
	"swap",

	// Governance
	"vote",
	"delegate",
	"propose",

	// NFT
	"mintNFT",
	"transferNFT",
	"burnNFT",
	"approveNFT",

	// Protocol-specific
	"liquidate",
	"addLiquidity",
	"removeLiquidity",
	"lock",
	"unlock",
}

var defaultSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(defaults))
	for _, n := range defaults {
		m[n] = struct{}{}
	}
	return m
}()

// IsDefault reports whether name is in the canonical mutating list.
func IsDefault(name string) bool {
	_, ok := defaultSet[name]
	return ok
}

// Names returns a copy of the canonical list in its declared order.
func Names() []string {
	out := make([]string, len(defaults))
	copy(out, defaults)
	return out
}

// Set is a set of method names considered mutating.
// The zero value is empty; use Default for the canonical set.
type Set struct {
	names map[string]struct{}
}

// Default returns a Set holding the canonical list.
func Default() *Set {
	return New(defaults...)
}

// New returns a Set holding the given names.
func New(names ...string) *Set {
	s := &Set{names: make(map[string]struct{}, len(names))}
	s.Add(names...)
	return s
}

// Add inserts names into the set. Empty names are ignored.
func (s *Set) Add(names ...string) {
	if s.names == nil {
		s.names = make(map[string]struct{}, len(names))
	}
	for _, n := range names {
		if n == "" {
			continue
		}
		s.names[n] = struct{}{}
	}
}

// Contains reports whether name is in the set. A nil Set falls back to the
// canonical list.
func (s *Set) Contains(name string) bool {
	if s == nil {
		return IsDefault(name)
	}
	_, ok := s.names[name]
	return ok
}

// Len returns the number of names in the set.
func (s *Set) Len() int {
	if s == nil {
		return len(defaults)
	}
	return len(s.names)
}
