package budget

import (
	"time"

	"github.com/holiman/uint256"
)

// Limit caps the cumulative amount spent within a fixed window.
// A nil Max or zero Window means unlimited.
type Limit struct {
	Max    *uint256.Int
	Window time.Duration
}

// HasLimit returns true if both fields are configured.
func (l Limit) HasLimit() bool {
	return l.Max != nil && l.Window > 0
}
