package budget

import (
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
)

type usage struct {
	start  time.Time
	window time.Duration
	spent  *uint256.Int
}

// Tracker accumulates spend per key in fixed windows. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	usage map[string]*usage
	now   func() time.Time
}

// NewTracker creates a Tracker. A nil clock uses time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		usage: make(map[string]*usage),
		now:   now,
	}
}

// Spent returns a copy of the amount spent for key in its current window,
// or zero if that window has expired. It never resets the window.
func (t *Tracker) Spent(key string) *uint256.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.usage[key]
	if !ok || t.now().Sub(u.start) >= u.window {
		return new(uint256.Int)
	}
	return u.spent.Clone()
}

// CheckResult is the outcome of a budget reservation.
type CheckResult struct {
	Exceeded bool
	Spent    *uint256.Int
	Limit    *uint256.Int
	Reason   string
}

// Reserve adds amount to key's spend if the result stays within limit.
// The check and the update happen in one critical section; a rejected
// reservation leaves the spend untouched.
func (t *Tracker) Reserve(key string, amount *uint256.Int, limit Limit) CheckResult {
	if !limit.HasLimit() {
		return CheckResult{}
	}
	if amount == nil {
		amount = new(uint256.Int)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.current(key, limit.Window)
	next, overflow := new(uint256.Int).AddOverflow(u.spent, amount)
	if overflow || next.Gt(limit.Max) {
		return CheckResult{
			Exceeded: true,
			Spent:    u.spent.Clone(),
			Limit:    limit.Max.Clone(),
			Reason: fmt.Sprintf("budget exceeded: %s spent + %s requested > %s max in %s window",
				u.spent.Dec(), amount.Dec(), limit.Max.Dec(), limit.Window),
		}
	}
	u.spent = next
	return CheckResult{Spent: next.Clone(), Limit: limit.Max.Clone()}
}

func (t *Tracker) current(key string, window time.Duration) *usage {
	now := t.now()
	u, ok := t.usage[key]
	if !ok || now.Sub(u.start) >= window {
		u = &usage{start: now, window: window, spent: new(uint256.Int)}
		t.usage[key] = u
	}
	return u
}
