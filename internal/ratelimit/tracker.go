package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	span  time.Duration
	count int
}

// Tracker counts calls per key in fixed windows. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewTracker creates a Tracker. A nil clock uses time.Now.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		windows: make(map[string]*window),
		now:     now,
	}
}

// Snapshot returns the count for key in its current window, or 0 if that
// window has expired. It never resets the window.
func (t *Tracker) Snapshot(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.windows[key]
	if !ok || t.now().Sub(w.start) >= w.span {
		return 0
	}
	return w.count
}

// Allow checks key against limit and, when within the limit, records the
// call in the same critical section.
func (t *Tracker) Allow(key string, limit Limit) CheckResult {
	if !limit.HasLimit() {
		return CheckResult{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	w := t.current(key, limit.Window)
	result := Check(w.count, limit)
	if !result.Exceeded {
		w.count++
	}
	return result
}

func (t *Tracker) current(key string, span time.Duration) *window {
	now := t.now()
	w, ok := t.windows[key]
	if !ok || now.Sub(w.start) >= span {
		w = &window{start: now, span: span}
		t.windows[key] = w
	}
	return w
}
