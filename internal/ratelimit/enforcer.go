package ratelimit

import "fmt"

// CheckResult is the outcome of a rate limit check.
type CheckResult struct {
	Exceeded bool
	Current  int
	Limit    int
	Reason   string
}

// Check compares the current count against the limit.
func Check(count int, limit Limit) CheckResult {
	if !limit.HasLimit() {
		return CheckResult{}
	}
	if count >= limit.MaxCalls {
		return CheckResult{
			Exceeded: true,
			Current:  count,
			Limit:    limit.MaxCalls,
			Reason: fmt.Sprintf("rate limit exceeded: %d/%d calls in %s window",
				count, limit.MaxCalls, limit.Window),
		}
	}
	return CheckResult{}
}
