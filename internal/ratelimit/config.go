package ratelimit

import "time"

// Limit caps the number of calls within a fixed window.
// Zero values mean no limit.
type Limit struct {
	MaxCalls int           `yaml:"max_calls" mapstructure:"max_calls"`
	Window   time.Duration `yaml:"window" mapstructure:"window"`
}

// HasLimit returns true if both fields are configured.
func (l Limit) HasLimit() bool {
	return l.MaxCalls > 0 && l.Window > 0
}
