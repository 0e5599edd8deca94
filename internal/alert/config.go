package alert

// Config defines a webhook alert destination.
type Config struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // decisions: "deny", "error"
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Event is the payload sent to webhook endpoints for one gated call.
type Event struct {
	Timestamp  string `json:"timestamp"`
	CallID     string `json:"call_id"`
	Method     string `json:"method"`
	Target     string `json:"target"`
	Decision   string `json:"decision"`
	Policy     string `json:"policy,omitempty"`
	Reason     string `json:"reason"`
	PolicyHash string `json:"policy_hash,omitempty"`
}
