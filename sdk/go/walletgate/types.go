package walletgate

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/walletgate/internal/alert"
	"github.com/ppiankov/walletgate/internal/audit"
	"github.com/ppiankov/walletgate/internal/metrics"
	"github.com/ppiankov/walletgate/internal/model"
	"github.com/ppiankov/walletgate/internal/policy"
	"github.com/ppiankov/walletgate/internal/registry"
)

type (
	// Policy is a named predicate scoped by method and target.
	Policy = policy.Policy
	// Evaluator decides whether a call may proceed.
	Evaluator = policy.Evaluator
	// Target is a policy filter or a call descriptor.
	Target = model.Target
	// ProtocolRef identifies a protocol by blockchain and label.
	ProtocolRef = model.ProtocolRef
	// Call is what an Evaluator sees.
	Call = model.Call
	// MethodSet is the explicit method table of an account or protocol.
	MethodSet = model.MethodSet
	// MethodFunc is one entry of a MethodSet.
	MethodFunc = model.MethodFunc
	// Capability is the protocol family a factory produces.
	Capability = model.Capability
	// Decision is the outcome recorded for a gated call.
	Decision = model.Decision

	// WalletBackend is the per-blockchain wallet implementation.
	WalletBackend = registry.WalletBackend
	// WalletFactory constructs a WalletBackend from a seed and config.
	WalletFactory = registry.WalletFactory
	// RawAccount is an undecorated account produced by a WalletBackend.
	RawAccount = registry.Account
	// FeeRates are a backend's fee suggestions.
	FeeRates = registry.FeeRates

	// AuditRecorder receives one entry per gated call.
	AuditRecorder = audit.Recorder
	// AuditEntry is one audit record.
	AuditEntry = audit.Entry
	// Metrics holds the Prometheus collectors a Manager updates.
	Metrics = metrics.Metrics
	// AlertConfig is one webhook destination for deny and error decisions.
	AlertConfig = alert.Config
)

// Protocol capabilities.
const (
	Swap    = model.Swap
	Bridge  = model.Bridge
	Lending = model.Lending
)

// Decisions.
const (
	Allow         = model.Allow
	Deny          = model.Deny
	DecisionError = model.Error
)

// RawProtocol is an undecorated protocol produced by a ProtocolFactory.
type RawProtocol interface {
	Methods() MethodSet
}

// WalletTarget returns a filter matching account calls on blockchain.
func WalletTarget(blockchain string) *Target {
	t := model.WalletTarget(blockchain)
	return &t
}

// ProtocolTarget returns a filter matching calls on one protocol.
func ProtocolTarget(blockchain, label string) *Target {
	t := model.ProtocolTarget(blockchain, label)
	return &t
}

// Predicate adapts a plain boolean check into an Evaluator.
func Predicate(fn func(call Call) bool) Evaluator {
	return policy.Predicate(fn)
}

// OpenAuditLog opens or creates a hash-chained audit log at path.
func OpenAuditLog(path string) (*audit.Log, error) {
	return audit.Open(path)
}

// NewMetrics creates the Manager collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	return metrics.New(reg)
}
