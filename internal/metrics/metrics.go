// Package metrics exposes Prometheus collectors for policy decisions and
// backend lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "walletgate"

// Metrics contains the collectors for one manager.
type Metrics struct {
	Decisions        *prometheus.CounterVec
	Evaluations      *prometheus.CounterVec
	BackendInstances prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is useful in tests.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_decisions_total",
			Help:      "Gated calls by method, target scope and decision.",
		}, []string{"method", "scope", "decision"}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_evaluations_total",
			Help:      "Policy evaluations by policy name and result.",
		}, []string{"policy", "result"}),
		BackendInstances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_instances",
			Help:      "Wallet backends currently instantiated.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Decisions, m.Evaluations, m.BackendInstances} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveCall records the outcome of one gated call. evaluated lists the
// policies that ran; rejected is the one that stopped the pass, if any.
func (m *Metrics) ObserveCall(method, scope, decision string, evaluated []string, rejected string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(method, scope, decision).Inc()
	for _, name := range evaluated {
		result := "pass"
		if name == rejected {
			result = decision
		}
		m.Evaluations.WithLabelValues(name, result).Inc()
	}
}

// SetBackendInstances updates the backend gauge.
func (m *Metrics) SetBackendInstances(n int) {
	if m == nil {
		return
	}
	m.BackendInstances.Set(float64(n))
}
