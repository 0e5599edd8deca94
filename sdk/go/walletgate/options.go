package walletgate

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/ppiankov/walletgate/internal/mutating"
	"github.com/ppiankov/walletgate/internal/reload"
)

// Option configures a Manager at creation time.
type Option func(*managerConfig)

type managerConfig struct {
	logger         *zap.Logger
	audit          AuditRecorder
	metrics        *Metrics
	tracerProvider trace.TracerProvider
	methods        *mutating.Set
	now            func() time.Time
	reloadDebounce time.Duration
	alerts         []AlertConfig
}

func defaultConfig() managerConfig {
	return managerConfig{
		logger:         zap.NewNop(),
		tracerProvider: noop.NewTracerProvider(),
		methods:        mutating.Default(),
		now:            time.Now,
		reloadDebounce: reload.DefaultDebounce,
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *managerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAuditLog records every gated call to rec.
func WithAuditLog(rec AuditRecorder) Option {
	return func(c *managerConfig) { c.audit = rec }
}

// WithMetrics updates m on every gated call and backend change.
func WithMetrics(m *Metrics) Option {
	return func(c *managerConfig) { c.metrics = m }
}

// WithTracerProvider starts one span per gated call from tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *managerConfig) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithMutatingMethods gates extra method names on top of the default list.
func WithMutatingMethods(names ...string) Option {
	return func(c *managerConfig) { c.methods.Add(names...) }
}

// WithClock sets the clock used by rate limit and budget rules.
func WithClock(now func() time.Time) Option {
	return func(c *managerConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithReloadDebounce sets the quiet period WatchPolicyFile waits after the
// last write before reloading.
func WithReloadDebounce(d time.Duration) Option {
	return func(c *managerConfig) { c.reloadDebounce = d }
}

// WithAlerts posts a webhook for every gated call whose decision is listed
// in a config's Events.
func WithAlerts(configs ...AlertConfig) Option {
	return func(c *managerConfig) { c.alerts = append(c.alerts, configs...) }
}
