package walletgate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ppiankov/walletgate/internal/alert"
	"github.com/ppiankov/walletgate/internal/audit"
	"github.com/ppiankov/walletgate/internal/model"
	"github.com/ppiankov/walletgate/internal/policy"
)

// decorate wraps every method of raw that is in the mutating set with the
// policy gate. Other methods are copied unchanged.
func (m *Manager) decorate(raw MethodSet, target Target) MethodSet {
	out := make(MethodSet, len(raw))
	for name, fn := range raw {
		if fn == nil {
			continue
		}
		if !m.cfg.methods.Contains(name) {
			out[name] = fn
			continue
		}
		out[name] = m.gated(name, target, fn)
	}
	return out
}

// gated returns fn behind the policy gate. One span covers evaluation and,
// when allowed, the forwarded call.
func (m *Manager) gated(method string, target Target, fn MethodFunc) MethodFunc {
	return func(ctx context.Context, params any) (any, error) {
		call := Call{Method: method, Params: params, Target: target}
		callID := uuid.NewString()

		ctx, span := m.tracer.Start(ctx, "walletgate."+method,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("walletgate.call_id", callID),
				attribute.String("walletgate.method", method),
				attribute.String("walletgate.scope", target.Scope()),
				attribute.String("walletgate.target", target.Key()),
			))
		defer span.End()

		if err := m.check(ctx, span, callID, call); err != nil {
			return nil, err
		}
		result, err := fn(ctx, params)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return result, err
	}
}

// check evaluates the policy snapshot taken at entry against call and
// reports the outcome to the audit log, metrics, span and logger.
func (m *Manager) check(ctx context.Context, span trace.Span, callID string, call Call) error {
	set := m.policies.Load()

	tr, err := policy.EvaluateWithTrace(ctx, set.policies, call, m.cfg.methods)

	decision := model.Allow
	reason := ""
	if err != nil {
		decision = model.Error
		if _, ok := policy.AsViolation(err); ok {
			decision = model.Deny
		}
		reason = err.Error()
	}

	span.SetAttributes(
		attribute.String("walletgate.decision", string(decision)),
		attribute.StringSlice("walletgate.evaluated", tr.Evaluated),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
	}

	m.cfg.metrics.ObserveCall(call.Method, call.Target.Scope(), string(decision), tr.Evaluated, tr.Rejected)

	if m.cfg.audit != nil {
		entry := audit.Entry{
			CallID:     callID,
			Method:     call.Method,
			Scope:      call.Target.Scope(),
			Target:     call.Target.Key(),
			Decision:   string(decision),
			Policy:     tr.Rejected,
			Reason:     reason,
			Evaluated:  tr.Evaluated,
			PolicyHash: set.hash,
		}
		if aerr := m.cfg.audit.Record(entry); aerr != nil {
			m.logger.Warn("audit record failed", zap.String("call_id", callID), zap.Error(aerr))
		}
	}

	if decision != model.Allow {
		m.alerts.Dispatch(alert.Event{
			Timestamp:  m.cfg.now().UTC().Format(time.RFC3339),
			CallID:     callID,
			Method:     call.Method,
			Target:     call.Target.Key(),
			Decision:   string(decision),
			Policy:     tr.Rejected,
			Reason:     reason,
			PolicyHash: set.hash,
		})
	}

	switch decision {
	case model.Deny:
		m.logger.Info("call rejected by policy",
			zap.String("call_id", callID),
			zap.String("method", call.Method),
			zap.String("target", call.Target.Key()),
			zap.String("policy", tr.Rejected))
	case model.Error:
		m.logger.Warn("policy evaluation failed",
			zap.String("call_id", callID),
			zap.String("method", call.Method),
			zap.String("target", call.Target.Key()),
			zap.String("policy", tr.Rejected),
			zap.Error(err))
	}
	return err
}
