// Package telemetry provides the transparent instrumentation decorator for
// primitives: OpenTelemetry spans derived from the execution context's
// trace identity, structured slog lines tagged with the correlation id, and
// Prometheus counters and latency histograms.
//
// Every backend is optional. With none configured, Instrument is a pure
// pass-through: it never errors, allocates nothing per call beyond the
// wrapper itself, and returns bit-identical values and errors.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jlaasanen/strand/pkg/api"
)

// Attribute keys used on emitted spans.
const (
	WorkflowIDKey    = "strand.workflow.id"
	CorrelationIDKey = "strand.correlation.id"
	CausationIDKey   = "strand.causation.id"
	PrimitiveKey     = "strand.primitive.name"
	ErrorKindKey     = "strand.error.kind"
)

// Option configures an instrumented primitive.
type Option func(*instrumented)

// WithTracer attaches an OpenTelemetry tracer. Spans are parented on the
// context's TraceID/SpanID when those parse as W3C identifiers, so the
// runtime's trace identity and the backend's trace line up.
func WithTracer(tracer trace.Tracer) Option {
	return func(i *instrumented) { i.tracer = tracer }
}

// WithLogger attaches a slog logger for step-start/step-complete lines.
func WithLogger(logger *slog.Logger) Option {
	return func(i *instrumented) { i.logger = logger }
}

// WithMetrics attaches a Prometheus metrics set (see NewMetrics).
func WithMetrics(m *Metrics) Option {
	return func(i *instrumented) { i.metrics = m }
}

type instrumented struct {
	child   api.Primitive
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics *Metrics
}

// Instrument wraps p so every Execute call is traced, logged, and counted
// according to the configured backends. The wrapped primitive's semantics
// are untouched: inputs, outputs, errors, and context mutations are exactly
// those of p.
func Instrument(p api.Primitive, opts ...Option) api.Primitive {
	i := &instrumented{child: p}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *instrumented) Name() string { return i.child.Name() }

func (i *instrumented) Execute(ctx context.Context, input any, ec *api.ExecutionContext) (any, error) {
	var span trace.Span
	if i.tracer != nil {
		ctx = withRemoteParent(ctx, ec)
		ctx, span = i.tracer.Start(ctx, i.child.Name(), trace.WithAttributes(
			attribute.String(WorkflowIDKey, ec.WorkflowID),
			attribute.String(CorrelationIDKey, ec.CorrelationID),
			attribute.String(CausationIDKey, ec.CausationID()),
			attribute.String(PrimitiveKey, i.child.Name()),
		))
		defer span.End()
	}

	if i.logger != nil {
		i.logger.DebugContext(ctx, "primitive_start",
			slog.String("primitive", i.child.Name()),
			slog.String("correlation_id", ec.CorrelationID),
		)
	}

	start := time.Now()
	out, err := i.child.Execute(ctx, input, ec)
	elapsed := time.Since(start)

	if i.metrics != nil {
		i.metrics.observe(i.child.Name(), err, elapsed)
	}

	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String(ErrorKindKey, api.ErrorKind(err)))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}

	if i.logger != nil {
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelError
		}
		i.logger.Log(ctx, level, "primitive_completed",
			slog.String("primitive", i.child.Name()),
			slog.String("correlation_id", ec.CorrelationID),
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)
	}

	return out, err
}

// withRemoteParent seeds ctx with a remote span context built from the
// execution context's W3C-shaped identifiers, when they parse. A context
// without a usable trace identity starts a new trace.
func withRemoteParent(ctx context.Context, ec *api.ExecutionContext) context.Context {
	if trace.SpanContextFromContext(ctx).IsValid() {
		// An enclosing instrumented primitive already established the
		// trace; nest under it.
		return ctx
	}

	tid, err := trace.TraceIDFromHex(ec.TraceID)
	if err != nil {
		return ctx
	}
	sid, err := trace.SpanIDFromHex(ec.SpanID)
	if err != nil {
		return ctx
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     sid,
		TraceFlags: trace.TraceFlags(ec.TraceFlags),
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(ctx, sc)
}
