package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the runtime and combinators for logging
// and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay execution. Observers must never affect
// the outcome of a run: return values and errors are identical with or
// without one attached.
type Observer interface {
	// OnWorkflowStart is called once when a root execution begins, before
	// the root primitive runs.
	OnWorkflowStart(ctx context.Context, ec *ExecutionContext, workflow string)

	// OnWorkflowCompleted is called when a root execution returns without
	// error.
	OnWorkflowCompleted(ctx context.Context, ec *ExecutionContext, workflow string, d time.Duration)

	// OnWorkflowFailed is called when a root execution returns an error.
	OnWorkflowFailed(ctx context.Context, ec *ExecutionContext, workflow string, err error)

	// OnPrimitiveStart is called before a combinator invokes a child
	// primitive.
	OnPrimitiveStart(ctx context.Context, ec *ExecutionContext, name string)

	// OnPrimitiveCompleted is called after a child primitive returns, for
	// both successes and failures (err != nil).
	OnPrimitiveCompleted(ctx context.Context, ec *ExecutionContext, name string, err error, d time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnWorkflowStart(ctx context.Context, ec *ExecutionContext, workflow string) {}
func (NoopObserver) OnWorkflowCompleted(ctx context.Context, ec *ExecutionContext, workflow string, d time.Duration) {
}
func (NoopObserver) OnWorkflowFailed(ctx context.Context, ec *ExecutionContext, workflow string, err error) {
}
func (NoopObserver) OnPrimitiveStart(ctx context.Context, ec *ExecutionContext, name string) {}
func (NoopObserver) OnPrimitiveCompleted(ctx context.Context, ec *ExecutionContext, name string, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnWorkflowStart(ctx context.Context, ec *ExecutionContext, workflow string) {
	for _, o := range c.observers {
		o.OnWorkflowStart(ctx, ec, workflow)
	}
}

func (c *CompositeObserver) OnWorkflowCompleted(ctx context.Context, ec *ExecutionContext, workflow string, d time.Duration) {
	for _, o := range c.observers {
		o.OnWorkflowCompleted(ctx, ec, workflow, d)
	}
}

func (c *CompositeObserver) OnWorkflowFailed(ctx context.Context, ec *ExecutionContext, workflow string, err error) {
	for _, o := range c.observers {
		o.OnWorkflowFailed(ctx, ec, workflow, err)
	}
}

func (c *CompositeObserver) OnPrimitiveStart(ctx context.Context, ec *ExecutionContext, name string) {
	for _, o := range c.observers {
		o.OnPrimitiveStart(ctx, ec, name)
	}
}

func (c *CompositeObserver) OnPrimitiveCompleted(ctx context.Context, ec *ExecutionContext, name string, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnPrimitiveCompleted(ctx, ec, name, err, d)
	}
}

// LoggingObserver writes structured logs using log/slog. Every line is
// tagged with the correlation id so all output of one logical execution can
// be grouped.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs lifecycle events using
// the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnWorkflowStart(ctx context.Context, ec *ExecutionContext, workflow string) {
	o.Logger.InfoContext(ctx, "workflow_start",
		slog.String("workflow", workflow),
		slog.String("correlation_id", ec.CorrelationID),
		slog.String("trace_id", ec.TraceID),
	)
}

func (o *LoggingObserver) OnWorkflowCompleted(ctx context.Context, ec *ExecutionContext, workflow string, d time.Duration) {
	o.Logger.InfoContext(ctx, "workflow_completed",
		slog.String("workflow", workflow),
		slog.String("correlation_id", ec.CorrelationID),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnWorkflowFailed(ctx context.Context, ec *ExecutionContext, workflow string, err error) {
	o.Logger.ErrorContext(ctx, "workflow_failed",
		slog.String("workflow", workflow),
		slog.String("correlation_id", ec.CorrelationID),
		slog.String("error_kind", ErrorKind(err)),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnPrimitiveStart(ctx context.Context, ec *ExecutionContext, name string) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("step", name),
		slog.String("correlation_id", ec.CorrelationID),
		slog.Duration("elapsed", ec.Elapsed()),
	)
}

func (o *LoggingObserver) OnPrimitiveCompleted(ctx context.Context, ec *ExecutionContext, name string, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_completed",
		slog.String("step", name),
		slog.String("correlation_id", ec.CorrelationID),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer and can be combined with LoggingObserver via
// NewCompositeObserver. For a Prometheus-backed equivalent, see
// pkg/telemetry.
type BasicMetrics struct {
	NoopObserver

	workflowsStarted   atomic.Int64
	workflowsCompleted atomic.Int64
	workflowsFailed    atomic.Int64
	stepsCompleted     atomic.Int64
	stepsFailed        atomic.Int64
	totalStepDuration  atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	WorkflowsStarted   int64
	WorkflowsCompleted int64
	WorkflowsFailed    int64
	RunningWorkflows   int64

	StepsCompleted  int64
	StepsFailed     int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnWorkflowStart(ctx context.Context, ec *ExecutionContext, workflow string) {
	m.workflowsStarted.Add(1)
}

func (m *BasicMetrics) OnWorkflowCompleted(ctx context.Context, ec *ExecutionContext, workflow string, d time.Duration) {
	m.workflowsCompleted.Add(1)
}

func (m *BasicMetrics) OnWorkflowFailed(ctx context.Context, ec *ExecutionContext, workflow string, err error) {
	m.workflowsFailed.Add(1)
}

func (m *BasicMetrics) OnPrimitiveCompleted(ctx context.Context, ec *ExecutionContext, name string, err error, d time.Duration) {
	if err != nil {
		m.stepsFailed.Add(1)
		return
	}
	m.stepsCompleted.Add(1)
	m.totalStepDuration.Add(d.Nanoseconds())
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.workflowsStarted.Load()
	completed := m.workflowsCompleted.Load()
	failed := m.workflowsFailed.Load()
	steps := m.stepsCompleted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		WorkflowsStarted:   started,
		WorkflowsCompleted: completed,
		WorkflowsFailed:    failed,
		RunningWorkflows:   started - completed - failed,
		StepsCompleted:     steps,
		StepsFailed:        m.stepsFailed.Load(),
		AvgStepDuration:    avg,
	}
}

// notifyStart and notifyDone are the nil-safe helpers combinators use to
// emit primitive lifecycle events.
func (ec *ExecutionContext) notifyStart(ctx context.Context, name string) time.Time {
	ec.Observer().OnPrimitiveStart(ctx, ec, name)
	return time.Now()
}

func (ec *ExecutionContext) notifyDone(ctx context.Context, name string, started time.Time, err error) {
	ec.Observer().OnPrimitiveCompleted(ctx, ec, name, err, time.Since(started))
}
