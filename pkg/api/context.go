package api

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Checkpoint is a named timing mark on a context's timeline.
// Elapsed is measured from the context's StartTime.
type Checkpoint struct {
	Name    string
	Elapsed time.Duration
}

// ExecutionContext is the per-execution value object threaded through a
// primitive tree. It carries identity (workflow, trace, correlation),
// causal links, propagated metadata, and an append-only record of
// checkpoints and trail entries.
//
// One root context is created per top-level run and passed explicitly to
// every primitive. All primitives forward the same context to their
// children except Parallel, which forks a child context per branch (see
// Child). The context is discarded when the root call returns; it has no
// persistence and no ambient/global counterpart.
type ExecutionContext struct {
	// WorkflowID identifies the whole execution tree. Set once at the root.
	WorkflowID string

	// TraceID, SpanID, ParentSpanID and TraceFlags are W3C-Trace-Context
	// shaped identifiers for tracing interop. SpanID changes per Parallel
	// branch; TraceID is stable across the tree.
	TraceID      string
	SpanID       string
	ParentSpanID string
	TraceFlags   byte

	// CorrelationID groups all log lines of one logical execution. It is
	// generated once at the root and forwarded unchanged to every
	// descendant context.
	CorrelationID string

	// Baggage and Tags carry arbitrary propagated/annotated metadata.
	Baggage map[string]string
	Tags    map[string]string

	// StartTime is set at context creation and never mutated.
	StartTime time.Time

	mu          sync.Mutex
	causationID string
	checkpoints []Checkpoint
	trail       *Trail
	observer    Observer
}

// ContextOption customizes a root context at creation time.
type ContextOption func(*ExecutionContext)

// WithBaggage merges the given entries into the context's baggage.
func WithBaggage(baggage map[string]string) ContextOption {
	return func(ec *ExecutionContext) {
		for k, v := range baggage {
			ec.Baggage[k] = v
		}
	}
}

// WithTags merges the given entries into the context's tags.
func WithTags(tags map[string]string) ContextOption {
	return func(ec *ExecutionContext) {
		for k, v := range tags {
			ec.Tags[k] = v
		}
	}
}

// WithObserver attaches an Observer that receives primitive lifecycle
// callbacks during execution. Child contexts inherit it.
func WithObserver(obs Observer) ContextOption {
	return func(ec *ExecutionContext) {
		if obs != nil {
			ec.observer = obs
		}
	}
}

// WithTraceParent seeds the context's trace identity from an upstream
// trace, e.g. one extracted from an incoming request.
func WithTraceParent(traceID, spanID string, flags byte) ContextOption {
	return func(ec *ExecutionContext) {
		if traceID != "" {
			ec.TraceID = traceID
		}
		if spanID != "" {
			ec.ParentSpanID = spanID
		}
		ec.TraceFlags = flags
	}
}

// NewContext creates a root ExecutionContext for one execution tree.
func NewContext(workflowID string, opts ...ContextOption) *ExecutionContext {
	ec := &ExecutionContext{
		WorkflowID:    workflowID,
		TraceID:       newTraceID(),
		SpanID:        newSpanID(),
		CorrelationID: uuid.NewString(),
		Baggage:       make(map[string]string),
		Tags:          make(map[string]string),
		StartTime:     time.Now(),
		trail:         newTrail(),
		observer:      NoopObserver{},
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// Child forks a context for one concurrent branch. The child copies
// TraceID, CorrelationID, Baggage, Tags and StartTime by value, gets a
// fresh SpanID with ParentSpanID set to the parent's SpanID, and starts
// with empty checkpoints and an independent trail. Mutations in one branch
// are never visible to siblings or the parent.
//
// Only Parallel forks contexts; every other primitive forwards the same
// context unchanged.
func (ec *ExecutionContext) Child() *ExecutionContext {
	child := &ExecutionContext{
		WorkflowID:    ec.WorkflowID,
		TraceID:       ec.TraceID,
		SpanID:        newSpanID(),
		ParentSpanID:  ec.SpanID,
		TraceFlags:    ec.TraceFlags,
		CorrelationID: ec.CorrelationID,
		causationID:   ec.SpanID,
		Baggage:       make(map[string]string, len(ec.Baggage)),
		Tags:          make(map[string]string, len(ec.Tags)),
		StartTime:     ec.StartTime,
		trail:         newTrail(),
		observer:      ec.observer,
	}
	for k, v := range ec.Baggage {
		child.Baggage[k] = v
	}
	for k, v := range ec.Tags {
		child.Tags[k] = v
	}
	return child
}

// CausationID names the immediate predecessor step that caused the current
// step to run. Unlike CorrelationID it is per-hop: combinators update it as
// execution advances, so it is guarded by the context's mutex. A child that
// outlives its combinator, such as an abandoned timeout branch, may still be
// writing it while the parent moves on.
func (ec *ExecutionContext) CausationID() string {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.causationID
}

func (ec *ExecutionContext) setCausation(id string) {
	ec.mu.Lock()
	ec.causationID = id
	ec.mu.Unlock()
}

// Checkpoint appends a named timing mark. Checkpoints are append-only and
// monotonically non-decreasing in elapsed time; no primitive removes or
// reorders existing entries.
func (ec *ExecutionContext) Checkpoint(name string) {
	cp := Checkpoint{Name: name, Elapsed: time.Since(ec.StartTime)}
	ec.mu.Lock()
	ec.checkpoints = append(ec.checkpoints, cp)
	ec.mu.Unlock()
}

// Checkpoints returns a copy of the recorded checkpoints in order.
func (ec *ExecutionContext) Checkpoints() []Checkpoint {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	out := make([]Checkpoint, len(ec.checkpoints))
	copy(out, ec.checkpoints)
	return out
}

// Elapsed reports the time since the context was created. It is computed on
// every call, never cached, so it is valid at any point during execution.
func (ec *ExecutionContext) Elapsed() time.Duration {
	return time.Since(ec.StartTime)
}

// Trail returns the typed execution trail for this context.
func (ec *ExecutionContext) Trail() *Trail {
	return ec.trail
}

// Observer returns the attached observer, never nil.
func (ec *ExecutionContext) Observer() Observer {
	if ec.observer == nil {
		return NoopObserver{}
	}
	return ec.observer
}

// newTraceID returns a 16-byte lowercase hex id as used by W3C traceparent.
func newTraceID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// newSpanID returns an 8-byte lowercase hex id as used by W3C traceparent.
func newSpanID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Fall back to uuid-derived bytes; rand.Read failing is effectively
		// unreachable on supported platforms.
		u := uuid.New()
		copy(b[:], u[:8])
	}
	return hex.EncodeToString(b[:])
}
