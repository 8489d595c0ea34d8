package api

import (
	"context"
	"errors"
	"time"
)

// Timeout wraps one child primitive and races its completion against a
// deadline. On expiry it fails with a TimeoutError, distinguishable from
// any error kind the child itself returns.
//
// Cancellation is cooperative: the child receives a context that is
// cancelled at the deadline and must observe it; it is not forcibly killed.
// A child that ignores cancellation keeps running on its goroutine until it
// returns, but its result is discarded.
//
// The primitive is value-agnostic; callers pick the duration for the
// operation class at hand (short for start/stop-like work, long for
// pull/build-like work).
type Timeout struct {
	name  string
	child Primitive
	limit time.Duration
}

// NewTimeout builds a Timeout around child with the given limit.
func NewTimeout(name string, child Primitive, limit time.Duration) (*Timeout, error) {
	if name == "" {
		name = "timeout"
	}
	if child == nil {
		return nil, &ValidationError{Primitive: name, Reason: "child primitive is required"}
	}
	if limit <= 0 {
		return nil, &ValidationError{Primitive: name, Reason: "limit must be positive"}
	}
	return &Timeout{name: name, child: child, limit: limit}, nil
}

func (t *Timeout) Name() string { return t.name }

func (t *Timeout) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	cctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()

	type result struct {
		out any
		err error
	}
	// Buffered so a late-finishing child never leaks its goroutine.
	done := make(chan result, 1)

	go func() {
		out, err := t.child.Execute(cctx, input, ec)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && cctx.Err() != nil {
			// The child surfaced our own deadline; normalize it.
			ec.Checkpoint(t.name + "_expired")
			return nil, &TimeoutError{Primitive: t.name, Limit: t.limit}
		}
		return r.out, r.err
	case <-cctx.Done():
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			ec.Checkpoint(t.name + "_expired")
			return nil, &TimeoutError{Primitive: t.name, Limit: t.limit}
		}
		// Parent cancellation, not a deadline.
		return nil, &ExecutionError{Primitive: t.name, Err: cctx.Err()}
	}
}
