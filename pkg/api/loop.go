package api

import (
	"context"
	"fmt"
)

// Loop executes one body primitive a fixed number of times, feeding each
// iteration's output into the next iteration's input. The whole loop is a
// single primitive from the caller's perspective.
type Loop struct {
	name  string
	body  Primitive
	times int
}

// NewLoop builds a Loop that runs body `times` times.
func NewLoop(name string, body Primitive, times int) (*Loop, error) {
	if name == "" {
		name = "loop"
	}
	if body == nil {
		return nil, &ValidationError{Primitive: name, Reason: "body primitive is required"}
	}
	if times < 1 {
		return nil, &ValidationError{Primitive: name, Reason: "times must be at least 1"}
	}
	return &Loop{name: name, body: body, times: times}, nil
}

func (l *Loop) Name() string { return l.name }

func (l *Loop) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	current := input
	for i := 0; i < l.times; i++ {
		select {
		case <-ctx.Done():
			return nil, &ExecutionError{Primitive: l.name, Err: ctx.Err()}
		default:
		}

		out, err := l.body.Execute(ctx, current, ec)
		if err != nil {
			return nil, err
		}
		current = out
	}
	ec.Checkpoint(fmt.Sprintf("%s_%d_iterations", l.name, l.times))
	return current, nil
}

// While repeatedly executes a body primitive while the predicate holds for
// the current value. Like Loop, the whole construct is a single primitive.
type While struct {
	name string
	pred Predicate
	body Primitive
}

// NewWhile builds a While with the given predicate and body.
func NewWhile(name string, pred Predicate, body Primitive) (*While, error) {
	if name == "" {
		name = "while"
	}
	if pred == nil {
		return nil, &ValidationError{Primitive: name, Reason: "predicate is required"}
	}
	if body == nil {
		return nil, &ValidationError{Primitive: name, Reason: "body primitive is required"}
	}
	return &While{name: name, pred: pred, body: body}, nil
}

func (w *While) Name() string { return w.name }

func (w *While) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	current := input
	iterations := 0
	for w.pred(current, ec) {
		select {
		case <-ctx.Done():
			return nil, &ExecutionError{Primitive: w.name, Err: ctx.Err()}
		default:
		}

		out, err := w.body.Execute(ctx, current, ec)
		if err != nil {
			return nil, err
		}
		current = out
		iterations++
	}
	ec.Checkpoint(fmt.Sprintf("%s_%d_iterations", w.name, iterations))
	return current, nil
}
