package api

import (
	"context"
	"fmt"
)

// Sequential executes child primitives strictly in order, feeding each
// step's output into the next step's input. On any step's failure execution
// stops immediately and the error propagates unchanged; there is no
// implicit retry.
//
// Checkpoints recorded on the context: "sequential_start", one
// "step_{i}_{Name}" per completed step, and "sequential_end" on success.
type Sequential struct {
	name  string
	steps []Primitive
}

// NewSequential builds a Sequential from the given steps. An empty step
// list is a configuration error and fails here, not at execution time.
func NewSequential(name string, steps ...Primitive) (*Sequential, error) {
	if name == "" {
		name = "sequential"
	}
	if len(steps) == 0 {
		return nil, &ValidationError{Primitive: name, Reason: "at least one step is required"}
	}
	for i, s := range steps {
		if s == nil {
			return nil, &ValidationError{Primitive: name, Reason: fmt.Sprintf("step %d is nil", i)}
		}
	}
	return &Sequential{name: name, steps: steps}, nil
}

// MustSequential is like NewSequential but panics on configuration errors.
// Useful for package-level pipeline construction.
func MustSequential(name string, steps ...Primitive) *Sequential {
	s, err := NewSequential(name, steps...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Sequential) Name() string { return s.name }

// Steps returns the child primitives in execution order.
func (s *Sequential) Steps() []Primitive { return s.steps }

func (s *Sequential) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	ec.Checkpoint(s.name + "_start")

	current := input
	for i, step := range s.steps {
		select {
		case <-ctx.Done():
			return nil, &ExecutionError{Primitive: s.name, Err: ctx.Err()}
		default:
		}

		started := ec.notifyStart(ctx, step.Name())

		next, err := step.Execute(ctx, current, ec)

		ec.notifyDone(ctx, step.Name(), started, err)

		if err != nil {
			return nil, err
		}

		current = next
		ec.Checkpoint(fmt.Sprintf("step_%d_%s", i, step.Name()))
		ec.setCausation(ec.SpanID + "/" + step.Name())
	}

	ec.Checkpoint(s.name + "_end")
	return current, nil
}
