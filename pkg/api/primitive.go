package api

import (
	"context"
	"fmt"
)

// Primitive is the single contract every leaf and every combinator
// implements. Execute either returns an output value or fails with a typed
// error (see errors.go). Primitives are stateless across calls unless
// explicitly designed otherwise (Cache is the one stateful primitive).
//
// Implementations must observe ctx cancellation at their blocking points;
// cancellation is cooperative, never preemptive.
type Primitive interface {
	// Name identifies the primitive in checkpoints, trail records, logs
	// and spans.
	Name() string

	// Execute runs the primitive with the given input and execution
	// context.
	Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error)
}

// StepFunc is the function form of a leaf step.
type StepFunc func(ctx context.Context, input any, ec *ExecutionContext) (any, error)

// funcPrimitive adapts a StepFunc into a named Primitive.
type funcPrimitive struct {
	name string
	fn   StepFunc
}

// Func wraps fn into a Primitive with the given name.
// It panics if name is empty or fn is nil; leaves are constructed at
// composition time where misconfiguration should fail loudly.
func Func(name string, fn StepFunc) Primitive {
	if name == "" {
		panic("strand: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("strand: step %q has nil function", name))
	}
	return &funcPrimitive{name: name, fn: fn}
}

func (p *funcPrimitive) Name() string { return p.name }

func (p *funcPrimitive) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	return p.fn(ctx, input, ec)
}

// Typed wraps a strongly-typed function into a Primitive. The input is
// converted with a type assertion; a mismatch fails with an ExecutionError
// rather than panicking.
//
// Example:
//
//	strand.Typed("total", func(ctx context.Context, o Order) (float64, error) { ... })
func Typed[I, O any](name string, fn func(context.Context, I) (O, error)) Primitive {
	if fn == nil {
		panic(fmt.Sprintf("strand: step %q has nil function", name))
	}
	return Func(name, func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
		in, ok := input.(I)
		if !ok {
			// Allow nil input for steps whose input type is an interface or
			// pointer; the zero value is the natural reading there.
			if input == nil {
				var zero I
				out, err := fn(ctx, zero)
				if err != nil {
					return nil, err
				}
				return out, nil
			}
			return nil, &ExecutionError{
				Primitive: name,
				Err:       fmt.Errorf("input type %T does not match step input %T", input, *new(I)),
			}
		}
		out, err := fn(ctx, in)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Identity returns its input unchanged. Conditional and Switch fall back to
// it when no else/default branch is configured.
func Identity() Primitive {
	return Func("identity", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
		return input, nil
	})
}

// Predicate decides a Conditional branch from the input and context.
type Predicate func(input any, ec *ExecutionContext) bool

// Selector produces the Switch key from the input and context.
type Selector func(input any, ec *ExecutionContext) string
