package strand

import (
	"context"
	"time"

	"github.com/jlaasanen/strand/pkg/api"
)

// SleepStep returns a leaf primitive that sleeps for the given duration
// and passes the input through.
//
// It is context-aware: if the context is cancelled during the sleep, it
// returns ctx.Err and the flow fails at this step.
func SleepStep(name string, d time.Duration) Primitive {
	return Func(name, func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
		if d <= 0 {
			return input, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
			return input, nil
		}
	})
}

// Typed wraps a strongly-typed function into a Primitive.
// Example:
//
//	strand.Typed("score", func(ctx context.Context, o Order) (float64, error) { ... })
func Typed[I, O any](name string, fn func(context.Context, I) (O, error)) Primitive {
	return api.Typed[I, O](name, fn)
}

// Compose2 chains two typed functions into one typed primitive, with the
// adjacency of their input/output types checked at compile time.
func Compose2[A, B, C any](
	name string,
	first func(context.Context, A) (B, error),
	second func(context.Context, B) (C, error),
) Primitive {
	return Typed(name, func(ctx context.Context, a A) (C, error) {
		var zero C
		b, err := first(ctx, a)
		if err != nil {
			return zero, err
		}
		return second(ctx, b)
	})
}

// Compose3 chains three typed functions into one typed primitive.
func Compose3[A, B, C, D any](
	name string,
	first func(context.Context, A) (B, error),
	second func(context.Context, B) (C, error),
	third func(context.Context, C) (D, error),
) Primitive {
	return Typed(name, func(ctx context.Context, a A) (D, error) {
		var zero D
		b, err := first(ctx, a)
		if err != nil {
			return zero, err
		}
		c, err := second(ctx, b)
		if err != nil {
			return zero, err
		}
		return third(ctx, c)
	})
}
