package api

import (
	"context"
)

// Fallback executes a primary primitive and, on any failure, executes the
// alternate with the same input and context instead of propagating the
// primary's error. If the alternate also fails, its error propagates.
//
// The path taken is appended to the context's trail as a FallbackRecord,
// including the primary's error kind when the alternate was triggered.
type Fallback struct {
	name      string
	primary   Primitive
	alternate Primitive
}

// NewFallback builds a Fallback over a primary and an alternate primitive
// of matching input/output types.
func NewFallback(name string, primary, alternate Primitive) (*Fallback, error) {
	if name == "" {
		name = "fallback"
	}
	if primary == nil {
		return nil, &ValidationError{Primitive: name, Reason: "primary primitive is required"}
	}
	if alternate == nil {
		return nil, &ValidationError{Primitive: name, Reason: "alternate primitive is required"}
	}
	return &Fallback{name: name, primary: primary, alternate: alternate}, nil
}

func (f *Fallback) Name() string { return f.name }

func (f *Fallback) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	started := ec.notifyStart(ctx, f.primary.Name())
	out, err := f.primary.Execute(ctx, input, ec)
	ec.notifyDone(ctx, f.primary.Name(), started, err)

	if err == nil {
		ec.Trail().recordFallback(FallbackRecord{Primitive: f.name})
		return out, nil
	}

	ec.Trail().recordFallback(FallbackRecord{
		Primitive:  f.name,
		Triggered:  true,
		PrimaryErr: ErrorKind(err),
	})
	ec.Checkpoint(f.name + "_triggered")

	started = ec.notifyStart(ctx, f.alternate.Name())
	out, err = f.alternate.Execute(ctx, input, ec)
	ec.notifyDone(ctx, f.alternate.Name(), started, err)
	return out, err
}
