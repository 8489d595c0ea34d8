package api

import (
	"context"
	"time"
)

// RetryPolicy controls how Retry re-attempts a failing child.
// MaxAttempts includes the first attempt:
//
//	MaxAttempts = 1 => no retries (just the initial call)
//	MaxAttempts = 3 => initial call + up to 2 retries
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffPolicy

	// RetryIf filters which errors are retried. A nil filter retries every
	// error; when set, a non-matching error propagates immediately without
	// further attempts.
	RetryIf func(error) bool
}

// Retry wraps one child primitive and re-executes it on matching failures
// until it succeeds or attempts are exhausted. Exhaustion fails with a
// RetryExhaustedError wrapping the last underlying error; a filtered-out
// error propagates unchanged on the attempt it occurred.
//
// Every attempt (including the failed ones that were retried) appends a
// RetryRecord to the context's trail.
type Retry struct {
	name   string
	child  Primitive
	policy RetryPolicy
}

// NewRetry builds a Retry around child. MaxAttempts below 1 is normalized
// to 1.
func NewRetry(name string, child Primitive, policy RetryPolicy) (*Retry, error) {
	if name == "" {
		name = "retry"
	}
	if child == nil {
		return nil, &ValidationError{Primitive: name, Reason: "child primitive is required"}
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retry{name: name, child: child, policy: policy}, nil
}

func (r *Retry) Name() string { return r.name }

func (r *Retry) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, &ExecutionError{Primitive: r.name, Err: ctx.Err()}
		default:
		}

		out, err := r.child.Execute(ctx, input, ec)
		if err == nil {
			if attempt > 1 {
				ec.Checkpoint(r.name + "_recovered")
			}
			return out, nil
		}

		retryable := r.policy.RetryIf == nil || r.policy.RetryIf(err)

		var delay time.Duration
		if retryable && attempt < r.policy.MaxAttempts {
			delay = r.policy.Backoff.Delay(attempt)
		}

		ec.Trail().recordRetry(RetryRecord{
			Primitive: r.name,
			Attempt:   attempt,
			Err:       ErrorKind(err),
			Delay:     delay,
		})

		if !retryable {
			return nil, err
		}

		lastErr = err
		if attempt == r.policy.MaxAttempts {
			break
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, &ExecutionError{Primitive: r.name, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}
	}

	return nil, &RetryExhaustedError{
		Primitive: r.name,
		Attempts:  r.policy.MaxAttempts,
		Err:       lastErr,
	}
}
