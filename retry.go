package strand

import (
	"time"

	"github.com/jlaasanen/strand/pkg/api"
)

// RetryBuilder provides a fluent way to construct RetryPolicy values for
// use with FlowBuilder.StepWithRetry or NewRetry.
type RetryBuilder struct {
	policy RetryPolicy
}

// Attempts creates a RetryBuilder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func Attempts(maxAttempts int) RetryBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryBuilder{
		policy: RetryPolicy{MaxAttempts: maxAttempts},
	}
}

// Constant configures a constant delay between retries.
func (r RetryBuilder) Constant(base time.Duration) RetryBuilder {
	p := r.policy
	p.Backoff = BackoffPolicy{Strategy: api.BackoffConstant, Base: base}
	return RetryBuilder{policy: p}
}

// Linear configures a delay of base * attempt between retries.
func (r RetryBuilder) Linear(base time.Duration) RetryBuilder {
	p := r.policy
	p.Backoff = BackoffPolicy{Strategy: api.BackoffLinear, Base: base}
	return RetryBuilder{policy: p}
}

// Exponential configures a delay of base * 2^(attempt-1) between retries.
func (r RetryBuilder) Exponential(base time.Duration) RetryBuilder {
	p := r.policy
	p.Backoff = BackoffPolicy{Strategy: api.BackoffExponential, Base: base}
	return RetryBuilder{policy: p}
}

// Cap bounds the computed delay regardless of strategy.
func (r RetryBuilder) Cap(max time.Duration) RetryBuilder {
	p := r.policy
	p.Backoff.Max = max
	return RetryBuilder{policy: p}
}

// WithJitter spreads each delay by a random factor in [0.5, 1.5).
// Jitter is off by default so retry schedules stay deterministic.
func (r RetryBuilder) WithJitter() RetryBuilder {
	p := r.policy
	p.Backoff.Jitter = true
	return RetryBuilder{policy: p}
}

// Immediate disables any sleep between retries.
// Retries still respect MaxAttempts.
func (r RetryBuilder) Immediate() RetryBuilder {
	p := r.policy
	p.Backoff = BackoffPolicy{}
	return RetryBuilder{policy: p}
}

// If filters which errors are retried; a non-matching error propagates on
// the attempt it occurred.
func (r RetryBuilder) If(filter func(error) bool) RetryBuilder {
	p := r.policy
	p.RetryIf = filter
	return RetryBuilder{policy: p}
}

// Policy returns the underlying RetryPolicy.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}
