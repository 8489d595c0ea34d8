package strand

import (
	"fmt"
	"time"

	"github.com/jlaasanen/strand/pkg/api"
)

// FlowBuilder provides a fluent API for composing pipelines:
//
//	flow := strand.New("EnrichOrder").
//	    Step("validate", validate).
//	    StepWithRetry("fetchRates", fetchRates, strand.Attempts(3).Exponential(100*time.Millisecond).Policy()).
//	    If("premium", isPremium, premiumPath, nil).
//	    Parallel("notify", strand.FailFast, emailStep, smsStep)
//
//	p, err := flow.Build()
//
// Build assembles the accumulated steps into a Sequential; Register wires
// the result into a Runtime under the flow's name.
type FlowBuilder struct {
	name  string
	steps []Primitive
	errs  []error
}

// New creates a new flow builder with the given name.
func New(name string) *FlowBuilder {
	return &FlowBuilder{name: name}
}

// Name returns the flow name.
func (b *FlowBuilder) Name() string {
	return b.name
}

// Step appends a basic step to the flow.
func (b *FlowBuilder) Step(name string, fn StepFunc) *FlowBuilder {
	if name == "" {
		panic("strand: step name must not be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("strand: step %q has nil function", name))
	}
	b.steps = append(b.steps, Func(name, fn))
	return b
}

// Add appends an already-constructed primitive.
func (b *FlowBuilder) Add(p Primitive) *FlowBuilder {
	if p == nil {
		panic("strand: Add called with nil primitive")
	}
	b.steps = append(b.steps, p)
	return b
}

// StepWithRetry appends a step wrapped in the given retry policy.
func (b *FlowBuilder) StepWithRetry(name string, fn StepFunc, policy RetryPolicy) *FlowBuilder {
	r, err := api.NewRetry(name, Func(name, fn), policy)
	return b.collect(r, err)
}

// Parallel appends a fan-out over the given branches with the chosen join
// policy.
func (b *FlowBuilder) Parallel(name string, policy JoinPolicy, branches ...Primitive) *FlowBuilder {
	p, err := api.NewParallel(name, branches, api.WithJoinPolicy(policy))
	return b.collect(p, err)
}

// If appends a conditional branching step. elseStep may be nil for an
// identity false branch.
func (b *FlowBuilder) If(name string, pred Predicate, thenStep, elseStep Primitive) *FlowBuilder {
	c, err := api.NewConditional(name, pred, thenStep, elseStep)
	return b.collect(c, err)
}

// Switch appends a multi-branch step. fallback may be nil for an identity
// default.
func (b *FlowBuilder) Switch(name string, selector Selector, cases map[string]Primitive, fallback Primitive) *FlowBuilder {
	s, err := api.NewSwitch(name, selector, cases, fallback)
	return b.collect(s, err)
}

// Fallback appends a primary/alternate pair.
func (b *FlowBuilder) Fallback(name string, primary, alternate Primitive) *FlowBuilder {
	f, err := api.NewFallback(name, primary, alternate)
	return b.collect(f, err)
}

// Timeout appends a deadline-bounded step.
func (b *FlowBuilder) Timeout(name string, child Primitive, limit time.Duration) *FlowBuilder {
	t, err := api.NewTimeout(name, child, limit)
	return b.collect(t, err)
}

// Saga appends a forward/compensation sequence.
func (b *FlowBuilder) Saga(name string, steps ...SagaStep) *FlowBuilder {
	s, err := api.NewSaga(name, steps...)
	return b.collect(s, err)
}

// Cached appends a memoized step backed by the given store. key may be nil
// to use the default derived key.
func (b *FlowBuilder) Cached(name string, child Primitive, store CacheStore, key KeyFunc) *FlowBuilder {
	c, err := api.NewCache(name, child, store, key)
	return b.collect(c, err)
}

// Build assembles the flow into a Sequential primitive. Configuration
// errors accumulated by any fluent call surface here.
func (b *FlowBuilder) Build() (Primitive, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	return api.NewSequential(b.name, b.steps...)
}

// MustBuild is like Build but panics on configuration errors. Useful for
// package-level flow construction.
func (b *FlowBuilder) MustBuild() Primitive {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// Register builds the flow and registers it with the given runtime under
// the flow's name.
func (b *FlowBuilder) Register(rt *Runtime) error {
	p, err := b.Build()
	if err != nil {
		return err
	}
	return rt.Register(b.name, p)
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (b *FlowBuilder) MustRegister(rt *Runtime) {
	if err := b.Register(rt); err != nil {
		panic(err)
	}
}

func (b *FlowBuilder) collect(p Primitive, err error) *FlowBuilder {
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.steps = append(b.steps, p)
	return b
}
