package api

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/errgroup"
)

// JoinPolicy controls how Parallel treats branch failures.
type JoinPolicy int

const (
	// FailFast cancels remaining in-flight branches on the first failure
	// and propagates that error. Results of branches that complete before
	// the cancellation takes effect are discarded.
	FailFast JoinPolicy = iota

	// CollectAll waits for every branch and returns a ParallelResult
	// containing every success and every failure. Partial success is not
	// itself an error.
	CollectAll
)

// BranchResult is the outcome of one Parallel branch.
type BranchResult struct {
	Branch string
	Index  int
	Output any
	Err    error

	// Context is the child context the branch ran with. Its checkpoints
	// and trail are not merged into the parent; aggregating them is the
	// caller's responsibility.
	Context *ExecutionContext
}

// ParallelResult is the collect-all join of a Parallel run.
type ParallelResult struct {
	Results []BranchResult
}

// Succeeded returns the branches that completed without error, in branch
// order.
func (r *ParallelResult) Succeeded() []BranchResult {
	out := make([]BranchResult, 0, len(r.Results))
	for _, br := range r.Results {
		if br.Err == nil {
			out = append(out, br)
		}
	}
	return out
}

// Failed returns the branches that returned an error, in branch order.
func (r *ParallelResult) Failed() []BranchResult {
	out := make([]BranchResult, 0, len(r.Results))
	for _, br := range r.Results {
		if br.Err != nil {
			out = append(out, br)
		}
	}
	return out
}

// Parallel fans one input out to every branch concurrently. It is the only
// primitive that forks contexts: each branch runs with a child context (see
// ExecutionContext.Child), so concurrent branches share nothing mutable.
//
// The parent context gets "parallel_start" and "parallel_end" checkpoints;
// per-branch checkpoints live only in each child context.
//
// With FailFast the output is a []any of branch outputs in branch order.
// With CollectAll the output is a *ParallelResult.
type Parallel struct {
	name     string
	branches []Primitive
	policy   JoinPolicy
	limit    int
}

// ParallelOption customizes a Parallel at construction.
type ParallelOption func(*Parallel)

// WithJoinPolicy selects the failure policy; the default is FailFast.
func WithJoinPolicy(p JoinPolicy) ParallelOption {
	return func(pp *Parallel) { pp.policy = p }
}

// WithConcurrencyLimit bounds how many branches run at once. Zero or
// negative means unbounded.
func WithConcurrencyLimit(n int) ParallelOption {
	return func(pp *Parallel) { pp.limit = n }
}

// NewParallel builds a Parallel over the given branches.
func NewParallel(name string, branches []Primitive, opts ...ParallelOption) (*Parallel, error) {
	if name == "" {
		name = "parallel"
	}
	if len(branches) == 0 {
		return nil, &ValidationError{Primitive: name, Reason: "at least one branch is required"}
	}
	for i, b := range branches {
		if b == nil {
			return nil, &ValidationError{Primitive: name, Reason: fmt.Sprintf("branch %d is nil", i)}
		}
	}
	p := &Parallel{name: name, branches: branches, policy: FailFast}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Parallel) Name() string { return p.name }

func (p *Parallel) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	ec.Checkpoint(p.name + "_start")

	var (
		out any
		err error
	)
	switch p.policy {
	case CollectAll:
		out, err = p.collectAll(ctx, input, ec)
	default:
		out, err = p.failFast(ctx, input, ec)
	}

	ec.Checkpoint(p.name + "_end")
	return out, err
}

func (p *Parallel) failFast(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	g, gctx := errgroup.WithContext(ctx)
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}

	outputs := make([]any, len(p.branches))
	for i, branch := range p.branches {
		i, branch := i, branch
		child := ec.Child()
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			started := child.notifyStart(gctx, branch.Name())
			out, err := branch.Execute(gctx, input, child)
			child.notifyDone(gctx, branch.Name(), started, err)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func (p *Parallel) collectAll(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	results := make([]BranchResult, len(p.branches))

	var wg sync.WaitGroup
	sem := make(chan struct{}, semSize(p.limit, len(p.branches)))

	for i, branch := range p.branches {
		i, branch := i, branch
		wg.Add(1)
		child := ec.Child()
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			started := child.notifyStart(ctx, branch.Name())
			out, err := branch.Execute(ctx, input, child)
			child.notifyDone(ctx, branch.Name(), started, err)

			results[i] = BranchResult{
				Branch:  branch.Name(),
				Index:   i,
				Output:  out,
				Err:     err,
				Context: child,
			}
		}()
	}

	wg.Wait()
	return &ParallelResult{Results: results}, nil
}

func semSize(limit, n int) int {
	if limit > 0 && limit < n {
		return limit
	}
	if n == 0 {
		return 1
	}
	return n
}

// ParallelMap runs one mapper primitive over every element of a slice input
// concurrently, returning a []any of mapped outputs in element order. The
// input must be a slice or array; anything else fails with an
// ExecutionError. Each element runs with its own child context and failures
// follow FailFast semantics.
type ParallelMap struct {
	name   string
	mapper Primitive
	limit  int
}

// NewParallelMap builds a ParallelMap with an optional concurrency limit
// (zero means unbounded).
func NewParallelMap(name string, mapper Primitive, limit int) (*ParallelMap, error) {
	if name == "" {
		name = "parallel_map"
	}
	if mapper == nil {
		return nil, &ValidationError{Primitive: name, Reason: "mapper is required"}
	}
	return &ParallelMap{name: name, mapper: mapper, limit: limit}, nil
}

func (p *ParallelMap) Name() string { return p.name }

func (p *ParallelMap) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	rv := reflect.ValueOf(input)
	if input == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, &ExecutionError{
			Primitive: p.name,
			Err:       fmt.Errorf("input must be a slice, got %T", input),
		}
	}

	ec.Checkpoint(p.name + "_start")

	g, gctx := errgroup.WithContext(ctx)
	if p.limit > 0 {
		g.SetLimit(p.limit)
	}

	n := rv.Len()
	outputs := make([]any, n)
	for i := 0; i < n; i++ {
		i := i
		elem := rv.Index(i).Interface()
		child := ec.Child()
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			out, err := p.mapper.Execute(gctx, elem, child)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ec.Checkpoint(p.name + "_end")
	return outputs, nil
}
