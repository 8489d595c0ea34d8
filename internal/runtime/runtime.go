// Package runtime implements the flow registry and execution runtime
// behind the root strand API. It owns root-context creation, observer
// lifecycle callbacks, and an in-memory index of recent executions.
// Nothing here is persisted; executions live only in process memory.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jlaasanen/strand/pkg/api"
)

// Status is the lifecycle state of one execution.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Execution is the record of one root run.
type Execution struct {
	ID       string
	Workflow string
	Status   Status
	Output   any
	Err      error

	// Context is the root ExecutionContext of the run; its checkpoints and
	// trail are the audit record of what happened.
	Context *api.ExecutionContext

	StartedAt  time.Time
	FinishedAt time.Time
}

// ListOptions filters ListExecutions. Zero values mean "no filter".
type ListOptions struct {
	Workflow string
	Status   Status
}

// Runtime registers named flows and executes them with fresh root
// contexts.
type Runtime struct {
	observer api.Observer

	mu     sync.RWMutex
	flows  map[string]api.Primitive
	execs  map[string]*Execution
	order  []string
	nextID int64
}

// New creates a Runtime. A nil observer degrades to NoopObserver.
func New(observer api.Observer) *Runtime {
	if observer == nil {
		observer = api.NoopObserver{}
	}
	return &Runtime{
		observer: observer,
		flows:    make(map[string]api.Primitive),
		execs:    make(map[string]*Execution),
	}
}

// Register adds a named flow. Empty names, nil primitives and duplicates
// are configuration errors.
func (r *Runtime) Register(name string, p api.Primitive) error {
	if name == "" {
		return &api.ValidationError{Primitive: "runtime", Reason: "flow name is required"}
	}
	if p == nil {
		return &api.ValidationError{Primitive: "runtime", Reason: "flow " + name + " has nil primitive"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.flows[name]; exists {
		return &api.ValidationError{Primitive: "runtime", Reason: "flow already registered: " + name}
	}
	r.flows[name] = p
	return nil
}

// Execute runs the named flow with a fresh root context and returns its
// execution record. The returned error is the run's terminal error, if
// any; the record is returned in both cases.
func (r *Runtime) Execute(ctx context.Context, name string, input any, opts ...api.ContextOption) (*Execution, error) {
	r.mu.RLock()
	p, ok := r.flows[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &api.ValidationError{Primitive: "runtime", Reason: "unknown flow: " + name}
	}

	ec := api.NewContext(name, append([]api.ContextOption{api.WithObserver(r.observer)}, opts...)...)

	exec := &Execution{
		ID:        r.nextExecutionID(),
		Workflow:  name,
		Status:    StatusRunning,
		Context:   ec,
		StartedAt: time.Now(),
	}
	r.index(exec)

	r.observer.OnWorkflowStart(ctx, ec, name)

	out, err := p.Execute(ctx, input, ec)

	// The record is already visible through the index, so completion fields
	// are written under the same lock the query methods read with.
	r.mu.Lock()
	exec.FinishedAt = time.Now()
	if err != nil {
		exec.Status = StatusFailed
		exec.Err = err
	} else {
		exec.Status = StatusCompleted
		exec.Output = out
	}
	duration := exec.FinishedAt.Sub(exec.StartedAt)
	r.mu.Unlock()

	if err != nil {
		r.observer.OnWorkflowFailed(ctx, ec, name, err)
		return exec, err
	}
	r.observer.OnWorkflowCompleted(ctx, ec, name, duration)
	return exec, nil
}

// snapshot copies the record's fields so callers can read them while the
// execution is still running. The Context pointer is shared; its own state
// is internally synchronized.
func (e *Execution) snapshot() *Execution {
	c := *e
	return &c
}

// GetExecution looks up an execution record by ID. The returned record is a
// snapshot; it does not change when the execution finishes.
func (r *Runtime) GetExecution(id string) (*Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exec, ok := r.execs[id]
	if !ok {
		return nil, fmt.Errorf("execution not found: %s", id)
	}
	return exec.snapshot(), nil
}

// ListExecutions returns snapshots of execution records matching opts,
// oldest first.
func (r *Runtime) ListExecutions(opts ListOptions) []*Execution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Execution, 0, len(r.order))
	for _, id := range r.order {
		exec := r.execs[id]
		if opts.Workflow != "" && exec.Workflow != opts.Workflow {
			continue
		}
		if opts.Status != "" && exec.Status != opts.Status {
			continue
		}
		out = append(out, exec.snapshot())
	}
	return out
}

// Flows returns the registered flow names.
func (r *Runtime) Flows() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.flows))
	for name := range r.flows {
		out = append(out, name)
	}
	return out
}

func (r *Runtime) index(exec *Execution) {
	r.mu.Lock()
	r.execs[exec.ID] = exec
	r.order = append(r.order, exec.ID)
	r.mu.Unlock()
}

func (r *Runtime) nextExecutionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	return fmt.Sprintf("run-%d", r.nextID)
}
