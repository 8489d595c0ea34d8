// Package expreval builds Conditional predicates and Switch selectors from
// expr-lang expressions, so branch logic can live in configuration instead
// of Go code.
//
// The expression environment exposes:
//
//	input           the value flowing into the primitive
//	baggage, tags   the context's propagated metadata maps
//	workflow_id     the context's workflow id
//	correlation_id  the context's correlation id
//
// Compiled programs are cached and reused across goroutines.
package expreval

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jlaasanen/strand/pkg/api"
)

// Evaluator compiles and caches expr-lang programs.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// New creates an Evaluator.
func New() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Condition compiles expression into a Predicate. The expression must
// produce a boolean; any evaluation failure or non-boolean result reads as
// false, so workflow control flow stays total.
func (e *Evaluator) Condition(expression string) (api.Predicate, error) {
	prg, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	return func(input any, ec *api.ExecutionContext) bool {
		out, err := vm.Run(prg, environment(input, ec))
		if err != nil {
			return false
		}
		b, ok := out.(bool)
		return ok && b
	}, nil
}

// Selector compiles expression into a Selector. Non-string results are
// rendered with fmt.Sprint; evaluation failures select the empty key.
func (e *Evaluator) Selector(expression string) (api.Selector, error) {
	prg, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	return func(input any, ec *api.ExecutionContext) string {
		out, err := vm.Run(prg, environment(input, ec))
		if err != nil {
			return ""
		}
		if s, ok := out.(string); ok {
			return s
		}
		return fmt.Sprint(out)
	}, nil
}

func (e *Evaluator) getOrCompile(expression string) (*vm.Program, error) {
	if expression == "" {
		return nil, &api.ValidationError{Primitive: "expreval", Reason: "empty expression"}
	}

	e.mu.RLock()
	prg, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	compiled, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}

	e.mu.Lock()
	e.cache[expression] = compiled
	e.mu.Unlock()
	return compiled, nil
}

func environment(input any, ec *api.ExecutionContext) map[string]any {
	return map[string]any{
		"input":          input,
		"baggage":        ec.Baggage,
		"tags":           ec.Tags,
		"workflow_id":    ec.WorkflowID,
		"correlation_id": ec.CorrelationID,
	}
}
