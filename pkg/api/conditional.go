package api

import (
	"context"
)

// Conditional evaluates a predicate over (input, context) and executes the
// ifTrue branch or, when configured, the ifFalse branch. Without an else
// branch a false predicate passes the input through unchanged.
//
// Every evaluation appends a DecisionRecord to the context's trail, giving
// an auditable decision history for the whole execution.
type Conditional struct {
	name    string
	pred    Predicate
	ifTrue  Primitive
	ifFalse Primitive
}

// NewConditional builds a Conditional. ifFalse may be nil, in which case the
// false branch is the identity.
func NewConditional(name string, pred Predicate, ifTrue, ifFalse Primitive) (*Conditional, error) {
	if name == "" {
		name = "conditional"
	}
	if pred == nil {
		return nil, &ValidationError{Primitive: name, Reason: "predicate is required"}
	}
	if ifTrue == nil {
		return nil, &ValidationError{Primitive: name, Reason: "ifTrue branch is required"}
	}
	if ifFalse == nil {
		ifFalse = Identity()
	}
	return &Conditional{name: name, pred: pred, ifTrue: ifTrue, ifFalse: ifFalse}, nil
}

func (c *Conditional) Name() string { return c.name }

func (c *Conditional) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	outcome := c.pred(input, ec)

	branch := c.ifFalse
	if outcome {
		branch = c.ifTrue
	}

	ec.Trail().recordDecision(DecisionRecord{
		Primitive: c.name,
		Outcome:   outcome,
		Branch:    branch.Name(),
	})

	started := ec.notifyStart(ctx, branch.Name())
	out, err := branch.Execute(ctx, input, ec)
	ec.notifyDone(ctx, branch.Name(), started, err)
	return out, err
}

// Switch evaluates a selector over (input, context), looks up a case by
// exact key equality and executes it. When no case matches, the default
// branch runs if configured, else the input passes through unchanged.
//
// Every selection appends a SwitchRecord to the context's trail.
type Switch struct {
	name     string
	selector Selector
	cases    map[string]Primitive
	fallback Primitive
}

// NewSwitch builds a Switch. fallback may be nil, in which case an
// unmatched key is the identity.
func NewSwitch(name string, selector Selector, cases map[string]Primitive, fallback Primitive) (*Switch, error) {
	if name == "" {
		name = "switch"
	}
	if selector == nil {
		return nil, &ValidationError{Primitive: name, Reason: "selector is required"}
	}
	if len(cases) == 0 {
		return nil, &ValidationError{Primitive: name, Reason: "at least one case is required"}
	}
	for k, p := range cases {
		if p == nil {
			return nil, &ValidationError{Primitive: name, Reason: "case " + k + " is nil"}
		}
	}
	copied := make(map[string]Primitive, len(cases))
	for k, p := range cases {
		copied[k] = p
	}
	if fallback == nil {
		fallback = Identity()
	}
	return &Switch{name: name, selector: selector, cases: copied, fallback: fallback}, nil
}

func (s *Switch) Name() string { return s.name }

func (s *Switch) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	key := s.selector(input, ec)

	branch, ok := s.cases[key]
	if !ok {
		branch = s.fallback
	}

	ec.Trail().recordSwitch(SwitchRecord{
		Primitive:   s.name,
		Key:         key,
		DefaultUsed: !ok,
	})

	started := ec.notifyStart(ctx, branch.Name())
	out, err := branch.Execute(ctx, input, ec)
	ec.notifyDone(ctx, branch.Name(), started, err)
	return out, err
}
