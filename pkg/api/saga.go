package api

import (
	"context"
	"fmt"
)

// SagaStep pairs a forward primitive with the compensation that undoes it.
// Compensate may be nil for steps with nothing to undo.
type SagaStep struct {
	Name       string
	Forward    Primitive
	Compensate Primitive
}

// Saga executes forward steps in order. When forward step k fails, the
// compensations of the already-completed steps 1..k-1 run in reverse
// order, then the original forward error propagates as a SagaError.
//
// Compensation is best-effort: a failing compensation is recorded (and
// attached to the SagaError as a secondary list) but does not stop the
// remaining compensations. The primary cause is always the forward
// failure, never a compensation failure.
//
// Each compensation receives the output its forward step produced, so it
// can undo exactly what was done.
type Saga struct {
	name  string
	steps []SagaStep
}

// NewSaga builds a Saga from the given step pairs.
func NewSaga(name string, steps ...SagaStep) (*Saga, error) {
	if name == "" {
		name = "saga"
	}
	if len(steps) == 0 {
		return nil, &ValidationError{Primitive: name, Reason: "at least one step is required"}
	}
	for i, s := range steps {
		if s.Forward == nil {
			return nil, &ValidationError{Primitive: name, Reason: fmt.Sprintf("step %d has no forward primitive", i)}
		}
		if s.Name == "" {
			steps[i].Name = s.Forward.Name()
		}
	}
	return &Saga{name: name, steps: steps}, nil
}

func (s *Saga) Name() string { return s.name }

// completedStep remembers a forward step's output so its compensation can
// undo exactly what was done.
type completedStep struct {
	step   SagaStep
	output any
}

func (s *Saga) Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
	ec.Checkpoint(s.name + "_start")

	var done []completedStep

	current := input
	for _, step := range s.steps {
		select {
		case <-ctx.Done():
			return nil, s.compensate(ctx, ec, done, step.Name, ctx.Err())
		default:
		}

		started := ec.notifyStart(ctx, step.Name)
		out, err := step.Forward.Execute(ctx, current, ec)
		ec.notifyDone(ctx, step.Name, started, err)

		if err != nil {
			return nil, s.compensate(ctx, ec, done, step.Name, err)
		}

		ec.Trail().recordSaga(SagaRecord{
			Primitive: s.name,
			Step:      step.Name,
			Event:     SagaForwardOK,
		})
		ec.setCausation(ec.SpanID + "/" + step.Name)

		done = append(done, completedStep{step: step, output: out})
		current = out
	}

	ec.Checkpoint(s.name + "_end")
	return current, nil
}

// compensate unwinds completed steps in reverse order and returns the
// terminal SagaError for the forward failure.
func (s *Saga) compensate(
	ctx context.Context,
	ec *ExecutionContext,
	done []completedStep,
	failedStep string,
	forwardErr error,
) error {
	ec.Checkpoint(s.name + "_compensating")

	var failures []*CompensationError
	for i := len(done) - 1; i >= 0; i-- {
		c := done[i]
		if c.step.Compensate == nil {
			continue
		}

		// Compensation runs even when ctx is cancelled; unwinding partial
		// work matters most on the failure paths. The compensation
		// primitive still receives ctx so it can bail out of long waits.
		_, err := c.step.Compensate.Execute(ctx, c.output, ec)
		if err != nil {
			ce := &CompensationError{Primitive: s.name, Step: c.step.Name, Err: err}
			failures = append(failures, ce)
			ec.Trail().recordSaga(SagaRecord{
				Primitive: s.name,
				Step:      c.step.Name,
				Event:     SagaCompensationFailed,
				Err:       ErrorKind(err),
			})
			continue
		}

		ec.Trail().recordSaga(SagaRecord{
			Primitive: s.name,
			Step:      c.step.Name,
			Event:     SagaCompensated,
		})
	}

	return &SagaError{
		Primitive:     s.name,
		Step:          failedStep,
		Err:           forwardErr,
		Compensations: failures,
	}
}
