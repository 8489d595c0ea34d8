package api

import (
	"context"
	"errors"
	"testing"
)

func sagaStep(name string, log *[]string, fail bool) SagaStep {
	return SagaStep{
		Name: name,
		Forward: Func(name, func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
			if fail {
				return nil, errors.New(name + " failed")
			}
			*log = append(*log, "forward:"+name)
			return name + "_output", nil
		}),
		Compensate: Func(name+"_undo", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
			*log = append(*log, "undo:"+name+"<-"+input.(string))
			return nil, nil
		}),
	}
}

func TestSagaAllForwardsSucceed(t *testing.T) {
	var log []string
	saga, err := NewSaga("saga",
		sagaStep("reserve", &log, false),
		sagaStep("charge", &log, false),
		sagaStep("ship", &log, false),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ec := NewContext("wf")
	out, err := saga.Execute(context.Background(), "order", ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(string) != "ship_output" {
		t.Fatalf("expected last forward output, got %v", out)
	}
	if len(log) != 3 {
		t.Fatalf("expected 3 forward entries, got %v", log)
	}

	records := ec.Trail().Saga()
	if len(records) != 3 {
		t.Fatalf("expected 3 saga records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Event != SagaForwardOK {
			t.Fatalf("unexpected event on success path: %+v", rec)
		}
	}
}

func TestSagaCompensatesInReverseOrder(t *testing.T) {
	var log []string
	saga, _ := NewSaga("saga",
		sagaStep("reserve", &log, false),
		sagaStep("charge", &log, false),
		sagaStep("ship", &log, true),
	)

	ec := NewContext("wf")
	_, err := saga.Execute(context.Background(), "order", ec)

	var se *SagaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SagaError, got %v", err)
	}
	if se.Step != "ship" {
		t.Fatalf("expected failing step ship, got %s", se.Step)
	}

	want := []string{
		"forward:reserve",
		"forward:charge",
		"undo:charge<-charge_output",
		"undo:reserve<-reserve_output",
	}
	if len(log) != len(want) {
		t.Fatalf("expected %v, got %v", want, log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("position %d: expected %q, got %q", i, want[i], log[i])
		}
	}

	found := false
	for _, cp := range ec.Checkpoints() {
		if cp.Name == "saga_compensating" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected saga_compensating checkpoint")
	}
}

func TestSagaForwardErrorStaysPrimary(t *testing.T) {
	forwardErr := errors.New("charge declined")
	undoErr := errors.New("release failed")

	saga, _ := NewSaga("saga",
		SagaStep{
			Name:    "reserve",
			Forward: Func("reserve", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) { return "r", nil }),
			Compensate: Func("release", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
				return nil, undoErr
			}),
		},
		SagaStep{
			Name:    "charge",
			Forward: failStep("charge", forwardErr),
		},
	)

	ec := NewContext("wf")
	_, err := saga.Execute(context.Background(), nil, ec)

	var se *SagaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SagaError, got %v", err)
	}
	if !errors.Is(err, forwardErr) {
		t.Fatal("saga error must unwrap to the forward failure")
	}
	if errors.Is(err, undoErr) {
		t.Fatal("compensation failure must never be the primary cause")
	}
	if len(se.Compensations) != 1 || !errors.Is(se.Compensations[0], undoErr) {
		t.Fatalf("expected the compensation failure as secondary, got %+v", se.Compensations)
	}

	records := ec.Trail().Saga()
	foundFailed := false
	for _, rec := range records {
		if rec.Event == SagaCompensationFailed && rec.Step == "reserve" {
			foundFailed = true
		}
	}
	if !foundFailed {
		t.Fatal("expected SagaCompensationFailed record for reserve")
	}
}

func TestSagaFailingCompensationDoesNotStopUnwind(t *testing.T) {
	var log []string
	saga, _ := NewSaga("saga",
		sagaStep("first", &log, false),
		SagaStep{
			Name:    "second",
			Forward: Func("second", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) { return "s", nil }),
			Compensate: Func("second_undo", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
				return nil, errors.New("undo broke")
			}),
		},
		sagaStep("third", &log, true),
	)

	_, err := saga.Execute(context.Background(), "in", NewContext("wf"))
	var se *SagaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SagaError, got %v", err)
	}

	// The first step's compensation must still run after the second's failed.
	found := false
	for _, entry := range log {
		if entry == "undo:first<-first_output" {
			found = true
		}
	}
	if !found {
		t.Fatalf("unwind stopped early, log: %v", log)
	}
}

func TestSagaNilCompensationIsSkipped(t *testing.T) {
	var log []string
	saga, _ := NewSaga("saga",
		SagaStep{
			Name:    "log_only",
			Forward: Func("log_only", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) { return "l", nil }),
		},
		sagaStep("fails", &log, true),
	)

	_, err := saga.Execute(context.Background(), nil, NewContext("wf"))
	var se *SagaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SagaError, got %v", err)
	}
	if len(se.Compensations) != 0 {
		t.Fatalf("a nil compensation must not produce failures, got %+v", se.Compensations)
	}
}

func TestSagaValidation(t *testing.T) {
	var ve *ValidationError

	_, err := NewSaga("saga")
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for empty saga, got %v", err)
	}
	_, err = NewSaga("saga", SagaStep{Name: "broken"})
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for missing forward, got %v", err)
	}
}
