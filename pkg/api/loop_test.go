package api

import (
	"context"
	"errors"
	"testing"
)

func TestLoopFeedsOutputForward(t *testing.T) {
	l, err := NewLoop("loop", addStep("inc", 1), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ec := NewContext("wf")
	out, err := l.Execute(context.Background(), 0, ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(int) != 5 {
		t.Fatalf("expected 5, got %v", out)
	}

	found := false
	for _, cp := range ec.Checkpoints() {
		if cp.Name == "loop_5_iterations" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected loop_5_iterations checkpoint")
	}
}

func TestLoopStopsOnError(t *testing.T) {
	sentinel := errors.New("boom")
	calls := 0
	body := Func("flaky", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
		calls++
		if calls == 3 {
			return nil, sentinel
		}
		return input, nil
	})

	l, _ := NewLoop("loop", body, 10)
	_, err := l.Execute(context.Background(), nil, NewContext("wf"))
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 body calls, got %d", calls)
	}
}

func TestLoopValidation(t *testing.T) {
	var ve *ValidationError

	_, err := NewLoop("loop", nil, 3)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for nil body, got %v", err)
	}
	_, err = NewLoop("loop", Identity(), 0)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for zero times, got %v", err)
	}
}

func TestWhileRunsUntilPredicateFails(t *testing.T) {
	w, err := NewWhile("while",
		func(input any, ec *ExecutionContext) bool { return input.(int) < 10 },
		Func("double", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
			return input.(int) * 2, nil
		}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ec := NewContext("wf")
	out, err := w.Execute(context.Background(), 1, ec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1 -> 2 -> 4 -> 8 -> 16
	if out.(int) != 16 {
		t.Fatalf("expected 16, got %v", out)
	}

	found := false
	for _, cp := range ec.Checkpoints() {
		if cp.Name == "while_4_iterations" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected while_4_iterations checkpoint, got %v", ec.Checkpoints())
	}
}

func TestWhileFalsePredicateSkipsBody(t *testing.T) {
	calls := 0
	w, _ := NewWhile("while",
		func(input any, ec *ExecutionContext) bool { return false },
		Func("body", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
			calls++
			return input, nil
		}),
	)

	out, err := w.Execute(context.Background(), 42, NewContext("wf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(int) != 42 || calls != 0 {
		t.Fatalf("body must not run when the predicate starts false, got %v after %d calls", out, calls)
	}
}

func TestWhileHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	w, _ := NewWhile("while",
		func(input any, ec *ExecutionContext) bool { return true },
		Func("spin", func(c context.Context, input any, ec *ExecutionContext) (any, error) {
			calls++
			if calls == 5 {
				cancel()
			}
			return input, nil
		}),
	)

	_, err := w.Execute(ctx, nil, NewContext("wf"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("expected 5 calls before cancellation, got %d", calls)
	}
}
