package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingObserver captures primitive events for assertions.
type recordingObserver struct {
	NoopObserver

	mu        sync.Mutex
	started   []string
	completed []string
	failed    []string
}

func (r *recordingObserver) OnPrimitiveStart(ctx context.Context, ec *ExecutionContext, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, name)
}

func (r *recordingObserver) OnPrimitiveCompleted(ctx context.Context, ec *ExecutionContext, name string, err error, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failed = append(r.failed, name)
		return
	}
	r.completed = append(r.completed, name)
}

func TestObserverSeesSequentialSteps(t *testing.T) {
	rec := &recordingObserver{}
	ec := NewContext("wf", WithObserver(rec))

	seq, _ := NewSequential("sequential",
		addStep("one", 1),
		addStep("two", 2),
	)
	if _, err := seq.Execute(context.Background(), 0, ec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.started) != 2 || rec.started[0] != "one" || rec.started[1] != "two" {
		t.Fatalf("unexpected start events: %v", rec.started)
	}
	if len(rec.completed) != 2 {
		t.Fatalf("expected 2 completions, got %v", rec.completed)
	}
	if len(rec.failed) != 0 {
		t.Fatalf("expected no failures, got %v", rec.failed)
	}
}

func TestObserverSeesFailures(t *testing.T) {
	rec := &recordingObserver{}
	ec := NewContext("wf", WithObserver(rec))

	seq, _ := NewSequential("sequential",
		addStep("one", 1),
		failStep("bad", errors.New("boom")),
	)
	if _, err := seq.Execute(context.Background(), 0, ec); err == nil {
		t.Fatal("expected error")
	}

	if len(rec.failed) != 1 || rec.failed[0] != "bad" {
		t.Fatalf("unexpected failure events: %v", rec.failed)
	}
}

func TestObserverInheritedByParallelChildren(t *testing.T) {
	rec := &recordingObserver{}
	ec := NewContext("wf", WithObserver(rec))

	par, _ := NewParallel("parallel", []Primitive{
		addStep("a", 1),
		addStep("b", 2),
	})
	if _, err := par.Execute(context.Background(), 0, ec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.completed) != 2 {
		t.Fatalf("child contexts must inherit the observer, got %v", rec.completed)
	}
}

func TestObserverNeverChangesOutcome(t *testing.T) {
	seq, _ := NewSequential("sequential", addStep("one", 1))

	plain, err := seq.Execute(context.Background(), 10, NewContext("wf"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	observed, err := seq.Execute(context.Background(), 10,
		NewContext("wf", WithObserver(&recordingObserver{})))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain != observed {
		t.Fatalf("observer changed the output: %v vs %v", plain, observed)
	}
}

func TestCompositeObserverFansOut(t *testing.T) {
	a := &recordingObserver{}
	b := &recordingObserver{}
	obs := NewCompositeObserver(a, nil, b)

	ec := NewContext("wf", WithObserver(obs))
	seq, _ := NewSequential("sequential", addStep("one", 1))
	if _, err := seq.Execute(context.Background(), 0, ec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.completed) != 1 || len(b.completed) != 1 {
		t.Fatalf("both observers must receive events: %v / %v", a.completed, b.completed)
	}
}

func TestCompositeObserverCollapses(t *testing.T) {
	if _, ok := NewCompositeObserver().(NoopObserver); !ok {
		t.Fatal("empty composite must collapse to NoopObserver")
	}
	single := &recordingObserver{}
	if got := NewCompositeObserver(nil, single); got != Observer(single) {
		t.Fatal("single-element composite must return the observer itself")
	}
}

func TestBasicMetricsCounts(t *testing.T) {
	m := &BasicMetrics{}
	ec := NewContext("wf", WithObserver(m))

	m.OnWorkflowStart(context.Background(), ec, "wf")

	seq, _ := NewSequential("sequential",
		addStep("one", 1),
		addStep("two", 2),
		failStep("bad", errors.New("boom")),
	)
	_, err := seq.Execute(context.Background(), 0, ec)
	if err == nil {
		t.Fatal("expected error")
	}
	m.OnWorkflowFailed(context.Background(), ec, "wf", err)

	snap := m.Snapshot()
	if snap.WorkflowsStarted != 1 || snap.WorkflowsFailed != 1 || snap.WorkflowsCompleted != 0 {
		t.Fatalf("unexpected workflow counters: %+v", snap)
	}
	if snap.StepsCompleted != 2 || snap.StepsFailed != 1 {
		t.Fatalf("unexpected step counters: %+v", snap)
	}
	if snap.RunningWorkflows != 0 {
		t.Fatalf("expected no running workflows, got %d", snap.RunningWorkflows)
	}
}

func TestLoggingObserverTagsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	obs := NewLoggingObserver(logger)
	ec := NewContext("wf", WithObserver(obs))

	obs.OnWorkflowStart(context.Background(), ec, "wf")

	seq, _ := NewSequential("sequential", addStep("one", 1))
	if _, err := seq.Execute(context.Background(), 0, ec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "workflow_start") {
		t.Fatalf("expected workflow_start line, got:\n%s", out)
	}
	if !strings.Contains(out, ec.CorrelationID) {
		t.Fatal("log lines must carry the correlation id")
	}
}
