package strand

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestRunnerExecutesSubmissions(t *testing.T) {
	rt := NewRuntime()
	var processed atomic.Int64
	require.NoError(t, New("count").
		Step("inc", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
			processed.Add(1)
			return input, nil
		}).
		Register(rt))

	runner := NewRunner(rt)
	require.NoError(t, runner.StartWorkers(context.Background(), 2))
	defer runner.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, runner.Submit(context.Background(), "count", i))
	}

	waitFor(t, func() bool { return processed.Load() == 5 })
	waitFor(t, func() bool {
		return len(rt.ListExecutions(ListOptions{Status: StatusCompleted})) == 5
	})
}

func TestRunnerSurvivesFailedFlows(t *testing.T) {
	rt := NewRuntime()
	require.NoError(t, New("bad").
		Step("boom", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
			return nil, errors.New("boom")
		}).
		Register(rt))
	require.NoError(t, New("good").
		Step("ok", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
			return input, nil
		}).
		Register(rt))

	runner := NewRunner(rt)
	require.NoError(t, runner.StartWorkers(context.Background(), 1))
	defer runner.Stop()

	require.NoError(t, runner.Submit(context.Background(), "bad", nil))
	require.NoError(t, runner.Submit(context.Background(), "good", "after"))

	// The worker keeps draining after the failed flow.
	waitFor(t, func() bool {
		return len(rt.ListExecutions(ListOptions{Status: StatusCompleted})) == 1
	})
	failed := rt.ListExecutions(ListOptions{Status: StatusFailed})
	require.Len(t, failed, 1)
	require.Equal(t, "bad", failed[0].Workflow)
}

func TestRunnerDoubleStartFails(t *testing.T) {
	runner := NewRunner(NewRuntime())
	require.NoError(t, runner.StartWorkers(context.Background(), 1))
	defer runner.Stop()

	require.Error(t, runner.StartWorkers(context.Background(), 1))
}

func TestRunnerStopIsIdempotent(t *testing.T) {
	runner := NewRunner(NewRuntime())
	require.NoError(t, runner.StartWorkers(context.Background(), 2))

	runner.Stop()
	runner.Stop() // second call must be a no-op

	// Stopped runners can be restarted.
	require.NoError(t, runner.StartWorkers(context.Background(), 1))
	runner.Stop()
}

func TestRunnerPending(t *testing.T) {
	rt := NewRuntime()
	require.NoError(t, New("noop").
		Step("ok", func(ctx context.Context, input any, ec *ExecutionContext) (any, error) {
			return input, nil
		}).
		Register(rt))

	runner := NewRunner(rt)
	// No workers started: submissions queue up.
	require.NoError(t, runner.Submit(context.Background(), "noop", 1))
	require.NoError(t, runner.Submit(context.Background(), "noop", 2))
	require.Equal(t, 2, runner.Pending())

	require.NoError(t, runner.StartWorkers(context.Background(), 1))
	defer runner.Stop()
	waitFor(t, func() bool { return runner.Pending() == 0 })
}
