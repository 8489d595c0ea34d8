package strand

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jlaasanen/strand/internal/queue"
)

// Runner bundles a Runtime with a bounded in-memory submission queue and a
// pool of worker goroutines, for callers that want to hand off flow
// executions instead of awaiting them inline.
//
// Typical usage:
//
//	runner := strand.NewRunner(rt)
//	_ = runner.StartWorkers(ctx, 2)
//	_ = runner.Submit(ctx, "enrich-order", order)
//	...
//	runner.Stop()
//
// Completed executions are visible via the Runtime's execution index
// (ListExecutions / GetExecution).
type Runner struct {
	// Runtime executes the submitted flows.
	Runtime *Runtime

	queue  *queue.Queue
	logger *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewRunner constructs a Runner over rt with a default queue capacity.
func NewRunner(rt *Runtime) *Runner {
	return &Runner{
		Runtime: rt,
		queue:   queue.New(1024),
		logger:  slog.Default(),
	}
}

// StartWorkers starts 'concurrency' worker goroutines that drain the
// submission queue until the context is cancelled or Stop is called.
//
// If StartWorkers is called again without Stop, it returns an error.
func (r *Runner) StartWorkers(ctx context.Context, concurrency int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("strand: Runner already started")
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer r.wg.Done()

			for {
				sub, err := r.queue.Dequeue(ctx)
				if err != nil {
					// Cancellation is the clean shutdown signal.
					return
				}

				if _, err := r.Runtime.Execute(ctx, sub.Flow, sub.Input); err != nil {
					// Failed executions are recorded on the runtime; log
					// and keep draining so one bad flow doesn't kill the
					// worker loop.
					r.logger.Warn("async flow failed",
						slog.String("flow", sub.Flow),
						slog.Any("error", err),
					)
				}
			}
		}()
	}

	return nil
}

// Submit enqueues a flow execution. The flow must already be registered on
// the Runner's Runtime. Submit blocks only when the queue is full.
func (r *Runner) Submit(ctx context.Context, flow string, input any) error {
	return r.queue.Enqueue(ctx, queue.Submission{Flow: flow, Input: input})
}

// Pending reports the number of queued, not-yet-started submissions.
func (r *Runner) Pending() int {
	return r.queue.Len()
}

// Stop cancels all worker goroutines started by StartWorkers and waits
// for them to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}
