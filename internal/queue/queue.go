// Package queue provides the bounded in-memory submission queue used by
// the async Runner at the module root.
package queue

import "context"

// Submission asks the runner to execute a registered flow.
type Submission struct {
	Flow  string
	Input any
}

// Queue is a bounded FIFO of submissions backed by a buffered channel.
// It is safe for concurrent use.
type Queue struct {
	ch chan Submission
}

// New creates a queue with the given capacity. Non-positive capacities
// fall back to 1024.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Queue{ch: make(chan Submission, capacity)}
}

// Enqueue blocks until the submission is accepted or ctx is done.
func (q *Queue) Enqueue(ctx context.Context, s Submission) error {
	select {
	case q.ch <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a submission is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*Submission, error) {
	select {
	case s := <-q.ch:
		return &s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len reports the number of queued submissions.
func (q *Queue) Len() int {
	return len(q.ch)
}
