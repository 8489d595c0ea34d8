package api

import (
	"sync"
	"time"
)

// SagaEvent classifies an entry in the saga trail.
type SagaEvent string

const (
	SagaForwardOK          SagaEvent = "forward_ok"
	SagaCompensated        SagaEvent = "compensated"
	SagaCompensationFailed SagaEvent = "compensation_failed"
)

// RetryRecord describes one retry attempt.
type RetryRecord struct {
	Primitive string
	Attempt   int
	Err       string
	Delay     time.Duration
}

// FallbackRecord describes the path a Fallback took.
type FallbackRecord struct {
	Primitive  string
	Triggered  bool
	PrimaryErr string
}

// DecisionRecord describes one Conditional evaluation.
type DecisionRecord struct {
	Primitive string
	Outcome   bool
	Branch    string
}

// SwitchRecord describes one Switch selection.
type SwitchRecord struct {
	Primitive   string
	Key         string
	DefaultUsed bool
}

// SagaRecord describes one saga forward or compensation event.
type SagaRecord struct {
	Primitive string
	Step      string
	Event     SagaEvent
	Err       string
}

// CacheRecord describes one cache lookup.
type CacheRecord struct {
	Primitive string
	Key       string
	Hit       bool
}

// Trail is the typed, append-only record of decisions and recoveries made
// while executing one context. Combinators append to it; callers read it
// after the run to audit what happened. Intermediate failures that were
// retried, compensated, or fallen back are visible only here, never via the
// final error.
//
// Each context owns its own Trail; Parallel branches write to independent
// trails in their child contexts.
type Trail struct {
	mu         sync.Mutex
	retries    []RetryRecord
	fallbacks  []FallbackRecord
	decisions  []DecisionRecord
	selections []SwitchRecord
	saga       []SagaRecord
	cache      []CacheRecord
}

func newTrail() *Trail {
	return &Trail{}
}

func (t *Trail) recordRetry(r RetryRecord) {
	t.mu.Lock()
	t.retries = append(t.retries, r)
	t.mu.Unlock()
}

func (t *Trail) recordFallback(r FallbackRecord) {
	t.mu.Lock()
	t.fallbacks = append(t.fallbacks, r)
	t.mu.Unlock()
}

func (t *Trail) recordDecision(r DecisionRecord) {
	t.mu.Lock()
	t.decisions = append(t.decisions, r)
	t.mu.Unlock()
}

func (t *Trail) recordSwitch(r SwitchRecord) {
	t.mu.Lock()
	t.selections = append(t.selections, r)
	t.mu.Unlock()
}

func (t *Trail) recordSaga(r SagaRecord) {
	t.mu.Lock()
	t.saga = append(t.saga, r)
	t.mu.Unlock()
}

func (t *Trail) recordCache(r CacheRecord) {
	t.mu.Lock()
	t.cache = append(t.cache, r)
	t.mu.Unlock()
}

// Retries returns a copy of all retry attempt records.
func (t *Trail) Retries() []RetryRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RetryRecord, len(t.retries))
	copy(out, t.retries)
	return out
}

// Fallbacks returns a copy of all fallback records.
func (t *Trail) Fallbacks() []FallbackRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]FallbackRecord, len(t.fallbacks))
	copy(out, t.fallbacks)
	return out
}

// Decisions returns a copy of all conditional decision records.
func (t *Trail) Decisions() []DecisionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]DecisionRecord, len(t.decisions))
	copy(out, t.decisions)
	return out
}

// Selections returns a copy of all switch selection records.
func (t *Trail) Selections() []SwitchRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SwitchRecord, len(t.selections))
	copy(out, t.selections)
	return out
}

// Saga returns a copy of all saga records.
func (t *Trail) Saga() []SagaRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SagaRecord, len(t.saga))
	copy(out, t.saga)
	return out
}

// Cache returns a copy of all cache lookup records.
func (t *Trail) Cache() []CacheRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CacheRecord, len(t.cache))
	copy(out, t.cache)
	return out
}
