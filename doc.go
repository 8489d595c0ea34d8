// Package strand provides composable workflow primitives for Go.
//
// Strand is a small set of combinators (sequential, parallel,
// conditional/switch, retry, fallback, timeout, saga, cache) that all
// implement one execution contract and propagate a single causally-linked
// execution context. It is designed for backend services that need
// structured, observable multi-step operations without introducing external
// infrastructure: everything runs in-process and cooperatively.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Primitive
//  2. ExecutionContext
//  3. Combinators
//  4. FlowBuilder
//  5. Runtime and Runner
//
// # Primitive
//
// A Primitive is the fundamental executable unit:
//
//	Execute(ctx context.Context, input any, ec *ExecutionContext) (any, error)
//
// Leaves wrap plain functions (Func, Typed); combinators compose other
// primitives. Any leaf that satisfies the contract, be it an HTTP call, a
// DB query or an LLM request, composes without modification to the core.
//
// # ExecutionContext
//
// One root context is created per run and passed explicitly through the
// tree. It carries the workflow id, W3C-shaped trace identity, a
// correlation id grouping all logs of one logical execution, per-hop
// causation, baggage/tags, append-only timing checkpoints, and a typed
// execution trail recording every retry attempt, branch decision, fallback
// and compensation. Parallel is the only primitive that forks contexts;
// its branches share nothing mutable.
//
// # Combinators
//
// Control flow: Sequential, Parallel (fail-fast or collect-all),
// Conditional, Switch, Loop, While. Recovery: Retry (constant/linear/
// exponential backoff, optional jitter, error filters), Fallback, Timeout,
// Saga (reverse-order best-effort compensation). Performance: Cache, with
// in-memory LRU, SQLite, and Redis backends.
//
// Errors are typed: construction problems fail fast as ValidationError;
// execution failures propagate unchanged except through Retry, Fallback
// and Saga, which record their recoveries in the trail.
//
// # FlowBuilder
//
// FlowBuilder is the fluent way to assemble a pipeline:
//
//	flow := strand.New("EnrichOrder").
//	    Step("validate", validate).
//	    StepWithRetry("fetchRates", fetchRates,
//	        strand.Attempts(3).Exponential(100*time.Millisecond).Policy()).
//	    Parallel("notify", strand.FailFast, emailStep, smsStep)
//
// # Runtime and Runner
//
// A Runtime registers named flows, creates root contexts, fires observer
// lifecycle callbacks and keeps an in-memory index of recent executions.
// A Runner adds a bounded queue and worker goroutines for asynchronous
// hand-off. Neither persists anything; an execution's context is its only
// record and is discarded with it.
//
// # Observability
//
// Observers (logging via log/slog, basic counters, composites) attach at
// context creation and see every step start/completion. The pkg/telemetry
// decorator adds OpenTelemetry spans derived from the context's trace
// identity and Prometheus counters/histograms around any primitive; with
// no backend configured it is a strict pass-through.
package strand
