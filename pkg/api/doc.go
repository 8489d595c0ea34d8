// Package api defines the execution contract of strand: the Primitive
// interface, the ExecutionContext value object threaded through a primitive
// tree, the typed execution Trail, the typed error kinds, the nine core
// combinators (Sequential, Parallel, Conditional, Switch, Retry, Fallback,
// Timeout, Saga, Cache) and the Observer instrumentation seam.
//
// Most applications import the root strand package, which re-exports this
// surface; api exists so lower-level code (custom primitives, cache
// backends, observers) has a dependency-light home to build against.
package api
