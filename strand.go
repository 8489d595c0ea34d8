package strand

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jlaasanen/strand/internal/cachestore"
	"github.com/jlaasanen/strand/internal/runtime"
	"github.com/jlaasanen/strand/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Primitive        = api.Primitive
	StepFunc         = api.StepFunc
	ExecutionContext = api.ExecutionContext
	Checkpoint       = api.Checkpoint
	Trail            = api.Trail
	Predicate        = api.Predicate
	Selector         = api.Selector

	Sequential  = api.Sequential
	Parallel    = api.Parallel
	ParallelMap = api.ParallelMap
	Conditional = api.Conditional
	Switch      = api.Switch
	Retry       = api.Retry
	Fallback    = api.Fallback
	Timeout     = api.Timeout
	Saga        = api.Saga
	SagaStep    = api.SagaStep
	Cache       = api.Cache
	Loop        = api.Loop
	While       = api.While

	JoinPolicy     = api.JoinPolicy
	BranchResult   = api.BranchResult
	ParallelResult = api.ParallelResult

	RetryPolicy     = api.RetryPolicy
	BackoffPolicy   = api.BackoffPolicy
	BackoffStrategy = api.BackoffStrategy

	CacheStore = api.CacheStore
	KeyFunc    = api.KeyFunc

	RetryRecord    = api.RetryRecord
	FallbackRecord = api.FallbackRecord
	DecisionRecord = api.DecisionRecord
	SwitchRecord   = api.SwitchRecord
	SagaRecord     = api.SagaRecord
	CacheRecord    = api.CacheRecord

	ValidationError     = api.ValidationError
	ExecutionError      = api.ExecutionError
	TimeoutError        = api.TimeoutError
	RetryExhaustedError = api.RetryExhaustedError
	CompensationError   = api.CompensationError
	SagaError           = api.SagaError

	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot

	ContextOption  = api.ContextOption
	ParallelOption = api.ParallelOption

	Runtime     = runtime.Runtime
	Execution   = runtime.Execution
	Status      = runtime.Status
	ListOptions = runtime.ListOptions
)

// Re-export constructors and helpers.

var (
	NewContext = api.NewContext
	Func       = api.Func
	Identity   = api.Identity

	NewSequential  = api.NewSequential
	MustSequential = api.MustSequential
	NewParallel    = api.NewParallel
	NewParallelMap = api.NewParallelMap
	NewConditional = api.NewConditional
	NewSwitch      = api.NewSwitch
	NewRetry       = api.NewRetry
	NewFallback    = api.NewFallback
	NewTimeout     = api.NewTimeout
	NewSaga        = api.NewSaga
	NewCache       = api.NewCache
	NewLoop        = api.NewLoop
	NewWhile       = api.NewWhile

	WithBaggage          = api.WithBaggage
	WithTags             = api.WithTags
	WithObserver         = api.WithObserver
	WithTraceParent      = api.WithTraceParent
	WithJoinPolicy       = api.WithJoinPolicy
	WithConcurrencyLimit = api.WithConcurrencyLimit

	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver

	DefaultKey = api.DefaultKey
	ErrorKind  = api.ErrorKind
	IsTimeout  = api.IsTimeout
)

// Re-export enum values for convenience.

const (
	FailFast   = api.FailFast
	CollectAll = api.CollectAll

	BackoffConstant    = api.BackoffConstant
	BackoffLinear      = api.BackoffLinear
	BackoffExponential = api.BackoffExponential

	StatusRunning   = runtime.StatusRunning
	StatusCompleted = runtime.StatusCompleted
	StatusFailed    = runtime.StatusFailed
)

// Runtime constructors
// These wrap the internal packages so external callers never need to
// import them.

// NewRuntime returns a Runtime with no observer attached.
func NewRuntime() *Runtime {
	return runtime.New(nil)
}

// NewRuntimeWithObserver returns a Runtime whose executions report to the
// given Observer.
func NewRuntimeWithObserver(obs Observer) *Runtime {
	return runtime.New(obs)
}

// Cache store constructors

// NewMemoryCacheStore returns an in-process CacheStore with LRU eviction
// at maxSize entries and the given TTL. ttl <= 0 disables expiry.
func NewMemoryCacheStore(maxSize int, ttl time.Duration) CacheStore {
	return cachestore.NewMemoryStore(maxSize, ttl)
}

// NewSQLiteCacheStore returns a CacheStore persisted in a SQLite database.
// The caller is responsible for importing a SQLite driver, e.g.:
//
//	import _ "modernc.org/sqlite"
func NewSQLiteCacheStore(db *sql.DB, maxSize int, ttl time.Duration) (CacheStore, error) {
	return cachestore.NewSQLiteStore(db, maxSize, ttl)
}

// NewRedisCacheStore returns a CacheStore shared across processes via
// Redis. Capacity eviction is delegated to Redis; the store manages TTLs.
func NewRedisCacheStore(client *redis.Client, prefix string, ttl time.Duration) CacheStore {
	return cachestore.NewRedisStore(client, prefix, ttl)
}

// Convenience helpers that just forward to the underlying pieces.

// Run executes p with a fresh root context and returns its output together
// with the context for inspection.
func Run(ctx context.Context, p Primitive, input any, opts ...ContextOption) (any, *ExecutionContext, error) {
	ec := NewContext(p.Name(), opts...)
	out, err := p.Execute(ctx, input, ec)
	return out, ec, err
}

// Execute runs a registered flow on a Runtime.
func Execute(ctx context.Context, rt *Runtime, name string, input any) (*Execution, error) {
	return rt.Execute(ctx, name, input)
}
