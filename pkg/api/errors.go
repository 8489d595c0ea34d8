package api

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports bad configuration, e.g. a Sequential with no
// steps. It is raised at construction time, never during execution.
type ValidationError struct {
	Primitive string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s", e.Primitive, e.Reason)
}

// ExecutionError wraps a child primitive's failure with the name of the
// primitive it surfaced from. The underlying error kind is preserved and
// reachable via errors.As / errors.Is.
type ExecutionError struct {
	Primitive string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Primitive, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// TimeoutError reports that a Timeout wrapper's deadline expired before its
// child completed. It is distinct from any error the child itself returns.
type TimeoutError struct {
	Primitive string
	Limit     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %v", e.Primitive, e.Limit)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// RetryExhaustedError reports that Retry used up all attempts. It carries
// the attempt count and wraps the last underlying error.
type RetryExhaustedError struct {
	Primitive string
	Attempts  int
	Err       error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d attempts exhausted: %v", e.Primitive, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// CompensationError reports that a saga compensation step failed. It is
// always secondary: it is attached to the propagated forward error and is
// never the primary cause.
type CompensationError struct {
	Primitive string
	Step      string
	Err       error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("%s: compensation %q failed: %v", e.Primitive, e.Step, e.Err)
}

func (e *CompensationError) Unwrap() error { return e.Err }

// SagaError is the terminal error of a failed saga. Unwrap returns the
// original forward error, so errors.Is/As against the forward failure keep
// working; compensation failures ride along as a secondary list.
type SagaError struct {
	Primitive     string
	Step          string
	Err           error
	Compensations []*CompensationError
}

func (e *SagaError) Error() string {
	if len(e.Compensations) == 0 {
		return fmt.Sprintf("%s: step %q failed: %v", e.Primitive, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: step %q failed: %v (%d compensation failures)",
		e.Primitive, e.Step, e.Err, len(e.Compensations))
}

func (e *SagaError) Unwrap() error { return e.Err }

// ErrorKind returns a stable label for an error's kind, for metrics and
// trail records.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		te *TimeoutError
		re *RetryExhaustedError
		ce *CompensationError
		se *SagaError
		ee *ExecutionError
	)
	switch {
	case errors.As(err, &ve):
		return "validation"
	case errors.As(err, &te):
		return "timeout"
	case errors.As(err, &re):
		return "retry_exhausted"
	case errors.As(err, &se):
		return "saga"
	case errors.As(err, &ce):
		return "compensation"
	case errors.As(err, &ee):
		return "execution"
	default:
		return "error"
	}
}
