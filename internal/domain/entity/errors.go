package entity

import (
	"errors"
	"fmt"
)

var (
	ErrParseFailure      = errors.New("no target domain in instruction")
	ErrResolutionFailure = errors.New("no page matching goal")
	ErrStepExecution     = errors.New("step execution failed")
	ErrValidationFailure = errors.New("validation failed")
	ErrNetwork           = errors.New("network error")
	ErrRetryExhausted    = errors.New("retry attempts exhausted")
	ErrDependencyFailed  = errors.New("required dependency failed")
	ErrSelectorNotFound  = errors.New("selector not found")
	ErrRunNotFound       = errors.New("run not found")
)

// NetworkError is returned by page navigation. Retryable is filled in by the
// retry classifier when the driver cannot tell.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}
	return []error{ErrNetwork, e.Err}
}
