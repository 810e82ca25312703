package runner

import (
	"errors"
	"fmt"
)

// PipelineError reports a failed pipeline stage.
//
// The pipeline never substitutes partial results: the first failing stage
// aborts the run and its error says which collaborator is at fault
// (configuration, execution backend, or store), so callers can map it to
// an exit path without parsing messages.
type PipelineError struct {
	// Code identifies the failing collaborator.
	Code PipelineErrorCode

	// Message describes the failed stage.
	Message string

	// Experiment names the run's configuration, when known.
	Experiment string

	// Err is the underlying cause, if any.
	Err error
}

// PipelineErrorCode categorizes pipeline errors.
type PipelineErrorCode string

const (
	// ErrCodeConfig marks contract violations: malformed configuration,
	// unknown families, plans that cannot be derived. A config error is
	// a caller bug, not a runtime condition.
	ErrCodeConfig PipelineErrorCode = "CONFIG"

	// ErrCodeBackend marks execution collaborator failures. The cause is
	// opaque; no partial results are returned alongside it.
	ErrCodeBackend PipelineErrorCode = "BACKEND"

	// ErrCodeStore marks persistence failures after a run was evaluated.
	ErrCodeStore PipelineErrorCode = "STORE"
)

// Error implements the error interface.
func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Experiment != "" {
		msg = fmt.Sprintf("%s: %s (experiment=%s)", e.Code, e.Message, e.Experiment)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a PipelineError for a configuration fault.
func NewConfigError(experiment, message string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeConfig, Message: message, Experiment: experiment, Err: err}
}

// NewBackendError creates a PipelineError for an execution fault.
func NewBackendError(experiment, message string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeBackend, Message: message, Experiment: experiment, Err: err}
}

// NewStoreError creates a PipelineError for a persistence fault.
func NewStoreError(experiment, message string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeStore, Message: message, Experiment: experiment, Err: err}
}

// IsConfigError reports whether err is a configuration-stage failure.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool { return hasCode(err, ErrCodeConfig) }

// IsBackendError reports whether err is an execution-stage failure.
// Uses errors.As to handle wrapped errors.
func IsBackendError(err error) bool { return hasCode(err, ErrCodeBackend) }

// IsStoreError reports whether err is a persistence-stage failure.
// Uses errors.As to handle wrapped errors.
func IsStoreError(err error) bool { return hasCode(err, ErrCodeStore) }

func hasCode(err error, code PipelineErrorCode) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
