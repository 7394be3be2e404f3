package query

import (
	"errors"
	"fmt"
)

// PipelineError represents an error detected while building a pipeline.
//
// Pipeline errors include:
//   - Incompatible operation: summarise on a mutate pipeline, or vice versa
//   - Selection index: select argument out of bounds or non-numeric
//
// Resolution failures (unknown names) are not PipelineErrors; they propagate
// unchanged from the resolver.
type PipelineError struct {
	// Code identifies the error category.
	Code PipelineErrorCode

	// Message is a human-readable description.
	Message string

	// Verb identifies the verb call that failed.
	Verb string

	// Detail contains additional context.
	Detail map[string]string
}

// PipelineErrorCode categorizes pipeline errors.
type PipelineErrorCode string

const (
	// ErrCodeIncompatibleOperation indicates mutate and summarise were both
	// requested on the same pipeline.
	ErrCodeIncompatibleOperation PipelineErrorCode = "INCOMPATIBLE_OPERATION"

	// ErrCodeSelectionIndex indicates a select argument evaluated outside
	// the current column list, or to a non-numeric result.
	ErrCodeSelectionIndex PipelineErrorCode = "SELECTION_INDEX"
)

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Verb != "" {
		return fmt.Sprintf("%s: %s (verb=%s)", e.Code, e.Message, e.Verb)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsIncompatibleOperation returns true if the error is an incompatible
// operation error. Uses errors.As to handle wrapped errors.
func IsIncompatibleOperation(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeIncompatibleOperation
	}
	return false
}

// IsSelectionIndex returns true if the error is a selection index error.
// Uses errors.As to handle wrapped errors.
func IsSelectionIndex(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeSelectionIndex
	}
	return false
}

// newIncompatibleError creates a PipelineError for a cross-stage verb call.
func newIncompatibleError(verb string) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeIncompatibleOperation,
		Message: "only one of summarise and mutate may be used on a given pipeline",
		Verb:    verb,
	}
}

// newSelectionError creates a PipelineError for a bad selection argument.
func newSelectionError(format string, args ...any) *PipelineError {
	return &PipelineError{
		Code:    ErrCodeSelectionIndex,
		Message: fmt.Sprintf(format, args...),
		Verb:    "select",
	}
}
