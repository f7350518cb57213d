package tools

import (
	"context"
	"errors"
	"fmt"

	"toolhost/internal/memory"
)

// ErrorCategory classifies tool failures
type ErrorCategory int

const (
	// ErrorCategoryUnexpected - anything not raised deliberately by a tool
	ErrorCategoryUnexpected ErrorCategory = iota

	// ErrorCategoryValidation - required argument missing, blank or ill-formed
	ErrorCategoryValidation

	// ErrorCategoryNotFound - referenced entry, list, item or record does not exist
	ErrorCategoryNotFound

	// ErrorCategoryPrecondition - record is not in a state that allows the operation
	ErrorCategoryPrecondition

	// ErrorCategoryMalformedInput - argument payload is not parseable JSON
	ErrorCategoryMalformedInput

	// ErrorCategoryNotSupported - tool invoked through a context shape it does not implement
	ErrorCategoryNotSupported

	// ErrorCategoryNoSession - session-aware tool invoked without an active session
	ErrorCategoryNoSession

	// ErrorCategoryCancelled - caller cancelled before the tool started
	ErrorCategoryCancelled
)

// String returns a human-readable category name
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryValidation:
		return "validation"
	case ErrorCategoryNotFound:
		return "not_found"
	case ErrorCategoryPrecondition:
		return "precondition"
	case ErrorCategoryMalformedInput:
		return "malformed_input"
	case ErrorCategoryNotSupported:
		return "not_supported"
	case ErrorCategoryNoSession:
		return "no_session"
	case ErrorCategoryCancelled:
		return "cancelled"
	default:
		return "unexpected"
	}
}

// ErrShapeNotSupported is wrapped by errors raised when a tool is invoked
// through a context shape it does not implement.
var ErrShapeNotSupported = errors.New("invocation shape not supported")

// ToolError is a classified tool failure. Message is what the caller sees.
type ToolError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error {
	return e.Cause
}

// Validation creates a validation failure
func Validation(format string, args ...interface{}) *ToolError {
	return &ToolError{Category: ErrorCategoryValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found failure
func NotFound(format string, args ...interface{}) *ToolError {
	return &ToolError{Category: ErrorCategoryNotFound, Message: fmt.Sprintf(format, args...)}
}

// Precondition creates a state-precondition failure
func Precondition(format string, args ...interface{}) *ToolError {
	return &ToolError{Category: ErrorCategoryPrecondition, Message: fmt.Sprintf(format, args...)}
}

func notSupported(toolName, shape string) *ToolError {
	return &ToolError{
		Category: ErrorCategoryNotSupported,
		Message:  fmt.Sprintf("%s does not support the %s invocation shape.", toolName, shape),
		Cause:    ErrShapeNotSupported,
	}
}

// classify converts any error returned by a tool into a ToolError.
func classify(toolName string, err error) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}

	var nf *memory.NotFoundError
	if errors.As(err, &nf) {
		return &ToolError{Category: ErrorCategoryNotFound, Message: nf.Message, Cause: err}
	}

	var ve *memory.ValidationError
	if errors.As(err, &ve) {
		return &ToolError{Category: ErrorCategoryValidation, Message: ve.Message, Cause: err}
	}

	switch {
	case errors.Is(err, memory.ErrNoSession):
		return &ToolError{
			Category: ErrorCategoryNoSession,
			Message:  fmt.Sprintf("%s requires an active session.", toolName),
			Cause:    err,
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &ToolError{
			Category: ErrorCategoryCancelled,
			Message:  fmt.Sprintf("%s was cancelled.", toolName),
			Cause:    err,
		}
	}

	return &ToolError{
		Category: ErrorCategoryUnexpected,
		Message:  fmt.Sprintf("%s failed to process request.", toolName),
		Cause:    err,
	}
}
