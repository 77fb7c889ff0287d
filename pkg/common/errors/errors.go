// Package errors defines the error kinds shared by every seqflow package.
//
// All errors returned by seqflow either are, or wrap, one of the sentinel
// values below, so callers classify failures with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates an operation on a sequence that has already
	// been consumed or closed.
	ErrInvalidState = errors.New("invalid state")

	// ErrNoSuchElement indicates an attempt to unwrap an empty result.
	ErrNoSuchElement = errors.New("no such element")

	// ErrInvalidArgument indicates a nil source or function, or a negative count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedOperation indicates an evaluation that can never finish,
	// such as sorting an infinite sequence.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// ValidationError describes a rejected argument.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint sets a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap makes every ValidationError match ErrInvalidArgument.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// OperationError wraps a failure raised while running a named operation,
// for example a source read or a panicking callback.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError for module.operation.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches free-form detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// InvalidState wraps ErrInvalidState with a reason.
func InvalidState(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// Unsupported wraps ErrUnsupportedOperation with a reason.
func Unsupported(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOperation, fmt.Sprintf(format, args...))
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsInvalidState reports whether err is or wraps ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsNoSuchElement reports whether err is or wraps ErrNoSuchElement.
func IsNoSuchElement(err error) bool {
	return errors.Is(err, ErrNoSuchElement)
}

// IsUnsupported reports whether err is or wraps ErrUnsupportedOperation.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation)
}
