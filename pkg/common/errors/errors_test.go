package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrInvalidState", ErrInvalidState, "invalid state"},
		{"ErrNoSuchElement", ErrNoSuchElement, "no such element"},
		{"ErrInvalidArgument", ErrInvalidArgument, "invalid argument"},
		{"ErrUnsupportedOperation", ErrUnsupportedOperation, "unsupported operation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "stream",
				Field:  "limit",
				Value:  -1,
				Reason: "cannot be negative",
			},
			want: "stream: invalid limit=-1 (cannot be negative)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "stream",
				Field:  "skip",
				Value:  -3,
				Reason: "cannot be negative",
				Hint:   "use 0 or a positive value",
			},
			want: "stream: invalid skip=-3 (cannot be negative) - use 0 or a positive value",
		},
		{
			name: "nil value",
			err: &ValidationError{
				Module: "stream",
				Field:  "mapper",
				Value:  nil,
				Reason: "cannot be nil",
			},
			want: "stream: invalid mapper=<nil> (cannot be nil)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := NewValidationError("stream", "limit", -1, "cannot be negative")

	if !errors.Is(verr, ErrInvalidArgument) {
		t.Error("ValidationError should wrap ErrInvalidArgument")
	}
	if errors.Is(verr, ErrInvalidState) {
		t.Error("ValidationError should not match ErrInvalidState")
	}
}

func TestValidationError_WithHint(t *testing.T) {
	err := NewValidationError("stream", "workers", 0, "must be positive")
	result := err.WithHint("use at least one worker")

	if result != err {
		t.Error("WithHint should return the same instance")
	}
	if err.Hint != "use at least one worker" {
		t.Errorf("Hint = %q", err.Hint)
	}
}

func TestOperationError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewOperationError("lines", "Next", cause)

	if got, want := err.Error(), "lines.Next failed: connection reset"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("OperationError should wrap its cause")
	}

	if err.WithContext("line 12") != err {
		t.Error("WithContext should return the same instance")
	}
	if got, want := err.Error(), "lines.Next failed: connection reset (line 12)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindHelpers(t *testing.T) {
	closed := InvalidState("stream %q already consumed", "numbers")
	if !IsInvalidState(closed) {
		t.Error("InvalidState should match ErrInvalidState")
	}
	if !strings.Contains(closed.Error(), `"numbers"`) {
		t.Errorf("message lost its detail: %q", closed.Error())
	}

	unsupported := Unsupported("sorted over infinite source")
	if !IsUnsupported(unsupported) {
		t.Error("Unsupported should match ErrUnsupportedOperation")
	}

	wrapped := fmt.Errorf("terminal: %w", ErrNoSuchElement)
	if !IsNoSuchElement(wrapped) {
		t.Error("wrapped ErrNoSuchElement should be detected")
	}
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation error", NewValidationError("m", "f", 0, "r"), true},
		{"wrapped in operation error", &OperationError{Cause: NewValidationError("m", "f", 0, "r")}, true},
		{"plain invalid argument", ErrInvalidArgument, false},
		{"operation error", &OperationError{Cause: errors.New("x")}, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.want {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.want)
			}
		})
	}
}
