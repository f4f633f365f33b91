package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Pipeline error codes
const (
	ErrUnsafeTemplate        ErrorCode = "UNSAFE_TEMPLATE"
	ErrNoBlockFound          ErrorCode = "NO_BLOCK_FOUND"
	ErrSchemaMismatch        ErrorCode = "SCHEMA_MISMATCH"
	ErrRetryBudgetExhausted  ErrorCode = "RETRY_BUDGET_EXHAUSTED"
	ErrFlowStepFailed        ErrorCode = "FLOW_STEP_FAILED"
	ErrGenerationUnavailable ErrorCode = "GENERATION_UNAVAILABLE"
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"
)

// Issue is a single problem found while extracting or validating model output.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Error represents a structured error with code, message, and diagnostics.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Provider  string    `json:"provider,omitempty"`
	// Step is the 1-based flow step index, zero outside a flow.
	Step int `json:"step,omitempty"`
	// Raw is the untouched model text of the last attempt.
	Raw    string  `json:"raw,omitempty"`
	Issues []Issue `json:"issues,omitempty"`
	Cause  error   `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Issues) > 0 {
		msgs := make([]string, 0, len(e.Issues))
		for _, is := range e.Issues {
			msgs = append(msgs, is.String())
		}
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// WithStep sets the 1-based flow step index.
func (e *Error) WithStep(step int) *Error {
	e.Step = step
	return e
}

// WithRaw attaches the raw model text and the issues found in it.
func (e *Error) WithRaw(raw string, issues []Issue) *Error {
	e.Raw = raw
	e.Issues = issues
	return e
}

// AsError extracts an *Error from the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the outermost error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether any error in the chain carries code.
func IsErrorCode(err error, code ErrorCode) bool {
	return errors.Is(err, &Error{Code: code})
}
