package types

import "fmt"

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Pipeline error codes
const (
	ErrInvalidQuery        ErrorCode = "INVALID_QUERY"
	ErrOrphanCandidate     ErrorCode = "ORPHAN_CANDIDATE"
	ErrDecompositionFailed ErrorCode = "DECOMPOSITION_FAILED"
	ErrAdapterUnavailable  ErrorCode = "ADAPTER_UNAVAILABLE"
	ErrAdapterTimeout      ErrorCode = "ADAPTER_TIMEOUT"
	ErrResearchUnavailable ErrorCode = "RESEARCH_UNAVAILABLE"
	ErrResearchTimeout     ErrorCode = "RESEARCH_TIMEOUT"
	ErrSynthesisFailed     ErrorCode = "SYNTHESIS_FAILED"
	ErrRenderingFailed     ErrorCode = "RENDERING_FAILED"
	ErrCapabilityFailed    ErrorCode = "CAPABILITY_FAILED"
	ErrInternal            ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Source    Source    `json:"source,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
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

// WithSource tags the error with the knowledge source it came from.
func (e *Error) WithSource(source Source) *Error {
	e.Source = source
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error, or "" for foreign
// errors.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err is a pipeline Error with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
