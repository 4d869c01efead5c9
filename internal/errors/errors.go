// Package errors defines stable error codes for cbg failure modes.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode is a stable, machine-readable failure identifier.
type ErrorCode string

const (
	// StoreUnavailable indicates the graph database cannot be opened or read.
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// ConfigInvalid indicates malformed configuration (bad thresholds etc).
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// SymbolNotFound indicates a requested symbol does not exist in the graph.
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// LLMTimeout indicates the optional rewriter call timed out or failed.
	LLMTimeout ErrorCode = "LLM_TIMEOUT"
	// GitFailed indicates a git subprocess exited non-zero.
	GitFailed ErrorCode = "GIT_FAILED"
	// InternalError indicates an unexpected fault.
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// CbgError carries a code, a message, and an optional cause.
type CbgError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// New creates a CbgError.
func New(code ErrorCode, message string, cause error) *CbgError {
	return &CbgError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface.
func (e *CbgError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CbgError) Unwrap() error { return e.cause }

// CodeOf extracts the error code from err, or InternalError if it is not
// a CbgError.
func CodeOf(err error) ErrorCode {
	var ce *CbgError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	return InternalError
}
