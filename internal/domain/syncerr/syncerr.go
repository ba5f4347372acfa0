// Package syncerr defines the error taxonomy shared by the token manager,
// provider adapters, and the sync engine.
//
// Retryable errors (network failures, provider 5xx) leave credentials and
// state valid for the next attempt. Terminal auth errors mean the stored
// refresh token was rejected and the user must reconnect the provider;
// they must never be silently retried. Validation errors refuse a run
// before any provider call is made.
package syncerr

import (
	"errors"
	"fmt"
)

// RetryableError wraps a transport-level failure that is safe to re-run.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: %v (retryable)", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a RetryableError.
func Retryable(op string, err error) error {
	return &RetryableError{Op: op, Err: err}
}

// TerminalAuthError means the provider rejected the stored credentials.
// The user must reconnect; automatic retries would re-submit a dead token.
type TerminalAuthError struct {
	Provider string
	Err      error
}

func (e *TerminalAuthError) Error() string {
	return fmt.Sprintf("%s: reconnect required: %v", e.Provider, e.Err)
}

func (e *TerminalAuthError) Unwrap() error { return e.Err }

// TerminalAuth wraps err as a TerminalAuthError for the given provider.
func TerminalAuth(provider string, err error) error {
	return &TerminalAuthError{Provider: provider, Err: err}
}

// ValidationError refuses a run before any network call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validation creates a ValidationError with a formatted reason.
func Validation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ProviderError carries a provider's 4xx response verbatim for operator
// diagnosis. It is not retryable.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable reports whether err is classified as safe to re-run.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// IsTerminalAuth reports whether err requires user reconnection.
func IsTerminalAuth(err error) bool {
	var te *TerminalAuthError
	return errors.As(err, &te)
}

// IsValidation reports whether err is a pre-run validation refusal.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
