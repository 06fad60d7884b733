// ABOUTME: Error taxonomy for the generative service boundary.
// ABOUTME: Defines distinguished error kinds for rate limiting, credential failure, schema violations, and long-running job outcomes.

package genai

import (
	"fmt"
	"time"
)

// RateLimitedError reports that the service signalled a transient quota
// condition and, once returned from Retry, that the retry budget was
// exhausted. Callers present it as a uniform "service busy" message.
type RateLimitedError struct {
	Message string
	Cause   error
}

func (e *RateLimitedError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RateLimitedError) Unwrap() error { return e.Cause }

// CredentialInvalidError reports that one credential was rejected by the
// service (authentication, permission, or invalid-key signal). The failover
// executor recovers these locally by rotating to the next candidate; they
// never surface to the caller on their own.
type CredentialInvalidError struct {
	Message string
	Cause   error
}

func (e *CredentialInvalidError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CredentialInvalidError) Unwrap() error { return e.Cause }

// AllCredentialsFailedError reports that every candidate credential was
// rejected. LastErr carries the final underlying rejection so its message can
// be surfaced to the user.
type AllCredentialsFailedError struct {
	Attempts int
	LastErr  error
}

func (e *AllCredentialsFailedError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("all %d credentials failed: %s", e.Attempts, e.LastErr.Error())
	}
	return fmt.Sprintf("all %d credentials failed", e.Attempts)
}

func (e *AllCredentialsFailedError) Unwrap() error { return e.LastErr }

// NoActiveCredentialError is the precondition failure for failover: the
// credential set is empty or carries no usable active credential. No remote
// call was attempted.
type NoActiveCredentialError struct {
	Purpose string
}

func (e *NoActiveCredentialError) Error() string {
	if e.Purpose != "" {
		return "no active credential configured for " + e.Purpose
	}
	return "no active credential configured"
}

// SchemaViolationError reports that a service response could not be parsed as
// the declared result contract. Fatal for the call; never retried as a
// credential or rate-limit problem.
type SchemaViolationError struct {
	Stage string
	Cause error
}

func (e *SchemaViolationError) Error() string {
	msg := "response did not match the declared schema"
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SchemaViolationError) Unwrap() error { return e.Cause }

// GenerationFailedError is the terminal error state of a long-running job,
// carrying the service-provided message verbatim.
type GenerationFailedError struct {
	Message string
}

func (e *GenerationFailedError) Error() string {
	if e.Message == "" {
		return "generation failed"
	}
	return "generation failed: " + e.Message
}

// MissingResultError reports a long-running job that completed without an
// extractable result payload.
type MissingResultError struct{}

func (e *MissingResultError) Error() string {
	return "operation completed without a result"
}

// PollTimeoutError reports that a long-running job exceeded the configured
// wall-clock ceiling before reaching a terminal state.
type PollTimeoutError struct {
	Elapsed time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("operation still running after %s", e.Elapsed.Round(time.Second))
}

// APIError is a service error that is neither a rate-limit nor a credential
// signal. Opaque and non-retryable; propagated to the caller as-is.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service error (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("service error (HTTP %d): %s", e.StatusCode, e.Message)
}
