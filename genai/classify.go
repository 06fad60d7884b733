// ABOUTME: Best-effort classification of service errors into retry-worthy kinds.
// ABOUTME: All status-code and message-substring sniffing is isolated here so the heuristics live in one place.

package genai

import (
	"errors"
	"strings"
)

// ErrorKind is the coarse classification the executors act on. Everything
// that is not rate-limited or credential-invalid is opaque: retrying it, with
// the same credential or another one, would not help.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindRateLimited
	KindCredentialInvalid
)

// rateLimitMarkers and credentialMarkers are matched case-insensitively
// against error messages when no typed error is available. This is a
// best-effort heuristic for errors that arrive as bare strings (wrapped
// transport errors, proxied responses); typed errors from this package are
// always classified exactly.
var rateLimitMarkers = []string{
	"http 429",
	"status 429",
	"code 429",
	"resource_exhausted",
	"resource exhausted",
	"too many requests",
	"rate limit",
	"quota exceeded",
}

var credentialMarkers = []string{
	"api key not valid",
	"api_key_invalid",
	"invalid api key",
	"permission_denied",
	"permission denied",
	"unauthenticated",
	"unauthorized",
	"api key expired",
}

// Classify reports the kind of an error from the service boundary.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return KindRateLimited
	}
	var ci *CredentialInvalidError
	if errors.As(err, &ci) {
		return KindCredentialInvalid
	}
	var api *APIError
	if errors.As(err, &api) {
		// Typed but unrecognized service errors stay opaque; the adapter
		// already mapped the retryable status classes.
		return KindOther
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return KindRateLimited
		}
	}
	for _, marker := range credentialMarkers {
		if strings.Contains(msg, marker) {
			return KindCredentialInvalid
		}
	}
	return KindOther
}

// errorFromStatus maps an HTTP status and service-provided message/status
// string to a typed boundary error. 429 and resource exhaustion become
// RateLimitedError; the 400/403 classes and authentication markers become
// CredentialInvalidError; everything else is an opaque APIError.
func errorFromStatus(statusCode int, status, message string) error {
	lower := strings.ToLower(message + " " + status)

	switch {
	case statusCode == 429 || strings.Contains(lower, "resource_exhausted") || strings.Contains(lower, "resource exhausted"):
		return &RateLimitedError{Message: message, Cause: &APIError{StatusCode: statusCode, Status: status, Message: message}}
	case statusCode == 400 || statusCode == 401 || statusCode == 403:
		return &CredentialInvalidError{Message: message, Cause: &APIError{StatusCode: statusCode, Status: status, Message: message}}
	}

	for _, marker := range credentialMarkers {
		if strings.Contains(lower, marker) {
			return &CredentialInvalidError{Message: message, Cause: &APIError{StatusCode: statusCode, Status: status, Message: message}}
		}
	}

	return &APIError{StatusCode: statusCode, Status: status, Message: message}
}
