// ABOUTME: JSON response helpers and the error-to-message mapping for the HTTP surface.
// ABOUTME: RateLimited maps to a uniform busy message, NoActiveCredential to a configure-keys prompt; everything else passes through verbatim.

package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/2389-research/storyforge/genai"
	"github.com/2389-research/storyforge/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web encode response err=%v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError maps a pipeline error onto an HTTP status and a single
// human-readable message, per the propagation policy: credential rotation is
// recovered inside the executor and never reaches this point on success paths.
func writeError(w http.ResponseWriter, err error) {
	status, kind, msg := mapError(err)
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func mapError(err error) (status int, kind, msg string) {
	var rateLimited *genai.RateLimitedError
	if errors.As(err, &rateLimited) {
		return http.StatusTooManyRequests, "rate_limited", "The service is busy right now. Please try again in a moment."
	}

	var noKey *genai.NoActiveCredentialError
	if errors.As(err, &noKey) {
		return http.StatusPreconditionFailed, "no_active_credential", "No API key is configured. Add keys before generating."
	}

	var allFailed *genai.AllCredentialsFailedError
	if errors.As(err, &allFailed) {
		return http.StatusUnauthorized, "all_credentials_failed", allFailed.Error()
	}

	var schema *genai.SchemaViolationError
	if errors.As(err, &schema) {
		return http.StatusBadGateway, "schema_violation", "The service returned an invalid response."
	}

	var genFailed *genai.GenerationFailedError
	if errors.As(err, &genFailed) {
		return http.StatusBadGateway, "generation_failed", genFailed.Error()
	}

	var missing *genai.MissingResultError
	if errors.As(err, &missing) {
		return http.StatusBadGateway, "missing_result", missing.Error()
	}

	var timeout *genai.PollTimeoutError
	if errors.As(err, &timeout) {
		return http.StatusGatewayTimeout, "poll_timeout", timeout.Error()
	}

	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "not_found", "not found"
	}

	return http.StatusInternalServerError, "internal", err.Error()
}
