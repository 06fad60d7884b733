// ABOUTME: Handlers for credential-set management: list (masked), replace, and designate the active key.
// ABOUTME: Raw keys are accepted on write but never echoed back.

package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/storyforge/pipeline"
)

func parsePurpose(raw string) (pipeline.Purpose, bool) {
	switch pipeline.Purpose(raw) {
	case pipeline.PurposeStory:
		return pipeline.PurposeStory, true
	case pipeline.PurposeMedia:
		return pipeline.PurposeMedia, true
	}
	return "", false
}

func (s *Server) handleGetKeys(w http.ResponseWriter, r *http.Request) {
	purpose, ok := parsePurpose(chi.URLParam(r, "purpose"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown key purpose", Kind: "bad_request"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"purpose": purpose,
		"keys":    s.keys.Masked(purpose),
	})
}

type setKeysRequest struct {
	Keys   []string `json:"keys"`
	Active string   `json:"active"`
}

func (s *Server) handleSetKeys(w http.ResponseWriter, r *http.Request) {
	purpose, ok := parsePurpose(chi.URLParam(r, "purpose"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown key purpose", Kind: "bad_request"})
		return
	}

	var req setKeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	if err := s.keys.SetKeys(purpose, req.Keys); err != nil {
		writeError(w, err)
		return
	}
	if req.Active != "" {
		if err := s.keys.SetActive(purpose, req.Active); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "bad_request"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"purpose": purpose,
		"keys":    s.keys.Masked(purpose),
	})
}
