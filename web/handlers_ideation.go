// ABOUTME: Handlers for the ideation surfaces: ideas, themes, character development, action DNA, reference analysis.
// ABOUTME: Thin decode/invoke/encode shims over the pipeline stages.

package web

import (
	"encoding/json"
	"net/http"

	"github.com/2389-research/storyforge/genai"
	"github.com/2389-research/storyforge/pipeline"
)

type ideasRequest struct {
	Format         string   `json:"format"`
	CharacterNames []string `json:"character_names"`
	Theme          string   `json:"theme"`
	Count          int      `json:"count"`
}

func (s *Server) handleIdeas(w http.ResponseWriter, r *http.Request) {
	var req ideasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	ideas, err := s.pipeline.Ideas(r.Context(), pipeline.IdeaRequest{
		Format:         pipeline.ContentFormat(req.Format),
		CharacterNames: req.CharacterNames,
		Theme:          req.Theme,
		Count:          req.Count,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ideas": ideas})
}

type themesRequest struct {
	Format         string   `json:"format"`
	CharacterNames []string `json:"character_names"`
}

func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	var req themesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	themes, err := s.pipeline.SuggestThemes(r.Context(), pipeline.ThemeRequest{
		Format:         pipeline.ContentFormat(req.Format),
		CharacterNames: req.CharacterNames,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"themes": themes})
}

type mediaPayload struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

func toImageData(media []mediaPayload) []genai.ImageData {
	out := make([]genai.ImageData, 0, len(media))
	for _, m := range media {
		out = append(out, genai.ImageData{Bytes: m.Data, MIMEType: m.MIMEType})
	}
	return out
}

type developCharacterRequest struct {
	Idea            string         `json:"idea"`
	ReferenceImages []mediaPayload `json:"reference_images"`
}

func (s *Server) handleDevelopCharacter(w http.ResponseWriter, r *http.Request) {
	var req developCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	profile, err := s.pipeline.DevelopCharacter(r.Context(), pipeline.CharacterRequest{
		Idea:            req.Idea,
		ReferenceImages: toImageData(req.ReferenceImages),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleActionDNA(w http.ResponseWriter, r *http.Request) {
	var profile pipeline.CharacterProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	actions, err := s.pipeline.SuggestActionDNA(r.Context(), profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}

type analyzeReferencesRequest struct {
	Media []mediaPayload `json:"media"`
}

func (s *Server) handleAnalyzeReferences(w http.ResponseWriter, r *http.Request) {
	var req analyzeReferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	analysis, err := s.pipeline.AnalyzeReferences(r.Context(), pipeline.ReferenceRequest{
		Media: toImageData(req.Media),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}
