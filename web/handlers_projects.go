// ABOUTME: Handlers for project bookkeeping and the storyboard/publishing/localization stages.
// ABOUTME: Persists stage outputs to the project store so re-invocations replace prior results.

package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/2389-research/storyforge/pipeline"
	"github.com/2389-research/storyforge/store"
)

type createProjectRequest struct {
	Title   string `json:"title"`
	Logline string `json:"logline"`
	Format  string `json:"format"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}
	project, err := s.store.CreateProject(req.Title, req.Logline, req.Format)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

type storyboardRequest struct {
	Scenario   string                      `json:"scenario"`
	SceneCount int                         `json:"scene_count"`
	Roster     []pipeline.CharacterProfile `json:"roster"`
	Style      pipeline.DirectingStyle     `json:"style"`
}

func (s *Server) handleStoryboard(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	project, err := s.store.GetProject(projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req storyboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	scenes, err := s.pipeline.Storyboard(r.Context(), pipeline.StoryboardRequest{
		Logline:    project.Logline,
		Scenario:   req.Scenario,
		SceneCount: req.SceneCount,
		Roster:     req.Roster,
		Style:      req.Style,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.SaveStoryboard(projectID, scenes); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": scenes})
}

func (s *Server) handleGetStoryboard(w http.ResponseWriter, r *http.Request) {
	scenes, err := s.store.GetStoryboard(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenes": scenes})
}

type refineRequest struct {
	Variant string                      `json:"variant"`
	Roster  []pipeline.CharacterProfile `json:"roster"`
	Style   pipeline.DirectingStyle     `json:"style"`
}

func (s *Server) handleRefinePrompt(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid scene index", Kind: "bad_request"})
		return
	}

	scenes, err := s.store.GetStoryboard(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if index < 0 || index >= len(scenes) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "scene index out of range", Kind: "bad_request"})
		return
	}

	var req refineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	prompt, err := s.pipeline.RefinePrompt(r.Context(), pipeline.RefineRequest{
		Scene:   scenes[index],
		Roster:  req.Roster,
		Style:   req.Style,
		Variant: pipeline.PromptVariant(req.Variant),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompt": prompt})
}

type publishingKitRequest struct {
	Roster []pipeline.CharacterProfile `json:"roster"`
}

func (s *Server) handlePublishingKit(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	project, err := s.store.GetProject(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	scenes, err := s.store.GetStoryboard(projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req publishingKitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	kit, err := s.pipeline.PublishingKit(r.Context(), pipeline.PublishingRequest{
		Scenes:  scenes,
		Roster:  req.Roster,
		Logline: project.Logline,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.SavePublishingKit(projectID, kit); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, kit)
}

// handleKitPreview renders the stored publishing kit's English description
// markdown to HTML for preview surfaces.
func (s *Server) handleKitPreview(w http.ResponseWriter, r *http.Request) {
	kit, err := s.store.GetPublishingKit(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(kit.Description.EN), &buf); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type localizeRequest struct {
	Roster []pipeline.CharacterProfile `json:"roster"`
}

func (s *Server) handleLocalize(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	locale := chi.URLParam(r, "locale")

	project, err := s.store.GetProject(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	scenes, err := s.store.GetStoryboard(projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req localizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	bundle, err := s.pipeline.LocalizedAssets(r.Context(), pipeline.LocalizeRequest{
		Scope:   projectID,
		Scenes:  scenes,
		Roster:  req.Roster,
		Logline: project.Logline,
		Locale:  locale,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.SaveLocalizedAssets(projectID, bundle); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (s *Server) handleInvalidateLocale(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	locale := chi.URLParam(r, "locale")

	s.pipeline.InvalidateLocale(projectID, locale)
	if err := s.store.DeleteLocalizedAssets(projectID, locale); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invalidated": locale})
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.store.ListAssets(chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]assetSummary, len(assets))
	for i, a := range assets {
		out[i] = toAssetSummary(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": out})
}

type assetSummary struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	SlotID    string `json:"slot_id"`
	Prompt    string `json:"prompt"`
	MIMEType  string `json:"mime_type"`
	CreatedAt string `json:"created_at"`
}

func toAssetSummary(a store.Asset) assetSummary {
	return assetSummary{
		ID:        a.ID,
		ProjectID: a.ProjectID,
		SlotID:    a.SlotID,
		Prompt:    a.Prompt,
		MIMEType:  a.MIMEType,
		CreatedAt: a.CreatedAt,
	}
}
