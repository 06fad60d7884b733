// ABOUTME: Handlers for image/video generation, the image-sequence batch, asset retrieval, and CTA compositing.
// ABOUTME: The sequence handler persists every filled slot so partial batches survive a mid-batch failure.

package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/2389-research/storyforge/genai"
	"github.com/2389-research/storyforge/overlay"
	"github.com/2389-research/storyforge/pipeline"
)

type generateImageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
}

type imageResponse struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	aspect := genai.AspectRatio(req.AspectRatio)
	if aspect == "" {
		aspect = genai.AspectLandscape
	}
	img, err := s.pipeline.GenerateImage(r.Context(), req.Prompt, aspect)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, imageResponse{MIMEType: img.MIMEType, Data: img.Bytes})
}

type generateVideoRequest struct {
	Prompt      string        `json:"prompt"`
	AspectRatio string        `json:"aspect_ratio"`
	StartFrame  *mediaPayload `json:"start_frame"`
}

func (s *Server) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req generateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	videoReq := pipeline.VideoRequest{
		Prompt:      req.Prompt,
		AspectRatio: genai.AspectRatio(req.AspectRatio),
	}
	if req.StartFrame != nil {
		videoReq.StartFrame = &genai.ImageData{Bytes: req.StartFrame.Data, MIMEType: req.StartFrame.MIMEType}
	}

	result, err := s.pipeline.GenerateVideo(r.Context(), videoReq)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uri": result.URI, "data": result.Bytes})
}

type sequenceRequest struct {
	Roster      []pipeline.CharacterProfile `json:"roster"`
	Style       pipeline.DirectingStyle     `json:"style"`
	Count       int                         `json:"count"`
	AspectRatio string                      `json:"aspect_ratio"`
}

type slotResponse struct {
	ID      string `json:"id"`
	Prompt  string `json:"prompt"`
	Filled  bool   `json:"filled"`
	AssetID string `json:"asset_id,omitempty"`
}

// handleImageSequence runs the full batch for a project's storyboard. Filled
// slots are persisted as assets even when the batch fails part-way; the
// response then carries both the surviving slots and the batch error.
func (s *Server) handleImageSequence(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	scenes, err := s.store.GetStoryboard(projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	var req sequenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	slots, batchErr := s.pipeline.ImageSequence(r.Context(), pipeline.SequenceRequest{
		Scenes:      scenes,
		Roster:      req.Roster,
		Style:       req.Style,
		Count:       req.Count,
		AspectRatio: genai.AspectRatio(req.AspectRatio),
	})
	if slots == nil {
		writeError(w, batchErr)
		return
	}

	out := make([]slotResponse, 0, slots.Len())
	for _, slot := range slots.Snapshot() {
		resp := slotResponse{ID: slot.ID, Prompt: slot.Prompt, Filled: slot.Filled()}
		if slot.Filled() {
			asset, err := s.store.SaveAsset(projectID, slot.ID, slot.Prompt, slot.Image.MIMEType, slot.Image.Bytes)
			if err != nil {
				log.Printf("web save asset project=%s slot=%s err=%v", projectID, slot.ID, err)
			} else {
				resp.AssetID = asset.ID
			}
		}
		out = append(out, resp)
	}

	if batchErr != nil {
		status, kind, msg := mapError(batchErr)
		writeJSON(w, status, map[string]any{"slots": out, "error": msg, "kind": kind})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": out})
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.store.GetAsset(chi.URLParam(r, "assetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", asset.MIMEType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(asset.Data)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAsset(chi.URLParam(r, "assetID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRegenerateAsset re-runs image generation with the asset's original
// prompt and stores the result as a new asset, leaving siblings untouched.
func (s *Server) handleRegenerateAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.store.GetAsset(chi.URLParam(r, "assetID"))
	if err != nil {
		writeError(w, err)
		return
	}

	img, err := s.pipeline.GenerateImage(r.Context(), asset.Prompt, genai.AspectLandscape)
	if err != nil {
		writeError(w, err)
		return
	}

	replacement, err := s.store.SaveAsset(asset.ProjectID, asset.SlotID, asset.Prompt, img.MIMEType, img.Bytes)
	if err != nil {
		writeError(w, err)
		return
	}
	// The replacement is already persisted; a failed cleanup of the old row
	// leaves an orphan but must not fail the request.
	if err := s.store.DeleteAsset(asset.ID); err != nil {
		log.Printf("web delete replaced asset id=%s err=%v", asset.ID, err)
	}
	writeJSON(w, http.StatusOK, toAssetSummary(*replacement))
}

type burnCTARequest struct {
	Hook      string `json:"hook"`
	Character string `json:"character"`
	Goal      string `json:"goal"`
}

// handleBurnCTA composites localized CTA text onto a stored asset and returns
// the composited image. Purely local; no remote call.
func (s *Server) handleBurnCTA(w http.ResponseWriter, r *http.Request) {
	asset, err := s.store.GetAsset(chi.URLParam(r, "assetID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req burnCTARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "bad_request"})
		return
	}

	data, mime, err := overlay.BurnEncoded(asset.Data, overlay.CTA{
		Hook:      req.Hook,
		Character: req.Character,
		Goal:      req.Goal,
	}, s.overlay)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
