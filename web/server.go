// ABOUTME: HTTP surface for the generation pipeline: one endpoint per stage behind a chi router.
// ABOUTME: This is the UI collaborator boundary; it owns error-to-message mapping and persistence wiring, not generation logic.

package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389-research/storyforge/keystore"
	"github.com/2389-research/storyforge/overlay"
	"github.com/2389-research/storyforge/pipeline"
	"github.com/2389-research/storyforge/store"
)

// Server exposes the pipeline stages over HTTP.
type Server struct {
	pipeline *pipeline.Pipeline
	keys     *keystore.Store
	store    *store.Store
	overlay  overlay.Options
	router   chi.Router
	addr     string
}

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	Addr     string // listen address (default: "127.0.0.1:8787")
	FontPath string // TTF used for CTA overlay compositing (optional)
}

// NewServer creates a Server over the given pipeline, key store, and project
// store, and sets up routing.
func NewServer(p *pipeline.Pipeline, keys *keystore.Store, st *store.Store, cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	s := &Server{
		pipeline: p,
		keys:     keys,
		store:    st,
		overlay:  overlay.Options{FontPath: cfg.FontPath},
		addr:     cfg.Addr,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server on the configured address.
func (s *Server) ListenAndServe() error {
	return http.ListenAndServe(s.addr, s.router)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/ideas", s.handleIdeas)
		r.Post("/themes", s.handleThemes)

		r.Post("/characters/develop", s.handleDevelopCharacter)
		r.Post("/characters/action-dna", s.handleActionDNA)
		r.Post("/references/analyze", s.handleAnalyzeReferences)

		r.Post("/projects", s.handleCreateProject)
		r.Get("/projects", s.handleListProjects)
		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/", s.handleGetProject)
			r.Post("/storyboard", s.handleStoryboard)
			r.Get("/storyboard", s.handleGetStoryboard)
			r.Post("/scenes/{index}/prompt", s.handleRefinePrompt)
			r.Post("/publishing-kit", s.handlePublishingKit)
			r.Get("/publishing-kit/preview", s.handleKitPreview)
			r.Post("/localized/{locale}", s.handleLocalize)
			r.Delete("/localized/{locale}", s.handleInvalidateLocale)
			r.Post("/images/sequence", s.handleImageSequence)
			r.Get("/assets", s.handleListAssets)
		})

		r.Post("/images", s.handleGenerateImage)
		r.Post("/videos", s.handleGenerateVideo)
		r.Get("/assets/{assetID}", s.handleGetAsset)
		r.Delete("/assets/{assetID}", s.handleDeleteAsset)
		r.Post("/assets/{assetID}/regenerate", s.handleRegenerateAsset)
		r.Post("/assets/{assetID}/cta", s.handleBurnCTA)

		r.Get("/keys/{purpose}", s.handleGetKeys)
		r.Put("/keys/{purpose}", s.handleSetKeys)
	})

	return r
}
