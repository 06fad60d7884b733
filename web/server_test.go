// ABOUTME: HTTP surface tests: error-to-status mapping, stage endpoints, key management, and asset persistence.
// ABOUTME: Runs the real router over a scripted boundary client plus real on-disk key and project stores.

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/storyforge/genai"
	"github.com/2389-research/storyforge/keystore"
	"github.com/2389-research/storyforge/pipeline"
	"github.com/2389-research/storyforge/store"
)

// scriptedGen fakes the boundary client per test.
type scriptedGen struct {
	contentFn func(req genai.ContentRequest) (string, error)
	imageFn   func(prompt string) (genai.ImageData, error)
}

func (g *scriptedGen) GenerateContent(ctx context.Context, key, model string, req genai.ContentRequest) (string, error) {
	return g.contentFn(req)
}

func (g *scriptedGen) GenerateImage(ctx context.Context, key, model, prompt string, aspect genai.AspectRatio) (genai.ImageData, error) {
	if g.imageFn != nil {
		return g.imageFn(prompt)
	}
	return genai.ImageData{Bytes: []byte(prompt), MIMEType: "image/png"}, nil
}

func (g *scriptedGen) SubmitVideoJob(ctx context.Context, key, model string, req genai.VideoJobRequest) (genai.Operation, error) {
	return genai.Operation{Name: "operations/t", Done: true, ResultURI: "uri"}, nil
}

func (g *scriptedGen) PollOperation(ctx context.Context, key string, op genai.Operation) (genai.Operation, error) {
	return op, nil
}

func (g *scriptedGen) Download(ctx context.Context, key, uri string) ([]byte, error) {
	return []byte("video"), nil
}

type testEnv struct {
	server *Server
	keys   *keystore.Store
	store  *store.Store
}

func newTestEnv(t *testing.T, gen *scriptedGen) *testEnv {
	t.Helper()
	dir := t.TempDir()

	keys, err := keystore.Open(filepath.Join(dir, "keys.yaml"))
	if err != nil {
		t.Fatalf("opening keystore: %v", err)
	}
	st, err := store.Open(filepath.Join(dir, "storyforge.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	p := pipeline.New(gen, keys,
		pipeline.WithRetryPolicy(genai.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, JitterMax: 0}))
	return &testEnv{server: NewServer(p, keys, st, ServerConfig{}), keys: keys, store: st}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"rate limited", &genai.RateLimitedError{Message: "quota"}, http.StatusTooManyRequests, "rate_limited"},
		{"no active credential", &genai.NoActiveCredentialError{Purpose: "story"}, http.StatusPreconditionFailed, "no_active_credential"},
		{"all credentials failed", &genai.AllCredentialsFailedError{Attempts: 3, LastErr: errors.New("rejected")}, http.StatusUnauthorized, "all_credentials_failed"},
		{"schema violation", &genai.SchemaViolationError{Stage: "ideas", Cause: errors.New("bad json")}, http.StatusBadGateway, "schema_violation"},
		{"generation failed", &genai.GenerationFailedError{Message: "unsafe"}, http.StatusBadGateway, "generation_failed"},
		{"missing result", &genai.MissingResultError{}, http.StatusBadGateway, "missing_result"},
		{"poll timeout", &genai.PollTimeoutError{Elapsed: time.Minute}, http.StatusGatewayTimeout, "poll_timeout"},
		{"not found", store.ErrNotFound, http.StatusNotFound, "not_found"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, kind, msg := mapError(tt.err)
			if status != tt.wantStatus || kind != tt.wantKind {
				t.Errorf("mapError() = (%d, %q), want (%d, %q)", status, kind, tt.wantStatus, tt.wantKind)
			}
			if msg == "" {
				t.Error("message is empty")
			}
		})
	}
}

func TestMapErrorHidesSchemaDetails(t *testing.T) {
	_, _, msg := mapError(&genai.SchemaViolationError{Stage: "ideas", Cause: errors.New("unexpected token at offset 17")})
	if strings.Contains(msg, "offset 17") {
		t.Errorf("message %q leaks decode internals", msg)
	}
}

func TestIdeasEndpoint(t *testing.T) {
	gen := &scriptedGen{contentFn: func(req genai.ContentRequest) (string, error) {
		return `[{"title":"Race Day","outline":"The crew builds a track."}]`, nil
	}}
	env := newTestEnv(t, gen)
	if err := env.keys.SetKeys(pipeline.PurposeStory, []string{"k1"}); err != nil {
		t.Fatalf("seeding keys: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/ideas", map[string]any{"format": "shorts", "theme": "friendship"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp struct {
		Ideas []pipeline.StoryIdea `json:"ideas"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Ideas) != 1 || resp.Ideas[0].Title != "Race Day" {
		t.Errorf("ideas = %+v", resp.Ideas)
	}
}

func TestIdeasWithoutKeysReturns412(t *testing.T) {
	env := newTestEnv(t, &scriptedGen{contentFn: func(req genai.ContentRequest) (string, error) {
		t.Error("no remote call expected")
		return "", nil
	}})

	rec := env.do(t, http.MethodPost, "/api/ideas", map[string]any{"format": "shorts"})
	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("status = %d, want 412", rec.Code)
	}
	var resp errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Kind != "no_active_credential" {
		t.Errorf("kind = %q, want no_active_credential", resp.Kind)
	}
}

func TestIdeasRejectsBadBody(t *testing.T) {
	env := newTestEnv(t, &scriptedGen{})
	req := httptest.NewRequest(http.MethodPost, "/api/ideas", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestKeysEndpointsMaskSecrets(t *testing.T) {
	env := newTestEnv(t, &scriptedGen{})

	rec := env.do(t, http.MethodPut, "/api/keys/story", map[string]any{
		"keys":   []string{"AIzaSyEXAMPLE1234", "AIzaSyEXAMPLE5678"},
		"active": "AIzaSyEXAMPLE5678",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "AIzaSy") {
		t.Errorf("response echoes raw keys: %s", rec.Body)
	}

	rec = env.do(t, http.MethodGet, "/api/keys/story", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Keys []string `json:"keys"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Keys) != 2 || resp.Keys[0] != "****1234" {
		t.Errorf("keys = %v, want masked", resp.Keys)
	}

	if set := env.keys.KeySet(pipeline.PurposeStory); set.Active != "AIzaSyEXAMPLE5678" {
		t.Errorf("active = %q, want the designated key", set.Active)
	}
}

func TestKeysUnknownPurpose(t *testing.T) {
	env := newTestEnv(t, &scriptedGen{})
	rec := env.do(t, http.MethodGet, "/api/keys/banana", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetAssetNotFound(t *testing.T) {
	env := newTestEnv(t, &scriptedGen{})
	rec := env.do(t, http.MethodGet, "/api/assets/01MISSING", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestImageSequencePersistsPartialBatch(t *testing.T) {
	var imageCalls int
	gen := &scriptedGen{
		contentFn: func(req genai.ContentRequest) (string, error) {
			return `["p1","p2","p3"]`, nil
		},
		imageFn: func(prompt string) (genai.ImageData, error) {
			imageCalls++
			if prompt == "p3" {
				return genai.ImageData{}, &genai.APIError{StatusCode: 500, Message: "internal"}
			}
			return genai.ImageData{Bytes: []byte(prompt), MIMEType: "image/png"}, nil
		},
	}
	env := newTestEnv(t, gen)
	_ = env.keys.SetKeys(pipeline.PurposeStory, []string{"k1"})
	_ = env.keys.SetKeys(pipeline.PurposeMedia, []string{"k1"})

	project, err := env.store.CreateProject("t", "l", "shorts")
	if err != nil {
		t.Fatalf("creating project: %v", err)
	}
	if err := env.store.SaveStoryboard(project.ID, []pipeline.Scene{{Title: "a", Summary: "s"}}); err != nil {
		t.Fatalf("saving storyboard: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/projects/"+project.ID+"/images/sequence", map[string]any{"count": 3})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp struct {
		Slots []slotResponse `json:"slots"`
		Error string         `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error == "" {
		t.Error("response carries no batch error")
	}
	if len(resp.Slots) != 2 {
		t.Fatalf("slots = %d, want the 2 completed ones", len(resp.Slots))
	}
	for _, slot := range resp.Slots {
		if !slot.Filled || slot.AssetID == "" {
			t.Errorf("slot %+v not persisted", slot)
		}
	}

	assets, err := env.store.ListAssets(project.ID)
	if err != nil {
		t.Fatalf("listing assets: %v", err)
	}
	if len(assets) != 2 {
		t.Errorf("persisted assets = %d, want 2", len(assets))
	}
}

func TestRegenerateAssetReplacesStored(t *testing.T) {
	gen := &scriptedGen{imageFn: func(prompt string) (genai.ImageData, error) {
		return genai.ImageData{Bytes: []byte("take-2"), MIMEType: "image/png"}, nil
	}}
	env := newTestEnv(t, gen)
	_ = env.keys.SetKeys(pipeline.PurposeMedia, []string{"k1"})

	project, _ := env.store.CreateProject("t", "l", "shorts")
	original, err := env.store.SaveAsset(project.ID, "slot-1", "a red cube", "image/png", []byte("take-1"))
	if err != nil {
		t.Fatalf("saving asset: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/assets/"+original.ID+"/regenerate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var replacement assetSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &replacement); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if replacement.ID == original.ID {
		t.Error("replacement reuses the original asset id")
	}
	if replacement.SlotID != "slot-1" || replacement.Prompt != "a red cube" {
		t.Errorf("replacement = %+v, want the original slot and prompt", replacement)
	}

	stored, err := env.store.GetAsset(replacement.ID)
	if err != nil {
		t.Fatalf("loading replacement: %v", err)
	}
	if string(stored.Data) != "take-2" {
		t.Errorf("replacement bytes = %q, want the regenerated image", stored.Data)
	}
	if _, err := env.store.GetAsset(original.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("original asset error = %v, want ErrNotFound after replacement", err)
	}

	assets, err := env.store.ListAssets(project.ID)
	if err != nil {
		t.Fatalf("listing assets: %v", err)
	}
	if len(assets) != 1 {
		t.Errorf("assets = %d, want exactly the replacement", len(assets))
	}
}

func TestLocalizeIsScopedPerProject(t *testing.T) {
	gen := &scriptedGen{contentFn: func(req genai.ContentRequest) (string, error) {
		prompt := req.Contents[0].Parts[0].Text
		if strings.Contains(prompt, "logline A") {
			return `{"locale":"de","title":"BUNDLE-A","description":"d","tags":["t"],"cta":{"hook":"H","character":"C","goal":"G"}}`, nil
		}
		return `{"locale":"de","title":"BUNDLE-B","description":"d","tags":["t"],"cta":{"hook":"H","character":"C","goal":"G"}}`, nil
	}}
	env := newTestEnv(t, gen)
	_ = env.keys.SetKeys(pipeline.PurposeStory, []string{"k1"})

	makeProject := func(logline string) *store.Project {
		p, err := env.store.CreateProject("t", logline, "shorts")
		if err != nil {
			t.Fatalf("creating project: %v", err)
		}
		if err := env.store.SaveStoryboard(p.ID, []pipeline.Scene{{Title: "s", Summary: logline}}); err != nil {
			t.Fatalf("saving storyboard: %v", err)
		}
		return p
	}
	projectA := makeProject("logline A")
	projectB := makeProject("logline B")

	localize := func(projectID string) pipeline.LocalizedAssets {
		rec := env.do(t, http.MethodPost, "/api/projects/"+projectID+"/localized/de", map[string]any{})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		var bundle pipeline.LocalizedAssets
		if err := json.Unmarshal(rec.Body.Bytes(), &bundle); err != nil {
			t.Fatalf("decoding bundle: %v", err)
		}
		return bundle
	}

	if got := localize(projectA.ID); got.Title != "BUNDLE-A" {
		t.Errorf("project A bundle = %q, want BUNDLE-A", got.Title)
	}
	if got := localize(projectB.ID); got.Title != "BUNDLE-B" {
		t.Errorf("project B bundle = %q, want its own BUNDLE-B", got.Title)
	}

	// Each project's persisted bundle is its own.
	stored, err := env.store.GetLocalizedAssets(projectB.ID, "de")
	if err != nil {
		t.Fatalf("loading stored bundle: %v", err)
	}
	if stored.Title != "BUNDLE-B" {
		t.Errorf("stored project B bundle = %q, want BUNDLE-B", stored.Title)
	}

	// Invalidating A's locale leaves B's cached bundle alone.
	rec := env.do(t, http.MethodDelete, "/api/projects/"+projectA.ID+"/localized/de", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("invalidate status = %d", rec.Code)
	}
	if got := localize(projectB.ID); got.Title != "BUNDLE-B" {
		t.Errorf("project B bundle after A's invalidation = %q, want BUNDLE-B", got.Title)
	}
}

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

func TestBurnCTAOnStoredAsset(t *testing.T) {
	env := newTestEnv(t, &scriptedGen{})
	project, _ := env.store.CreateProject("t", "l", "shorts")

	asset, err := env.store.SaveAsset(project.ID, "slot", "p", "image/png", pngFixture(t, 80, 60))
	if err != nil {
		t.Fatalf("saving asset: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/api/assets/"+asset.ID+"/cta",
		map[string]any{"hook": "WATCH", "character": "Red Racer", "goal": "wins"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty composited image")
	}
}
