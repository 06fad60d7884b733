// ABOUTME: Tests for the HTTP boundary client against a stub service.
// ABOUTME: Validates query-parameter credentials, response extraction, and error-envelope translation for all three call shapes.

package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateContentExtractsText(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": `{"ok":`}, {"text": `true}`}}}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	text, err := client.GenerateContent(context.Background(), "secret", "test-model", TextRequest("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"ok":true}` {
		t.Errorf("text = %q, want concatenated parts", text)
	}
	if gotKey != "secret" {
		t.Errorf("key query param = %q, want secret", gotKey)
	}
	if want := "/v1beta/models/test-model:generateContent"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
}

func TestGenerateContentEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GenerateContent(context.Background(), "k", "m", TextRequest("hi"))

	var schema *SchemaViolationError
	if !errors.As(err, &schema) {
		t.Fatalf("error = %v, want *SchemaViolationError", err)
	}
}

func TestErrorEnvelopeTranslation(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "429 envelope",
			status: 429,
			body:   `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
			check: func(t *testing.T, err error) {
				var rl *RateLimitedError
				if !errors.As(err, &rl) {
					t.Fatalf("error = %v, want *RateLimitedError", err)
				}
			},
		},
		{
			name:   "400 invalid key",
			status: 400,
			body:   `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`,
			check: func(t *testing.T, err error) {
				var ci *CredentialInvalidError
				if !errors.As(err, &ci) {
					t.Fatalf("error = %v, want *CredentialInvalidError", err)
				}
			},
		},
		{
			name:   "500 opaque",
			status: 500,
			body:   `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`,
			check: func(t *testing.T, err error) {
				var api *APIError
				if !errors.As(err, &api) {
					t.Fatalf("error = %v, want *APIError", err)
				}
			},
		},
		{
			name:   "unparseable body",
			status: 503,
			body:   `<html>bad gateway</html>`,
			check: func(t *testing.T, err error) {
				var api *APIError
				if !errors.As(err, &api) {
					t.Fatalf("error = %v, want *APIError", err)
				}
				if api.StatusCode != 503 {
					t.Errorf("StatusCode = %d, want 503", api.StatusCode)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL))
			_, err := client.GenerateContent(context.Background(), "k", "m", TextRequest("hi"))
			tt.check(t, err)
		})
	}
}

func TestGenerateImage(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Parameters.AspectRatio != "16:9" {
			t.Errorf("aspect ratio = %q, want 16:9", req.Parameters.AspectRatio)
		}
		fmt.Fprintf(w, `{"predictions":[{"bytesBase64Encoded":%q,"mimeType":"image/png"}]}`,
			base64.StdEncoding.EncodeToString(payload))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	img, err := client.GenerateImage(context.Background(), "k", "img-model", "a red cube", AspectLandscape)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("mime = %q, want image/png", img.MIMEType)
	}
	if string(img.Bytes) != string(payload) {
		t.Errorf("bytes do not round-trip")
	}
}

func TestGenerateImageRejectsUnknownAspect(t *testing.T) {
	client := NewClient()
	if _, err := client.GenerateImage(context.Background(), "k", "m", "p", "21:9"); err == nil {
		t.Fatal("expected error for unsupported aspect ratio")
	}
}

func TestVideoJobLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"name":"operations/job-1","done":false}`))
		case r.URL.Path == "/v1beta/operations/job-1":
			_, _ = w.Write([]byte(`{
				"name":"operations/job-1","done":true,
				"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://dl.example/v.mp4"}}]}}
			}`))
		default:
			w.WriteHeader(404)
		}
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	op, err := client.SubmitVideoJob(context.Background(), "k", "video-model", VideoJobRequest{Prompt: "sunset"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if op.Done || op.Name != "operations/job-1" {
		t.Fatalf("op = %+v, want pending job-1", op)
	}

	op, err = client.PollOperation(context.Background(), "k", op)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if !op.Done || op.ResultURI != "https://dl.example/v.mp4" {
		t.Errorf("op = %+v, want done with result URI", op)
	}
}

func TestDownloadAttachesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "secret" {
			w.WriteHeader(403)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"forbidden","status":"PERMISSION_DENIED"}}`))
			return
		}
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer srv.Close()

	client := NewClient()

	data, err := client.Download(context.Background(), "secret", srv.URL+"/files/v.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "video-bytes" {
		t.Errorf("data = %q, want video-bytes", data)
	}

	_, err = client.Download(context.Background(), "wrong-key-value", srv.URL+"/files/v.mp4")
	var ci *CredentialInvalidError
	if !errors.As(err, &ci) {
		t.Fatalf("error = %v, want *CredentialInvalidError", err)
	}
}
