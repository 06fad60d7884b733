// ABOUTME: Generation pipeline core: stage execution through credential failover with typed, schema-validated results.
// ABOUTME: Holds the boundary client, key source, and model configuration shared by every stage.

package pipeline

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/2389-research/storyforge/genai"
)

// Purpose names an independent credential set. Story generation and
// image/video generation draw from separate key pools.
type Purpose string

const (
	PurposeStory Purpose = "story"
	PurposeMedia Purpose = "media"
)

// KeySource supplies the credential set for a purpose and persists promotions
// reported by the failover executor. Implemented by the keystore.
type KeySource interface {
	KeySet(purpose Purpose) genai.KeySet
	Promote(purpose Purpose, key string)
}

// Generator is the slice of the boundary client the pipeline needs. Satisfied
// by *genai.Client; faked in tests.
type Generator interface {
	GenerateContent(ctx context.Context, key, model string, req genai.ContentRequest) (string, error)
	GenerateImage(ctx context.Context, key, model, prompt string, aspect genai.AspectRatio) (genai.ImageData, error)
	SubmitVideoJob(ctx context.Context, key, model string, req genai.VideoJobRequest) (genai.Operation, error)
	PollOperation(ctx context.Context, key string, op genai.Operation) (genai.Operation, error)
	Download(ctx context.Context, key, uri string) ([]byte, error)
}

// Pipeline executes the generation stages. It is stateless between calls
// apart from the localized-asset cache; every remote call goes through the
// failover executor with retry applied per credential attempt.
type Pipeline struct {
	gen        Generator
	keys       KeySource
	textModel  string
	imageModel string
	videoModel string
	retry      genai.RetryPolicy
	poller     genai.PollerConfig
	locales    *localeCache
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithModels overrides the text, image, and video model identifiers.
// Empty values keep the defaults.
func WithModels(text, image, video string) Option {
	return func(p *Pipeline) {
		if text != "" {
			p.textModel = text
		}
		if image != "" {
			p.imageModel = image
		}
		if video != "" {
			p.videoModel = video
		}
	}
}

// WithRetryPolicy overrides the per-credential retry policy.
func WithRetryPolicy(policy genai.RetryPolicy) Option {
	return func(p *Pipeline) { p.retry = policy }
}

// WithPollerConfig overrides the long-running-job poll configuration.
func WithPollerConfig(cfg genai.PollerConfig) Option {
	return func(p *Pipeline) { p.poller = cfg }
}

// New creates a Pipeline over the given boundary client and key source.
func New(gen Generator, keys KeySource, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:        gen,
		keys:       keys,
		textModel:  "gemini-2.5-flash",
		imageModel: "imagen-4.0-generate-001",
		videoModel: "veo-3.0-generate-001",
		retry:      genai.DefaultRetryPolicy(),
		poller:     genai.DefaultPollerConfig(),
		locales:    newLocaleCache(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// runText executes one structured content call through failover, with retry
// wrapped around each credential attempt, and returns the raw response text.
func (p *Pipeline) runText(ctx context.Context, purpose Purpose, req genai.ContentRequest) (string, error) {
	set := p.keys.KeySet(purpose)
	promote := func(key string) { p.keys.Promote(purpose, key) }

	text, err := genai.Failover(ctx, set, promote, func(ctx context.Context, key string) (string, error) {
		return genai.Retry(ctx, p.retry, func() (string, error) {
			return p.gen.GenerateContent(ctx, key, p.textModel, req)
		})
	})
	if err != nil {
		return "", annotatePurpose(err, purpose)
	}
	return text, nil
}

// generateJSON runs a structured content call and decodes the response
// against the stage's declared contract, failing closed with a
// SchemaViolationError on any decode or validation failure.
func generateJSON[T any](ctx context.Context, p *Pipeline, stage string, req genai.ContentRequest, validate func(T) error) (T, error) {
	var zero T

	raw, err := p.runText(ctx, PurposeStory, req)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return zero, &genai.SchemaViolationError{Stage: stage, Cause: err}
	}
	if validate != nil {
		if err := validate(out); err != nil {
			return zero, &genai.SchemaViolationError{Stage: stage, Cause: err}
		}
	}
	return out, nil
}

// annotatePurpose stamps the purpose onto a NoActiveCredentialError so the
// surfaced message names which key pool needs configuring.
func annotatePurpose(err error, purpose Purpose) error {
	var noKey *genai.NoActiveCredentialError
	if errors.As(err, &noKey) && noKey.Purpose == "" {
		return &genai.NoActiveCredentialError{Purpose: string(purpose)}
	}
	return err
}
