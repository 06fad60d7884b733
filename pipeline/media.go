// ABOUTME: Image and video generation stages running against the media credential pool.
// ABOUTME: Images are synchronous calls; video jobs go through the long-running-operation poller.

package pipeline

import (
	"context"
	"fmt"

	"github.com/2389-research/storyforge/genai"
)

// GenerateImage produces raw image bytes for a free-text prompt at the given
// aspect ratio, using the media credential pool.
func (p *Pipeline) GenerateImage(ctx context.Context, prompt string, aspect genai.AspectRatio) (genai.ImageData, error) {
	if prompt == "" {
		return genai.ImageData{}, fmt.Errorf("image prompt is required")
	}

	set := p.keys.KeySet(PurposeMedia)
	promote := func(key string) { p.keys.Promote(PurposeMedia, key) }

	img, err := genai.Failover(ctx, set, promote, func(ctx context.Context, key string) (genai.ImageData, error) {
		return genai.Retry(ctx, p.retry, func() (genai.ImageData, error) {
			return p.gen.GenerateImage(ctx, key, p.imageModel, prompt, aspect)
		})
	})
	if err != nil {
		return genai.ImageData{}, annotatePurpose(err, PurposeMedia)
	}
	return img, nil
}

// VideoRequest is the input to the video-generation stage.
type VideoRequest struct {
	Prompt      string
	AspectRatio genai.AspectRatio
	StartFrame  *genai.ImageData
}

// VideoResult is the outcome of a completed video job: the remote result
// descriptor plus the downloaded bytes.
type VideoResult struct {
	URI   string
	Bytes []byte
}

// GenerateVideo submits a video job and polls it to completion, then fetches
// the result. The whole submit/poll/download sequence runs under one
// credential; a credential-invalid rejection rotates to the next key and
// starts the job over.
func (p *Pipeline) GenerateVideo(ctx context.Context, req VideoRequest) (*VideoResult, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("video prompt is required")
	}

	set := p.keys.KeySet(PurposeMedia)
	promote := func(key string) { p.keys.Promote(PurposeMedia, key) }

	result, err := genai.Failover(ctx, set, promote, func(ctx context.Context, key string) (*VideoResult, error) {
		uri, err := genai.PollUntilDone(ctx, p.poller,
			func(ctx context.Context) (genai.Operation, error) {
				return p.gen.SubmitVideoJob(ctx, key, p.videoModel, genai.VideoJobRequest{
					Prompt:      req.Prompt,
					AspectRatio: req.AspectRatio,
					StartFrame:  req.StartFrame,
				})
			},
			func(ctx context.Context, op genai.Operation) (genai.Operation, error) {
				return p.gen.PollOperation(ctx, key, op)
			},
		)
		if err != nil {
			return nil, err
		}

		data, err := p.gen.Download(ctx, key, uri)
		if err != nil {
			return nil, err
		}
		return &VideoResult{URI: uri, Bytes: data}, nil
	})
	if err != nil {
		return nil, annotatePurpose(err, PurposeMedia)
	}
	return result, nil
}
