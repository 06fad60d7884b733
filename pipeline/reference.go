// ABOUTME: Reference-set analysis stage: describes a set of reference images/clips as two alternative prompts.
// ABOUTME: Produces a short free-text prompt and a structured JSON-embedded prompt for the same reference set.

package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/2389-research/storyforge/genai"
)

// ReferenceRequest is the input to the reference-set analysis stage: a set of
// reference images or short videos as raw bytes with mime types.
type ReferenceRequest struct {
	Media []genai.ImageData
}

// AnalyzeReferences produces two alternative prompts describing the combined
// reference set: one short free-text prompt and one structured JSON-embedded
// prompt.
func (p *Pipeline) AnalyzeReferences(ctx context.Context, req ReferenceRequest) (*ReferenceAnalysis, error) {
	if len(req.Media) == 0 {
		return nil, fmt.Errorf("at least one reference is required")
	}

	prompt := "Analyze the attached references as one combined subject. Produce two alternatives: a short free-text generation prompt, and a structured prompt whose value is a JSON document embedded as a string."

	contentReq := jsonRequest(characterSystem, prompt, referenceAnalysisSchema())
	last := &contentReq.Contents[len(contentReq.Contents)-1]
	for _, m := range req.Media {
		last.Parts = append(last.Parts, genai.Part{
			InlineData: &genai.Blob{
				MIMEType: m.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(m.Bytes),
			},
		})
	}

	analysis, err := generateJSON(ctx, p, "reference-analysis", contentReq, func(r ReferenceAnalysis) error {
		return r.validate()
	})
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}
