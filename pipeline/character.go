// ABOUTME: Character-development and action-DNA stages.
// ABOUTME: Turns a free-text idea (plus optional reference images) into a structured profile, then proposes fitting actions.

package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/2389-research/storyforge/genai"
)

// CharacterRequest is the input to the character-development stage.
type CharacterRequest struct {
	Idea            string
	ReferenceImages []genai.ImageData
}

// DevelopCharacter produces a structured character profile from a free-text
// idea, optionally grounded on reference images. The profile carries the
// consistency token embedded in all later prompts for this character.
func (p *Pipeline) DevelopCharacter(ctx context.Context, req CharacterRequest) (*CharacterProfile, error) {
	prompt := fmt.Sprintf(
		"Develop this into a full character profile for toy/product videography: %s\nInvent a short unique consistency token (brand-model-color style) that later prompts can embed verbatim.",
		req.Idea)

	contentReq := jsonRequest(characterSystem, prompt, characterProfileSchema())
	contentReq.Contents = appendInlineImages(contentReq.Contents, req.ReferenceImages)

	profile, err := generateJSON(ctx, p, "character", contentReq, func(c CharacterProfile) error {
		return c.validate()
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// SuggestActionDNA proposes a short list of action verbs and phrases that fit
// a developed character profile.
func (p *Pipeline) SuggestActionDNA(ctx context.Context, profile CharacterProfile) ([]string, error) {
	prompt := fmt.Sprintf(
		"Suggest 5 to 8 short action verbs or phrases that suit this character in motion.\n%s",
		describeRoster([]CharacterProfile{profile}))

	return generateJSON(ctx, p, "action-dna", jsonRequest(characterSystem, prompt, actionDNASchema()), func(actions []string) error {
		if len(actions) == 0 {
			return fmt.Errorf("no actions returned")
		}
		for _, a := range actions {
			if a == "" {
				return fmt.Errorf("empty action in list")
			}
		}
		return nil
	})
}

// appendInlineImages attaches reference media to the last user turn as inline
// data parts.
func appendInlineImages(contents []genai.Content, images []genai.ImageData) []genai.Content {
	if len(images) == 0 || len(contents) == 0 {
		return contents
	}
	last := &contents[len(contents)-1]
	for _, img := range images {
		last.Parts = append(last.Parts, genai.Part{
			InlineData: &genai.Blob{
				MIMEType: img.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(img.Bytes),
			},
		})
	}
	return contents
}

const characterSystem = "You are a character designer for toy and product videos. Answer only with the requested JSON."
