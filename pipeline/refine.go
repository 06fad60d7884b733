// ABOUTME: Per-scene prompt-refinement stage with blueprint (image) and cinematic (video) variants.
// ABOUTME: Invoked independently per scene, on demand, never as part of the batch storyboard call.

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389-research/storyforge/genai"
)

// PromptVariant selects which kind of prompt a refinement produces.
type PromptVariant string

const (
	// VariantBlueprint produces a still-image prompt for the scene.
	VariantBlueprint PromptVariant = "blueprint"
	// VariantCinematic produces a video prompt for the scene.
	VariantCinematic PromptVariant = "cinematic"
)

// RefineRequest is the input to the prompt-refinement stage.
type RefineRequest struct {
	Scene   Scene
	Roster  []CharacterProfile
	Style   DirectingStyle
	Variant PromptVariant
}

// RefinePrompt turns one scene record into a single free-text generation
// prompt in the requested variant.
func (p *Pipeline) RefinePrompt(ctx context.Context, req RefineRequest) (string, error) {
	var instruction string
	switch req.Variant {
	case VariantBlueprint:
		instruction = "Write one detailed image-generation prompt capturing this scene as a single still frame."
	case VariantCinematic:
		instruction = "Write one detailed video-generation prompt capturing this scene as a moving shot, including camera movement and sound."
	default:
		return "", fmt.Errorf("unknown prompt variant %q", req.Variant)
	}

	var actions strings.Builder
	for _, a := range req.Scene.CharacterActions {
		fmt.Fprintf(&actions, "- [%s] %s\n", a.ConsistencyToken, a.Action)
	}

	prompt := fmt.Sprintf(
		"%s\nScene: %s - %s\nActions:\n%sCinematography: %s\nSound: %s\nCharacters:\n%sDirecting style: %s\nEmbed each character's consistency token verbatim in the prompt. Answer with the prompt text only.",
		instruction, req.Scene.Title, req.Scene.Summary, actions.String(),
		req.Scene.Cinematography, req.Scene.SoundDesign,
		describeRoster(req.Roster), describeStyle(req.Style))

	text, err := p.runText(ctx, PurposeStory, genai.TextRequest(prompt))
	if err != nil {
		return "", err
	}
	refined := strings.TrimSpace(text)
	if refined == "" {
		return "", &genai.SchemaViolationError{Stage: "refine", Cause: fmt.Errorf("empty refined prompt")}
	}
	return refined, nil
}
