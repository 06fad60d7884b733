// ABOUTME: Publishing-kit stage: bilingual titles, descriptions, tags, affiliate templates, and one thumbnail concept.
// ABOUTME: Runs once per finished storyboard; localized variants for other locales come from the localization stage.

package pipeline

import (
	"context"
	"fmt"
)

// PublishingRequest is the input to the publishing-kit stage.
type PublishingRequest struct {
	Scenes  []Scene
	Roster  []CharacterProfile
	Logline string
}

// PublishingKit generates the bilingual publishing bundle for a storyboard:
// title/description/tags in both baked-in locales, affiliate-link templates,
// and exactly one thumbnail concept with its CTA triples.
func (p *Pipeline) PublishingKit(ctx context.Context, req PublishingRequest) (*PublishingKit, error) {
	prompt := fmt.Sprintf(
		"Create a publishing kit for this video.\nLogline: %s\nStoryboard:\n%sCharacters:\n%s\nProvide English and Korean titles, descriptions and tags, affiliate link templates for the featured products, and exactly one thumbnail concept with an image prompt plus hook/character/goal call-to-action lines in both languages.",
		req.Logline, describeScenes(req.Scenes), describeRoster(req.Roster))

	kit, err := generateJSON(ctx, p, "publishing-kit", jsonRequest(publishingSystem, prompt, publishingKitSchema()), func(k PublishingKit) error {
		return k.validate()
	})
	if err != nil {
		return nil, err
	}
	return &kit, nil
}

const publishingSystem = "You are a channel manager optimizing video metadata for search and click-through. Answer only with the requested JSON."
