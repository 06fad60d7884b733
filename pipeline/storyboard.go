// ABOUTME: Storyboard-generation stage: logline + scenario + roster into an ordered scene list.
// ABOUTME: Scene actions are validated against the roster's consistency tokens; the requested count is a target, not a contract.

package pipeline

import (
	"context"
	"fmt"
)

// StoryboardRequest is the input to the storyboard-generation stage.
type StoryboardRequest struct {
	Logline    string
	Scenario   string
	SceneCount int
	Roster     []CharacterProfile
	Style      DirectingStyle
}

// Storyboard breaks a scenario into an ordered list of scene records. The
// requested scene count is passed to the service as a target; the returned
// count is not re-validated against it. Every character action must reference
// a consistency token present in the supplied roster.
func (p *Pipeline) Storyboard(ctx context.Context, req StoryboardRequest) ([]Scene, error) {
	count := req.SceneCount
	if count <= 0 {
		count = 5
	}

	prompt := fmt.Sprintf(
		"Break this story into roughly %d scenes.\nLogline: %s\nScenario:\n%s\nCharacters:\n%s\nDirecting style: %s\nFor every character action, set consistency_token to the acting character's token exactly as given above.",
		count, req.Logline, req.Scenario, describeRoster(req.Roster), describeStyle(req.Style))

	tokens := rosterTokens(req.Roster)
	return generateJSON(ctx, p, "storyboard", jsonRequest(storyboardSystem, prompt, storyboardSchema()), func(scenes []Scene) error {
		if len(scenes) == 0 {
			return fmt.Errorf("no scenes returned")
		}
		for _, scene := range scenes {
			if err := scene.validate(tokens); err != nil {
				return err
			}
		}
		return nil
	})
}

const storyboardSystem = "You are a storyboard artist and director. Answer only with the requested JSON."
