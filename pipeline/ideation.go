// ABOUTME: Idea-generation and theme-suggestion stages.
// ABOUTME: Produces story idea candidates and grouped theme suggestions from format, characters, and theme inputs.

package pipeline

import (
	"context"
	"fmt"
	"strings"
)

const defaultIdeaCount = 5

// IdeaRequest is the input to the idea-generation stage.
type IdeaRequest struct {
	Format         ContentFormat
	CharacterNames []string
	Theme          string
	Count          int
}

// Ideas generates a fixed-size list of story idea candidates.
func (p *Pipeline) Ideas(ctx context.Context, req IdeaRequest) ([]StoryIdea, error) {
	count := req.Count
	if count <= 0 {
		count = defaultIdeaCount
	}

	prompt := fmt.Sprintf(
		"Propose exactly %d story ideas for a %s featuring these characters: %s.\nTheme: %s.\nEach idea needs a catchy title and a one-paragraph outline.",
		count, req.Format, strings.Join(req.CharacterNames, ", "), req.Theme)

	return generateJSON(ctx, p, "ideas", jsonRequest(ideationSystem, prompt, ideaListSchema()), func(ideas []StoryIdea) error {
		if len(ideas) == 0 {
			return fmt.Errorf("no ideas returned")
		}
		for _, idea := range ideas {
			if err := idea.validate(); err != nil {
				return err
			}
		}
		return nil
	})
}

// ThemeRequest is the input to the theme-suggestion stage.
type ThemeRequest struct {
	Format         ContentFormat
	CharacterNames []string
}

// SuggestThemes generates grouped theme suggestions for the given format and
// character lineup.
func (p *Pipeline) SuggestThemes(ctx context.Context, req ThemeRequest) ([]ThemeCategory, error) {
	prompt := fmt.Sprintf(
		"Suggest story themes for a %s featuring these characters: %s.\nGroup the themes into a handful of named categories.",
		req.Format, strings.Join(req.CharacterNames, ", "))

	return generateJSON(ctx, p, "themes", jsonRequest(ideationSystem, prompt, themeSchema()), func(groups []ThemeCategory) error {
		if len(groups) == 0 {
			return fmt.Errorf("no theme categories returned")
		}
		for _, g := range groups {
			if err := g.validate(); err != nil {
				return err
			}
		}
		return nil
	})
}

const ideationSystem = "You are a creative director for short-form toy and character videos. Answer only with the requested JSON."
