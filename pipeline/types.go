// ABOUTME: Typed stage results and their fail-closed validation rules.
// ABOUTME: Every remote response is decoded into one of these and validated before it leaves the pipeline.

package pipeline

import (
	"fmt"
	"strings"
)

// ContentFormat is the kind of content being produced (shorts, longform,
// episodic). Free-form by design; the service interprets it.
type ContentFormat string

// StoryIdea is one idea candidate: a title plus a one-paragraph outline.
type StoryIdea struct {
	Title   string `json:"title"`
	Outline string `json:"outline"`
}

func (i StoryIdea) validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("idea title is empty")
	}
	if strings.TrimSpace(i.Outline) == "" {
		return fmt.Errorf("idea outline is empty")
	}
	return nil
}

// ThemeCategory groups suggested themes under a category label.
type ThemeCategory struct {
	Category string   `json:"category"`
	Themes   []string `json:"themes"`
}

func (t ThemeCategory) validate() error {
	if strings.TrimSpace(t.Category) == "" {
		return fmt.Errorf("theme category is empty")
	}
	if len(t.Themes) == 0 {
		return fmt.Errorf("theme category %q carries no themes", t.Category)
	}
	return nil
}

// CharacterProfile is a developed character. ConsistencyToken is the unique
// string embedded in prompts to keep the character's look stable across
// independently generated images and scenes.
type CharacterProfile struct {
	Name             string `json:"name"`
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	Material         string `json:"material"`
	DesignLanguage   string `json:"design_language"`
	KeyFeatures      string `json:"key_features"`
	ConsistencyToken string `json:"consistency_token"`
	Personality      string `json:"personality"`
	PhysicalDetail   string `json:"physical_detail"`
	Scale            string `json:"scale"`
}

func (c CharacterProfile) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("character name is empty")
	}
	if strings.TrimSpace(c.ConsistencyToken) == "" {
		return fmt.Errorf("character %q has no consistency token", c.Name)
	}
	return nil
}

// DirectingStyle is the set of directing parameters applied to storyboard
// and prompt-refinement stages.
type DirectingStyle struct {
	VisualStyle string `json:"visual_style"`
	CameraWork  string `json:"camera_work"`
	Lighting    string `json:"lighting"`
	Mood        string `json:"mood"`
	Pacing      string `json:"pacing"`
}

// CharacterAction binds one action in a scene to a character via its
// consistency token.
type CharacterAction struct {
	ConsistencyToken string `json:"consistency_token"`
	Action           string `json:"action"`
}

// Scene is one storyboard entry.
type Scene struct {
	Title            string            `json:"title"`
	Summary          string            `json:"summary"`
	CharacterActions []CharacterAction `json:"character_actions"`
	Cinematography   string            `json:"cinematography"`
	SoundDesign      string            `json:"sound_design"`
}

func (s Scene) validate(tokens map[string]bool) error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("scene title is empty")
	}
	if strings.TrimSpace(s.Summary) == "" {
		return fmt.Errorf("scene %q summary is empty", s.Title)
	}
	for _, action := range s.CharacterActions {
		if strings.TrimSpace(action.Action) == "" {
			return fmt.Errorf("scene %q carries an empty character action", s.Title)
		}
		if !tokens[action.ConsistencyToken] {
			return fmt.Errorf("scene %q action references unknown consistency token %q", s.Title, action.ConsistencyToken)
		}
	}
	return nil
}

// BilingualText is a text pair in the two baked-in publishing locales.
type BilingualText struct {
	EN string `json:"en"`
	KO string `json:"ko"`
}

func (b BilingualText) validate(field string) error {
	if strings.TrimSpace(b.EN) == "" || strings.TrimSpace(b.KO) == "" {
		return fmt.Errorf("%s must carry both locales", field)
	}
	return nil
}

// CTAText is the call-to-action triple burned onto a thumbnail.
type CTAText struct {
	Hook      string `json:"hook"`
	Character string `json:"character"`
	Goal      string `json:"goal"`
}

// AffiliateLink is a labelled URL template for the publishing kit.
type AffiliateLink struct {
	Label       string `json:"label"`
	URLTemplate string `json:"url_template"`
}

// ThumbnailConcept is the single thumbnail proposal of a publishing kit: an
// image prompt plus the CTA triple in both baked-in locales.
type ThumbnailConcept struct {
	ImagePrompt string  `json:"image_prompt"`
	CTAEN       CTAText `json:"cta_en"`
	CTAKO       CTAText `json:"cta_ko"`
}

// PublishingKit is the bilingual publishing bundle for a finished storyboard.
type PublishingKit struct {
	Title          BilingualText    `json:"title"`
	Description    BilingualText    `json:"description"`
	TagsEN         []string         `json:"tags_en"`
	TagsKO         []string         `json:"tags_ko"`
	AffiliateLinks []AffiliateLink  `json:"affiliate_links"`
	Thumbnail      ThumbnailConcept `json:"thumbnail"`
}

func (k PublishingKit) validate() error {
	if err := k.Title.validate("title"); err != nil {
		return err
	}
	if err := k.Description.validate("description"); err != nil {
		return err
	}
	if len(k.TagsEN) == 0 || len(k.TagsKO) == 0 {
		return fmt.Errorf("publishing kit must carry tags for both locales")
	}
	if strings.TrimSpace(k.Thumbnail.ImagePrompt) == "" {
		return fmt.Errorf("publishing kit thumbnail has no image prompt")
	}
	return nil
}

// LocalizedAssets is the publishing bundle for one additional target locale.
type LocalizedAssets struct {
	Locale      string   `json:"locale"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CTA         CTAText  `json:"cta"`
}

func (l LocalizedAssets) validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("localized title is empty")
	}
	if strings.TrimSpace(l.Description) == "" {
		return fmt.Errorf("localized description is empty")
	}
	if len(l.Tags) == 0 {
		return fmt.Errorf("localized bundle carries no tags")
	}
	return nil
}

// ReferenceAnalysis is the pair of alternative prompts describing a combined
// reference set: a short free-text prompt and a structured JSON-embedded one.
type ReferenceAnalysis struct {
	ShortPrompt      string `json:"short_prompt"`
	StructuredPrompt string `json:"structured_prompt"`
}

func (r ReferenceAnalysis) validate() error {
	if strings.TrimSpace(r.ShortPrompt) == "" {
		return fmt.Errorf("reference analysis short prompt is empty")
	}
	if strings.TrimSpace(r.StructuredPrompt) == "" {
		return fmt.Errorf("reference analysis structured prompt is empty")
	}
	return nil
}

// rosterTokens indexes a character roster by consistency token.
func rosterTokens(roster []CharacterProfile) map[string]bool {
	tokens := make(map[string]bool, len(roster))
	for _, c := range roster {
		tokens[c.ConsistencyToken] = true
	}
	return tokens
}

// describeRoster renders a roster into prompt text, one line per character,
// always naming the consistency token.
func describeRoster(roster []CharacterProfile) string {
	var b strings.Builder
	for _, c := range roster {
		fmt.Fprintf(&b, "- %s [token: %s]: %s %s, %s; features: %s; personality: %s\n",
			c.Name, c.ConsistencyToken, c.Brand, c.Model, c.DesignLanguage, c.KeyFeatures, c.Personality)
	}
	return b.String()
}

// describeStyle renders directing parameters into prompt text.
func describeStyle(style DirectingStyle) string {
	return fmt.Sprintf("visual style: %s; camera: %s; lighting: %s; mood: %s; pacing: %s",
		style.VisualStyle, style.CameraWork, style.Lighting, style.Mood, style.Pacing)
}

// describeScenes renders a storyboard into prompt text for downstream stages.
func describeScenes(scenes []Scene) string {
	var b strings.Builder
	for i, s := range scenes {
		fmt.Fprintf(&b, "Scene %d - %s: %s\n", i+1, s.Title, s.Summary)
	}
	return b.String()
}
