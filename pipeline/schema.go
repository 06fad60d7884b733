// ABOUTME: Declared response schemas for each structured generation stage.
// ABOUTME: These are sent with the request so the service constrains its output; decoding still fails closed on violations.

package pipeline

import (
	"encoding/json"

	"github.com/2389-research/storyforge/genai"
)

// mustSchema marshals a schema literal. The literals below are static, so a
// marshal failure is a programming error.
func mustSchema(schema map[string]any) json.RawMessage {
	data, err := json.Marshal(schema)
	if err != nil {
		panic("pipeline: invalid schema literal: " + err.Error())
	}
	return data
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "STRING", "description": desc}
}

func stringArrayProp(desc string) map[string]any {
	return map[string]any{"type": "ARRAY", "description": desc, "items": map[string]any{"type": "STRING"}}
}

func objectSchema(props map[string]any, required []string) map[string]any {
	return map[string]any{"type": "OBJECT", "properties": props, "required": required}
}

func arraySchema(items map[string]any) map[string]any {
	return map[string]any{"type": "ARRAY", "items": items}
}

func ideaListSchema() json.RawMessage {
	return mustSchema(arraySchema(objectSchema(map[string]any{
		"title":   stringProp("short, catchy story title"),
		"outline": stringProp("one-paragraph story outline"),
	}, []string{"title", "outline"})))
}

func themeSchema() json.RawMessage {
	return mustSchema(arraySchema(objectSchema(map[string]any{
		"category": stringProp("theme category label"),
		"themes":   stringArrayProp("themes in this category"),
	}, []string{"category", "themes"})))
}

func storyboardSchema() json.RawMessage {
	action := objectSchema(map[string]any{
		"consistency_token": stringProp("token of the character performing the action"),
		"action":            stringProp("what the character does in this scene"),
	}, []string{"consistency_token", "action"})

	return mustSchema(arraySchema(objectSchema(map[string]any{
		"title":             stringProp("scene title"),
		"summary":           stringProp("scene summary"),
		"character_actions": arraySchema(action),
		"cinematography":    stringProp("shot framing and camera movement"),
		"sound_design":      stringProp("ambient sound and effects"),
	}, []string{"title", "summary", "character_actions", "cinematography", "sound_design"})))
}

func bilingualSchema(desc string) map[string]any {
	return objectSchema(map[string]any{
		"en": stringProp(desc + " in English"),
		"ko": stringProp(desc + " in Korean"),
	}, []string{"en", "ko"})
}

func ctaSchema() map[string]any {
	return objectSchema(map[string]any{
		"hook":      stringProp("attention hook line"),
		"character": stringProp("character line"),
		"goal":      stringProp("goal line"),
	}, []string{"hook", "character", "goal"})
}

func publishingKitSchema() json.RawMessage {
	link := objectSchema(map[string]any{
		"label":        stringProp("link label"),
		"url_template": stringProp("affiliate URL template with placeholders"),
	}, []string{"label", "url_template"})

	thumbnail := objectSchema(map[string]any{
		"image_prompt": stringProp("image generation prompt for the thumbnail"),
		"cta_en":       ctaSchema(),
		"cta_ko":       ctaSchema(),
	}, []string{"image_prompt", "cta_en", "cta_ko"})

	return mustSchema(objectSchema(map[string]any{
		"title":           bilingualSchema("video title"),
		"description":     bilingualSchema("video description"),
		"tags_en":         stringArrayProp("English tags"),
		"tags_ko":         stringArrayProp("Korean tags"),
		"affiliate_links": arraySchema(link),
		"thumbnail":       thumbnail,
	}, []string{"title", "description", "tags_en", "tags_ko", "thumbnail"}))
}

func localizedAssetsSchema() json.RawMessage {
	return mustSchema(objectSchema(map[string]any{
		"locale":      stringProp("target locale identifier"),
		"title":       stringProp("localized title"),
		"description": stringProp("localized description"),
		"tags":        stringArrayProp("localized tags"),
		"cta":         ctaSchema(),
	}, []string{"locale", "title", "description", "tags", "cta"}))
}

func characterProfileSchema() json.RawMessage {
	return mustSchema(objectSchema(map[string]any{
		"name":              stringProp("character name"),
		"brand":             stringProp("brand or maker"),
		"model":             stringProp("model or variant"),
		"material":          stringProp("dominant materials"),
		"design_language":   stringProp("overall design language"),
		"key_features":      stringProp("key visual features"),
		"consistency_token": stringProp("unique token for visual consistency across generations"),
		"personality":       stringProp("personality sketch"),
		"physical_detail":   stringProp("fine physical detail"),
		"scale":             stringProp("physical scale"),
	}, []string{"name", "consistency_token", "design_language", "key_features"}))
}

func actionDNASchema() json.RawMessage {
	return mustSchema(stringArrayProp("short action verbs or phrases fitting the character"))
}

func referenceAnalysisSchema() json.RawMessage {
	return mustSchema(objectSchema(map[string]any{
		"short_prompt":      stringProp("short free-text prompt describing the combined reference"),
		"structured_prompt": stringProp("structured JSON-embedded prompt describing the combined reference"),
	}, []string{"short_prompt", "structured_prompt"}))
}

func promptListSchema() json.RawMessage {
	return mustSchema(stringArrayProp("ordered image generation prompts, one per item"))
}

// jsonRequest wraps prompt text into a content request that declares a JSON
// response contract.
func jsonRequest(system, prompt string, schema json.RawMessage) genai.ContentRequest {
	req := genai.TextRequest(prompt)
	if system != "" {
		req.SystemInstruction = &genai.Content{Parts: []genai.Part{{Text: system}}}
	}
	req.GenerationConfig = &genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	return req
}
