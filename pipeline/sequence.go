// ABOUTME: Image-sequence batch driver: one prompt-list call, then strictly sequential image fills.
// ABOUTME: Sequential processing trades latency for quota friendliness and deterministic fill order.

package pipeline

import (
	"context"
	"fmt"

	"github.com/2389-research/storyforge/genai"
)

// SequenceRequest is the input to the image-sequence batch: the storyboard
// context the per-item prompts are derived from, and the number of items.
type SequenceRequest struct {
	Scenes      []Scene
	Roster      []CharacterProfile
	Style       DirectingStyle
	Count       int
	AspectRatio genai.AspectRatio
}

// SequencePrompts obtains the ordered per-item prompt list for a batch in a
// single pipeline call.
func (p *Pipeline) SequencePrompts(ctx context.Context, req SequenceRequest) ([]string, error) {
	count := req.Count
	if count <= 0 {
		count = len(req.Scenes)
	}
	if count <= 0 {
		return nil, fmt.Errorf("sequence count is required")
	}

	prompt := fmt.Sprintf(
		"Write exactly %d image-generation prompts, one per storyboard beat, in order.\nStoryboard:\n%sCharacters:\n%sDirecting style: %s\nEmbed each acting character's consistency token verbatim in its prompt.",
		count, describeScenes(req.Scenes), describeRoster(req.Roster), describeStyle(req.Style))

	return generateJSON(ctx, p, "sequence-prompts", jsonRequest(storyboardSystem, prompt, promptListSchema()), func(prompts []string) error {
		if len(prompts) == 0 {
			return fmt.Errorf("no prompts returned")
		}
		for _, pr := range prompts {
			if pr == "" {
				return fmt.Errorf("empty prompt in list")
			}
		}
		return nil
	})
}

// FillSequence generates one image per slot, strictly in order, writing each
// result into its slot as soon as it resolves. A reader holding the store
// observes partial progress mid-batch. On the first failure the remaining
// empty placeholders are removed and the error is returned; slots filled
// before the failure survive.
func (p *Pipeline) FillSequence(ctx context.Context, store *SlotStore, aspect genai.AspectRatio) error {
	if aspect == "" {
		aspect = genai.AspectLandscape
	}
	for i, slot := range store.Snapshot() {
		if slot.Filled() {
			continue
		}
		img, err := p.GenerateImage(ctx, slot.Prompt, aspect)
		if err != nil {
			store.pruneEmpty()
			return fmt.Errorf("generating image %d of %d: %w", i+1, store.Len(), err)
		}
		store.fill(i, img)
	}
	return nil
}

// ImageSequence runs the full batch: obtain the prompt list, allocate all
// placeholder slots, then fill them sequentially. The store is returned even
// when the fill fails part-way, so the caller keeps the completed items.
func (p *Pipeline) ImageSequence(ctx context.Context, req SequenceRequest) (*SlotStore, error) {
	prompts, err := p.SequencePrompts(ctx, req)
	if err != nil {
		return nil, err
	}

	store := NewSlotStore(prompts)
	if err := p.FillSequence(ctx, store, req.AspectRatio); err != nil {
		return store, err
	}
	return store, nil
}

// RegenerateSlot re-runs image generation for one slot using its original
// prompt and replaces just that slot's payload, leaving siblings untouched.
func (p *Pipeline) RegenerateSlot(ctx context.Context, store *SlotStore, id string, aspect genai.AspectRatio) error {
	slot, ok := store.Get(id)
	if !ok {
		return fmt.Errorf("no slot with id %s", id)
	}
	if aspect == "" {
		aspect = genai.AspectLandscape
	}
	img, err := p.GenerateImage(ctx, slot.Prompt, aspect)
	if err != nil {
		return err
	}
	return store.replace(id, img)
}
