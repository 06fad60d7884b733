// ABOUTME: Tests for the placeholder-slot store and the sequential image-sequence driver.
// ABOUTME: Covers up-front allocation, incremental fill, mid-batch pruning, and single-slot regeneration.

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/2389-research/storyforge/genai"
)

func sequencePrompts(n int) []string {
	prompts := make([]string, n)
	for i := range prompts {
		prompts[i] = fmt.Sprintf("prompt %d", i+1)
	}
	return prompts
}

func TestNewSlotStoreAllocatesAllPlaceholders(t *testing.T) {
	store := NewSlotStore(sequencePrompts(5))

	if store.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", store.Len())
	}
	seen := make(map[string]bool)
	for i, slot := range store.Snapshot() {
		if slot.Filled() {
			t.Errorf("slot %d filled before any generation", i)
		}
		if slot.ID == "" {
			t.Errorf("slot %d has no id", i)
		}
		if seen[slot.ID] {
			t.Errorf("slot id %s is not unique", slot.ID)
		}
		seen[slot.ID] = true
		if want := fmt.Sprintf("prompt %d", i+1); slot.Prompt != want {
			t.Errorf("slot %d prompt = %q, want %q", i, slot.Prompt, want)
		}
	}
}

func TestSlotStoreIncrementalSnapshot(t *testing.T) {
	store := NewSlotStore(sequencePrompts(5))

	for k := 0; k < 3; k++ {
		store.fill(k, genai.ImageData{Bytes: []byte{byte(k)}, MIMEType: "image/png"})
	}

	if store.FilledCount() != 3 {
		t.Errorf("FilledCount() = %d, want 3", store.FilledCount())
	}
	snap := store.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("snapshot length = %d, want 5 (empty placeholders still visible)", len(snap))
	}
	for i, slot := range snap {
		if got, want := slot.Filled(), i < 3; got != want {
			t.Errorf("slot %d filled = %v, want %v", i, got, want)
		}
	}
}

func TestSlotStorePruneEmptyKeepsFilled(t *testing.T) {
	store := NewSlotStore(sequencePrompts(5))
	store.fill(0, genai.ImageData{Bytes: []byte("a")})
	store.fill(1, genai.ImageData{Bytes: []byte("b")})

	store.pruneEmpty()

	if store.Len() != 2 {
		t.Fatalf("Len() after prune = %d, want 2", store.Len())
	}
	for i, slot := range store.Snapshot() {
		if !slot.Filled() {
			t.Errorf("slot %d empty after prune", i)
		}
	}
}

func TestSlotStoreReplaceTargetsOneSlot(t *testing.T) {
	store := NewSlotStore(sequencePrompts(3))
	for i := 0; i < 3; i++ {
		store.fill(i, genai.ImageData{Bytes: []byte{byte(i)}})
	}
	snap := store.Snapshot()

	if err := store.replace(snap[1].ID, genai.ImageData{Bytes: []byte("new")}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	after := store.Snapshot()
	if string(after[1].Image.Bytes) != "new" {
		t.Errorf("slot 1 bytes = %q, want new", after[1].Image.Bytes)
	}
	if string(after[0].Image.Bytes) != "\x00" || string(after[2].Image.Bytes) != "\x02" {
		t.Error("sibling slots were disturbed by replace")
	}

	if err := store.replace("no-such-id", genai.ImageData{}); err == nil {
		t.Error("expected error for unknown slot id")
	}
}

func TestFillSequenceStopsAndPrunesOnFailure(t *testing.T) {
	var prompts []string
	gen := &fakeGen{imageFn: func(key, prompt string) (genai.ImageData, error) {
		prompts = append(prompts, prompt)
		if len(prompts) == 4 {
			return genai.ImageData{}, &genai.APIError{StatusCode: 500, Message: "internal"}
		}
		return genai.ImageData{Bytes: []byte(prompt)}, nil
	}}
	p := newTestPipeline(gen, newFakeKeys("k1"))

	store := NewSlotStore(sequencePrompts(5))
	err := p.FillSequence(context.Background(), store, genai.AspectLandscape)
	if err == nil {
		t.Fatal("expected mid-batch failure")
	}
	if !strings.Contains(err.Error(), "generating image 4") {
		t.Errorf("error = %v, want position annotation", err)
	}

	// Three completed slots survive; the two that never filled are gone.
	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}
	if store.FilledCount() != 3 {
		t.Errorf("FilledCount() = %d, want 3", store.FilledCount())
	}
	if gen.imageCalls.Load() != 4 {
		t.Errorf("image calls = %d, want 4 (stop at first failure)", gen.imageCalls.Load())
	}
}

func TestImageSequenceRunsFullBatch(t *testing.T) {
	gen := &fakeGen{contentFn: func(key string, req genai.ContentRequest) (string, error) {
		return `["p1","p2","p3"]`, nil
	}}
	p := newTestPipeline(gen, newFakeKeys("k1"))

	store, err := p.ImageSequence(context.Background(), SequenceRequest{
		Scenes: []Scene{{Title: "a", Summary: "s"}},
		Count:  3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Len() != 3 || store.FilledCount() != 3 {
		t.Errorf("store = %d/%d filled, want 3/3", store.FilledCount(), store.Len())
	}
	for i, slot := range store.Snapshot() {
		if string(slot.Image.Bytes) != slot.Prompt {
			t.Errorf("slot %d payload does not match its prompt", i)
		}
	}
}

func TestImageSequenceReturnsStoreOnPartialFailure(t *testing.T) {
	gen := &fakeGen{
		contentFn: func(key string, req genai.ContentRequest) (string, error) {
			return `["p1","p2","p3"]`, nil
		},
		imageFn: func(key, prompt string) (genai.ImageData, error) {
			if prompt == "p2" {
				return genai.ImageData{}, &genai.APIError{StatusCode: 500, Message: "internal"}
			}
			return genai.ImageData{Bytes: []byte(prompt)}, nil
		},
	}
	p := newTestPipeline(gen, newFakeKeys("k1"))

	store, err := p.ImageSequence(context.Background(), SequenceRequest{Count: 3})
	if err == nil {
		t.Fatal("expected partial-batch error")
	}
	if store == nil {
		t.Fatal("store must survive a partial failure")
	}
	if store.Len() != 1 || store.FilledCount() != 1 {
		t.Errorf("store = %d/%d filled, want 1/1", store.FilledCount(), store.Len())
	}
}

func TestRegenerateSlot(t *testing.T) {
	var calls int
	gen := &fakeGen{imageFn: func(key, prompt string) (genai.ImageData, error) {
		calls++
		return genai.ImageData{Bytes: []byte(fmt.Sprintf("%s take %d", prompt, calls))}, nil
	}}
	p := newTestPipeline(gen, newFakeKeys("k1"))

	store := NewSlotStore(sequencePrompts(2))
	if err := p.FillSequence(context.Background(), store, ""); err != nil {
		t.Fatalf("fill: %v", err)
	}
	target := store.Snapshot()[0]

	if err := p.RegenerateSlot(context.Background(), store, target.ID, ""); err != nil {
		t.Fatalf("regenerate: %v", err)
	}

	snap := store.Snapshot()
	if string(snap[0].Image.Bytes) != "prompt 1 take 3" {
		t.Errorf("slot 0 = %q, want the regenerated take", snap[0].Image.Bytes)
	}
	if string(snap[1].Image.Bytes) != "prompt 2 take 2" {
		t.Errorf("slot 1 = %q, want the original take untouched", snap[1].Image.Bytes)
	}

	if err := p.RegenerateSlot(context.Background(), store, "missing", ""); err == nil {
		t.Error("expected error for unknown slot id")
	}
}
