// ABOUTME: Placeholder-slot store for batched image generation with incremental fill.
// ABOUTME: Slots are allocated up front, filled sequentially, pruned on batch failure, and individually replaceable.

package pipeline

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/2389-research/storyforge/genai"
)

// Slot is one unit of a batch result: an opaque id, the prompt that produces
// it, and the payload once filled. Image is nil while the slot is pending.
type Slot struct {
	ID     string
	Prompt string
	Image  *genai.ImageData
}

// Filled reports whether the slot carries its payload.
func (s Slot) Filled() bool { return s.Image != nil }

// SlotStore accumulates a batch of independently generated artifacts. All N
// placeholder slots exist before any remote call begins, so a reader can
// render N pending tiles immediately. Snapshots never observe a torn payload:
// a slot is either empty or carries its complete final image.
type SlotStore struct {
	mu    sync.Mutex
	slots []Slot
}

// NewSlotStore allocates one empty placeholder slot per prompt, in order.
func NewSlotStore(prompts []string) *SlotStore {
	slots := make([]Slot, len(prompts))
	for i, prompt := range prompts {
		slots[i] = Slot{ID: uuid.NewString(), Prompt: prompt}
	}
	return &SlotStore{slots: slots}
}

// Len returns the current number of slots.
func (s *SlotStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Snapshot returns a copy of all slots in prompt order.
func (s *SlotStore) Snapshot() []Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// FilledCount returns how many slots carry a payload.
func (s *SlotStore) FilledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, slot := range s.slots {
		if slot.Filled() {
			n++
		}
	}
	return n
}

// fill writes the payload of the slot at index i. Each slot is written
// exactly once during a batch.
func (s *SlotStore) fill(i int, img genai.ImageData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.slots) {
		s.slots[i].Image = &img
	}
}

// pruneEmpty removes all unfilled slots. Called when a batch fails mid-way:
// already-filled slots remain available for the caller to keep or discard.
func (s *SlotStore) pruneEmpty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.slots[:0]
	for _, slot := range s.slots {
		if slot.Filled() {
			kept = append(kept, slot)
		}
	}
	s.slots = kept
}

// Get returns the slot with the given id.
func (s *SlotStore) Get(id string) (Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range s.slots {
		if slot.ID == id {
			return slot, true
		}
	}
	return Slot{}, false
}

// replace swaps in a new payload for the slot with the given id, leaving
// sibling slots untouched.
func (s *SlotStore) replace(id string, img genai.ImageData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		if s.slots[i].ID == id {
			s.slots[i].Image = &img
			return nil
		}
	}
	return fmt.Errorf("no slot with id %s", id)
}
