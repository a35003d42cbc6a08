package domain

import (
	"sort"
	"time"
)

// PromptSlot is a modifier fragment appended to the prompt text in Position order.
type PromptSlot struct {
	ID       int64
	Name     string
	Text     string
	Position int
}

// Prompt is an image-generation template.
type Prompt struct {
	ID        int64
	Title     string
	Text      string
	Active    bool
	Slots     []PromptSlot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderedSlots returns a copy of the slots sorted by position; ties keep their
// stored order.
func (p Prompt) OrderedSlots() []PromptSlot {
	slots := append([]PromptSlot(nil), p.Slots...)
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Position < slots[j].Position
	})
	return slots
}
