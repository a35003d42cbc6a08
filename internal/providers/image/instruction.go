package image

import (
	"strings"

	"github.com/bitstorm-tech/app.voenix.shop-sub002/internal/domain"
)

// ComposeInstruction joins the prompt text and each slot text in position
// order with single spaces. Blank fragments are skipped.
func ComposeInstruction(p domain.Prompt) string {
	parts := make([]string, 0, len(p.Slots)+1)
	if text := strings.TrimSpace(p.Text); text != "" {
		parts = append(parts, text)
	}
	for _, slot := range p.OrderedSlots() {
		if text := strings.TrimSpace(slot.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
