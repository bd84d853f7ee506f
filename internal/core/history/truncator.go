package history

import (
	"fmt"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

// Truncate selects the messages to send to the model under a sliding-window
// policy.
//
// System messages are always kept and are not charged against maxTokens; the
// caller accounts for them. Other messages are walked newest to oldest and a
// message is kept whenever it still fits in the remaining budget, so a cheap
// older message can survive after a larger one was skipped. A message whose
// own estimate exceeds maxTokens is never included.
//
// The result holds the system messages in their original order followed by
// the kept messages in chronological order.
func Truncate(messages []models.ChatMessage, maxTokens int) ([]models.ChatMessage, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: token budget must be positive, got %d", core.ErrValidation, maxTokens)
	}
	if len(messages) == 0 {
		return []models.ChatMessage{}, nil
	}

	var system, other []models.ChatMessage
	for _, m := range messages {
		if m.Role == models.RoleSystem {
			system = append(system, m)
		} else {
			other = append(other, m)
		}
	}

	keep := make([]bool, len(other))
	used := 0
	for i := len(other) - 1; i >= 0; i-- {
		cost := EstimateTokens(other[i].Content)
		if used+cost <= maxTokens {
			keep[i] = true
			used += cost
		}
	}

	out := make([]models.ChatMessage, 0, len(messages))
	out = append(out, system...)
	for i, m := range other {
		if keep[i] {
			out = append(out, m)
		}
	}
	return out, nil
}
