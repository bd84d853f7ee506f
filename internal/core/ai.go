package core

import (
	"context"

	"github.com/markdave123-py/botgpt/internal/models"
)

// Completer produces the assistant's next reply for an ordered message list.
// Implementations fail with ErrTransientModel (timeouts, rate limits, 5xx)
// or ErrFatalModel (bad request, auth); anything else is treated as fatal.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
	Name() string
}
