package llm

import (
	"context"
	"strings"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

var _ core.Completer = MockLLM{}

// MockLLM answers without a network call. It is used when no provider key
// is configured and in development.
type MockLLM struct{}

func (MockLLM) Name() string { return "mock" }

func (MockLLM) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Content
	}
	lower := strings.ToLower(last)
	preview := last
	if rs := []rune(last); len(rs) > 50 {
		preview = string(rs[:50])
	}

	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return "Hello! I'm BOT GPT, your AI assistant. How can I help you today?", nil
	case strings.Contains(last, "?"):
		return "That's an interesting question! Based on your query '" + preview +
			"...', here's my response: [Mock LLM Response] I would need more context to provide a complete answer.", nil
	default:
		return "Thank you for your message. I understand you're asking about: '" + preview +
			"...'. [Mock LLM Response] This is a simulated response for development purposes.", nil
	}
}
