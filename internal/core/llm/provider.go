package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/config"
	"github.com/markdave123-py/botgpt/internal/core"
)

// NewCompleter builds the provider selected by cfg.LLMProvider. A Groq
// provider without an API key falls back to MockLLM.
func NewCompleter(ctx context.Context, cfg *config.Config, log *zap.Logger) (core.Completer, error) {
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		if cfg.LLMAPIKey == "" {
			log.Warn("Groq API key not provided, falling back to mock mode")
			return MockLLM{}, nil
		}
		return NewGroqLLM(GroqOptions{
			APIKey:            cfg.LLMAPIKey,
			BaseURL:           cfg.LLMBaseURL,
			Model:             cfg.LLMModel,
			Temperature:       cfg.LLMTemperature,
			MaxTokens:         cfg.ReplyTokens,
			RequestsPerSecond: cfg.LLMRequestsPerSecond,
		}, log), nil
	case config.ProviderGemini:
		return NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.LLMTemperature, cfg.ReplyTokens)
	case config.ProviderMock:
		return MockLLM{}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
