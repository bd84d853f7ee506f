package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

var _ core.Completer = (*GeminiLLM)(nil)

type GeminiLLM struct {
	client      *genai.Client
	modelName   string
	temperature float32
	maxTokens   int32
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string, temperature float64, maxTokens int) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{
		client:      cl,
		modelName:   modelName,
		temperature: float32(temperature),
		maxTokens:   int32(maxTokens),
	}, nil
}

func (g *GeminiLLM) Name() string { return "gemini" }

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Complete maps system messages to the system instruction and replays the
// rest as chat history, sending the final user message.
func (g *GeminiLLM) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	system, history, last, err := splitForGemini(messages)
	if err != nil {
		return "", err
	}

	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(g.temperature)
	if g.maxTokens > 0 {
		m.SetMaxOutputTokens(g.maxTokens)
	}
	if system != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	cs := m.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", core.ErrFatalModel)
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}

// splitForGemini separates the system text, the prior turns and the final
// user turn. Gemini calls the assistant role "model", expects the history
// to open with a user turn and rejects consecutive turns of one role, so
// leading model turns are dropped and neighbours of the same role merged.
func splitForGemini(messages []models.ChatMessage) (string, []*genai.Content, []genai.Part, error) {
	var (
		system  []string
		history []*genai.Content
	)
	for _, msg := range messages {
		role := "user"
		switch msg.Role {
		case models.RoleSystem:
			system = append(system, msg.Content)
			continue
		case models.RoleAssistant:
			role = "model"
		}
		if len(history) == 0 && role == "model" {
			continue
		}
		if n := len(history); n > 0 && history[n-1].Role == role {
			history[n-1].Parts = append(history[n-1].Parts, genai.Text(msg.Content))
			continue
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
	}
	if len(history) == 0 || history[len(history)-1].Role != "user" {
		return "", nil, nil, fmt.Errorf("%w: conversation must end with a user message", core.ErrFatalModel)
	}
	last := history[len(history)-1].Parts
	return strings.Join(system, "\n\n"), history[:len(history)-1], last, nil
}

func classifyGeminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: gemini timed out: %v", core.ErrTransientModel, err)
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if st := apiErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted:
				return fmt.Errorf("%w: gemini: %v", core.ErrTransientModel, err)
			}
			return fmt.Errorf("%w: gemini: %v", core.ErrFatalModel, err)
		}
		if transientHTTP(apiErr.HTTPCode()) {
			return fmt.Errorf("%w: gemini: %v", core.ErrTransientModel, err)
		}
		return fmt.Errorf("%w: gemini: %v", core.ErrFatalModel, err)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) && transientHTTP(gErr.Code) {
		return fmt.Errorf("%w: gemini: %v", core.ErrTransientModel, err)
	}
	return fmt.Errorf("%w: gemini: %v", core.ErrFatalModel, err)
}

func transientHTTP(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}
