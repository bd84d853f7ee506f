package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

// maxResponseSize caps how much of a completion response is read.
const maxResponseSize = 4 << 20

var _ core.Completer = (*GroqLLM)(nil)

// GroqLLM talks to any OpenAI-compatible chat completions endpoint; Groq is
// the default base URL.
type GroqLLM struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	limiter     *rate.Limiter
	log         *zap.Logger
}

// GroqOptions configures NewGroqLLM. RequestsPerSecond <= 0 disables
// client-side pacing.
type GroqOptions struct {
	APIKey            string
	BaseURL           string
	Model             string
	Temperature       float64
	MaxTokens         int
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

func NewGroqLLM(opts GroqOptions, log *zap.Logger) *GroqLLM {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &GroqLLM{
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		httpClient:  hc,
		limiter:     limiter,
		log:         log,
	}
}

func (g *GroqLLM) Name() string { return "groq" }

type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message models.ChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one chat completion request. Rate limiting, server errors
// and timeouts fail with core.ErrTransientModel; everything else with
// core.ErrFatalModel.
func (g *GroqLLM) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: waiting for rate limiter: %v", core.ErrTransientModel, err)
	}

	body, err := json.Marshal(chatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", core.ErrFatalModel, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", core.ErrFatalModel, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", core.ErrTransientModel, err)
	}
	g.log.Debug("completion response",
		zap.String("model", g.model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, data)
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", core.ErrFatalModel, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", core.ErrFatalModel)
	}
	return out.Choices[0].Message.Content, nil
}

func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Message
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500 {
		return fmt.Errorf("%w: status %d: %s", core.ErrTransientModel, status, msg)
	}
	return fmt.Errorf("%w: status %d: %s", core.ErrFatalModel, status, msg)
}

// classifyTransportError treats timeouts and connection failures as
// retryable. A cancelled caller is not.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", core.ErrFatalModel, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out: %v", core.ErrTransientModel, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", core.ErrTransientModel, err)
	}
	return fmt.Errorf("%w: %v", core.ErrFatalModel, err)
}
