package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

func newTestGroq(url string) *GroqLLM {
	return NewGroqLLM(GroqOptions{
		APIKey:      "test-key",
		BaseURL:     url + "/",
		Model:       "llama-3.1-8b-instant",
		Temperature: 0.7,
		MaxTokens:   1000,
	}, zap.NewNop())
}

var conversation = []models.ChatMessage{
	{Role: models.RoleSystem, Content: "You are BOT GPT."},
	{Role: models.RoleUser, Content: "Hi there"},
}

func TestGroqLLM_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.1-8b-instant", req.Model)
		assert.Equal(t, 1000, req.MaxTokens)
		assert.InDelta(t, 0.7, req.Temperature, 1e-9)
		assert.Equal(t, conversation, req.Messages)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama","choices":[{"message":{"role":"assistant","content":"Hello!"}}],"usage":{"total_tokens":12}}`))
	}))
	defer srv.Close()

	got, err := newTestGroq(srv.URL).Complete(context.Background(), conversation)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", got)
}

func TestGroqLLM_StatusClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   error
	}{
		{http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, core.ErrTransientModel},
		{http.StatusInternalServerError, `oops`, core.ErrTransientModel},
		{http.StatusServiceUnavailable, ``, core.ErrTransientModel},
		{http.StatusUnauthorized, `{"error":{"message":"invalid api key"}}`, core.ErrFatalModel},
		{http.StatusBadRequest, `{"error":{"message":"bad model"}}`, core.ErrFatalModel},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestGroq(srv.URL).Complete(context.Background(), conversation)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGroqLLM_MalformedResponseIsFatal(t *testing.T) {
	for _, body := range []string{`not json`, `{"choices":[]}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		_, err := newTestGroq(srv.URL).Complete(context.Background(), conversation)
		srv.Close()
		require.ErrorIs(t, err, core.ErrFatalModel, body)
	}
}

func TestGroqLLM_TimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestGroq(srv.URL).Complete(ctx, conversation)
	require.ErrorIs(t, err, core.ErrTransientModel)
}

func TestGroqLLM_ConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestGroq(url).Complete(context.Background(), conversation)
	require.ErrorIs(t, err, core.ErrTransientModel)
}

func TestGroqLLM_Pacing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	g := NewGroqLLM(GroqOptions{BaseURL: srv.URL, Model: "m", RequestsPerSecond: 5}, zap.NewNop())
	start := time.Now()
	for i := 0; i < 7; i++ {
		_, err := g.Complete(context.Background(), conversation)
		require.NoError(t, err)
	}
	// burst of 5 then two more at 5/s
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)
}
