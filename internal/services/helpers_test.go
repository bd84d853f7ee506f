package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	db "github.com/markdave123-py/botgpt/internal/core/database"
	"github.com/markdave123-py/botgpt/internal/core/ingestion_engine"
	"github.com/markdave123-py/botgpt/internal/models"
)

// step is one scripted model outcome.
type step struct {
	reply string
	err   error
	block bool // wait for the call's context to end
}

// scriptedLLM replays steps in order and answers "ok" once they run out.
type scriptedLLM struct {
	mu     sync.Mutex
	steps  []step
	calls  [][]models.ChatMessage
	onCall func(n int)
}

func (s *scriptedLLM) Name() string { return "scripted" }

func (s *scriptedLLM) Complete(ctx context.Context, msgs []models.ChatMessage) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]models.ChatMessage(nil), msgs...))
	n := len(s.calls)
	var st step
	if len(s.steps) > 0 {
		st, s.steps = s.steps[0], s.steps[1:]
	} else {
		st = step{reply: "ok"}
	}
	hook := s.onCall
	s.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if st.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return st.reply, st.err
}

func (s *scriptedLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *scriptedLLM) lastCall() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

// sleepRecorder captures backoff delays without waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

type fixture struct {
	store  *db.DatabaseClient
	llm    *scriptedLLM
	sleeps *sleepRecorder
	convs  *ConversationService
	users  *UserService
	docs   *DocumentService
	ingest *ingestion_engine.DocumentIngestor
	cfg    ConversationConfig
}

func defaultConversationConfig() ConversationConfig {
	return ConversationConfig{
		ContextTokens:    8000,
		ReplyTokens:      1000,
		TopK:             3,
		IncludeZeroScore: true,
		MaxRetries:       3,
		RetryBaseDelay:   time.Second,
		ModelTimeout:     5 * time.Second,
	}
}

func newFixture(t *testing.T, cfg ConversationConfig) *fixture {
	t.Helper()
	store, err := db.NewSQLiteClient(context.Background(), filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := zap.NewNop()
	llm := &scriptedLLM{}
	sleeps := &sleepRecorder{}
	ing, err := ingestion_engine.NewDocumentIngestor(store, nil, ingestion_engine.NewDocconvExtractor(false),
		&ingestion_engine.IngestConfig{ChunkSize: 200, ChunkOverlap: 20}, log)
	require.NoError(t, err)

	return &fixture{
		store:  store,
		llm:    llm,
		sleeps: sleeps,
		convs:  NewConversationService(store, llm, cfg, log, WithSleep(sleeps.sleep)),
		users:  NewUserService(store),
		docs:   NewDocumentService(store, ing, log),
		ingest: ing,
		cfg:    cfg,
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), name, "")
	require.NoError(t, err)
	return u
}

func (f *fixture) document(t *testing.T, userID, content string) *models.Document {
	t.Helper()
	d, err := f.docs.Upload(context.Background(), ingestion_engine.IngestInput{UserID: userID, FileName: "doc.txt", Content: content})
	require.NoError(t, err)
	return d
}

// assertInvariants checks sequence numbers run 1..N and total_tokens is the
// sum of the message token counts.
func (f *fixture) assertInvariants(t *testing.T, conversationID string) []models.Message {
	t.Helper()
	ctx := context.Background()
	msgs, err := f.store.ListMessages(ctx, conversationID)
	require.NoError(t, err)
	conv, err := f.store.GetConversation(ctx, conversationID)
	require.NoError(t, err)

	sum := 0
	for i, m := range msgs {
		require.Equal(t, i+1, m.SequenceNumber)
		sum += m.TokenCount
	}
	require.Equal(t, sum, conv.TotalTokens)
	return msgs
}
