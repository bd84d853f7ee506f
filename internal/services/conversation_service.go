package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/core/history"
	"github.com/markdave123-py/botgpt/internal/core/retrieval"
	"github.com/markdave123-py/botgpt/internal/models"
)

const (
	maxMessageLength = 10000
	maxTitleLength   = 500
	titleLength      = 50
	defaultPageSize  = 20
	maxPageSize      = 100
)

// ConversationConfig holds the turn budget and model retry policy.
//
// ContextTokens:  total prompt budget in estimated tokens (e.g., 8000).
// ReplyTokens:    headroom reserved for the model's answer (e.g., 1000).
// TopK:           chunks retrieved per grounded turn.
// MaxRetries:     retries after the first attempt on transient model errors.
// RetryBaseDelay: first backoff delay; doubled on every retry (1s, 2s, 4s).
// ModelTimeout:   bound on a single model call.
type ConversationConfig struct {
	ContextTokens    int
	ReplyTokens      int
	TopK             int
	IncludeZeroScore bool
	MaxRetries       int
	RetryBaseDelay   time.Duration
	ModelTimeout     time.Duration
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ConversationOption customizes a ConversationService.
type ConversationOption func(*ConversationService)

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(fn SleepFunc) ConversationOption {
	return func(s *ConversationService) { s.sleep = fn }
}

// ConversationService runs conversations: it stores messages, builds the
// prompt from history and retrieved context, and calls the model.
type ConversationService struct {
	db        core.DbClient
	llm       core.Completer
	retriever *retrieval.Retriever
	cfg       ConversationConfig
	log       *zap.Logger
	locks     *keyedMutex
	sleep     SleepFunc
}

func NewConversationService(db core.DbClient, llm core.Completer, cfg ConversationConfig, log *zap.Logger, opts ...ConversationOption) *ConversationService {
	s := &ConversationService{
		db:        db,
		llm:       llm,
		retriever: retrieval.NewRetriever(cfg.TopK, cfg.IncludeZeroScore),
		cfg:       cfg,
		log:       log,
		locks:     newKeyedMutex(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateConversationInput is the first turn of a new conversation. Title is
// optional and derived from FirstMessage when empty.
type CreateConversationInput struct {
	UserID       string      `json:"user_id"`
	FirstMessage string      `json:"first_message"`
	Mode         models.Mode `json:"mode"`
	DocumentIDs  []string    `json:"document_ids,omitempty"`
	Title        string      `json:"title,omitempty"`
}

// TurnResult is what a completed turn hands back to the caller.
type TurnResult struct {
	ConversationID string          `json:"conversation_id"`
	Message        *models.Message `json:"message"`
	TotalTokens    int             `json:"total_tokens"`
}

// ConversationDetail is a conversation with its full history.
type ConversationDetail struct {
	models.Conversation
	Messages    []models.Message `json:"messages"`
	DocumentIDs []string         `json:"document_ids"`
}

// ConversationPage is one page of a user's conversations.
type ConversationPage struct {
	Items      []models.ConversationSummary `json:"items"`
	Total      int                          `json:"total"`
	Page       int                          `json:"page"`
	PageSize   int                          `json:"page_size"`
	TotalPages int                          `json:"total_pages"`
}

// Create starts a conversation and runs its first turn. If the conversation
// was stored but the turn failed, the partial result (conversation id and
// token total) is returned together with the error.
func (s *ConversationService) Create(ctx context.Context, in CreateConversationInput) (*TurnResult, error) {
	if err := validateContent(in.FirstMessage); err != nil {
		return nil, err
	}
	if in.Mode == "" {
		in.Mode = models.ModeOpenChat
	}
	if !in.Mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", core.ErrValidation, in.Mode)
	}
	title := strings.TrimSpace(in.Title)
	if len([]rune(title)) > maxTitleLength {
		return nil, fmt.Errorf("%w: title exceeds %d characters", core.ErrValidation, maxTitleLength)
	}
	if _, err := s.db.GetUser(ctx, in.UserID); err != nil {
		return nil, err
	}

	docIDs, err := s.checkDocuments(ctx, in.UserID, in.Mode, in.DocumentIDs)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = deriveTitle(in.FirstMessage)
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Mode:      in.Mode,
		Title:     title,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.CreateConversation(ctx, conv, docIDs); err != nil {
		return nil, err
	}
	s.log.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", conv.UserID),
		zap.String("mode", string(conv.Mode)),
		zap.Int("documents", len(docIDs)))

	unlock := s.locks.Lock(conv.ID)
	defer unlock()

	userMsg, err := s.appendUserMessage(ctx, conv, in.FirstMessage)
	if err != nil {
		// a conversation never exists without its first message
		if delErr := s.db.DeleteConversation(context.WithoutCancel(ctx), conv.ID); delErr != nil {
			s.log.Error("remove conversation after first message failed",
				zap.String("conversation_id", conv.ID), zap.Error(delErr))
		}
		return nil, err
	}
	return s.reply(ctx, conv, userMsg)
}

// AppendMessage adds a user message to an active conversation and runs a
// turn.
func (s *ConversationService) AppendMessage(ctx context.Context, conversationID, content string) (*TurnResult, error) {
	unlock := s.locks.Lock(conversationID)
	defer unlock()

	conv, err := s.activeConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}
	return s.userTurn(ctx, conv, content)
}

// Delete removes a conversation with its messages and document links.
func (s *ConversationService) Delete(ctx context.Context, conversationID string) error {
	unlock := s.locks.Lock(conversationID)
	defer unlock()

	if err := s.db.DeleteConversation(ctx, conversationID); err != nil {
		return err
	}
	s.log.Info("conversation deleted", zap.String("conversation_id", conversationID))
	return nil
}

// Get returns an active conversation with its ordered messages.
func (s *ConversationService) Get(ctx context.Context, conversationID string) (*ConversationDetail, error) {
	conv, err := s.activeConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.db.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	docIDs, err := s.db.ListConversationDocumentIDs(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &ConversationDetail{Conversation: *conv, Messages: msgs, DocumentIDs: docIDs}, nil
}

// List pages through a user's conversations, most recently updated first.
// page starts at 1; pageSize 0 selects the default.
func (s *ConversationService) List(ctx context.Context, userID string, page, pageSize int) (*ConversationPage, error) {
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", core.ErrValidation)
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return nil, fmt.Errorf("%w: page_size must be between 1 and %d", core.ErrValidation, maxPageSize)
	}
	if _, err := s.db.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	items, total, err := s.db.ListConversations(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &ConversationPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func (s *ConversationService) activeConversation(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.db.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.IsActive {
		return nil, fmt.Errorf("%w: conversation %s", core.ErrNotFound, id)
	}
	return conv, nil
}

// checkDocuments validates document ids for the mode and returns them
// without duplicates.
func (s *ConversationService) checkDocuments(ctx context.Context, userID string, mode models.Mode, ids []string) ([]string, error) {
	if mode != models.ModeGroundedRAG {
		if len(ids) > 0 {
			return nil, fmt.Errorf("%w: document_ids are only allowed in %s mode", core.ErrValidation, models.ModeGroundedRAG)
		}
		return nil, nil
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		doc, err := s.db.GetDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc.UserID != userID {
			return nil, fmt.Errorf("%w: document %s belongs to another user", core.ErrForbidden, id)
		}
		out = append(out, id)
	}
	return out, nil
}

// userTurn stores the user message and replies to it. The caller holds the
// conversation lock.
func (s *ConversationService) userTurn(ctx context.Context, conv *models.Conversation, content string) (*TurnResult, error) {
	userMsg, err := s.appendUserMessage(ctx, conv, content)
	if err != nil {
		return nil, err
	}
	return s.reply(ctx, conv, userMsg)
}

func (s *ConversationService) appendUserMessage(ctx context.Context, conv *models.Conversation, content string) (*models.Message, error) {
	return s.db.AppendMessage(ctx, conv.ID, models.RoleUser, content, history.EstimateTokens(content))
}

// reply runs the model turn for a stored user message. It is detached from
// ctx cancellation so a reply is never lost once the model was asked.
func (s *ConversationService) reply(ctx context.Context, conv *models.Conversation, userMsg *models.Message) (*TurnResult, error) {
	reply, err := s.turn(context.WithoutCancel(ctx), conv)
	if err != nil {
		s.log.Error("turn failed",
			zap.String("conversation_id", conv.ID),
			zap.Int("user_sequence", userMsg.SequenceNumber),
			zap.Error(err))
		partial := &TurnResult{ConversationID: conv.ID}
		if cur, gerr := s.db.GetConversation(context.WithoutCancel(ctx), conv.ID); gerr == nil {
			partial.TotalTokens = cur.TotalTokens
		}
		return partial, err
	}

	cur, err := s.db.GetConversation(context.WithoutCancel(ctx), conv.ID)
	if err != nil {
		return nil, err
	}
	return &TurnResult{ConversationID: conv.ID, Message: reply, TotalTokens: cur.TotalTokens}, nil
}

// turn builds the prompt from the stored history, asks the model and
// stores the assistant reply. Nothing is stored when the model fails.
func (s *ConversationService) turn(ctx context.Context, conv *models.Conversation) (*models.Message, error) {
	stored, err := s.db.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	contextBlock := ""
	if conv.Mode == models.ModeGroundedRAG {
		contextBlock, err = s.retrieveContext(ctx, conv.ID, latestUserMessage(stored))
		if err != nil {
			return nil, err
		}
	}

	system := systemMessages(conv.Mode, contextBlock)
	systemText := make([]string, len(system))
	for i, m := range system {
		systemText[i] = m.Content
	}
	systemTokens := history.SumTokens(systemText...)
	budget := s.cfg.ContextTokens - s.cfg.ReplyTokens - systemTokens
	if budget <= 0 {
		return nil, fmt.Errorf("%w: history budget exhausted (context %d, reply %d, system %d tokens)",
			core.ErrValidation, s.cfg.ContextTokens, s.cfg.ReplyTokens, systemTokens)
	}

	prompt := make([]models.ChatMessage, 0, len(system)+len(stored))
	prompt = append(prompt, system...)
	for _, m := range stored {
		prompt = append(prompt, models.ChatMessage{Role: m.Role, Content: m.Content})
	}
	prompt, err = history.Truncate(prompt, budget)
	if err != nil {
		return nil, err
	}

	reply, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	msg, err := s.db.AppendMessage(ctx, conv.ID, models.RoleAssistant, reply, history.EstimateTokens(reply))
	if err != nil {
		return nil, err
	}
	s.log.Debug("turn completed",
		zap.String("conversation_id", conv.ID),
		zap.Int("prompt_messages", len(prompt)),
		zap.Int("history_budget", budget),
		zap.Int("sequence", msg.SequenceNumber))
	return msg, nil
}

func (s *ConversationService) retrieveContext(ctx context.Context, conversationID, query string) (string, error) {
	docIDs, err := s.db.ListConversationDocumentIDs(ctx, conversationID)
	if err != nil {
		return "", err
	}
	if len(docIDs) == 0 {
		return "", nil
	}
	chunks, err := s.db.GetDocumentChunks(ctx, docIDs)
	if err != nil {
		return "", err
	}
	scored, err := s.retriever.Search(chunks, query)
	if err != nil {
		return "", err
	}
	return retrieval.BuildContext(scored), nil
}

// complete calls the model with bounded retries. Transient failures are
// retried after RetryBaseDelay, then twice that, and so on; running out of
// retries, or any other failure, ends with core.ErrFatalModel.
func (s *ConversationService) complete(ctx context.Context, prompt []models.ChatMessage) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.cfg.RetryBaseDelay << (attempt - 1)
			s.log.Warn("model call failed, retrying",
				zap.String("provider", s.llm.Name()),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(lastErr))
			if err := s.sleep(ctx, delay); err != nil {
				return "", fmt.Errorf("%w: %v", core.ErrFatalModel, err)
			}
		}

		reply, err := s.callModel(ctx, prompt)
		if err == nil {
			return reply, nil
		}
		if !isTransient(err) {
			if errors.Is(err, core.ErrFatalModel) {
				return "", err
			}
			return "", fmt.Errorf("%w: %v", core.ErrFatalModel, err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: gave up after %d attempts: %v", core.ErrFatalModel, s.cfg.MaxRetries+1, lastErr)
}

func (s *ConversationService) callModel(ctx context.Context, prompt []models.ChatMessage) (string, error) {
	if s.cfg.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ModelTimeout)
		defer cancel()
	}
	reply, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: empty reply", core.ErrFatalModel)
	}
	return reply, nil
}

func isTransient(err error) bool {
	return errors.Is(err, core.ErrTransientModel) || errors.Is(err, context.DeadlineExceeded)
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: message content is required", core.ErrValidation)
	}
	if len([]rune(content)) > maxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", core.ErrValidation, maxMessageLength)
	}
	return nil
}

// deriveTitle keeps the first 50 characters of the message, marking a cut
// with "...".
func deriveTitle(message string) string {
	message = strings.TrimSpace(message)
	rs := []rune(message)
	if len(rs) <= titleLength {
		return message
	}
	return string(rs[:titleLength]) + "..."
}

func latestUserMessage(msgs []models.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
