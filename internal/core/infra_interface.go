package core

import (
	"context"
	"io"

	"github.com/markdave123-py/botgpt/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/SQLite so higher layers never depend on a specific DB.
// Lookups of missing rows fail with ErrNotFound.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	// CreateConversation inserts the conversation and its document
	// associations in one transaction.
	CreateConversation(ctx context.Context, conv *models.Conversation, documentIDs []string) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string, offset, limit int) ([]models.ConversationSummary, int, error)
	ListConversationDocumentIDs(ctx context.Context, conversationID string) ([]string, error)
	DeleteConversation(ctx context.Context, id string) error

	// ListMessages returns the history ordered by sequence number.
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	// AppendMessage assigns the next sequence number and recomputes the
	// conversation's total_tokens in the same transaction as the insert.
	AppendMessage(ctx context.Context, conversationID string, role models.Role, content string, tokenCount int) (*models.Message, error)

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	CreateChunks(ctx context.Context, documentID string, chunks []models.DocumentChunk) error
	GetDocumentChunks(ctx context.Context, documentIDs []string) ([]models.DocumentChunk, error)

	Ping(ctx context.Context) error
	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// It’s abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, key string) error
	GetFile(ctx context.Context, key string) ([]byte, error)
}
