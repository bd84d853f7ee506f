package models

import (
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Mode selects how a conversation produces replies.
type Mode string

const (
	ModeOpenChat    Mode = "open_chat"
	ModeGroundedRAG Mode = "grounded_rag"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeOpenChat || m == ModeGroundedRAG
}

// User owns conversations and documents.
type User struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Conversation is one chat thread. TotalTokens always equals the sum of its
// messages' TokenCount.
type Conversation struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Mode        Mode      `db:"mode" json:"mode"`
	Title       string    `db:"title" json:"title"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	TotalTokens int       `db:"total_tokens" json:"total_tokens"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ConversationSummary is the list view of a conversation.
type ConversationSummary struct {
	Conversation
	MessageCount int    `json:"message_count"`
	LastMessage  string `json:"last_message,omitempty"`
}

// Message is an immutable entry in a conversation's history.
type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	Role           Role      `db:"role" json:"role"`
	Content        string    `db:"content" json:"content"`
	TokenCount     int       `db:"token_count" json:"token_count"`
	SequenceNumber int       `db:"sequence_number" json:"sequence_number"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Document is an uploaded text source for grounded conversations.
type Document struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	FileName   string    `db:"filename" json:"filename"`
	Content    string    `db:"content" json:"-"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	FileSize   int64     `db:"file_size" json:"file_size"`
	StorageKey string    `db:"storage_key" json:"storage_key,omitempty"` // archived original, if any
	ChunkCount int       `db:"-" json:"chunk_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DocumentChunk represents one retrieval unit cut from a document.
// Content is Document.Content[CharStart:CharEnd] in rune offsets.
type DocumentChunk struct {
	ID         string `db:"id" json:"id"`
	DocumentID string `db:"document_id" json:"document_id"`
	Content    string `db:"content" json:"content"`
	ChunkIndex int    `db:"chunk_index" json:"chunk_index"`
	CharStart  int    `db:"char_start" json:"char_start"`
	CharEnd    int    `db:"char_end" json:"char_end"`
}

// ChatMessage is the provider-facing shape of a message.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
