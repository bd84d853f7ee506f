package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/markdave123-py/botgpt/internal/models"
)

// lastMessagePreview bounds ConversationSummary.LastMessage, in characters.
const lastMessagePreview = 100

// CreateConversation inserts the conversation and its document links in
// one transaction.
func (c *DatabaseClient) CreateConversation(ctx context.Context, conv *models.Conversation, documentIDs []string) error {
	if conv == nil {
		return errors.New("nil conversation")
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const insConv = `
		INSERT INTO conversations (id, user_id, mode, title, is_active, total_tokens, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, c.d.rebind(insConv),
		conv.ID, conv.UserID, string(conv.Mode), conv.Title, conv.IsActive, conv.TotalTokens, conv.CreatedAt, conv.UpdatedAt,
	); err != nil {
		return mapError(err, "conversation")
	}

	if len(documentIDs) > 0 {
		stmt, err := tx.PrepareContext(ctx, c.d.rebind(`INSERT INTO conversation_documents (conversation_id, document_id) VALUES (?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, docID := range documentIDs {
			if _, err := stmt.ExecContext(ctx, conv.ID, docID); err != nil {
				return mapError(err, "conversation document "+docID)
			}
		}
	}
	return tx.Commit()
}

const conversationColumns = `id, user_id, mode, title, is_active, total_tokens, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(r rowScanner, conv *models.Conversation, extra ...any) error {
	var mode string
	dest := append([]any{
		&conv.ID, &conv.UserID, &mode, &conv.Title, &conv.IsActive, &conv.TotalTokens, &conv.CreatedAt, &conv.UpdatedAt,
	}, extra...)
	if err := r.Scan(dest...); err != nil {
		return err
	}
	conv.Mode = models.Mode(mode)
	return nil
}

func (c *DatabaseClient) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	q := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`
	var conv models.Conversation
	if err := scanConversation(c.queryRow(ctx, q, id), &conv); err != nil {
		return nil, mapError(err, "conversation "+id)
	}
	return &conv, nil
}

// ListConversations returns one page of a user's active conversations,
// most recently updated first, plus the total count.
func (c *DatabaseClient) ListConversations(ctx context.Context, userID string, offset, limit int) ([]models.ConversationSummary, int, error) {
	var total int
	if err := c.queryRow(ctx, `SELECT COUNT(*) FROM conversations WHERE user_id = ? AND is_active = ?`, userID, true).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
		SELECT c.id, c.user_id, c.mode, c.title, c.is_active, c.total_tokens, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
			COALESCE((SELECT m.content FROM messages m WHERE m.conversation_id = c.id
				ORDER BY m.sequence_number DESC LIMIT 1), '')
		FROM conversations c
		WHERE c.user_id = ? AND c.is_active = ?
		ORDER BY c.updated_at DESC, c.id
		LIMIT ? OFFSET ?
	`
	rows, err := c.query(ctx, q, userID, true, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.ConversationSummary{}
	for rows.Next() {
		var s models.ConversationSummary
		if err := scanConversation(rows, &s.Conversation, &s.MessageCount, &s.LastMessage); err != nil {
			return nil, 0, err
		}
		if rs := []rune(s.LastMessage); len(rs) > lastMessagePreview {
			s.LastMessage = string(rs[:lastMessagePreview])
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (c *DatabaseClient) ListConversationDocumentIDs(ctx context.Context, conversationID string) ([]string, error) {
	const q = `SELECT document_id FROM conversation_documents WHERE conversation_id = ? ORDER BY document_id`
	rows, err := c.query(ctx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteConversation removes the conversation; messages and document links
// go with it through ON DELETE CASCADE.
func (c *DatabaseClient) DeleteConversation(ctx context.Context, id string) error {
	return c.deleteByID(ctx, "conversations", "conversation", id)
}

// lockConversation checks inside tx that the conversation exists and is
// active, taking a row lock where the dialect supports one.
func (c *DatabaseClient) lockConversation(ctx context.Context, tx *sql.Tx, id string) error {
	q := c.d.rebind(`SELECT is_active FROM conversations WHERE id = ?` + c.d.lockRow)
	var active bool
	if err := tx.QueryRowContext(ctx, q, id).Scan(&active); err != nil {
		return mapError(err, "conversation "+id)
	}
	if !active {
		return notFound("conversation", id)
	}
	return nil
}
