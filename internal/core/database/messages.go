package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/botgpt/internal/models"
)

func (c *DatabaseClient) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	const q = `
		SELECT id, conversation_id, role, content, token_count, sequence_number, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY sequence_number ASC
	`
	rows, err := c.query(ctx, q, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var (
			m    models.Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.TokenCount, &m.SequenceNumber, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// AppendMessage inserts one message at the next sequence number and
// recomputes the conversation's total_tokens and updated_at, all in a
// single transaction. A concurrent append that picked the same sequence
// number fails with core.ErrConflict.
func (c *DatabaseClient) AppendMessage(ctx context.Context, conversationID string, role models.Role, content string, tokenCount int) (*models.Message, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := c.lockConversation(ctx, tx, conversationID); err != nil {
		return nil, err
	}

	var next int
	q := c.d.rebind(`SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM messages WHERE conversation_id = ?`)
	if err := tx.QueryRowContext(ctx, q, conversationID).Scan(&next); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		TokenCount:     tokenCount,
		SequenceNumber: next,
		CreatedAt:      now,
	}
	const ins = `
		INSERT INTO messages (id, conversation_id, role, content, token_count, sequence_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, c.d.rebind(ins),
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.TokenCount, msg.SequenceNumber, msg.CreatedAt,
	); err != nil {
		return nil, mapError(err, "message")
	}

	const upd = `
		UPDATE conversations
		SET total_tokens = (SELECT COALESCE(SUM(token_count), 0) FROM messages WHERE conversation_id = ?),
			updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, c.d.rebind(upd), conversationID, now, conversationID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, mapError(err, "message")
	}
	return msg, nil
}
