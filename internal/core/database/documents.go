package db

import (
	"context"
	"errors"

	"github.com/markdave123-py/botgpt/internal/models"
)

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	const q = `
		INSERT INTO documents (id, user_id, filename, content, mime_type, file_size, storage_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.exec(ctx, q,
		doc.ID, doc.UserID, doc.FileName, doc.Content, doc.MimeType, doc.FileSize, doc.StorageKey, doc.CreatedAt)
	return mapError(err, "document")
}

func (c *DatabaseClient) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	const q = `
		SELECT d.id, d.user_id, d.filename, d.content, d.mime_type, d.file_size, d.storage_key, d.created_at,
			(SELECT COUNT(*) FROM document_chunks dc WHERE dc.document_id = d.id)
		FROM documents d
		WHERE d.id = ?
	`
	var d models.Document
	err := c.queryRow(ctx, q, id).Scan(
		&d.ID, &d.UserID, &d.FileName, &d.Content, &d.MimeType, &d.FileSize, &d.StorageKey, &d.CreatedAt, &d.ChunkCount,
	)
	if err != nil {
		return nil, mapError(err, "document "+id)
	}
	return &d, nil
}

// ListDocumentsByUser returns document metadata without content, newest
// first.
func (c *DatabaseClient) ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error) {
	const q = `
		SELECT d.id, d.user_id, d.filename, d.mime_type, d.file_size, d.storage_key, d.created_at,
			(SELECT COUNT(*) FROM document_chunks dc WHERE dc.document_id = d.id)
		FROM documents d
		WHERE d.user_id = ?
		ORDER BY d.created_at DESC, d.id
	`
	rows, err := c.query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Document{}
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.FileName, &d.MimeType, &d.FileSize, &d.StorageKey, &d.CreatedAt, &d.ChunkCount,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDocument removes the document with its chunks and conversation
// links.
func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string) error {
	return c.deleteByID(ctx, "documents", "document", id)
}

// CreateChunks inserts chunks in a single transaction.
func (c *DatabaseClient) CreateChunks(ctx context.Context, documentID string, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT INTO document_chunks (id, document_id, content, chunk_index, char_start, char_end)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, c.d.rebind(q))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		ch.DocumentID = documentID
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.Content, ch.ChunkIndex, ch.CharStart, ch.CharEnd,
		); err != nil {
			return mapError(err, "document chunk")
		}
	}
	return tx.Commit()
}

// GetDocumentChunks returns the chunks of all listed documents ordered by
// document id then chunk index.
func (c *DatabaseClient) GetDocumentChunks(ctx context.Context, documentIDs []string) ([]models.DocumentChunk, error) {
	out := []models.DocumentChunk{}
	if len(documentIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(documentIDs))
	for i, id := range documentIDs {
		args[i] = id
	}
	q := `
		SELECT id, document_id, content, chunk_index, char_start, char_end
		FROM document_chunks
		WHERE document_id IN (` + placeholders(len(documentIDs)) + `)
		ORDER BY document_id, chunk_index
	`
	rows, err := c.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ch models.DocumentChunk
		if err := rows.Scan(&ch.ID, &ch.DocumentID, &ch.Content, &ch.ChunkIndex, &ch.CharStart, &ch.CharEnd); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}
