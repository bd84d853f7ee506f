package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/core/ingestion_engine"
	"github.com/markdave123-py/botgpt/internal/models"
)

const (
	maxFileNameLength = 500
	maxMimeTypeLength = 100
)

type DocumentService struct {
	db       core.DbClient
	ingestor ingestion_engine.Ingestor
	log      *zap.Logger
}

func NewDocumentService(db core.DbClient, ingestor ingestion_engine.Ingestor, log *zap.Logger) *DocumentService {
	return &DocumentService{db: db, ingestor: ingestor, log: log}
}

// Upload validates the request and hands it to the ingestor, which stores
// the document and its chunks.
func (s *DocumentService) Upload(ctx context.Context, in ingestion_engine.IngestInput) (*models.Document, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.MimeType = strings.TrimSpace(in.MimeType)
	if in.FileName == "" || len([]rune(in.FileName)) > maxFileNameLength {
		return nil, fmt.Errorf("%w: filename must be 1-%d characters", core.ErrValidation, maxFileNameLength)
	}
	if len(in.MimeType) > maxMimeTypeLength {
		return nil, fmt.Errorf("%w: mime_type exceeds %d characters", core.ErrValidation, maxMimeTypeLength)
	}
	if in.Raw == nil && strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", core.ErrValidation)
	}
	return s.ingestor.Ingest(ctx, in)
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.db.GetDocument(ctx, id)
}

// Original returns the document together with its archived upload.
func (s *DocumentService) Original(ctx context.Context, id string) (*models.Document, []byte, error) {
	doc, err := s.db.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.ingestor.Original(ctx, doc)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// ListByUser fails with core.ErrNotFound for an unknown user.
func (s *DocumentService) ListByUser(ctx context.Context, userID string) ([]models.Document, error) {
	if _, err := s.db.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.db.ListDocumentsByUser(ctx, userID)
}

// Delete removes the document, its chunks and its conversation links, then
// the archived original if there is one.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.db.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.ingestor.Discard(ctx, doc)
	s.log.Info("document deleted", zap.String("document_id", id))
	return nil
}
