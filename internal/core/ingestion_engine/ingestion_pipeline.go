package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

var _ Ingestor = (*DocumentIngestor)(nil)

// NewDocumentIngestor constructs the ingestor. obj may be nil, in which case
// originals are not archived.
func NewDocumentIngestor(db core.DbClient, obj core.ObjectClient, extractor core.DocumentExtractor, cfg *IngestConfig, log *zap.Logger) (*DocumentIngestor, error) {
	chunker, err := NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	queue := cfg.ArchiveQueue
	if queue <= 0 {
		queue = 64
	}
	return &DocumentIngestor{
		db: db, obj: obj, extractor: extractor, chunker: chunker, log: log,
		jobs: make(chan archiveJob, queue),
	}, nil
}

// Run starts numWorkers archive workers and blocks until ctx is done.
func (i *DocumentIngestor) Run(ctx context.Context, numWorkers int) error {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	for w := 1; w <= numWorkers; w++ {
		w := w
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					i.log.Debug("archive worker shutting down", zap.Int("worker", w))
					return nil
				case job := <-i.jobs:
					i.archive(gctx, w, job)
				}
			}
		})
	}
	return g.Wait()
}

// Ingest extracts, stores and chunks one document. Chunks are produced once
// here; if storing them fails the document row is removed again.
func (i *DocumentIngestor) Ingest(ctx context.Context, in IngestInput) (*models.Document, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", core.ErrValidation)
	}
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: filename is required", core.ErrValidation)
	}
	if _, err := i.db.GetUser(ctx, in.UserID); err != nil {
		return nil, err
	}

	content := in.Content
	if in.Raw != nil {
		text, err := i.extractor.ExtractText(ctx, in.Raw, in.MimeType, fileName)
		if err != nil {
			return nil, err
		}
		content = text
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: document content is empty", core.ErrValidation)
	}

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = "text/plain"
	}
	size := int64(len(content))
	if in.Raw != nil {
		size = int64(len(in.Raw))
	}

	doc := &models.Document{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		FileName:  fileName,
		Content:   content,
		MimeType:  mimeType,
		FileSize:  size,
		CreatedAt: time.Now().UTC(),
	}
	if i.obj != nil && in.Raw != nil {
		doc.StorageKey = objectKey(doc.UserID, doc.ID, fileName)
	}

	if err := i.db.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	chunks := i.chunker.Chunks(doc.ID, content)
	if err := i.db.CreateChunks(ctx, doc.ID, chunks); err != nil {
		if delErr := i.db.DeleteDocument(context.WithoutCancel(ctx), doc.ID); delErr != nil {
			i.log.Error("rollback document after chunk failure", zap.String("document_id", doc.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("store chunks: %w", err)
	}
	doc.ChunkCount = len(chunks)

	i.log.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.String("user_id", doc.UserID),
		zap.Int("chunks", len(chunks)),
		zap.Int64("bytes", doc.FileSize))

	if doc.StorageKey != "" {
		i.enqueue(ctx, archiveJob{documentID: doc.ID, key: doc.StorageKey, data: in.Raw, contentType: mimeType})
	}
	return doc, nil
}

// Discard removes the archived original of doc, if any. Failures are logged
// only; the database rows are already gone.
func (i *DocumentIngestor) Discard(ctx context.Context, doc *models.Document) {
	if i.obj == nil || doc == nil || doc.StorageKey == "" {
		return
	}
	if err := i.obj.DeleteFile(ctx, doc.StorageKey); err != nil {
		i.log.Warn("delete archived original", zap.String("document_id", doc.ID), zap.Error(err))
	}
}

// Original returns the archived upload of doc. Documents sent as text, or
// stored while archiving was off, have none and fail with core.ErrNotFound.
func (i *DocumentIngestor) Original(ctx context.Context, doc *models.Document) ([]byte, error) {
	if i.obj == nil || doc.StorageKey == "" {
		return nil, fmt.Errorf("%w: document %s has no archived original", core.ErrNotFound, doc.ID)
	}
	return i.obj.GetFile(ctx, doc.StorageKey)
}

// enqueue schedules an archive upload. A full queue drops the job rather
// than stalling the request.
func (i *DocumentIngestor) enqueue(ctx context.Context, job archiveJob) {
	select {
	case i.jobs <- job:
	case <-ctx.Done():
	default:
		i.log.Warn("archive queue full, original not archived", zap.String("document_id", job.documentID))
	}
}

func (i *DocumentIngestor) archive(ctx context.Context, worker int, job archiveJob) {
	upctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	url, err := i.obj.UploadFile(upctx, job.key, bytes.NewReader(job.data), job.contentType)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		i.log.Error("archive original", zap.Int("worker", worker), zap.String("document_id", job.documentID), zap.Error(err))
		return
	}
	i.log.Debug("archived original", zap.Int("worker", worker), zap.String("document_id", job.documentID), zap.String("url", url))
}

// objectKey creates a consistent S3 key layout.
func objectKey(userID, docID, filename string) string {
	filename = path.Base(strings.ReplaceAll(strings.TrimSpace(filename), " ", "_"))
	return path.Join("users", userID, "documents", docID, filename)
}
