package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/botgpt/internal/models"
)

// Ingestor turns uploads into stored, chunked documents.
type Ingestor interface {
	Run(ctx context.Context, numWorkers int) error
	Ingest(ctx context.Context, in IngestInput) (*models.Document, error)
	Discard(ctx context.Context, doc *models.Document)
	Original(ctx context.Context, doc *models.Document) ([]byte, error)
}
