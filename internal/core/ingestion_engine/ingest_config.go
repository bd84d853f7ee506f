package ingestion_engine

import (
	"go.uber.org/zap"

	"github.com/markdave123-py/botgpt/internal/core"
)

// IngestConfig tunes chunking and archival.
//
// ChunkSize:     maximum chunk length in characters (e.g., 500).
// ChunkOverlap:  characters carried from the end of one chunk into the next (e.g., 50).
// ArchiveQueue:  capacity of the in-memory archive job queue.
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	ArchiveQueue int
}

// IngestInput is one upload. Either Content (already plain text) or Raw
// (file bytes to run through the extractor) must be set.
type IngestInput struct {
	UserID   string
	FileName string
	MimeType string
	Content  string
	Raw      []byte
}

// archiveJob is an original file waiting to be copied to object storage.
type archiveJob struct {
	documentID  string
	key         string
	data        []byte
	contentType string
}

// DocumentIngestor orchestrates document ingestion:
//
// db:        persistence for documents and chunks.
// obj:       optional object storage for archiving original uploads.
// extractor: converts uploaded files to text.
// chunker:   splits text into retrieval chunks.
// jobs:      in-memory queue of archive uploads (easy to swap with Kafka later).
type DocumentIngestor struct {
	db        core.DbClient
	obj       core.ObjectClient
	extractor core.DocumentExtractor
	chunker   *Chunker
	log       *zap.Logger
	jobs      chan archiveJob
}
