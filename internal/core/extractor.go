package core

import (
	"context"
)

// DocumentExtractor defines the interface for extracting text from various document types.
type DocumentExtractor interface {
	// ExtractText returns the plain text of data. The contentType and
	// filename hints help the extractor choose the right parsing strategy.
	ExtractText(ctx context.Context, data []byte, contentType, filename string) (string, error)
}
