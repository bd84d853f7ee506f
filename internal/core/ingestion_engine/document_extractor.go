package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/botgpt/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
// Plain text is passed through untouched so chunk offsets stay aligned with
// what the user uploaded.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

// ExtractText converts data to plain text based on its content type, falling
// back to the filename extension when the type is missing or generic.
func (e *DocconvExtractor) ExtractText(ctx context.Context, data []byte, contentType, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mimeType := normalizeMimeType(contentType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = docconv.MimeTypeByExtension(filename)
	}
	if mimeType == "application/octet-stream" {
		switch strings.ToLower(path.Ext(filename)) {
		case ".txt", ".md", ".markdown", ".csv", ".log":
			mimeType = "text/plain"
		}
	}

	if isPlainText(mimeType) {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8 text", core.ErrValidation, filename)
		}
		return string(data), nil
	}

	res, err := docconv.Convert(bytes.NewReader(data), mimeType, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("%w: cannot extract text from %q (%s): %v", core.ErrValidation, filename, mimeType, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return res.Body, nil
}

func normalizeMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func isPlainText(mimeType string) bool {
	switch mimeType {
	case "text/plain", "text/markdown", "text/x-markdown", "text/csv":
		return true
	}
	return false
}
