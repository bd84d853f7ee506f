package ingestion_engine

import (
	"fmt"
	"unicode"

	"github.com/google/uuid"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Span is one chunk of a document. Start and End are rune offsets into the
// source text and Content is exactly that slice of it.
type Span struct {
	Content string
	Start   int
	End     int
}

// Chunker splits document text into overlapping, paragraph-aligned chunks.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker validates 0 <= overlap < size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrValidation, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", core.ErrValidation, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Chunk is a convenience wrapper around NewChunker and Split.
func Chunk(content string, size, overlap int) ([]Span, error) {
	c, err := NewChunker(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(content), nil
}

// Split packs paragraphs greedily into chunks of at most size runes. When the
// next paragraph does not fit, the open chunk is flushed and the next one
// starts with the last overlap runes of it. Paragraphs longer than size are
// cut at size boundaries. Blank input yields no chunks.
func (c *Chunker) Split(content string) []Span {
	rs := []rune(content)
	paras := paragraphs(rs)
	if len(paras) == 0 {
		return nil
	}

	var out []Span
	emit := func(s, e int) {
		out = append(out, Span{Content: string(rs[s:e]), Start: s, End: e})
	}
	carry := func(end int) int {
		if c.overlap == 0 {
			return -1
		}
		return end - c.overlap
	}

	// [start, end) is the open chunk. fresh reports whether it holds text
	// that has not been emitted yet; otherwise start only marks the carried
	// overlap of the previous chunk.
	start, end, fresh := -1, -1, false
	for _, p := range paras {
		from := p.start
		for from < p.end {
			if start < 0 || (!fresh && start+c.size <= from) {
				// nothing open, or the whitespace gap is too wide for the
				// carried overlap to reach this paragraph
				start = from
			}
			if p.end-start <= c.size {
				end, from, fresh = p.end, p.end, true
				continue
			}
			// a chunk no longer than the overlap would be carried whole
			// into the next one, so it is cut instead of flushed unless the
			// next paragraph is out of reach
			if fresh && (end-start > c.overlap || start+c.size <= from) {
				emit(start, end)
				start, fresh = carry(end), false
				continue
			}
			cut := start + c.size
			emit(start, cut)
			start, fresh = carry(cut), false
			from = cut
		}
	}
	if fresh {
		emit(start, end)
	}
	return out
}

// Chunks converts Split output into storage rows for documentID.
func (c *Chunker) Chunks(documentID, content string) []models.DocumentChunk {
	spans := c.Split(content)
	chunks := make([]models.DocumentChunk, 0, len(spans))
	for i, s := range spans {
		chunks = append(chunks, models.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			Content:    s.Content,
			ChunkIndex: i,
			CharStart:  s.Start,
			CharEnd:    s.End,
		})
	}
	return chunks
}

type span struct{ start, end int }

// paragraphs returns the trimmed, non-empty paragraphs of rs. Paragraphs are
// separated by any whitespace run containing at least two newlines.
func paragraphs(rs []rune) []span {
	var out []span
	n := len(rs)
	i := 0
	for i < n {
		for i < n && unicode.IsSpace(rs[i]) {
			i++
		}
		if i == n {
			break
		}
		start, end := i, i
		for i < n {
			if !unicode.IsSpace(rs[i]) {
				i++
				end = i
				continue
			}
			j, newlines := i, 0
			for j < n && unicode.IsSpace(rs[j]) {
				if rs[j] == '\n' {
					newlines++
				}
				j++
			}
			i = j
			if newlines >= 2 || j == n {
				break
			}
		}
		out = append(out, span{start: start, end: end})
	}
	return out
}
