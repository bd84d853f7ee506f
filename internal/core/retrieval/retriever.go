// Package retrieval ranks document chunks against a query by keyword
// overlap.
package retrieval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/markdave123-py/botgpt/internal/core"
	"github.com/markdave123-py/botgpt/internal/models"
)

// ScoredChunk is a chunk with the number of query keywords it contains.
type ScoredChunk struct {
	models.DocumentChunk
	Score int `json:"score"`
}

// Retriever selects the TopK best chunks. With IncludeZeroScore set, chunks
// sharing no keyword with the query still fill the remaining slots.
type Retriever struct {
	TopK             int
	IncludeZeroScore bool
}

func NewRetriever(topK int, includeZeroScore bool) *Retriever {
	return &Retriever{TopK: topK, IncludeZeroScore: includeZeroScore}
}

// Retrieve scores every chunk against query and returns at most topK of
// them, highest score first. Ties go to the lower chunk_index, then the
// lower document id and chunk id, so the result is fully deterministic.
func (r *Retriever) Retrieve(chunks []models.DocumentChunk, query string, topK int) ([]ScoredChunk, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", core.ErrValidation, topK)
	}
	if len(chunks) == 0 {
		return []ScoredChunk{}, nil
	}

	keywords := Keywords(query)
	scored := make([]ScoredChunk, 0, len(chunks))
	for _, ch := range chunks {
		score := 0
		if len(keywords) > 0 {
			tokens := Tokens(ch.Content)
			for k := range keywords {
				if _, ok := tokens[k]; ok {
					score++
				}
			}
		}
		if score == 0 && !r.IncludeZeroScore {
			continue
		}
		scored = append(scored, ScoredChunk{DocumentChunk: ch, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ChunkIndex != b.ChunkIndex {
			return a.ChunkIndex < b.ChunkIndex
		}
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		return a.ID < b.ID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Search runs Retrieve with the configured TopK.
func (r *Retriever) Search(chunks []models.DocumentChunk, query string) ([]ScoredChunk, error) {
	return r.Retrieve(chunks, query, r.TopK)
}

// BuildContext renders chunks as "[Context N]" blocks separated by blank
// lines, in the given order. An empty selection yields "".
func BuildContext(chunks []ScoredChunk) string {
	var sb strings.Builder
	for i, ch := range chunks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[Context ")
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("]\n")
		sb.WriteString(ch.Content)
	}
	return sb.String()
}
