package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one token", "abcd", 1},
		{"rounds up", "abcde", 2},
		{"single char", "a", 1},
		{"401 chars", strings.Repeat("a", 401), 101},
		{"counts runes not bytes", "héllo wörld!", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokens(tt.text))
		})
	}
}

func TestEstimateTokens_Deterministic(t *testing.T) {
	text := strings.Repeat("lorem ipsum ", 37)
	assert.Equal(t, EstimateTokens(text), EstimateTokens(text))
}

func TestSumTokens(t *testing.T) {
	assert.Equal(t, 0, SumTokens())
	assert.Equal(t, 3, SumTokens("abcd", "abcde"))
}
