// Package history keeps a conversation's message history inside a model's
// context budget.
package history

import "unicode/utf8"

// charsPerToken is the coarse heuristic used for all budget accounting.
const charsPerToken = 4

// EstimateTokens approximates the token count of text as ceil(chars/4),
// counting characters as runes. It is not a real tokenizer.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n <= 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// SumTokens returns the estimated token cost of all contents.
func SumTokens(contents ...string) int {
	total := 0
	for _, c := range contents {
		total += EstimateTokens(c)
	}
	return total
}
