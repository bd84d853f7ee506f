package retrieval

import (
	"strings"
	"unicode"
)

// stopWords are function words dropped from queries before scoring.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "it": {}, "this": {}, "that": {},
	"do": {}, "does": {}, "what": {}, "how": {},
}

// Tokens returns the set of lower-cased alphanumeric words in text.
func Tokens(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		set[w] = struct{}{}
	}
	return set
}

// Keywords is Tokens minus the stop words.
func Keywords(query string) map[string]struct{} {
	set := Tokens(query)
	for w := range set {
		if _, stop := stopWords[w]; stop {
			delete(set, w)
		}
	}
	return set
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
