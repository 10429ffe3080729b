package search

import "strings"

// stopWords are dropped from full-text queries. Shopper phrasing such as
// "do you have" carries no product signal.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "i": true, "me": true, "my": true, "any": true,
	"some": true, "need": true, "want": true, "looking": true, "what": true,
	"which": true, "can": true,
}

// tokenizeAndFilter splits text into lowercased words without surrounding
// punctuation, dropping stop words.
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}
	return filtered
}
