package scoring

import (
	"regexp"
	"strings"
)

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// Tokenize lowercases the text, replaces every non-word/non-space rune with a
// space, splits on whitespace, and drops tokens of length <= 2. Empty input
// yields an empty slice.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// RemoveStopWords filters tokens against the stopword table. Order and
// duplicates are preserved; term frequency depends on repetition.
func RemoveStopWords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := dict.stopwords[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
