package scoring

import (
	"math"
	"sort"
	"strings"
)

// termFrequency builds a max-normalized TF vector: each token's count divided
// by the highest single-token count in the same text.
func termFrequency(tokens []string) map[string]float64 {
	counts := make(map[string]int, len(tokens))
	maxCount := 0
	for _, t := range tokens {
		counts[t]++
		if counts[t] > maxCount {
			maxCount = counts[t]
		}
	}
	tf := make(map[string]float64, len(counts))
	for t, c := range counts {
		tf[t] = float64(c) / float64(maxCount)
	}
	return tf
}

// cosineSimilarity computes the cosine of two sparse TF vectors over the
// union of their vocabularies. Zero when either norm is zero.
func cosineSimilarity(tf1, tf2 map[string]float64) float64 {
	var dot, norm1, norm2 float64
	for t, v1 := range tf1 {
		norm1 += v1 * v1
		if v2, ok := tf2[t]; ok {
			dot += v1 * v2
		}
	}
	for _, v2 := range tf2 {
		norm2 += v2 * v2
	}
	if norm1 == 0 || norm2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
}

// extractPhrases returns the bigrams and trigrams of the tokenized text.
// Stopwords are intentionally kept here: the phrase bonus measures literal
// phrase overlap, not vocabulary alignment.
func extractPhrases(text string) []string {
	words := Tokenize(text)
	phrases := make([]string, 0, 2*len(words))
	for i := 0; i+1 < len(words); i++ {
		phrases = append(phrases, words[i]+" "+words[i+1])
	}
	for i := 0; i+2 < len(words); i++ {
		phrases = append(phrases, words[i]+" "+words[i+1]+" "+words[i+2])
	}
	return phrases
}

// SemanticScore rates the word-usage alignment of two texts on a 0-100 scale:
// cosine similarity of stopword-filtered TF vectors, plus a phrase-overlap
// bonus of min(matches/10, 0.2).
func SemanticScore(text1, text2 string) int {
	if text1 == "" || text2 == "" {
		return 0
	}
	words1 := RemoveStopWords(Tokenize(text1))
	words2 := RemoveStopWords(Tokenize(text2))
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}
	similarity := cosineSimilarity(termFrequency(words1), termFrequency(words2))

	phrases2 := make(map[string]struct{})
	for _, p := range extractPhrases(strings.ToLower(text2)) {
		phrases2[p] = struct{}{}
	}
	matches := 0
	for _, p := range extractPhrases(strings.ToLower(text1)) {
		if _, ok := phrases2[p]; ok {
			matches++
		}
	}
	bonus := math.Min(float64(matches)/10, 0.2)

	return int(math.Round(math.Min((similarity+bonus)*100, 100)))
}

// ExtractKeywords returns the topN most frequent stopword-filtered tokens,
// most frequent first. Ties keep first-occurrence order so the ranking is
// deterministic.
func ExtractKeywords(text string, topN int) []string {
	if text == "" {
		return nil
	}
	words := RemoveStopWords(Tokenize(text))
	counts := make(map[string]int, len(words))
	firstSeen := make(map[string]int, len(words))
	order := make([]string, 0, len(words))
	for i, w := range words {
		if _, ok := counts[w]; !ok {
			firstSeen[w] = i
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	if len(order) > topN {
		order = order[:topN]
	}
	return order
}

// FindMatchingKeywords reports which of the JD's top-30 keywords appear in
// the CV's top-50 keyword set. Display-only; independent of the cosine score.
func FindMatchingKeywords(cvText, jdText string) (matched, unmatched []string) {
	cvSet := make(map[string]struct{})
	for _, kw := range ExtractKeywords(cvText, 50) {
		cvSet[kw] = struct{}{}
	}
	matched = []string{}
	unmatched = []string{}
	for _, kw := range ExtractKeywords(jdText, 30) {
		if _, ok := cvSet[kw]; ok {
			matched = append(matched, kw)
		} else {
			unmatched = append(unmatched, kw)
		}
	}
	return matched, unmatched
}
