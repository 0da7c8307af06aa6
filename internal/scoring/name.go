package scoring

import (
	"regexp"
	"strings"
)

var (
	nameWordRe  = regexp.MustCompile(`^[A-Za-z\-']+$`)
	nameLabelRe = regexp.MustCompile(`(?i)name\s*:\s*([^\n]+)`)
)

// ExtractName guesses the candidate's name: the first non-empty line when it
// looks like one (1-4 alphabetic words), otherwise a "name: ..." label
// anywhere in the text, otherwise a fixed placeholder. No validation that the
// result is a real human name.
func ExtractName(text string) string {
	if strings.TrimSpace(text) == "" {
		return "Unknown"
	}
	var firstLine string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			firstLine = strings.TrimSpace(line)
			break
		}
	}

	words := make([]string, 0, 4)
	for _, w := range strings.Fields(firstLine) {
		if len(w) > 1 {
			words = append(words, w)
		}
	}
	if len(words) >= 1 && len(words) <= 4 {
		allAlphabetic := true
		for _, w := range words {
			if !nameWordRe.MatchString(w) {
				allAlphabetic = false
				break
			}
		}
		if allAlphabetic {
			for i, w := range words {
				words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
			}
			return strings.Join(words, " ")
		}
	}

	if m := nameLabelRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "Candidate"
}
