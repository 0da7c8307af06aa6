package scoring

import "strings"

type sectionState int

const (
	outsideSection sectionState = iota
	insideSection
)

// ExtractSection scans the text line by line and returns the body of the
// first section whose header matches one of sectionKeywords (substring
// containment). A line counts as a header when, trimmed and lowercased, it
// equals a known header name, starts with "<header>:", or is its plural.
// The header lines themselves are excluded; hitting any other header ends
// the section. Returns "" when no matching header is found.
func ExtractSection(text string, sectionKeywords []string) string {
	if text == "" {
		return ""
	}
	var collected []string
	state := outsideSection
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		header := isSectionHeader(lower)
		wanted := containsAny(lower, sectionKeywords)
		if header && wanted {
			state = insideSection
			continue
		}
		if state == insideSection && header && !wanted {
			break
		}
		if state == insideSection {
			collected = append(collected, line)
		}
	}
	return strings.Join(collected, "\n")
}

func isSectionHeader(lowerLine string) bool {
	for _, h := range dict.sectionHeaders {
		if lowerLine == h || strings.HasPrefix(lowerLine, h+":") || lowerLine == h+"s" {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
