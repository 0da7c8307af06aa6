package scoring

import (
	"regexp"
	"strconv"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
)

// Recognizes both "<N>+ years of experience" and "experience of <N>+ years".
var experiencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\+?\s*(?:years?|yrs?)\s*(?:of)?\s*(?:experience|exp)`),
	regexp.MustCompile(`(?i)(?:experience|exp)\s*(?:of)?\s*(\d+)\+?\s*(?:years?|yrs?)`),
}

// ExtractExperience returns the maximum number of years captured by any
// experience pattern across the text, or 0 when none match.
func ExtractExperience(text string) int {
	if text == "" {
		return 0
	}
	maxYears := 0
	for _, re := range experiencePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			years, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if years > maxYears {
				maxYears = years
			}
		}
	}
	return maxYears
}

// ExperienceScore applies the linear shortfall rule: full credit when there
// is no requirement or the CV meets it, otherwise round(100*cv/required).
func ExperienceScore(cvYears, requiredYears int) int {
	if requiredYears == 0 {
		return 100
	}
	if cvYears >= requiredYears {
		return 100
	}
	return domain.RoundRatio(float64(cvYears), float64(requiredYears))
}
