package scoring

import (
	"strings"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
)

// minSectionLen is the smallest education section considered informative;
// anything shorter falls back to the whole document.
const minSectionLen = 20

var educationSectionKeywords = []string{"education", "academic", "qualifications"}

// ExtractEducation finds degree keywords and maps them to levels 1-6,
// returning the maximum level and every matched keyword. It scopes the search
// to the education section when one of usable length exists.
func ExtractEducation(text string) domain.EducationProfile {
	if text == "" {
		return domain.EducationProfile{Level: 0, Degrees: []string{}}
	}
	target := ExtractSection(text, educationSectionKeywords)
	if len(target) <= minSectionLen {
		target = text
	}
	lower := strings.ToLower(target)

	degrees := []string{}
	maxLevel := 0
	for _, entry := range dict.educationLevels {
		if dict.educationRegex[entry.Keyword].MatchString(lower) {
			degrees = append(degrees, entry.Keyword)
			if entry.Level > maxLevel {
				maxLevel = entry.Level
			}
		}
	}
	return domain.EducationProfile{Level: maxLevel, Degrees: degrees}
}

// EducationScore applies the linear shortfall rule on levels: full credit
// when nothing is required or the CV level meets the requirement.
func EducationScore(cvEducation domain.EducationProfile, requiredEducation *domain.EducationProfile) (score, cvLevel, requiredLevel int) {
	if requiredEducation == nil || requiredEducation.Level == 0 {
		return 100, cvEducation.Level, 0
	}
	if cvEducation.Level >= requiredEducation.Level {
		return 100, cvEducation.Level, requiredEducation.Level
	}
	return domain.RoundRatio(float64(cvEducation.Level), float64(requiredEducation.Level)), cvEducation.Level, requiredEducation.Level
}
