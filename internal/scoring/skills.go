package scoring

import (
	"sort"
	"strings"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
)

// ExtractSkills detects canonical skills in the text via two passes: the
// category regex patterns (word-boundary anchored) and the synonym
// dictionary (plain substring containment). The result is deduplicated and
// sorted. Empty input yields an empty set.
func ExtractSkills(text string) []string {
	if text == "" {
		return []string{}
	}
	lower := strings.ToLower(text)
	found := make(map[string]struct{})

	for _, re := range dict.skillPatterns {
		for _, m := range re.FindAllString(lower, -1) {
			found[strings.ToLower(m)] = struct{}{}
		}
	}

	for _, canonical := range dict.canonicals {
		if strings.Contains(lower, canonical) {
			found[canonical] = struct{}{}
			continue
		}
		for _, syn := range dict.synonymsOf[canonical] {
			if strings.Contains(lower, strings.ToLower(syn)) {
				found[canonical] = struct{}{}
				break
			}
		}
	}

	skills := make([]string, 0, len(found))
	for s := range found {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills
}

// MatchSkills compares a CV skill set against required skills. A required
// skill matches on (a) exact case-insensitive equality, (b) a CV skill being
// one of its synonyms, or (c) the required skill itself being a synonym of a
// canonical skill the CV has. Case (c) can match skills that ExtractSkills
// would never emit; that asymmetry is deliberate.
func MatchSkills(cvSkills, requiredSkills []string) (matched, unmatched []string) {
	matched = []string{}
	unmatched = []string{}
	for _, required := range requiredSkills {
		lowerRequired := strings.ToLower(required)
		if skillMatches(cvSkills, lowerRequired) {
			matched = append(matched, required)
		} else {
			unmatched = append(unmatched, required)
		}
	}
	return matched, unmatched
}

func skillMatches(cvSkills []string, lowerRequired string) bool {
	for _, skill := range cvSkills {
		if strings.EqualFold(skill, lowerRequired) {
			return true
		}
	}
	synonyms := dict.synonymsOf[lowerRequired]
	canonical := dict.canonicalOf[lowerRequired]
	for _, skill := range cvSkills {
		lowerSkill := strings.ToLower(skill)
		for _, syn := range synonyms {
			if lowerSkill == syn {
				return true
			}
		}
		if canonical != "" && lowerSkill == canonical {
			return true
		}
	}
	return false
}

// SkillsScore is the required-skill coverage on a 0-100 scale. No required
// skills means full credit with empty match lists.
func SkillsScore(cvSkills, requiredSkills []string) (score int, matched, unmatched []string) {
	if len(requiredSkills) == 0 {
		return 100, []string{}, []string{}
	}
	matched, unmatched = MatchSkills(cvSkills, requiredSkills)
	return domain.RoundRatio(float64(len(matched)), float64(len(requiredSkills))), matched, unmatched
}
