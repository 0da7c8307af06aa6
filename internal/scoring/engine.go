package scoring

import (
	"math"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
)

// Engine is the scoring orchestrator. It is stateless; a single value can be
// shared freely across goroutines.
type Engine struct{}

// NewEngine returns an Engine backed by the embedded dictionaries.
func NewEngine() *Engine { return &Engine{} }

// Score runs every extractor and sub-scorer and aggregates the weighted
// composite. Requirements not explicitly supplied are derived from jdText
// with the same extractors applied to the CV. w.Sum() must be positive;
// validating that is the caller's contract.
//
// Scoring is deterministic and side-effect free: identical inputs always
// produce identical results, and re-scoring with different weights changes
// only the total, the classification, and the displayed weights.
func (e *Engine) Score(cvText, jdText string, req domain.Requirements, w domain.Weights) domain.ScoreResult {
	norm := w.Normalize()

	cvSkills := ExtractSkills(cvText)
	cvEducation := ExtractEducation(cvText)
	cvExperience := ExtractExperience(cvText)

	semanticScore := SemanticScore(cvText, jdText)
	kwMatched, kwUnmatched := FindMatchingKeywords(cvText, jdText)

	requiredSkills := req.Skills
	if requiredSkills == nil {
		requiredSkills = ExtractSkills(jdText)
	}
	skillsScore, skMatched, skUnmatched := SkillsScore(cvSkills, requiredSkills)

	requiredEducation := req.Education
	if requiredEducation == nil {
		jdEducation := ExtractEducation(jdText)
		requiredEducation = &jdEducation
	}
	educationScore, cvLevel, requiredLevel := EducationScore(cvEducation, requiredEducation)

	requiredYears := req.Experience
	if requiredYears == 0 {
		requiredYears = ExtractExperience(jdText)
	}
	experienceScore := ExperienceScore(cvExperience, requiredYears)

	total := int(math.Round(
		float64(semanticScore)*norm.Semantic +
			float64(skillsScore)*norm.Skills +
			float64(educationScore)*norm.Education +
			float64(experienceScore)*norm.Experience))

	return domain.ScoreResult{
		Total:          total,
		Classification: domain.Classify(total),
		Breakdown: domain.Breakdown{
			Semantic: domain.SemanticDetail{
				Score:     semanticScore,
				Weight:    w.Semantic,
				Matched:   kwMatched,
				Unmatched: kwUnmatched,
			},
			Skills: domain.SkillsDetail{
				Score:     skillsScore,
				Weight:    w.Skills,
				Matched:   skMatched,
				Unmatched: skUnmatched,
				Extracted: cvSkills,
			},
			Education: domain.EducationDetail{
				Score:         educationScore,
				Weight:        w.Education,
				CVLevel:       cvLevel,
				RequiredLevel: requiredLevel,
				Degrees:       cvEducation.Degrees,
			},
			Experience: domain.ExperienceDetail{
				Score:         experienceScore,
				Weight:        w.Experience,
				CVYears:       cvExperience,
				RequiredYears: requiredYears,
			},
		},
		Candidate: domain.Candidate{
			Name:       ExtractName(cvText),
			Skills:     cvSkills,
			Education:  cvEducation,
			Experience: cvExperience,
		},
	}
}
