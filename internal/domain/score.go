package domain

import "math"

// Classification bands for the composite score.
const (
	ClassExcellent = "excellent"
	ClassGood      = "good"
	ClassAverage   = "average"
	ClassPoor      = "poor"
)

// Classify maps a composite score to its band. Lower bounds are inclusive.
func Classify(total int) string {
	switch {
	case total >= 80:
		return ClassExcellent
	case total >= 60:
		return ClassGood
	case total >= 40:
		return ClassAverage
	default:
		return ClassPoor
	}
}

// Weights holds the raw, un-normalized dimension weights as supplied by the
// caller. The sum must be positive; Normalize never divides by zero because
// the API boundary validates this precondition.
type Weights struct {
	Semantic   float64 `json:"semantic" validate:"gte=0"`
	Skills     float64 `json:"skills" validate:"gte=0"`
	Experience float64 `json:"experience" validate:"gte=0"`
	Education  float64 `json:"education" validate:"gte=0"`
}

// DefaultWeights returns the stock weighting of the four dimensions.
func DefaultWeights() Weights {
	return Weights{Semantic: 40, Skills: 25, Experience: 20, Education: 15}
}

// Sum returns the raw weight total.
func (w Weights) Sum() float64 {
	return w.Semantic + w.Skills + w.Experience + w.Education
}

// Normalize returns weights scaled so that they sum to 1. Calling it with a
// zero sum is a contract violation by the caller.
func (w Weights) Normalize() Weights {
	total := w.Sum()
	return Weights{
		Semantic:   w.Semantic / total,
		Skills:     w.Skills / total,
		Experience: w.Experience / total,
		Education:  w.Education / total,
	}
}

// EducationProfile is the extracted education signal: the highest level seen
// and every degree keyword that matched. Level is a max, never a sum.
type EducationProfile struct {
	Level   int      `json:"level"`
	Degrees []string `json:"degrees"`
}

// Requirements are explicit job-description requirements. Any nil/empty field
// falls back to extraction from the JD text with the same extractors used on
// the CV.
type Requirements struct {
	Skills     []string          `json:"skills,omitempty"`
	Education  *EducationProfile `json:"education,omitempty"`
	Experience int               `json:"experience,omitempty" validate:"gte=0"`
}

// SemanticDetail reports the cosine-plus-phrase-bonus dimension along with
// the display-only keyword presence lists.
type SemanticDetail struct {
	Score     int      `json:"score"`
	Weight    float64  `json:"weight"`
	Matched   []string `json:"matched"`
	Unmatched []string `json:"unmatched"`
}

// SkillsDetail reports required-skill coverage and the CV's full skill set.
type SkillsDetail struct {
	Score     int      `json:"score"`
	Weight    float64  `json:"weight"`
	Matched   []string `json:"matched"`
	Unmatched []string `json:"unmatched"`
	Extracted []string `json:"extracted"`
}

// EducationDetail reports the education level comparison.
type EducationDetail struct {
	Score         int      `json:"score"`
	Weight        float64  `json:"weight"`
	CVLevel       int      `json:"cv_level"`
	RequiredLevel int      `json:"required_level"`
	Degrees       []string `json:"degrees"`
}

// ExperienceDetail reports the years-of-experience comparison.
type ExperienceDetail struct {
	Score         int     `json:"score"`
	Weight        float64 `json:"weight"`
	CVYears       int     `json:"cv_years"`
	RequiredYears int     `json:"required_years"`
}

// Breakdown carries the per-dimension scores with their raw display weights.
type Breakdown struct {
	Semantic   SemanticDetail   `json:"semantic"`
	Skills     SkillsDetail     `json:"skills"`
	Education  EducationDetail  `json:"education"`
	Experience ExperienceDetail `json:"experience"`
}

// Candidate summarizes what was extracted from the CV itself.
type Candidate struct {
	Name       string           `json:"name"`
	Skills     []string         `json:"skills"`
	Education  EducationProfile `json:"education"`
	Experience int              `json:"experience"`
}

// ScoreResult is the complete outcome of scoring one CV against one JD.
// It is constructed once and never mutated; re-scoring builds a new value.
type ScoreResult struct {
	Total          int       `json:"total"`
	Classification string    `json:"classification"`
	Breakdown      Breakdown `json:"breakdown"`
	Candidate      Candidate `json:"candidate"`
}

// RoundRatio returns round(100 * num / den) clamped to [0, 100].
// den must be positive.
func RoundRatio(num, den float64) int {
	s := int(math.Round(num / den * 100))
	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	return s
}
