package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/cv-match-scorer/internal/domain"
	"github.com/fairyhunter13/cv-match-scorer/internal/scoring"
)

func TestExtractEducation_Empty(t *testing.T) {
	t.Parallel()
	got := scoring.ExtractEducation("")
	assert.Equal(t, 0, got.Level)
	assert.NotNil(t, got.Degrees)
	assert.Empty(t, got.Degrees)
}

func TestExtractEducation_SectionScoped(t *testing.T) {
	t.Parallel()
	text := "Jane Doe\nWorked on PhD-level research tooling.\n\nEducation\nBachelor of Science in Computer Science, 2018"
	got := scoring.ExtractEducation(text)
	// "phd" appears outside the education section and must not count.
	assert.Equal(t, 4, got.Level)
	assert.Equal(t, []string{"bachelor"}, got.Degrees)
}

func TestExtractEducation_FallbackToFullText(t *testing.T) {
	t.Parallel()
	got := scoring.ExtractEducation("Masters in Data Science from a top university")
	assert.Equal(t, 5, got.Level)
	assert.Contains(t, got.Degrees, "masters")
}

func TestExtractEducation_MaxNotSum(t *testing.T) {
	t.Parallel()
	got := scoring.ExtractEducation("Holds a bachelor degree and a masters as well as a diploma")
	assert.Equal(t, 5, got.Level)
}

func TestEducationScore(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		cvLevel   int
		required  *domain.EducationProfile
		wantScore int
	}{
		{"nil requirement", 2, nil, 100},
		{"zero-level requirement", 2, &domain.EducationProfile{Level: 0}, 100},
		{"meets", 4, &domain.EducationProfile{Level: 4}, 100},
		{"exceeds", 6, &domain.EducationProfile{Level: 4}, 100},
		{"half", 2, &domain.EducationProfile{Level: 4}, 50},
		{"nothing extracted", 0, &domain.EducationProfile{Level: 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			score, cvLevel, _ := scoring.EducationScore(domain.EducationProfile{Level: tt.cvLevel}, tt.required)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.cvLevel, cvLevel)
		})
	}
}
