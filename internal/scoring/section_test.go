package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/cv-match-scorer/internal/scoring"
)

func TestExtractSection(t *testing.T) {
	t.Parallel()
	cv := "John Smith\n" +
		"Summary\n" +
		"Engineer who enjoys systems work.\n" +
		"Education\n" +
		"BSc Computer Science\n" +
		"2014 - 2018\n" +
		"Experience\n" +
		"Acme Corp, backend developer\n"

	tests := []struct {
		name     string
		keywords []string
		want     string
	}{
		{"education section", []string{"education"}, "BSc Computer Science\n2014 - 2018"},
		{"experience section", []string{"experience"}, "Acme Corp, backend developer\n"},
		{"summary section", []string{"summary"}, "Engineer who enjoys systems work."},
		{"missing section", []string{"certifications"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scoring.ExtractSection(cv, tt.keywords))
		})
	}
}

func TestExtractSection_HeaderVariants(t *testing.T) {
	t.Parallel()
	// Headers match with a trailing colon and as plurals.
	withColon := "Skills:\nGo, SQL\nProjects\nsomething else"
	assert.Equal(t, "Go, SQL", scoring.ExtractSection(withColon, []string{"skill"}))

	plural := "Educations\nBSc Computer Science and more detail"
	assert.Equal(t, "BSc Computer Science and more detail", scoring.ExtractSection(plural, []string{"education"}))
}

func TestExtractSection_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", scoring.ExtractSection("", []string{"education"}))
}
