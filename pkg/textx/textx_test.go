package textx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/cv-match-scorer/pkg/textx"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"strips control chars", "a\x00b\x07c", "abc"},
		{"keeps tabs and newlines", "a\tb\nc", "a\tb\nc"},
		{"trims", "  padded  ", "padded"},
		{"strips del", "a\x7fb", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, textx.SanitizeText(tt.in))
		})
	}
}

func TestNormalizeNewlines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a\nb\nc", textx.NormalizeNewlines("a\r\nb\rc"))
	assert.Equal(t, "plain", textx.NormalizeNewlines("plain"))
}

func TestFirstNonEmptyLine(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "John Smith", textx.FirstNonEmptyLine("\n  \nJohn Smith\nEngineer"))
	assert.Equal(t, "", textx.FirstNonEmptyLine("  \n\t\n"))
}
