// Package scoring implements the CV-vs-JD scoring engine: tokenization,
// section and skill extraction, TF cosine similarity with a phrase bonus,
// experience/education sub-scores, and the weighted composite.
//
// All operations are pure functions of their text inputs. The only package
// state is the embedded dictionary, which is parsed once and read-only
// afterwards, so every entry point is safe for concurrent use.
package scoring

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed dictionaries.yaml
var dictionariesYAML []byte

type skillPattern struct {
	Category string `yaml:"category"`
	Pattern  string `yaml:"pattern"`
}

type synonymEntry struct {
	Canonical string   `yaml:"canonical"`
	Synonyms  []string `yaml:"synonyms"`
}

type educationEntry struct {
	Keyword string `yaml:"keyword"`
	Level   int    `yaml:"level"`
}

type dictionaryFile struct {
	Stopwords       []string         `yaml:"stopwords"`
	SectionHeaders  []string         `yaml:"section_headers"`
	SkillPatterns   []skillPattern   `yaml:"skill_patterns"`
	SkillSynonyms   []synonymEntry   `yaml:"skill_synonyms"`
	EducationLevels []educationEntry `yaml:"education_levels"`
}

// dictionary holds the compiled lookup tables. Immutable after load.
type dictionary struct {
	stopwords      map[string]struct{}
	sectionHeaders []string
	skillPatterns  []*regexp.Regexp
	// synonymsOf preserves authoring order per canonical skill.
	synonymsOf map[string][]string
	canonicals []string
	// canonicalOf is the reverse index: synonym -> canonical.
	canonicalOf     map[string]string
	educationLevels []educationEntry
	educationRegex  map[string]*regexp.Regexp
}

var dict = mustLoadDictionary()

func mustLoadDictionary() *dictionary {
	d, err := loadDictionary(dictionariesYAML)
	if err != nil {
		panic(fmt.Sprintf("scoring: invalid embedded dictionary: %v", err))
	}
	return d
}

func loadDictionary(raw []byte) (*dictionary, error) {
	var f dictionaryFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("op=dictionary.parse: %w", err)
	}
	if len(f.Stopwords) == 0 || len(f.SkillPatterns) == 0 || len(f.EducationLevels) == 0 {
		return nil, fmt.Errorf("op=dictionary.parse: missing required tables")
	}
	d := &dictionary{
		stopwords:       make(map[string]struct{}, len(f.Stopwords)),
		sectionHeaders:  f.SectionHeaders,
		synonymsOf:      make(map[string][]string, len(f.SkillSynonyms)),
		canonicalOf:     make(map[string]string),
		educationLevels: f.EducationLevels,
		educationRegex:  make(map[string]*regexp.Regexp, len(f.EducationLevels)),
	}
	for _, w := range f.Stopwords {
		d.stopwords[w] = struct{}{}
	}
	for _, p := range f.SkillPatterns {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("op=dictionary.parse: pattern %q: %w", p.Category, err)
		}
		d.skillPatterns = append(d.skillPatterns, re)
	}
	for _, e := range f.SkillSynonyms {
		d.canonicals = append(d.canonicals, e.Canonical)
		d.synonymsOf[e.Canonical] = e.Synonyms
		for _, syn := range e.Synonyms {
			d.canonicalOf[syn] = e.Canonical
		}
	}
	for _, e := range f.EducationLevels {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(e.Keyword) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("op=dictionary.parse: education %q: %w", e.Keyword, err)
		}
		d.educationRegex[e.Keyword] = re
	}
	return d, nil
}
