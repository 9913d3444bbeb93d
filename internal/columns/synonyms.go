package columns

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

//go:embed synonyms.yaml
var defaultSynonyms []byte

// CanonicalFields lists every field a synonym table has to define.
var CanonicalFields = []string{
	models.FieldRollNo,
	models.FieldStudentName,
	models.FieldFatherName,
	models.FieldDTMarks,
	models.FieldSTMarks,
	models.FieldATMarks,
	models.FieldTotalMarks,
	models.FieldAttendanceConducted,
	models.FieldAttendancePresent,
	models.FieldLabMarks,
}

// SynonymTable maps folded header spellings to canonical field names.
type SynonymTable struct {
	spellings map[string][]string
	lookup    map[string]string
}

// Key folds a header for lookup: NFKC, whitespace, dots, underscores and hyphens
// removed, lowercased.
func Key(header string) string {
	folded := norm.NFKC.String(header)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) || r == '.' || r == '_' || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func Default() (*SynonymTable, error) {
	return Load(defaultSynonyms)
}

func LoadFile(path string) (*SynonymTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym file %s: %w", path, err)
	}
	table, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("synonym file %s: %w", path, err)
	}
	return table, nil
}

// Load parses a YAML document of canonical field -> spellings and checks that every
// canonical field is defined and that no folded spelling belongs to two fields.
func Load(data []byte) (*SynonymTable, error) {
	var spellings map[string][]string
	if err := yaml.Unmarshal(data, &spellings); err != nil {
		return nil, fmt.Errorf("failed to parse column synonyms: %w", err)
	}

	for _, field := range CanonicalFields {
		if len(spellings[field]) == 0 {
			return nil, fmt.Errorf("column synonyms: no spellings defined for %s", field)
		}
	}

	fields := make([]string, 0, len(spellings))
	for field := range spellings {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	lookup := make(map[string]string)
	for _, field := range fields {
		for _, spelling := range spellings[field] {
			key := Key(spelling)
			if key == "" {
				return nil, fmt.Errorf("column synonyms: empty spelling for %s", field)
			}
			if owner, taken := lookup[key]; taken && owner != field {
				return nil, fmt.Errorf("column synonyms: %q matches both %s and %s", spelling, owner, field)
			}
			lookup[key] = field
		}
	}

	return &SynonymTable{spellings: spellings, lookup: lookup}, nil
}

// Normalize returns the canonical field for header, or header unchanged when no
// spelling matches. Canonical names map to themselves.
func (t *SynonymTable) Normalize(header string) string {
	if t.IsCanonical(header) {
		return header
	}
	if field, ok := t.lookup[Key(header)]; ok {
		return field
	}
	return header
}

func (t *SynonymTable) IsCanonical(name string) bool {
	_, ok := t.spellings[name]
	return ok
}

func (t *SynonymTable) Spellings(field string) []string {
	return slices.Clone(t.spellings[field])
}
