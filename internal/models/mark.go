package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AbsentSentinel is the literal recorded in a mark cell when the student missed the component.
const AbsentSentinel = "AB"

type MarkKind int

const (
	// MarkNumeric is also the zero value, so an unset Mark reads as numeric 0.
	MarkNumeric MarkKind = iota
	MarkAbsent
	MarkInvalid
)

func (k MarkKind) String() string {
	switch k {
	case MarkNumeric:
		return "numeric"
	case MarkAbsent:
		return "absent"
	case MarkInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("MarkKind(%d)", int(k))
	}
}

// Mark is a numeric-or-AB cell value. Invalid marks keep the raw text so it can be
// surfaced as a degraded-data warning when the report is assembled.
type Mark struct {
	Kind  MarkKind
	Value float64
	Raw   string
}

func NumericMark(v float64) Mark {
	return Mark{Kind: MarkNumeric, Value: v}
}

func AbsentMark() Mark {
	return Mark{Kind: MarkAbsent, Raw: AbsentSentinel}
}

// ParseMark reads a spreadsheet cell. Blank cells are numeric zero, "ab" in any case is
// absent and a comma decimal separator is accepted.
func ParseMark(raw string) Mark {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NumericMark(0)
	}
	if strings.EqualFold(s, AbsentSentinel) {
		return AbsentMark()
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Mark{Kind: MarkInvalid, Raw: s}
	}
	return NumericMark(v)
}

func (m Mark) IsAbsent() bool {
	return m.Kind == MarkAbsent
}

func (m Mark) IsInvalid() bool {
	return m.Kind == MarkInvalid
}

// IsZero reports a numeric zero, which is what a missing optional column is filled with.
func (m Mark) IsZero() bool {
	return m.Kind == MarkNumeric && m.Value == 0
}

// Contribution is the value used for sums: absent and invalid marks count as 0.
func (m Mark) Contribution() float64 {
	if m.Kind != MarkNumeric {
		return 0
	}
	return m.Value
}

func (m Mark) Display() string {
	switch m.Kind {
	case MarkAbsent:
		return AbsentSentinel
	case MarkInvalid:
		return m.Raw
	default:
		return FormatNumber(m.Value)
	}
}

func (m Mark) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MarkAbsent:
		return json.Marshal(AbsentSentinel)
	case MarkInvalid:
		return json.Marshal(m.Raw)
	default:
		return json.Marshal(m.Value)
	}
}

// UnmarshalJSON accepts a JSON number or a string, the latter parsed with ParseMark.
func (m *Mark) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*m = NumericMark(0)
	case float64:
		*m = NumericMark(t)
	case string:
		*m = ParseMark(t)
	default:
		return fmt.Errorf("mark must be a number or %q, got %s", AbsentSentinel, string(data))
	}
	return nil
}

// FormatNumber prints whole numbers without a fractional part.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
