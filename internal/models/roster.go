package models

import (
	"maps"
	"strings"
)

type RosterRecord struct {
	RollNo      string `json:"roll_no"`
	StudentName string `json:"student_name"`
	FatherName  string `json:"father_name"`
	// Backlogs maps a semester number to its backlog text. A missing key is null.
	Backlogs map[int]string   `json:"backlogs,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Backlog returns the trimmed backlog text of a semester, false when there is none.
func (r *RosterRecord) Backlog(semester int) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.Backlogs[semester]
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Roster is the student information table, keyed by trimmed roll number.
type Roster struct {
	Columns         []string       `json:"columns"`
	SemesterColumns []string       `json:"semester_columns"`
	RollColumn      string         `json:"roll_column"`
	NameColumn      string         `json:"name_column,omitempty"`
	FatherColumn    string         `json:"father_column,omitempty"`
	Records         []RosterRecord `json:"records"`
	Source          FileSource     `json:"source"`
	index           map[string]int
}

func NewRoster(columns []string, source FileSource) *Roster {
	return &Roster{
		Columns: columns,
		Source:  source,
		index:   make(map[string]int),
	}
}

// Add keeps the first row seen for a roll number.
func (r *Roster) Add(rec RosterRecord) bool {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	rec.RollNo = NormalizeRoll(rec.RollNo)
	if _, exists := r.index[rec.RollNo]; exists {
		return false
	}
	if rec.Backlogs == nil {
		rec.Backlogs = make(map[int]string)
	}
	r.index[rec.RollNo] = len(r.Records)
	r.Records = append(r.Records, rec)
	return true
}

func (r *Roster) Find(roll string) (*RosterRecord, bool) {
	if r == nil {
		return nil, false
	}
	i, ok := r.index[NormalizeRoll(roll)]
	if !ok {
		return nil, false
	}
	return &r.Records[i], true
}

func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	c := NewRoster(append([]string(nil), r.Columns...), r.Source)
	c.SemesterColumns = append([]string(nil), r.SemesterColumns...)
	c.RollColumn, c.NameColumn, c.FatherColumn = r.RollColumn, r.NameColumn, r.FatherColumn
	for _, rec := range r.Records {
		rec.Backlogs = maps.Clone(rec.Backlogs)
		rec.Extra = maps.Clone(rec.Extra)
		c.Add(rec)
	}
	return c
}

// RosterRecordUpdate edits identity and backlog fields. An empty backlog text clears
// that semester.
type RosterRecordUpdate struct {
	StudentName *string        `json:"student_name,omitempty"`
	FatherName  *string        `json:"father_name,omitempty"`
	Backlogs    map[int]string `json:"backlogs,omitempty" validate:"omitempty,dive,keys,min=1,endkeys"`
}

func (r *Roster) UpdateRecord(roll string, upd RosterRecordUpdate) error {
	rec, ok := r.Find(roll)
	if !ok {
		return &NotFoundError{Entity: "roster student", Key: NormalizeRoll(roll)}
	}
	for sem := range upd.Backlogs {
		if sem < 1 {
			return &ValidationError{Field: "backlogs", Message: "semester numbers start at 1"}
		}
	}
	if upd.StudentName != nil {
		rec.StudentName = strings.TrimSpace(*upd.StudentName)
	}
	if upd.FatherName != nil {
		rec.FatherName = strings.TrimSpace(*upd.FatherName)
	}
	for sem, text := range upd.Backlogs {
		if strings.TrimSpace(text) == "" {
			delete(rec.Backlogs, sem)
			continue
		}
		rec.Backlogs[sem] = text
	}
	return nil
}
