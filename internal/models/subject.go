package models

import (
	"fmt"
	"maps"
	"strings"
)

// Canonical subject field names produced by the header normalizer.
const (
	FieldRollNo              = "roll_no"
	FieldStudentName         = "student_name"
	FieldFatherName          = "father_name"
	FieldDTMarks             = "dt_marks"
	FieldSTMarks             = "st_marks"
	FieldATMarks             = "at_marks"
	FieldTotalMarks          = "total_marks"
	FieldLabMarks            = "lab_marks"
	FieldAttendanceConducted = "attendance_conducted"
	FieldAttendancePresent   = "attendance_present"
)

// NormalizeRoll is applied to every roll number on both sides of a join.
func NormalizeRoll(roll string) string {
	return strings.TrimSpace(roll)
}

type FileSource struct {
	FileName string `json:"file_name"`
	Checksum string `json:"checksum"`
}

type SubjectRecord struct {
	RollNo              string            `json:"roll_no"`
	DTMarks             Mark              `json:"dt_marks"`
	STMarks             Mark              `json:"st_marks"`
	ATMarks             Mark              `json:"at_marks"`
	TotalMarks          Mark              `json:"total_marks"`
	LabMarks            Mark              `json:"lab_marks"`
	AttendanceConducted int               `json:"attendance_conducted"`
	AttendancePresent   int               `json:"attendance_present"`
	IsLab               bool              `json:"is_lab"`
	Extra               map[string]string `json:"extra,omitempty"`
}

// SubjectTable holds every row of one subject file, keyed by trimmed roll number.
type SubjectTable struct {
	Name    string          `json:"name"`
	IsLab   bool            `json:"is_lab"`
	Columns []string        `json:"columns"`
	Records []SubjectRecord `json:"records"`
	Source  FileSource      `json:"source"`
	index   map[string]int
}

func NewSubjectTable(name string, isLab bool, columns []string, source FileSource) *SubjectTable {
	return &SubjectTable{
		Name:    name,
		IsLab:   isLab,
		Columns: columns,
		Source:  source,
		index:   make(map[string]int),
	}
}

// Add appends a record unless its roll number is already present, in which case the
// first row wins and false is returned.
func (t *SubjectTable) Add(rec SubjectRecord) bool {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	rec.RollNo = NormalizeRoll(rec.RollNo)
	rec.IsLab = t.IsLab
	if _, exists := t.index[rec.RollNo]; exists {
		return false
	}
	t.index[rec.RollNo] = len(t.Records)
	t.Records = append(t.Records, rec)
	return true
}

func (t *SubjectTable) Find(roll string) (*SubjectRecord, bool) {
	i, ok := t.index[NormalizeRoll(roll)]
	if !ok {
		return nil, false
	}
	return &t.Records[i], true
}

func (t *SubjectTable) Clone() *SubjectTable {
	c := NewSubjectTable(t.Name, t.IsLab, append([]string(nil), t.Columns...), t.Source)
	for _, rec := range t.Records {
		rec.Extra = maps.Clone(rec.Extra)
		c.Add(rec)
	}
	return c
}

// SubjectSet is the ordered result of one subject upload plus the known-student list.
type SubjectSet struct {
	Subjects []*SubjectTable `json:"subjects"`
	Students []string        `json:"students"`
	byName   map[string]int
	seen     map[string]struct{}
}

func NewSubjectSet() *SubjectSet {
	return &SubjectSet{
		byName: make(map[string]int),
		seen:   make(map[string]struct{}),
	}
}

// Add appends a subject table, extending the known-student list in first-seen order.
func (s *SubjectSet) Add(table *SubjectTable) error {
	if _, exists := s.byName[table.Name]; exists {
		return fmt.Errorf("duplicate subject %q", table.Name)
	}
	s.byName[table.Name] = len(s.Subjects)
	s.Subjects = append(s.Subjects, table)
	for _, rec := range table.Records {
		if _, ok := s.seen[rec.RollNo]; ok {
			continue
		}
		s.seen[rec.RollNo] = struct{}{}
		s.Students = append(s.Students, rec.RollNo)
	}
	return nil
}

func (s *SubjectSet) Get(name string) (*SubjectTable, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.Subjects[i], true
}

func (s *SubjectSet) Names() []string {
	names := make([]string, 0, len(s.Subjects))
	for _, t := range s.Subjects {
		names = append(names, t.Name)
	}
	return names
}

func (s *SubjectSet) HasStudent(roll string) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[NormalizeRoll(roll)]
	return ok
}

func (s *SubjectSet) Clone() *SubjectSet {
	if s == nil {
		return nil
	}
	c := NewSubjectSet()
	for _, t := range s.Subjects {
		// names are unique in s, Add cannot fail
		_ = c.Add(t.Clone())
	}
	return c
}

// SubjectRecordUpdate overwrites marks and attendance. Nil fields are left untouched.
type SubjectRecordUpdate struct {
	DTMarks             *Mark `json:"dt_marks,omitempty"`
	STMarks             *Mark `json:"st_marks,omitempty"`
	ATMarks             *Mark `json:"at_marks,omitempty"`
	TotalMarks          *Mark `json:"total_marks,omitempty"`
	LabMarks            *Mark `json:"lab_marks,omitempty"`
	AttendanceConducted *int  `json:"attendance_conducted,omitempty"`
	AttendancePresent   *int  `json:"attendance_present,omitempty"`
}

// UpdateRecord applies upd to the record of roll inside subject. The record is only
// changed when the resulting attendance is valid.
func (s *SubjectSet) UpdateRecord(subject, roll string, upd SubjectRecordUpdate) error {
	table, ok := s.Get(subject)
	if !ok {
		return &NotFoundError{Entity: "subject", Key: subject}
	}
	rec, ok := table.Find(roll)
	if !ok {
		return &NotFoundError{Entity: "student", Key: NormalizeRoll(roll)}
	}

	updated := *rec
	if upd.DTMarks != nil {
		updated.DTMarks = *upd.DTMarks
	}
	if upd.STMarks != nil {
		updated.STMarks = *upd.STMarks
	}
	if upd.ATMarks != nil {
		updated.ATMarks = *upd.ATMarks
	}
	if upd.TotalMarks != nil {
		updated.TotalMarks = *upd.TotalMarks
	}
	if upd.LabMarks != nil {
		updated.LabMarks = *upd.LabMarks
	}
	if upd.AttendanceConducted != nil {
		updated.AttendanceConducted = *upd.AttendanceConducted
	}
	if upd.AttendancePresent != nil {
		updated.AttendancePresent = *upd.AttendancePresent
	}

	if err := ValidateAttendance(updated.AttendanceConducted, updated.AttendancePresent); err != nil {
		return err
	}
	*rec = updated
	return nil
}

func ValidateAttendance(conducted, present int) error {
	if conducted < 0 {
		return &ValidationError{Field: FieldAttendanceConducted, Message: "must not be negative"}
	}
	if present < 0 {
		return &ValidationError{Field: FieldAttendancePresent, Message: "must not be negative"}
	}
	if present > conducted {
		return &ValidationError{
			Field:   FieldAttendancePresent,
			Message: fmt.Sprintf("%d exceeds classes conducted (%d)", present, conducted),
		}
	}
	return nil
}
