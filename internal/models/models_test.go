package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMark(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		kind    MarkKind
		value   float64
		display string
	}{
		{"integer", "20", MarkNumeric, 20, "20"},
		{"decimal", "7.5", MarkNumeric, 7.5, "7.5"},
		{"comma decimal", "7,5", MarkNumeric, 7.5, "7.5"},
		{"blank is zero", "  ", MarkNumeric, 0, "0"},
		{"absent upper", "AB", MarkAbsent, 0, "AB"},
		{"absent lower with spaces", " ab ", MarkAbsent, 0, "AB"},
		{"invalid keeps raw text", "N/A", MarkInvalid, 0, "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ParseMark(tt.raw)
			assert.Equal(t, tt.kind, m.Kind)
			assert.Equal(t, tt.value, m.Contribution())
			assert.Equal(t, tt.display, m.Display())
		})
	}
}

func TestMark_JSON(t *testing.T) {
	t.Run("Expect: absent marshals to the sentinel", func(t *testing.T) {
		data, err := json.Marshal(AbsentMark())
		require.NoError(t, err)
		assert.JSONEq(t, `"AB"`, string(data))
	})

	t.Run("Expect: number and string inputs are both accepted", func(t *testing.T) {
		var upd SubjectRecordUpdate
		err := json.Unmarshal([]byte(`{"dt_marks": 12, "st_marks": "ab", "at_marks": "4"}`), &upd)
		require.NoError(t, err)
		assert.Equal(t, NumericMark(12), *upd.DTMarks)
		assert.True(t, upd.STMarks.IsAbsent())
		assert.Equal(t, NumericMark(4), *upd.ATMarks)
		assert.Nil(t, upd.LabMarks)
	})

	t.Run("Expect: error for non scalar mark", func(t *testing.T) {
		var m Mark
		assert.Error(t, json.Unmarshal([]byte(`[1]`), &m))
	})
}

func newTestSubjectSet(t *testing.T) *SubjectSet {
	t.Helper()
	maths := NewSubjectTable("Maths", false, nil, FileSource{FileName: "Maths.xlsx"})
	maths.Add(SubjectRecord{RollNo: " 101 ", DTMarks: NumericMark(15), AttendanceConducted: 30, AttendancePresent: 28})
	maths.Add(SubjectRecord{RollNo: "102", AttendanceConducted: 30, AttendancePresent: 20})
	lab := NewSubjectTable("Physics Lab", true, nil, FileSource{FileName: "Physics Lab.csv"})
	lab.Add(SubjectRecord{RollNo: "103", LabMarks: NumericMark(20), AttendanceConducted: 10, AttendancePresent: 10})
	lab.Add(SubjectRecord{RollNo: "101", AttendanceConducted: 10, AttendancePresent: 9})

	set := NewSubjectSet()
	require.NoError(t, set.Add(maths))
	require.NoError(t, set.Add(lab))
	return set
}

func TestSubjectSet_Add(t *testing.T) {
	set := newTestSubjectSet(t)

	assert.Equal(t, []string{"101", "102", "103"}, set.Students)
	assert.Equal(t, []string{"Maths", "Physics Lab"}, set.Names())
	assert.True(t, set.HasStudent(" 103"))

	lab, _ := set.Get("Physics Lab")
	assert.True(t, lab.Records[0].IsLab, "records inherit the table classification")

	err := set.Add(NewSubjectTable("Maths", false, nil, FileSource{}))
	assert.Error(t, err)
}

func TestSubjectTable_AddKeepsFirstRow(t *testing.T) {
	table := NewSubjectTable("Maths", false, nil, FileSource{})
	assert.True(t, table.Add(SubjectRecord{RollNo: "1", DTMarks: NumericMark(10)}))
	assert.False(t, table.Add(SubjectRecord{RollNo: " 1", DTMarks: NumericMark(19)}))

	rec, ok := table.Find("1 ")
	require.True(t, ok)
	assert.Equal(t, float64(10), rec.DTMarks.Value)
	assert.Len(t, table.Records, 1)
}

func TestSubjectSet_UpdateRecord(t *testing.T) {
	t.Run("Expect: marks and attendance are overwritten", func(t *testing.T) {
		set := newTestSubjectSet(t)
		absent := AbsentMark()
		conducted, present := 32, 30

		err := set.UpdateRecord("Maths", "101", SubjectRecordUpdate{
			DTMarks:             &absent,
			AttendanceConducted: &conducted,
			AttendancePresent:   &present,
		})
		require.NoError(t, err)

		table, _ := set.Get("Maths")
		rec, _ := table.Find("101")
		assert.True(t, rec.DTMarks.IsAbsent())
		assert.Equal(t, 32, rec.AttendanceConducted)
		assert.Equal(t, 30, rec.AttendancePresent)
	})

	t.Run("Expect: not found for unknown subject or roll", func(t *testing.T) {
		set := newTestSubjectSet(t)
		var notFound *NotFoundError

		err := set.UpdateRecord("History", "101", SubjectRecordUpdate{})
		assert.True(t, errors.As(err, &notFound))

		err = set.UpdateRecord("Maths", "999", SubjectRecordUpdate{})
		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("Expect: invalid attendance leaves the record untouched", func(t *testing.T) {
		set := newTestSubjectSet(t)
		present := 31
		mark := NumericMark(1)

		err := set.UpdateRecord("Maths", "102", SubjectRecordUpdate{STMarks: &mark, AttendancePresent: &present})
		var validation *ValidationError
		require.True(t, errors.As(err, &validation))
		assert.Equal(t, FieldAttendancePresent, validation.Field)

		table, _ := set.Get("Maths")
		rec, _ := table.Find("102")
		assert.Equal(t, 20, rec.AttendancePresent)
		assert.True(t, rec.STMarks.IsZero())
	})
}

func TestSubjectSet_CloneIsIndependent(t *testing.T) {
	set := newTestSubjectSet(t)
	clone := set.Clone()
	present := 1

	require.NoError(t, set.UpdateRecord("Maths", "101", SubjectRecordUpdate{AttendancePresent: &present}))

	table, _ := clone.Get("Maths")
	rec, _ := table.Find("101")
	assert.Equal(t, 28, rec.AttendancePresent)
	assert.Equal(t, set.Students, clone.Students)
}

func TestRoster_UpdateRecord(t *testing.T) {
	newRoster := func() *Roster {
		r := NewRoster([]string{"roll no", "name", "sem 1"}, FileSource{})
		r.Add(RosterRecord{RollNo: " 101 ", StudentName: "Asha", Backlogs: map[int]string{1: "Maths"}})
		return r
	}

	t.Run("Expect: empty backlog text clears the semester", func(t *testing.T) {
		roster := newRoster()
		name := "Asha Rao"

		err := roster.UpdateRecord("101", RosterRecordUpdate{StudentName: &name, Backlogs: map[int]string{1: "", 2: "Physics"}})
		require.NoError(t, err)

		rec, ok := roster.Find("101")
		require.True(t, ok)
		assert.Equal(t, "Asha Rao", rec.StudentName)
		_, has := rec.Backlog(1)
		assert.False(t, has)
		text, has := rec.Backlog(2)
		assert.True(t, has)
		assert.Equal(t, "Physics", text)
	})

	t.Run("Expect: unknown roll is not found", func(t *testing.T) {
		var notFound *NotFoundError
		err := newRoster().UpdateRecord("404", RosterRecordUpdate{})
		assert.True(t, errors.As(err, &notFound))
	})

	t.Run("Expect: semester zero is rejected", func(t *testing.T) {
		var validation *ValidationError
		err := newRoster().UpdateRecord("101", RosterRecordUpdate{Backlogs: map[int]string{0: "x"}})
		assert.True(t, errors.As(err, &validation))
	})
}

func TestIngestionError_Error(t *testing.T) {
	err := &IngestionError{Subject: "Maths", File: "Maths.xlsx", Missing: []string{"roll_no", "attendance_present"}}
	assert.Equal(t, `ingestion failed for subject "Maths" (file Maths.xlsx): missing required columns roll_no, attendance_present`, err.Error())
}
