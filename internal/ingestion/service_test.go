package ingestion

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/columns"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

const (
	theoryCSV = "Roll No,Student Name,DT Marks,ST Marks,AT Marks,Total,Classes Conducted,Classes Attended\n" +
		"101,Asha,20,10,10,40,30,30\n" +
		" 102 ,Ravi,AB,5,3,8,30,25\n" +
		"103,Meena,n/a,4,4,8,30,20\n"
	labCSV = "roll_no;lab marks;attendance_conducted;attendance_present\n" +
		"104;20;20;18\n" +
		"101;ab;20;19\n" +
		"102;;20;20\n"
)

func newTestService(t *testing.T) *IngestionService {
	t.Helper()
	synonyms, err := columns.Default()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewIngestionService(synonyms, IngestionConfig{NumParserWorkers: 2}, logger)
}

func csvFile(name, content string) models.UploadedFile {
	return models.UploadedFile{Name: name, Data: []byte(content)}
}

func TestIngestionService_IngestSubjects(t *testing.T) {
	t.Run("Expect: theory and lab subjects are classified and keep input order", func(t *testing.T) {
		service := newTestService(t)

		set, err := service.IngestSubjects(context.Background(), []models.UploadedFile{
			csvFile("Data Structures.csv", theoryCSV),
			csvFile("DS Lab.csv", labCSV),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"Data Structures", "DS Lab"}, set.Names())
		assert.Equal(t, []string{"101", "102", "103", "104"}, set.Students)

		theory, _ := set.Get("Data Structures")
		assert.False(t, theory.IsLab)
		assert.NotEmpty(t, theory.Source.Checksum)

		lab, _ := set.Get("DS Lab")
		assert.True(t, lab.IsLab)
	})

	t.Run("Expect: AB and unparseable marks are preserved per field", func(t *testing.T) {
		service := newTestService(t)

		set, err := service.IngestSubjects(context.Background(), []models.UploadedFile{csvFile("Maths.csv", theoryCSV)})
		require.NoError(t, err)

		maths, _ := set.Get("Maths")
		rec, ok := maths.Find("102")
		require.True(t, ok, "roll numbers are trimmed")
		assert.True(t, rec.DTMarks.IsAbsent())
		assert.Equal(t, float64(5), rec.STMarks.Value)
		assert.Equal(t, 25, rec.AttendancePresent)
		assert.Equal(t, "Ravi", rec.Extra["student_name"], "embedded names are kept aside")

		rec, _ = maths.Find("103")
		assert.True(t, rec.DTMarks.IsInvalid())
		assert.Equal(t, "n/a", rec.DTMarks.Raw)
	})

	t.Run("Expect: missing optional mark columns are filled with zero", func(t *testing.T) {
		service := newTestService(t)

		set, err := service.IngestSubjects(context.Background(), []models.UploadedFile{csvFile("Lab.csv", labCSV)})
		require.NoError(t, err)

		lab, _ := set.Get("Lab")
		rec, _ := lab.Find("104")
		assert.True(t, rec.DTMarks.IsZero())
		assert.True(t, rec.TotalMarks.IsZero())
		assert.Equal(t, float64(20), rec.LabMarks.Value)

		rec, _ = lab.Find("101")
		assert.True(t, rec.LabMarks.IsAbsent())

		rec, _ = lab.Find("102")
		assert.True(t, rec.LabMarks.IsZero(), "blank lab mark means no score")
	})

	t.Run("Expect: one theory column is enough to classify as theory", func(t *testing.T) {
		service := newTestService(t)

		set, err := service.IngestSubjects(context.Background(), []models.UploadedFile{
			csvFile("Quiz Only.csv", "Roll No,Quiz,Total Classes,Present\n1,7,10,9\n"),
		})
		require.NoError(t, err)

		subject, _ := set.Get("Quiz Only")
		assert.False(t, subject.IsLab)
	})

	t.Run("Expect: workbook uploads are read", func(t *testing.T) {
		service := newTestService(t)
		f := excelize.NewFile()
		defer f.Close()
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Roll No", "DT", "ST", "AT", "Attendance Conducted", "Attendance Present"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{101, 18, 9, 10, 30, 29}))
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)

		set, err := service.IngestSubjects(context.Background(), []models.UploadedFile{{Name: "OS.xlsx", Data: buf.Bytes()}})
		require.NoError(t, err)

		os, _ := set.Get("OS")
		rec, ok := os.Find("101")
		require.True(t, ok)
		assert.Equal(t, float64(18), rec.DTMarks.Value)
		assert.Equal(t, 29, rec.AttendancePresent)
	})

	t.Run("Error case - missing required columns aborts the whole batch", func(t *testing.T) {
		service := newTestService(t)

		set, err := service.IngestSubjects(context.Background(), []models.UploadedFile{
			csvFile("Maths.csv", theoryCSV),
			csvFile("Physics.csv", "Roll No,DT Marks\n101,12\n"),
		})

		assert.Nil(t, set)
		var ingestionErr *models.IngestionError
		require.True(t, errors.As(err, &ingestionErr))
		assert.Equal(t, "Physics", ingestionErr.Subject)
		assert.Equal(t, []string{"attendance_conducted", "attendance_present"}, ingestionErr.Missing)
	})

	t.Run("Error case - unreadable attendance cell", func(t *testing.T) {
		service := newTestService(t)

		_, err := service.IngestSubjects(context.Background(), []models.UploadedFile{
			csvFile("Maths.csv", "roll_no,attendance_conducted,attendance_present\n1,thirty,2\n"),
		})

		var ingestionErr *models.IngestionError
		require.True(t, errors.As(err, &ingestionErr))
		assert.Equal(t, "Maths.csv", ingestionErr.File)
	})

	t.Run("Error case - attended more classes than conducted", func(t *testing.T) {
		service := newTestService(t)

		_, err := service.IngestSubjects(context.Background(), []models.UploadedFile{
			csvFile("Maths.csv", "roll_no,attendance_conducted,attendance_present\n1,10,12\n"),
		})
		assert.Error(t, err)
	})

	t.Run("Error case - unsupported file type", func(t *testing.T) {
		service := newTestService(t)

		_, err := service.IngestSubjects(context.Background(), []models.UploadedFile{csvFile("Maths.pdf", "x")})
		var ingestionErr *models.IngestionError
		assert.True(t, errors.As(err, &ingestionErr))
	})

	t.Run("Error case - duplicate subject names", func(t *testing.T) {
		service := newTestService(t)

		_, err := service.IngestSubjects(context.Background(), []models.UploadedFile{
			csvFile("Maths.csv", theoryCSV),
			csvFile("Maths.CSV", theoryCSV),
		})
		assert.Error(t, err)
	})

	t.Run("Error case - no files", func(t *testing.T) {
		_, err := newTestService(t).IngestSubjects(context.Background(), nil)
		assert.Error(t, err)
	})
}

func TestIngestionService_IngestRoster(t *testing.T) {
	const roster = "Roll No,Name,Father Name,Sem 2,sem 1,Section,Seminar\n" +
		" 101 ,Asha Rao,Ramesh Rao,Physics,\"Maths, Chemistry\",A,x\n" +
		"102,,, ,,B,\n" +
		"101,Duplicate,,,,,\n"

	t.Run("Expect: roster is keyed by trimmed roll with sorted semester columns", func(t *testing.T) {
		service := newTestService(t)

		r, err := service.IngestRoster(csvFile("students.csv", roster))
		require.NoError(t, err)

		assert.Equal(t, "roll no", r.RollColumn)
		assert.Equal(t, "name", r.NameColumn)
		assert.Equal(t, "father name", r.FatherColumn)
		assert.Equal(t, []string{"sem 1", "sem 2", "seminar"}, r.SemesterColumns)
		assert.Len(t, r.Records, 2)

		rec, ok := r.Find("101")
		require.True(t, ok)
		assert.Equal(t, "Asha Rao", rec.StudentName)
		assert.Equal(t, "Ramesh Rao", rec.FatherName)
		assert.Equal(t, map[int]string{1: "Maths, Chemistry", 2: "Physics"}, rec.Backlogs)
		assert.Equal(t, "A", rec.Extra["section"])

		rec, _ = r.Find("102")
		assert.Empty(t, rec.StudentName)
		assert.Empty(t, rec.Backlogs, "blank backlog cells are null")
	})

	t.Run("Expect: name and father columns are optional", func(t *testing.T) {
		service := newTestService(t)

		r, err := service.IngestRoster(csvFile("students.csv", "rollno,sem1\n7,DBMS\n"))
		require.NoError(t, err)
		assert.Empty(t, r.NameColumn)

		rec, ok := r.Find("7")
		require.True(t, ok)
		text, has := rec.Backlog(1)
		assert.True(t, has)
		assert.Equal(t, "DBMS", text)
	})

	t.Run("Error case - no roll number column", func(t *testing.T) {
		service := newTestService(t)

		_, err := service.IngestRoster(csvFile("students.csv", "Student ID,Name\n1,Asha\n"))
		var ingestionErr *models.IngestionError
		require.True(t, errors.As(err, &ingestionErr))
		assert.Contains(t, ingestionErr.Error(), "no roll number column")
	})
}

func TestSemesterIndex(t *testing.T) {
	tests := []struct {
		column string
		want   int
		ok     bool
	}{
		{"sem 1", 1, true},
		{"sem2", 2, true},
		{"sem-3", 3, true},
		{"sem_4", 4, true},
		{"semester 5", 5, true},
		{"seminar", 0, false},
		{"sem 0", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, ok := semesterIndex(tt.column)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCount(t *testing.T) {
	n, err := parseCount(" 30.0 ")
	assert.NoError(t, err)
	assert.Equal(t, 30, n)

	n, err = parseCount("")
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = parseCount("-1")
	assert.Error(t, err)
	_, err = parseCount("2.5")
	assert.Error(t, err)
}
