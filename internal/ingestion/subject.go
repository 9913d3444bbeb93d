package ingestion

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/columns"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/parser"
)

var requiredSubjectFields = []string{
	models.FieldRollNo,
	models.FieldAttendanceConducted,
	models.FieldAttendancePresent,
}

var theoryMarkFields = []string{
	models.FieldDTMarks,
	models.FieldSTMarks,
	models.FieldATMarks,
}

// buildSubjectTable maps the headers of one subject file to canonical fields and reads
// every row into a SubjectRecord.
func buildSubjectTable(name string, source models.FileSource, table *parser.Table, synonyms *columns.SynonymTable, logger *slog.Logger) (*models.SubjectTable, error) {
	headers := make([]string, len(table.Headers))
	positions := make(map[string]int)
	for i, header := range table.Headers {
		headers[i] = synonyms.Normalize(header)
		if _, seen := positions[headers[i]]; !seen {
			positions[headers[i]] = i
		}
	}

	var missing []string
	for _, field := range requiredSubjectFields {
		if _, ok := positions[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &models.IngestionError{File: source.FileName, Subject: name, Missing: missing}
	}

	isLab := true
	for _, field := range theoryMarkFields {
		if _, ok := positions[field]; ok {
			isLab = false
			break
		}
	}

	used := make(map[int]bool)
	for _, field := range []string{
		models.FieldRollNo, models.FieldDTMarks, models.FieldSTMarks, models.FieldATMarks,
		models.FieldTotalMarks, models.FieldLabMarks,
		models.FieldAttendanceConducted, models.FieldAttendancePresent,
	} {
		if i, ok := positions[field]; ok {
			used[i] = true
		}
	}

	mark := func(row []string, field string) models.Mark {
		i, ok := positions[field]
		if !ok {
			return models.NumericMark(0)
		}
		return models.ParseMark(row[i])
	}

	subject := models.NewSubjectTable(name, isLab, headers, source)
	for n, row := range table.Rows {
		roll := models.NormalizeRoll(row[positions[models.FieldRollNo]])
		if roll == "" {
			logger.Warn("skipping row without roll number", slog.String("subject", name), slog.Int("row", n+1))
			continue
		}

		conducted, err := parseCount(row[positions[models.FieldAttendanceConducted]])
		if err != nil {
			return nil, rowError(name, source, n, models.FieldAttendanceConducted, err)
		}
		present, err := parseCount(row[positions[models.FieldAttendancePresent]])
		if err != nil {
			return nil, rowError(name, source, n, models.FieldAttendancePresent, err)
		}
		if err := models.ValidateAttendance(conducted, present); err != nil {
			return nil, rowError(name, source, n, models.FieldAttendancePresent, err)
		}

		rec := models.SubjectRecord{
			RollNo:              roll,
			DTMarks:             mark(row, models.FieldDTMarks),
			STMarks:             mark(row, models.FieldSTMarks),
			ATMarks:             mark(row, models.FieldATMarks),
			TotalMarks:          mark(row, models.FieldTotalMarks),
			LabMarks:            mark(row, models.FieldLabMarks),
			AttendanceConducted: conducted,
			AttendancePresent:   present,
		}
		for i, cell := range row {
			if used[i] || headers[i] == "" {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[headers[i]] = strings.TrimSpace(cell)
		}

		if !subject.Add(rec) {
			logger.Warn("duplicate roll number, keeping first row", slog.String("subject", name), slog.String("roll_no", roll))
		}
	}

	return subject, nil
}

// parseCount reads an attendance cell. Spreadsheets often store counts as floats, so
// "30.0" is accepted while fractions and negatives are not.
func parseCount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return 0, fmt.Errorf("%q is not a non-negative whole number", s)
	}
	return int(v), nil
}

func rowError(subject string, source models.FileSource, row int, field string, err error) error {
	return &models.IngestionError{
		File:    source.FileName,
		Subject: subject,
		Message: fmt.Sprintf("data row %d, %s", row+1, field),
		Err:     err,
	}
}
