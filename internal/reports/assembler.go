package reports

import (
	"fmt"
	"math"
	"slices"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

const (
	TheoryMaxMarks = 40
	LabMaxMarks    = 25

	AttendanceThreshold = 75.0
	StatusPoor          = "Poor"
	StatusSatisfactory  = "Satisfactory"

	undefinedPercentage = "-"
)

// Assemble turns a reconciled student into report content. It is pure: the same
// student and config always give the same blocks.
func Assemble(student *models.ReconciledStudent, cfg models.ReportConfig) *models.ReportBlocks {
	blocks := &models.ReportBlocks{
		Header: models.HeaderBlock{
			Department:   cfg.Department,
			ReportDate:   cfg.ReportDate,
			Title:        reportTitle,
			AcademicYear: cfg.AcademicYear,
			Semester:     cfg.Semester,
		},
		Identity: models.IdentityBlock{
			RollNo:      student.RollNo,
			StudentName: student.StudentName,
			FatherName:  student.FatherName,
		},
		Signature: signatureText,
	}

	blocks.Marks, blocks.Warnings = buildMarksTable(student, cfg)

	if cfg.IsDetailed() {
		blocks.Greeting = []string{greetingLine, greetingIntro}
		blocks.Legend = legendText

		pct := blocks.Marks.Percentage.Attendance
		status := AttendanceStatus(pct)
		blocks.AttendanceNote = &models.AttendanceNote{
			Percentage: pct,
			Status:     status,
			Text:       fmt.Sprintf("Your ward's attendance is %s which is %s.", formatPercentage(pct), status),
		}

		if cfg.IncludeNotes {
			blocks.Notes = &models.NotesBlock{Title: notesTitle, Lines: slices.Clone(noteLines)}
		}
		if cfg.IncludeBacklog && student.RosterAvailable {
			blocks.Backlog = buildBacklog(student, cfg.Semester)
		}
	}

	return blocks
}

func buildMarksTable(student *models.ReconciledStudent, cfg models.ReportConfig) (models.MarksTable, []models.DegradedDataWarning) {
	table := models.MarksTable{AttendanceHeading: attendanceHeading(cfg)}
	var warnings []models.DegradedDataWarning

	subjects := slices.Clone(student.Subjects)
	slices.SortStableFunc(subjects, func(a, b models.SubjectSummary) int {
		switch {
		case a.IsLab == b.IsLab:
			return 0
		case !a.IsLab:
			return -1
		default:
			return 1
		}
	})

	var obtained float64
	for i, subject := range subjects {
		var row models.MarksRow
		var rowWarnings []models.DegradedDataWarning
		if subject.IsLab {
			row, rowWarnings = labRow(student.RollNo, subject)
		} else {
			row, rowWarnings = theoryRow(student.RollNo, subject)
		}
		row.SerialNo = i + 1
		warnings = append(warnings, rowWarnings...)

		table.Rows = append(table.Rows, row)
		table.Totals.AttendanceConducted += subject.AttendanceConducted
		table.Totals.AttendancePresent += subject.AttendancePresent
		table.Totals.MaxMarks += row.MaxMarks
		obtained += row.Contribution
	}

	table.Totals.MarksObtained = obtained
	if table.Totals.MaxMarks > 0 {
		table.Totals.MarksDisplay = models.FormatNumber(obtained)
	}

	attendance := AttendancePercentage(table.Totals.AttendancePresent, table.Totals.AttendanceConducted)
	table.Percentage = models.PercentageRow{
		Attendance:        attendance,
		AttendanceDisplay: formatPercentage(attendance),
		MarksDisplay:      undefinedPercentage,
	}
	if marks, ok := MarksPercentage(obtained, table.Totals.MaxMarks); ok {
		table.Percentage.Marks = &marks
		table.Percentage.MarksDisplay = formatPercentage(marks)
	}

	return table, warnings
}

// theoryRow always counts toward the denominator, even when every component is absent.
func theoryRow(roll string, s models.SubjectSummary) (models.MarksRow, []models.DegradedDataWarning) {
	var warnings []models.DegradedDataWarning
	components := []struct {
		field string
		mark  models.Mark
	}{
		{models.FieldDTMarks, s.DTMarks},
		{models.FieldSTMarks, s.STMarks},
		{models.FieldATMarks, s.ATMarks},
	}

	var total float64
	for _, c := range components {
		if c.mark.IsInvalid() {
			warnings = append(warnings, models.DegradedDataWarning{
				RollNo: roll, Subject: s.Subject, Field: c.field, Value: c.mark.Raw,
			})
		}
		total += c.mark.Contribution()
	}

	return models.MarksRow{
		Subject:             s.Subject,
		AttendanceConducted: s.AttendanceConducted,
		AttendancePresent:   s.AttendancePresent,
		DT:                  roundedDisplay(s.DTMarks),
		ST:                  s.STMarks.Display(),
		AT:                  s.ATMarks.Display(),
		Total:               models.FormatNumber(math.RoundToEven(total)),
		Contribution:        total,
		MaxMarks:            TheoryMaxMarks,
	}, warnings
}

// roundedDisplay shows a numeric mark rounded half to even; sums keep the exact value.
func roundedDisplay(m models.Mark) string {
	if m.Kind != models.MarkNumeric {
		return m.Display()
	}
	return models.FormatNumber(math.RoundToEven(m.Value))
}

// labRow counts toward the denominator only when a lab score was recorded, AB included.
func labRow(roll string, s models.SubjectSummary) (models.MarksRow, []models.DegradedDataWarning) {
	row := models.MarksRow{
		Subject:             s.Subject,
		IsLab:               true,
		AttendanceConducted: s.AttendanceConducted,
		AttendancePresent:   s.AttendancePresent,
		LabMarks:            "-",
	}

	lab := s.LabMarks
	switch {
	case lab.IsAbsent():
		row.LabMarks = models.AbsentSentinel
		row.MaxMarks = LabMaxMarks
	case lab.IsInvalid():
		row.LabMarks = lab.Raw
		return row, []models.DegradedDataWarning{{
			RollNo: roll, Subject: s.Subject, Field: models.FieldLabMarks, Value: lab.Raw,
		}}
	case !lab.IsZero():
		row.LabMarks = lab.Display()
		row.Contribution = lab.Value
		row.MaxMarks = LabMaxMarks
	}
	return row, nil
}

// AttendancePercentage is 0 when no classes were conducted.
func AttendancePercentage(present, conducted int) float64 {
	if conducted == 0 {
		return 0
	}
	return float64(present) / float64(conducted) * 100
}

// MarksPercentage is undefined, not 0, when nothing counts toward the denominator.
func MarksPercentage(obtained float64, maxMarks int) (float64, bool) {
	if maxMarks == 0 {
		return 0, false
	}
	return obtained / float64(maxMarks) * 100, true
}

func AttendanceStatus(pct float64) string {
	if pct < AttendanceThreshold {
		return StatusPoor
	}
	return StatusSatisfactory
}

func attendanceHeading(cfg models.ReportConfig) string {
	if cfg.AttendanceStart != "" && cfg.AttendanceEnd != "" {
		return fmt.Sprintf("Attendance (From %s to %s)", cfg.AttendanceStart, cfg.AttendanceEnd)
	}
	return "Attendance"
}

func formatPercentage(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}
