package reconcile

import (
	"fmt"
	"maps"
	"strings"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

// Reconciler joins subject tables with the optional roster by trimmed roll number.
// Inputs are read only, so one Reconciler can serve concurrent callers.
type Reconciler struct {
	subjects *models.SubjectSet
	roster   *models.Roster
}

func New(subjects *models.SubjectSet, roster *models.Roster) *Reconciler {
	return &Reconciler{subjects: subjects, roster: roster}
}

// Reconcile builds the complete record of one student. Identity comes from the roster
// only; a roll number absent from every subject table is a NotFoundError.
func (r *Reconciler) Reconcile(rollNo string) (*models.ReconciledStudent, error) {
	roll := models.NormalizeRoll(rollNo)

	student := &models.ReconciledStudent{
		RollNo:          roll,
		StudentName:     placeholderName(roll),
		RosterAvailable: r.roster != nil,
	}

	if r.subjects != nil {
		for _, table := range r.subjects.Subjects {
			rec, ok := table.Find(roll)
			if !ok {
				continue
			}
			student.Subjects = append(student.Subjects, models.SubjectSummary{
				Subject:             table.Name,
				IsLab:               table.IsLab,
				DTMarks:             rec.DTMarks,
				STMarks:             rec.STMarks,
				ATMarks:             rec.ATMarks,
				TotalMarks:          rec.TotalMarks,
				LabMarks:            rec.LabMarks,
				AttendanceConducted: rec.AttendanceConducted,
				AttendancePresent:   rec.AttendancePresent,
			})
		}
	}
	if len(student.Subjects) == 0 {
		return nil, &models.NotFoundError{Entity: "student", Key: roll}
	}

	if rec, ok := r.roster.Find(roll); ok {
		if name := strings.TrimSpace(rec.StudentName); name != "" {
			student.StudentName = name
		}
		student.FatherName = strings.TrimSpace(rec.FatherName)
		student.Backlogs = maps.Clone(rec.Backlogs)
	}

	return student, nil
}

func placeholderName(roll string) string {
	return fmt.Sprintf("Student %s", roll)
}
