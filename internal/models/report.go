package models

const (
	TemplateDetailed = "Detailed"
	TemplateCompact  = "Compact"

	ReportDateLayout = "02.01.2006"
)

// SubjectSummary is one subject's row for a single student, copied verbatim from the subject table.
type SubjectSummary struct {
	Subject             string `json:"subject_name"`
	IsLab               bool   `json:"is_lab"`
	DTMarks             Mark   `json:"dt_marks"`
	STMarks             Mark   `json:"st_marks"`
	ATMarks             Mark   `json:"at_marks"`
	TotalMarks          Mark   `json:"total_marks"`
	LabMarks            Mark   `json:"lab_marks"`
	AttendanceConducted int    `json:"attendance_conducted"`
	AttendancePresent   int    `json:"attendance_present"`
}

type ReconciledStudent struct {
	RollNo      string           `json:"roll_no"`
	StudentName string           `json:"student_name"`
	FatherName  string           `json:"father_name"`
	Subjects    []SubjectSummary `json:"subjects"`
	// RosterAvailable is set whenever a roster was uploaded, matched or not.
	RosterAvailable bool           `json:"roster_available"`
	Backlogs        map[int]string `json:"backlogs,omitempty"`
}

type ReportConfig struct {
	Department      string `json:"department_name" validate:"required"`
	ReportDate      string `json:"report_date"`
	AcademicYear    string `json:"academic_year" validate:"required"`
	Semester        string `json:"semester" validate:"required"`
	AttendanceStart string `json:"attendance_start"`
	AttendanceEnd   string `json:"attendance_end"`
	Template        string `json:"template" validate:"required,oneof=Detailed Compact"`
	IncludeBacklog  bool   `json:"include_backlog"`
	IncludeNotes    bool   `json:"include_notes"`
}

func DefaultReportConfig() ReportConfig {
	return ReportConfig{
		Department:     "Computer Science",
		AcademicYear:   "2024-2025",
		Semester:       "B.E- IV Semester",
		Template:       TemplateDetailed,
		IncludeBacklog: true,
		IncludeNotes:   true,
	}
}

func (c ReportConfig) IsDetailed() bool {
	return c.Template == TemplateDetailed
}

// ReportBlocks is the render-agnostic content of one progress report, in display order.
type ReportBlocks struct {
	Header         HeaderBlock           `json:"header"`
	Identity       IdentityBlock         `json:"identity"`
	Greeting       []string              `json:"greeting,omitempty"`
	Marks          MarksTable            `json:"marks"`
	Legend         string                `json:"legend,omitempty"`
	AttendanceNote *AttendanceNote       `json:"attendance_note,omitempty"`
	Notes          *NotesBlock           `json:"notes,omitempty"`
	Backlog        *BacklogBlock         `json:"backlog,omitempty"`
	Signature      string                `json:"signature"`
	Warnings       []DegradedDataWarning `json:"warnings,omitempty"`
}

type HeaderBlock struct {
	Department   string `json:"department"`
	ReportDate   string `json:"report_date"`
	Title        string `json:"title"`
	AcademicYear string `json:"academic_year"`
	Semester     string `json:"semester"`
}

type IdentityBlock struct {
	RollNo      string `json:"roll_no"`
	StudentName string `json:"student_name"`
	FatherName  string `json:"father_name"`
}

type MarksTable struct {
	AttendanceHeading string        `json:"attendance_heading"`
	Rows              []MarksRow    `json:"rows"`
	Totals            TotalsRow     `json:"totals"`
	Percentage        PercentageRow `json:"percentage"`
}

// MarksRow is one subject line. Lab rows show a single merged LabMarks cell instead of
// the DT/ST/AT/Total cells.
type MarksRow struct {
	SerialNo            int     `json:"serial_no"`
	Subject             string  `json:"subject"`
	IsLab               bool    `json:"is_lab"`
	AttendanceConducted int     `json:"attendance_conducted"`
	AttendancePresent   int     `json:"attendance_present"`
	DT                  string  `json:"dt,omitempty"`
	ST                  string  `json:"st,omitempty"`
	AT                  string  `json:"at,omitempty"`
	Total               string  `json:"total,omitempty"`
	LabMarks            string  `json:"lab_marks,omitempty"`
	Contribution        float64 `json:"contribution"`
	MaxMarks            int     `json:"max_marks"`
}

type TotalsRow struct {
	AttendanceConducted int     `json:"attendance_conducted"`
	AttendancePresent   int     `json:"attendance_present"`
	MarksObtained       float64 `json:"marks_obtained"`
	MaxMarks            int     `json:"max_marks"`
	// MarksDisplay is empty when no subject counts toward the denominator.
	MarksDisplay string `json:"marks_display"`
}

type PercentageRow struct {
	Attendance        float64 `json:"attendance"`
	AttendanceDisplay string  `json:"attendance_display"`
	// Marks is nil when the denominator is zero.
	Marks        *float64 `json:"marks"`
	MarksDisplay string   `json:"marks_display"`
}

type AttendanceNote struct {
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
	Text       string  `json:"text"`
}

type NotesBlock struct {
	Title string   `json:"title"`
	Lines []string `json:"lines"`
}

type BacklogBlock struct {
	Title   string   `json:"title"`
	Headers []string `json:"headers"`
	Cells   []string `json:"cells"`
}
