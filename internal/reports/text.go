package reports

const (
	reportTitle   = "Progress Report"
	greetingLine  = "Dear Parent/Guardian,"
	greetingIntro = "The following are the details of the attendance and Continuous Internal Evaluation-1 of your ward. It is furnished for your information."
	legendText    = "*DT – Descriptive Test  ST-Surprise Test  AT- Assignment"
	notesTitle    = "Important Note:"
	backlogTitle  = "Backlog Data:"
	remarksHeader = "Remarks by Head of the Department"
	signatureText = "Sign. of the student: _______________________   Sign. of the Parent/Guardian: _________________________"
)

var noteLines = []string{
	"As per the Osmania University rules, a student must have minimum attendance of 75% in aggregate of all the subjects to be eligible or promoted for the next year. Students having less than 75% attendance in aggregate will not be issued Hall Ticket for the examination, such students will come under Condonation/Detention category.",
	"As per State Government rules, the student is not eligible for Scholarship if the attendance is less than 75%.",
}
