package reports

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

const defaultSemester = 4

var (
	semesterNumeral = regexp.MustCompile(`\b(VIII|VII|VI|V|IV|III|II|I)\b`)
	romanValues     = map[string]int{"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5, "VI": 6, "VII": 7, "VIII": 8}
	romanNumerals   = []string{"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII"}
)

// CurrentSemester reads the Roman numeral out of a label such as "B.E- IV Semester".
// Labels without one are treated as the fourth semester.
func CurrentSemester(label string) int {
	m := semesterNumeral.FindStringSubmatch(label)
	if m == nil {
		return defaultSemester
	}
	return romanValues[m[1]]
}

// PriorSemesters is the number of backlog columns shown, never less than one.
func PriorSemesters(label string) int {
	return max(1, CurrentSemester(label)-1)
}

func roman(n int) string {
	if n > 0 && n < len(romanNumerals) {
		return romanNumerals[n]
	}
	return fmt.Sprint(n)
}

func buildBacklog(student *models.ReconciledStudent, semesterLabel string) *models.BacklogBlock {
	prior := PriorSemesters(semesterLabel)
	block := &models.BacklogBlock{
		Title:   backlogTitle,
		Headers: make([]string, 0, prior+1),
		Cells:   make([]string, 0, prior+1),
	}
	for sem := 1; sem <= prior; sem++ {
		block.Headers = append(block.Headers, roman(sem)+" Sem.")
		text := strings.TrimSpace(student.Backlogs[sem])
		if text == "" {
			text = "-"
		}
		block.Cells = append(block.Cells, text)
	}
	block.Headers = append(block.Headers, remarksHeader)
	block.Cells = append(block.Cells, "-")
	return block
}
