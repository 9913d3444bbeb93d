package ingestion

import (
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/parser"
)

var (
	rosterRollColumns   = []string{"roll_no", "roll no", "rollno"}
	rosterNameColumns   = []string{"student_name", "student name", "name"}
	rosterFatherColumns = []string{"father_name", "father name", "fathername"}

	semesterColumnPattern = regexp.MustCompile(`^sem(?:ester)?\s*[-_.]?\s*(\d+)$`)
)

// semesterIndex reads the semester number out of a backlog column such as "sem 2",
// "sem2", "sem-2" or "semester 2".
func semesterIndex(column string) (int, bool) {
	m := semesterColumnPattern.FindStringSubmatch(column)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func findColumn(positions map[string]int, candidates []string) (string, int, bool) {
	for _, c := range candidates {
		if i, ok := positions[c]; ok {
			return c, i, true
		}
	}
	return "", 0, false
}

// buildRoster reads the student information file. Headers are only lowercased and
// trimmed because semester columns are open ended.
func buildRoster(source models.FileSource, table *parser.Table, logger *slog.Logger) (*models.Roster, error) {
	headers := make([]string, len(table.Headers))
	positions := make(map[string]int)
	for i, header := range table.Headers {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
		if _, seen := positions[headers[i]]; !seen {
			positions[headers[i]] = i
		}
	}

	rollColumn, rollIdx, ok := findColumn(positions, rosterRollColumns)
	if !ok {
		return nil, &models.IngestionError{
			File:    source.FileName,
			Message: "no roll number column, expected one of " + strings.Join(rosterRollColumns, ", "),
		}
	}
	nameColumn, nameIdx, hasName := findColumn(positions, rosterNameColumns)
	fatherColumn, fatherIdx, hasFather := findColumn(positions, rosterFatherColumns)

	var semesterColumns []string
	for _, h := range headers {
		if strings.HasPrefix(h, "sem") && !slices.Contains(semesterColumns, h) {
			semesterColumns = append(semesterColumns, h)
		}
	}
	slices.Sort(semesterColumns)

	semesters := make(map[int]int)
	for _, column := range semesterColumns {
		n, ok := semesterIndex(column)
		if !ok {
			logger.Warn("semester column without a semester number", slog.String("column", column))
			continue
		}
		if _, taken := semesters[n]; !taken {
			semesters[n] = positions[column]
		}
	}

	used := map[int]bool{rollIdx: true}
	if hasName {
		used[nameIdx] = true
	}
	if hasFather {
		used[fatherIdx] = true
	}
	for _, i := range semesters {
		used[i] = true
	}

	roster := models.NewRoster(headers, source)
	roster.SemesterColumns = semesterColumns
	roster.RollColumn = rollColumn
	roster.NameColumn = nameColumn
	roster.FatherColumn = fatherColumn

	for n, row := range table.Rows {
		roll := models.NormalizeRoll(row[rollIdx])
		if roll == "" {
			logger.Warn("skipping roster row without roll number", slog.Int("row", n+1))
			continue
		}

		rec := models.RosterRecord{RollNo: roll, Backlogs: make(map[int]string)}
		if hasName {
			rec.StudentName = strings.TrimSpace(row[nameIdx])
		}
		if hasFather {
			rec.FatherName = strings.TrimSpace(row[fatherIdx])
		}
		for sem, i := range semesters {
			if text := strings.TrimSpace(row[i]); text != "" {
				rec.Backlogs[sem] = text
			}
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

		if !roster.Add(rec) {
			logger.Warn("duplicate roster roll number, keeping first row", slog.String("roll_no", roll))
		}
	}

	return roster, nil
}
