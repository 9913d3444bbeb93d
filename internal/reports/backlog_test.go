package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

func TestCurrentSemester(t *testing.T) {
	tests := []struct {
		label string
		want  int
		prior int
	}{
		{"B.E- IV Semester", 4, 3},
		{"B.E- VIII Semester", 8, 7},
		{"B.E- VI Sem", 6, 5},
		{"B.E- I Semester", 1, 1},
		{"B.E- II Semester", 2, 1},
		// no recognizable numeral: treated as the fourth semester
		{"Fourth Semester", 4, 3},
		{"", 4, 3},
		{"B.E- iv semester", 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentSemester(tt.label))
			assert.Equal(t, tt.prior, PriorSemesters(tt.label))
		})
	}
}

func TestAssemble_Backlog(t *testing.T) {
	s := student(theory("Maths", models.NumericMark(10), models.NumericMark(5), models.NumericMark(5), 40, 38))
	s.RosterAvailable = true
	s.Backlogs = map[int]string{1: "Maths, Chemistry", 3: "  ", 5: "ignored"}

	t.Run("Expect: one column per prior semester plus remarks", func(t *testing.T) {
		blocks := Assemble(s, detailedConfig())

		require.NotNil(t, blocks.Backlog)
		assert.Equal(t, []string{"I Sem.", "II Sem.", "III Sem.", "Remarks by Head of the Department"}, blocks.Backlog.Headers)
		assert.Equal(t, []string{"Maths, Chemistry", "-", "-", "-"}, blocks.Backlog.Cells)
	})

	t.Run("Expect: label without numeral defaults to three prior semesters", func(t *testing.T) {
		cfg := detailedConfig()
		cfg.Semester = "Current Semester"

		blocks := Assemble(s, cfg)
		require.NotNil(t, blocks.Backlog)
		assert.Len(t, blocks.Backlog.Headers, 4)
	})

	t.Run("Expect: student missing from the roster gets dashes", func(t *testing.T) {
		missing := student(theory("Maths", models.NumericMark(1), models.NumericMark(1), models.NumericMark(1), 1, 1))
		missing.RosterAvailable = true

		blocks := Assemble(missing, detailedConfig())
		require.NotNil(t, blocks.Backlog)
		assert.Equal(t, []string{"-", "-", "-", "-"}, blocks.Backlog.Cells)
	})

	t.Run("Expect: no backlog block without a roster", func(t *testing.T) {
		s := student(theory("Maths", models.NumericMark(1), models.NumericMark(1), models.NumericMark(1), 1, 1))
		assert.Nil(t, Assemble(s, detailedConfig()).Backlog)
	})
}
