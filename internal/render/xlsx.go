package render

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

// Renderer turns assembled report blocks into a downloadable document.
type Renderer interface {
	RenderStudent(report *models.ReportBlocks) ([]byte, error)
	RenderConsolidated(reports []*models.ReportBlocks) ([]byte, error)
	Extension() string
}

const (
	firstCol   = "A"
	lastCol    = "H"
	numColumns = 8

	maxSheetName = 31
)

var tableHeaders = []string{"S.No", "Subject", "Classes Conducted", "Classes Attended", "DT*", "ST*", "AT*", "Total"}

type XLSXRenderer struct {
	logger *slog.Logger
}

func NewXLSXRenderer(logger *slog.Logger) *XLSXRenderer {
	return &XLSXRenderer{logger: logger.With(slog.String("component", "xlsx_renderer"))}
}

func (r *XLSXRenderer) Extension() string {
	return ".xlsx"
}

func (r *XLSXRenderer) RenderStudent(report *models.ReportBlocks) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("nothing to render")
	}
	return r.render([]*models.ReportBlocks{report})
}

// RenderConsolidated writes one sheet per student, in the given order.
func (r *XLSXRenderer) RenderConsolidated(reports []*models.ReportBlocks) ([]byte, error) {
	if len(reports) == 0 {
		return nil, fmt.Errorf("nothing to render")
	}
	return r.render(reports)
}

func (r *XLSXRenderer) render(reports []*models.ReportBlocks) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.Warn("error closing workbook", slog.String("error", err.Error()))
		}
	}()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	used := make(map[string]bool)
	for i, report := range reports {
		sheet := SheetName(report.Identity.RollNo, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", sheet, err)
		}

		w := &sheetWriter{f: f, sheet: sheet, styles: st, row: 1}
		writeReport(w, report)
		if w.err != nil {
			return nil, fmt.Errorf("write report of roll %s: %w", report.Identity.RollNo, w.err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SheetName derives a unique worksheet name from a roll number.
func SheetName(roll string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.Trim(roll, "' "))
	if name == "" {
		name = "Report"
	}
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}

	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		runes := []rune(name)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		candidate = string(runes) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

type styles struct {
	title, bold, center, cell, cellBold, right int
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

	defs := []*excelize.Style{
		{Font: &excelize.Font{Bold: true, Size: 14}, Alignment: center},
		{Font: &excelize.Font{Bold: true}},
		{Alignment: center},
		{Border: border, Alignment: center},
		{Border: border, Alignment: center, Font: &excelize.Font{Bold: true}},
		{Alignment: &excelize.Alignment{Horizontal: "right"}},
	}
	ids := make([]int, len(defs))
	for i, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return styles{}, err
		}
		ids[i] = id
	}
	return styles{title: ids[0], bold: ids[1], center: ids[2], cell: ids[3], cellBold: ids[4], right: ids[5]}, nil
}

// sheetWriter appends rows to one worksheet and keeps the first error.
type sheetWriter struct {
	f      *excelize.File
	sheet  string
	styles styles
	row    int
	err    error
}

func (w *sheetWriter) cell(col string) string {
	return fmt.Sprintf("%s%d", col, w.row)
}

func (w *sheetWriter) set(col string, value any, style int) {
	if w.err != nil {
		return
	}
	if w.err = w.f.SetCellValue(w.sheet, w.cell(col), value); w.err != nil {
		return
	}
	if style > 0 {
		w.err = w.f.SetCellStyle(w.sheet, w.cell(col), w.cell(col), style)
	}
}

// merged writes value across from..to on the current row.
func (w *sheetWriter) merged(from, to string, value any, style int) {
	w.set(from, value, style)
	if w.err != nil || from == to {
		return
	}
	if w.err = w.f.MergeCell(w.sheet, w.cell(from), w.cell(to)); w.err != nil {
		return
	}
	if style > 0 {
		w.err = w.f.SetCellStyle(w.sheet, w.cell(from), w.cell(to), style)
	}
}

func (w *sheetWriter) line(value string, style int) {
	w.merged(firstCol, lastCol, value, style)
	w.row++
}

func (w *sheetWriter) skip() {
	w.row++
}

func writeReport(w *sheetWriter, r *models.ReportBlocks) {
	w.line(r.Header.Department, w.styles.title)
	w.merged("F", lastCol, "Date: "+r.Header.ReportDate, w.styles.right)
	w.skip()
	w.line(r.Header.Title, w.styles.title)
	w.line(fmt.Sprintf("Academic Year %s, %s", r.Header.AcademicYear, r.Header.Semester), w.styles.center)
	w.skip()

	w.set("A", "Roll No", w.styles.bold)
	w.merged("B", "D", r.Identity.RollNo, 0)
	w.skip()
	w.set("A", "Name", w.styles.bold)
	w.merged("B", lastCol, r.Identity.StudentName, 0)
	w.skip()
	w.set("A", "Father's Name", w.styles.bold)
	w.merged("B", lastCol, r.Identity.FatherName, 0)
	w.skip()
	w.skip()

	for _, text := range r.Greeting {
		w.line(text, 0)
	}
	if len(r.Greeting) > 0 {
		w.skip()
	}

	writeMarksTable(w, r.Marks)

	if r.Legend != "" {
		w.line(r.Legend, 0)
	}
	if r.AttendanceNote != nil {
		w.line(r.AttendanceNote.Text, w.styles.bold)
	}
	if r.Notes != nil {
		w.skip()
		w.line(r.Notes.Title, w.styles.bold)
		for _, text := range r.Notes.Lines {
			w.line(text, 0)
		}
	}
	if r.Backlog != nil {
		w.skip()
		writeBacklog(w, r.Backlog)
	}

	w.skip()
	w.merged("F", lastCol, r.Signature, w.styles.right)
	w.skip()

	if w.err == nil {
		w.err = w.f.SetColWidth(w.sheet, "B", "B", 28)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(w.sheet, "C", "D", 12)
	}
}

func writeMarksTable(w *sheetWriter, t models.MarksTable) {
	cols := columnNames()

	w.set("A", tableHeaders[0], w.styles.cellBold)
	w.set("B", tableHeaders[1], w.styles.cellBold)
	w.merged("C", "D", t.AttendanceHeading, w.styles.cellBold)
	w.merged("E", lastCol, "Marks", w.styles.cellBold)
	w.skip()
	for i, h := range tableHeaders {
		if i < 2 {
			continue
		}
		w.set(cols[i], h, w.styles.cellBold)
	}
	w.set("A", "", w.styles.cellBold)
	w.set("B", "", w.styles.cellBold)
	w.skip()

	for _, row := range t.Rows {
		w.set("A", row.SerialNo, w.styles.cell)
		w.set("B", row.Subject, w.styles.cell)
		w.set("C", row.AttendanceConducted, w.styles.cell)
		w.set("D", row.AttendancePresent, w.styles.cell)
		if row.IsLab {
			w.merged("E", lastCol, row.LabMarks, w.styles.cell)
		} else {
			w.set("E", row.DT, w.styles.cell)
			w.set("F", row.ST, w.styles.cell)
			w.set("G", row.AT, w.styles.cell)
			w.set("H", row.Total, w.styles.cell)
		}
		w.skip()
	}

	w.merged("A", "B", "Total", w.styles.cellBold)
	w.set("C", t.Totals.AttendanceConducted, w.styles.cellBold)
	w.set("D", t.Totals.AttendancePresent, w.styles.cellBold)
	marks := t.Totals.MarksDisplay
	if marks != "" {
		marks = fmt.Sprintf("%s / %d", marks, t.Totals.MaxMarks)
	}
	w.merged("E", lastCol, marks, w.styles.cellBold)
	w.skip()

	w.merged("A", "B", "Percentage", w.styles.cellBold)
	w.merged("C", "D", t.Percentage.AttendanceDisplay, w.styles.cellBold)
	w.merged("E", lastCol, t.Percentage.MarksDisplay, w.styles.cellBold)
	w.skip()
	w.skip()
}

func writeBacklog(w *sheetWriter, b *models.BacklogBlock) {
	w.line(b.Title, w.styles.bold)
	spans := backlogSpans(len(b.Headers))
	for i, h := range b.Headers {
		w.merged(spans[i][0], spans[i][1], h, w.styles.cellBold)
	}
	w.skip()
	for i, c := range b.Cells {
		w.merged(spans[i][0], spans[i][1], c, w.styles.cell)
	}
	w.skip()
}

// backlogSpans spreads n backlog columns over the table width, giving the remarks
// column whatever is left.
func backlogSpans(n int) [][2]string {
	cols := columnNames()
	spans := make([][2]string, n)
	if n == 0 {
		return spans
	}
	width := 1
	if n < numColumns {
		width = max(1, (numColumns-2)/max(1, n-1))
	}
	start := 0
	for i := 0; i < n; i++ {
		end := start + width - 1
		if i == n-1 || end >= numColumns {
			end = max(start, numColumns-1)
		}
		if start >= numColumns {
			start, end = numColumns-1, numColumns-1
		}
		spans[i] = [2]string{cols[start], cols[end]}
		start = end + 1
	}
	return spans
}

func columnNames() []string {
	names := make([]string, numColumns)
	for i := range names {
		names[i], _ = excelize.ColumnNumberToName(i + 1)
	}
	return names
}
