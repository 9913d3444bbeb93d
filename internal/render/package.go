package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

const timestampLayout = "20060102_150405"

// StudentFileName builds "{roll}_{Student_Name}_Report" plus the extension.
func StudentFileName(report *models.ReportBlocks, ext string) string {
	name := strings.Join(strings.Fields(report.Identity.StudentName), "_")
	return safeFileName(fmt.Sprintf("%s_%s_Report%s", report.Identity.RollNo, name, ext))
}

func ConsolidatedFileName(now time.Time, ext string) string {
	return fmt.Sprintf("Consolidated_Progress_Report_%s%s", now.Format(timestampLayout), ext)
}

func ArchiveFileName(now time.Time) string {
	return fmt.Sprintf("All_Reports_%s.zip", now.Format(timestampLayout))
}

func safeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

// Package renders every student report and the consolidated document of a batch.
// Per-student files keep the batch order and the consolidated file comes last.
func Package(result *models.BatchResult, renderer Renderer, now time.Time) ([]models.GeneratedFile, error) {
	files := make([]models.GeneratedFile, 0, len(result.Reports)+1)
	ext := renderer.Extension()
	used := map[string]bool{ConsolidatedFileName(now, ext): true}
	for _, r := range result.Reports {
		data, err := renderer.RenderStudent(r.Report)
		if err != nil {
			return nil, fmt.Errorf("render report of roll %s: %w", r.RollNo, err)
		}
		// roll numbers are unique, names can only collide after sanitizing
		name := uniqueName(StudentFileName(r.Report, ext), ext, used)
		used[name] = true
		files = append(files, models.GeneratedFile{Name: name, Data: data})
	}

	if len(result.Consolidated) > 0 {
		data, err := renderer.RenderConsolidated(result.Consolidated)
		if err != nil {
			return nil, fmt.Errorf("render consolidated report: %w", err)
		}
		files = append(files, models.GeneratedFile{Name: ConsolidatedFileName(now, renderer.Extension()), Data: data})
	}
	return files, nil
}

// uniqueName appends _2, _3, ... before the extension until the name is unused.
func uniqueName(name, ext string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	base := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if !used[candidate] {
			return candidate
		}
	}
}

// BuildArchive zips files under their own names. Duplicate names are rejected.
func BuildArchive(files []models.GeneratedFile) ([]byte, error) {
	if len(files) == 0 {
		return nil, &models.NotFoundError{Entity: "generated reports", Key: "archive"}
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make(map[string]struct{}, len(files))
	for _, f := range files {
		if _, dup := names[f.Name]; dup {
			zw.Close()
			return nil, fmt.Errorf("duplicate file %q in archive", f.Name)
		}
		names[f.Name] = struct{}{}

		w, err := zw.Create(f.Name)
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("add %q to archive: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("write %q to archive: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return buf.Bytes(), nil
}
