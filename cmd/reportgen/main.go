package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/columns"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/config"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/ingestion"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/render"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/reports"
)

type generateOptions struct {
	subjectsDir string
	rosterPath  string
	outDir      string
	students    []string
	noBacklog   bool
	noNotes     bool
	zip         bool
	report      models.ReportConfig
}

type app struct {
	ingestion *ingestion.IngestionService
	processor ingestion.Processor
	reports   *reports.ReportService
	renderer  render.Renderer
}

func setup() (*app, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	synonyms, err := columns.Default()
	if cfg.ColumnSynonymsFile != "" {
		synonyms, err = columns.LoadFile(cfg.ColumnSynonymsFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load column synonyms: %w", err)
	}

	return &app{
		ingestion: ingestion.NewIngestionService(synonyms, ingestion.IngestionConfig{NumParserWorkers: cfg.NumParserWorkers}, logger),
		processor: ingestion.NewFileProcessor(logger),
		reports: reports.NewReportService(
			reports.Setup{ChannelSize: cfg.ResultsChannelSize},
			reports.NewAsyncWorker(logger),
			reports.ReportServiceConfig{NumReportWorkers: cfg.NumReportWorkers},
			logger,
		),
		renderer: render.NewXLSXRenderer(logger),
	}, nil
}

func execute(ctx context.Context, a *app, opts generateOptions) error {
	var (
		roster     *models.Roster
		rosterFile models.UploadedFile
	)
	if opts.rosterPath != "" {
		var err error
		if rosterFile, err = a.processor.ReadFile(opts.rosterPath); err != nil {
			return err
		}
		if roster, err = a.ingestion.IngestRoster(rosterFile); err != nil {
			return err
		}
	}

	scanned, err := a.processor.ScanForFiles(opts.subjectsDir)
	if err != nil {
		return err
	}
	// the roster may live in the subjects directory
	files := scanned[:0]
	for _, f := range scanned {
		if roster != nil && f.Name == rosterFile.Name && f.Checksum == rosterFile.Checksum {
			continue
		}
		files = append(files, f)
	}
	log.Printf("Found %d subject files", len(files))

	subjects, err := a.ingestion.IngestSubjects(ctx, files)
	if err != nil {
		return err
	}

	cfg := opts.report
	cfg.IncludeBacklog = !opts.noBacklog
	cfg.IncludeNotes = !opts.noNotes

	result, err := a.reports.GenerateAll(ctx, opts.students, subjects, roster, cfg)
	if err != nil {
		return err
	}

	now := time.Now()
	generated, err := render.Package(result, a.renderer, now)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, f := range generated {
		if err := os.WriteFile(filepath.Join(opts.outDir, f.Name), f.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if opts.zip {
		archive, err := render.BuildArchive(generated)
		if err != nil {
			return err
		}
		name := render.ArchiveFileName(now)
		if err := os.WriteFile(filepath.Join(opts.outDir, name), archive, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	log.Printf("Generated %d reports in %s", len(result.Reports), opts.outDir)
	if len(result.Skipped) > 0 {
		log.Printf("Skipped students without subject data: %s", strings.Join(result.Skipped, ", "))
	}
	for _, f := range result.Failures {
		log.Printf("Failed: %s", f.Error())
	}
	return nil
}

func newGenerateCommand() *cobra.Command {
	opts := generateOptions{report: models.DefaultReportConfig()}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate progress reports from a directory of subject spreadsheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime := time.Now()
			a, err := setup()
			if err != nil {
				return err
			}
			if err := execute(cmd.Context(), a, opts); err != nil {
				return err
			}
			log.Printf("Execution time: %s\n", time.Since(startTime))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.subjectsDir, "subjects", "", "directory containing one spreadsheet per subject")
	flags.StringVar(&opts.rosterPath, "roster", "", "student information spreadsheet")
	flags.StringVar(&opts.outDir, "out", "reports", "output directory")
	flags.StringSliceVar(&opts.students, "students", nil, "roll numbers to generate (default: every student)")
	flags.StringVar(&opts.report.Department, "department", opts.report.Department, "department name")
	flags.StringVar(&opts.report.Semester, "semester", opts.report.Semester, "semester label, e.g. \"B.E- IV Semester\"")
	flags.StringVar(&opts.report.AcademicYear, "academic-year", opts.report.AcademicYear, "academic year")
	flags.StringVar(&opts.report.ReportDate, "date", "", "report date (DD.MM.YYYY, default today)")
	flags.StringVar(&opts.report.AttendanceStart, "attendance-from", "", "start of the attendance period")
	flags.StringVar(&opts.report.AttendanceEnd, "attendance-to", "", "end of the attendance period")
	flags.StringVar(&opts.report.Template, "template", opts.report.Template, "Detailed or Compact")
	flags.BoolVar(&opts.noBacklog, "no-backlog", false, "omit the backlog table")
	flags.BoolVar(&opts.noNotes, "no-notes", false, "omit the notes block")
	flags.BoolVar(&opts.zip, "zip", false, "also write a zip archive of every generated file")
	_ = cmd.MarkFlagRequired("subjects")

	return cmd
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	root := &cobra.Command{
		Use:          "reportgen",
		Short:        "Student progress report generator",
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error during generation: %v", err)
	}
}
