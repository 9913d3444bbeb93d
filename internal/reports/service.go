package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
	"github.com/ThiagoRGoveia/progress-reports.git/internal/reconcile"
)

var timeNow = time.Now

var validate = validator.New()

type ReportServiceConfig struct {
	NumReportWorkers int
}

type ReportService struct {
	setupService ISetup
	asyncWorker  Worker
	config       ReportServiceConfig
	logger       *slog.Logger
}

func NewReportService(setupService ISetup, worker Worker, cfg ReportServiceConfig, logger *slog.Logger) *ReportService {
	return &ReportService{
		setupService: setupService,
		asyncWorker:  worker,
		config:       cfg,
		logger:       logger.With(slog.String("component", "reports")),
	}
}

// WithDefaults fills the report date with today's date when none was given.
func WithDefaults(cfg models.ReportConfig) models.ReportConfig {
	if cfg.ReportDate == "" {
		cfg.ReportDate = timeNow().Format(models.ReportDateLayout)
	}
	return cfg
}

func ValidateConfig(cfg models.ReportConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &models.ValidationError{
				Field:   fieldErrs[0].Field(),
				Message: fmt.Sprintf("failed on the %q rule", fieldErrs[0].Tag()),
			}
		}
		return &models.ValidationError{Message: err.Error()}
	}
	return nil
}

// GenerateAll builds one report per requested student on a bounded worker pool and then
// the consolidated list. An empty studentIDs means every known student. Students with
// no subject rows are skipped and other per-student errors are reported in the result.
func (s *ReportService) GenerateAll(ctx context.Context, studentIDs []string, subjects *models.SubjectSet, roster *models.Roster, cfg models.ReportConfig) (*models.BatchResult, error) {
	if subjects == nil || len(subjects.Subjects) == 0 {
		return nil, &models.ValidationError{Message: "no subject data uploaded"}
	}
	cfg = WithDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(studentIDs) == 0 {
		studentIDs = subjects.Students
	}
	studentIDs = normalizeIDs(studentIDs)

	batchID := uuid.NewString()
	logger := s.logger.With(slog.String("batch_id", batchID))
	logger.Info("starting report generation", slog.Int("students", len(studentIDs)))

	// Step 0: Setup the generation environment.
	environmentConfig, err := s.setupService.build()
	if err != nil {
		return nil, err
	}
	channels, waitGroups, failures := environmentConfig.GetValues()

	// Step 0.1: Bind this batch's channels and wait groups to its own worker copy VERY IMPORTANT: can cause panic if not done
	worker := s.asyncWorker.WithChannels(channels).WithWaitGroups(waitGroups)

	// Step 1: Dispatch one job per student.
	dispatcherRunner, _, err := worker.SetupJobDispatcherWorker(ctx, studentIDs)
	if err != nil {
		return nil, err
	}
	dispatcherRunner.Run()

	// Step 2: Start the error worker, it splits skipped students from failures.
	errorWorkerRunner, _, err := worker.SetupErrorWorker()
	if err != nil {
		return nil, err
	}
	errorWorkerRunner.Run(failures)

	// Step 3: Start the collector, sharing MainWg with the dispatcher and the error worker.
	var results []models.StudentReport
	collectorRunner, mainWaitGroup, err := worker.SetupCollectorWorker()
	if err != nil {
		return nil, err
	}
	collectorRunner.Run(&results)

	// Step 4: Start report workers. Inputs are read only, one reconciler serves all workers.
	reconciler := reconcile.New(subjects, roster)
	reportWorkersRunner, reportWaitGroup, err := worker.SetupReportWorkers(s.config.NumReportWorkers)
	if err != nil {
		// dispatcher, error worker and collector are already running
		close(channels.Results)
		close(channels.Errors)
		for range channels.Jobs {
		}
		mainWaitGroup.Wait()
		return nil, err
	}
	reportWorkersRunner.Run(func(rollNo string) (*models.ReportBlocks, error) {
		student, err := reconciler.Reconcile(rollNo)
		if err != nil {
			return nil, err
		}
		report := Assemble(student, cfg)
		for _, warning := range report.Warnings {
			logger.Warn("degraded data", slog.String("detail", warning.String()))
		}
		return report, nil
	})

	// Step 5: Wait for the report workers, then close the channels they write to.
	reportWaitGroup.Wait()
	close(channels.Results)
	close(channels.Errors)

	// Step 5.1: Wait for the dispatcher, error worker and collector.
	mainWaitGroup.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("report generation cancelled: %w", err)
	}

	// Step 6: Order results by request and build the consolidated document sequentially.
	slices.SortFunc(results, func(a, b models.StudentReport) int { return a.Index - b.Index })
	result := &models.BatchResult{
		BatchID:  batchID,
		Reports:  results,
		Skipped:  failures.Skipped,
		Failures: failures.Failures,
	}
	for _, r := range results {
		result.Consolidated = append(result.Consolidated, r.Report)
	}

	logger.Info("report generation finished",
		slog.Int("generated", len(result.Reports)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed", len(result.Failures)))
	return result, nil
}

// Preview assembles the report of a single student without the worker pool.
func (s *ReportService) Preview(rollNo string, subjects *models.SubjectSet, roster *models.Roster, cfg models.ReportConfig) (*models.ReportBlocks, error) {
	cfg = WithDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	student, err := reconcile.New(subjects, roster).Reconcile(rollNo)
	if err != nil {
		return nil, err
	}
	return Assemble(student, cfg), nil
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = models.NormalizeRoll(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
