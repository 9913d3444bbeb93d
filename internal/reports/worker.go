package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

type Runner[T any] struct {
	Run T
}

// BuildFunc produces the report of one student.
type BuildFunc func(rollNo string) (*models.ReportBlocks, error)

// Worker defines the interface for the asynchronous generation stages.
type Worker interface {
	WithChannels(channels *models.GenerationChannels) Worker
	WithWaitGroups(waitGroups *models.GenerationWaitGroups) Worker
	SetupErrorWorker() (Runner[func(*models.FailureMap)], *sync.WaitGroup, error)
	SetupCollectorWorker() (Runner[func(*[]models.StudentReport)], *sync.WaitGroup, error)
	SetupReportWorkers(numberOfWorkers int) (Runner[func(BuildFunc)], *sync.WaitGroup, error)
	SetupJobDispatcherWorker(ctx context.Context, studentIDs []string) (Runner[func()], *sync.WaitGroup, error)
}

type AsyncWorker struct {
	channels   *models.GenerationChannels
	waitGroups *models.GenerationWaitGroups
	logger     *slog.Logger
}

func NewAsyncWorker(logger *slog.Logger) *AsyncWorker {
	return &AsyncWorker{logger: logger.With(slog.String("component", "report_worker"))}
}

// WithChannels returns a copy bound to channels; the receiver is left untouched so one
// AsyncWorker can serve concurrent batches.
func (w *AsyncWorker) WithChannels(channels *models.GenerationChannels) Worker {
	bound := *w
	bound.channels = channels
	return &bound
}

func (w *AsyncWorker) WithWaitGroups(waitGroups *models.GenerationWaitGroups) Worker {
	bound := *w
	bound.waitGroups = waitGroups
	return &bound
}

func (w *AsyncWorker) ReportWorker(workerID int, build BuildFunc) {
	defer w.waitGroups.ReportWg.Done()
	for job := range w.channels.Jobs {
		report, err := safeBuild(build, job.RollNo)
		if err != nil {
			w.channels.Errors <- models.GenerationFailure{RollNo: job.RollNo, Message: "failed to generate report", Err: err}
			continue
		}
		w.channels.Results <- models.StudentReport{Index: job.Index, RollNo: job.RollNo, Report: report}
	}
	w.logger.Debug("report worker finished", slog.Int("worker", workerID))
}

// safeBuild turns a panic inside one student's assembly into that student's failure.
func safeBuild(build BuildFunc, rollNo string) (report *models.ReportBlocks, err error) {
	defer func() {
		if r := recover(); r != nil {
			report, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return build(rollNo)
}

func (w *AsyncWorker) SetupReportWorkers(numberOfWorkers int) (Runner[func(BuildFunc)], *sync.WaitGroup, error) {
	if numberOfWorkers < 1 {
		return Runner[func(BuildFunc)]{}, nil, fmt.Errorf("number of report workers must be positive, got %d", numberOfWorkers)
	}
	return Runner[func(BuildFunc)]{
		Run: func(build BuildFunc) {
			for i := 1; i <= numberOfWorkers; i++ {
				w.waitGroups.ReportWg.Add(1)
				go w.ReportWorker(i, build)
			}
		},
	}, w.waitGroups.ReportWg, nil
}

// ErrorWorker sorts failures: students without any subject are skipped, anything else
// is a failure reported to the caller.
func (w *AsyncWorker) ErrorWorker(failures *models.FailureMap) {
	defer w.waitGroups.MainWg.Done()
	for failure := range w.channels.Errors {
		var notFound *models.NotFoundError
		failures.Mu.Lock()
		if errors.As(failure.Err, &notFound) {
			w.logger.Info("skipping student without subjects", slog.String("roll_no", failure.RollNo))
			failures.Skipped = append(failures.Skipped, failure.RollNo)
		} else {
			w.logger.Error("report generation failed", slog.String("roll_no", failure.RollNo), slog.String("error", failure.Error()))
			failures.Failures = append(failures.Failures, failure)
		}
		failures.Mu.Unlock()
	}
}

func (w *AsyncWorker) SetupErrorWorker() (Runner[func(*models.FailureMap)], *sync.WaitGroup, error) {
	return Runner[func(*models.FailureMap)]{
		Run: func(failures *models.FailureMap) {
			w.waitGroups.MainWg.Add(1)
			go w.ErrorWorker(failures)
		},
	}, w.waitGroups.MainWg, nil
}

// CollectorWorker gives every report its own slot; the caller reads them after the join.
func (w *AsyncWorker) CollectorWorker(results *[]models.StudentReport) {
	defer w.waitGroups.MainWg.Done()
	for result := range w.channels.Results {
		*results = append(*results, result)
	}
}

func (w *AsyncWorker) SetupCollectorWorker() (Runner[func(*[]models.StudentReport)], *sync.WaitGroup, error) {
	return Runner[func(*[]models.StudentReport)]{
		Run: func(results *[]models.StudentReport) {
			w.waitGroups.MainWg.Add(1)
			go w.CollectorWorker(results)
		},
	}, w.waitGroups.MainWg, nil
}

// DispatchJobs stops early when ctx is cancelled; the jobs channel is closed either way.
func (w *AsyncWorker) DispatchJobs(ctx context.Context, studentIDs []string) {
	defer w.waitGroups.MainWg.Done()
	defer close(w.channels.Jobs)

	for i, roll := range studentIDs {
		select {
		case <-ctx.Done():
			w.logger.Warn("generation cancelled, stopping dispatch", slog.Int("dispatched", i))
			return
		case w.channels.Jobs <- models.StudentJob{Index: i, RollNo: roll}:
		}
	}
}

func (w *AsyncWorker) SetupJobDispatcherWorker(ctx context.Context, studentIDs []string) (Runner[func()], *sync.WaitGroup, error) {
	return Runner[func()]{
		Run: func() {
			w.waitGroups.MainWg.Add(1)
			go w.DispatchJobs(ctx, studentIDs)
		},
	}, w.waitGroups.MainWg, nil
}
