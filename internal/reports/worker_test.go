package reports

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThiagoRGoveia/progress-reports.git/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAsyncWorker_WithChannelsAndWaitGroups(t *testing.T) {
	worker := NewAsyncWorker(discardLogger())
	channels := &models.GenerationChannels{}
	waitGroups := &models.GenerationWaitGroups{}

	bound := worker.WithChannels(channels).WithWaitGroups(waitGroups).(*AsyncWorker)

	assert.Same(t, channels, bound.channels)
	assert.Same(t, waitGroups, bound.waitGroups)
	assert.Nil(t, worker.channels)
	assert.Nil(t, worker.waitGroups)
}

func bindWorker(channels *models.GenerationChannels, waitGroups *models.GenerationWaitGroups) *AsyncWorker {
	return NewAsyncWorker(discardLogger()).WithChannels(channels).WithWaitGroups(waitGroups).(*AsyncWorker)
}

func TestAsyncWorker_ErrorWorker(t *testing.T) {
	t.Run("Success case - splits skipped students from failures", func(t *testing.T) {
		errorsChan := make(chan models.GenerationFailure, 3)
		waitGroups := &models.GenerationWaitGroups{MainWg: &sync.WaitGroup{}}
		failures := &models.FailureMap{}

		worker := bindWorker(&models.GenerationChannels{Errors: errorsChan}, waitGroups)

		waitGroups.MainWg.Add(1)
		go worker.ErrorWorker(failures)

		errorsChan <- models.GenerationFailure{RollNo: "1", Err: &models.NotFoundError{Entity: "student", Key: "1"}}
		errorsChan <- models.GenerationFailure{RollNo: "2", Err: errors.New("boom")}
		errorsChan <- models.GenerationFailure{RollNo: "3", Err: &models.NotFoundError{Entity: "student", Key: "3"}}
		close(errorsChan)

		waitGroups.MainWg.Wait()

		assert.Equal(t, []string{"1", "3"}, failures.Skipped)
		require.Len(t, failures.Failures, 1)
		assert.Equal(t, "2", failures.Failures[0].RollNo)
	})
}

func TestAsyncWorker_ReportWorker(t *testing.T) {
	t.Run("Success case - results and failures go to their channels", func(t *testing.T) {
		channels := &models.GenerationChannels{
			Jobs:    make(chan models.StudentJob, 3),
			Results: make(chan models.StudentReport, 3),
			Errors:  make(chan models.GenerationFailure, 3),
		}
		waitGroups := &models.GenerationWaitGroups{ReportWg: &sync.WaitGroup{}}
		worker := bindWorker(channels, waitGroups)

		build := func(roll string) (*models.ReportBlocks, error) {
			switch roll {
			case "bad":
				return nil, errors.New("cannot assemble")
			case "panic":
				panic("unexpected")
			}
			return &models.ReportBlocks{Identity: models.IdentityBlock{RollNo: roll}}, nil
		}

		channels.Jobs <- models.StudentJob{Index: 0, RollNo: "ok"}
		channels.Jobs <- models.StudentJob{Index: 1, RollNo: "bad"}
		channels.Jobs <- models.StudentJob{Index: 2, RollNo: "panic"}
		close(channels.Jobs)

		waitGroups.ReportWg.Add(1)
		go worker.ReportWorker(1, build)
		waitGroups.ReportWg.Wait()
		close(channels.Results)
		close(channels.Errors)

		var results []models.StudentReport
		for r := range channels.Results {
			results = append(results, r)
		}
		var failed []string
		for f := range channels.Errors {
			failed = append(failed, f.RollNo)
		}

		require.Len(t, results, 1)
		assert.Equal(t, "ok", results[0].Report.Identity.RollNo)
		assert.Equal(t, []string{"bad", "panic"}, failed)
	})
}

func TestAsyncWorker_SetupReportWorkers(t *testing.T) {
	worker := bindWorker(&models.GenerationChannels{}, &models.GenerationWaitGroups{ReportWg: &sync.WaitGroup{}})

	_, _, err := worker.SetupReportWorkers(0)
	assert.Error(t, err)

	_, wg, err := worker.SetupReportWorkers(2)
	assert.NoError(t, err)
	assert.NotNil(t, wg)
}

func TestAsyncWorker_DispatchJobs(t *testing.T) {
	t.Run("Success case - every student is dispatched in order", func(t *testing.T) {
		jobs := make(chan models.StudentJob, 3)
		waitGroups := &models.GenerationWaitGroups{MainWg: &sync.WaitGroup{}}
		worker := bindWorker(&models.GenerationChannels{Jobs: jobs}, waitGroups)

		runner, wg, err := worker.SetupJobDispatcherWorker(context.Background(), []string{"a", "b", "c"})
		require.NoError(t, err)
		runner.Run()
		wg.Wait()

		var got []models.StudentJob
		for job := range jobs {
			got = append(got, job)
		}
		assert.Equal(t, []models.StudentJob{{Index: 0, RollNo: "a"}, {Index: 1, RollNo: "b"}, {Index: 2, RollNo: "c"}}, got)
	})

	t.Run("Success case - cancelled context stops dispatch and closes jobs", func(t *testing.T) {
		jobs := make(chan models.StudentJob)
		waitGroups := &models.GenerationWaitGroups{MainWg: &sync.WaitGroup{}}
		worker := bindWorker(&models.GenerationChannels{Jobs: jobs}, waitGroups)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		waitGroups.MainWg.Add(1)
		go worker.DispatchJobs(ctx, []string{"a", "b"})
		waitGroups.MainWg.Wait()

		_, open := <-jobs
		assert.False(t, open)
	})
}
