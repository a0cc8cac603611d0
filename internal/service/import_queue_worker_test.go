package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/service"
	"ledgerflow/mocks"
)

func workerConfig() config.QueueConfig {
	return config.QueueConfig{
		PollIntervalSecs: 1,
		Concurrency:      2,
		MaxAttempts:      3,
		BackoffBaseSecs:  30,
		StaleClaimSecs:   600,
	}
}

func runWorker(t *testing.T, worker *service.ImportQueueWorker, wait time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()
	time.Sleep(wait)
	cancel()
	<-done
}

func TestImportQueueWorker_FinishesSuccessfulJob(t *testing.T) {
	jobRepo := new(mocks.MockImportJobRepo)
	importSvc := new(mocks.MockImportService)

	job := domain.ImportJob{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		BatchID:     uuid.New(),
		Attempts:    1,
		MaxAttempts: 3,
	}

	jobRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int"), mock.AnythingOfType("time.Duration")).
		Return([]domain.ImportJob{job}, nil).Once()
	jobRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int"), mock.AnythingOfType("time.Duration")).
		Return([]domain.ImportJob{}, nil).Maybe()
	importSvc.On("ProcessJob", mock.Anything, mock.MatchedBy(func(j *domain.ImportJob) bool {
		return j.ID == job.ID
	})).Return(nil)
	jobRepo.On("Finish", mock.Anything, job.ID, "").Return(nil)

	worker := service.NewImportQueueWorker(jobRepo, importSvc, workerConfig())
	runWorker(t, worker, 1500*time.Millisecond)

	importSvc.AssertExpectations(t)
	jobRepo.AssertCalled(t, "Finish", mock.Anything, job.ID, "")
	jobRepo.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestImportQueueWorker_ReleasesFailedJobWithBackoff(t *testing.T) {
	jobRepo := new(mocks.MockImportJobRepo)
	importSvc := new(mocks.MockImportService)

	job := domain.ImportJob{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		BatchID:     uuid.New(),
		Attempts:    2, // second attempt, so the delay doubles once
		MaxAttempts: 3,
	}

	jobRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int"), mock.AnythingOfType("time.Duration")).
		Return([]domain.ImportJob{job}, nil).Once()
	jobRepo.On("ClaimPending", mock.Anything, mock.AnythingOfType("int"), mock.AnythingOfType("time.Duration")).
		Return([]domain.ImportJob{}, nil).Maybe()
	importSvc.On("ProcessJob", mock.Anything, mock.Anything).Return(assert.AnError)

	var nextAttempt time.Time
	released := make(chan struct{})
	jobRepo.On("Release", mock.Anything, job.ID, assert.AnError.Error(), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			nextAttempt = args.Get(3).(time.Time)
			close(released)
		}).
		Return(nil)

	worker := service.NewImportQueueWorker(jobRepo, importSvc, workerConfig())
	runWorker(t, worker, 1500*time.Millisecond)

	select {
	case <-released:
	default:
		t.Fatal("job was never released")
	}

	delay := time.Until(nextAttempt)
	assert.Greater(t, delay, 55*time.Second)
	assert.LessOrEqual(t, delay, 60*time.Second)
	jobRepo.AssertNotCalled(t, "Finish", mock.Anything, mock.Anything, mock.Anything)
}

func TestImportQueueWorker_ClaimsUpToConcurrency(t *testing.T) {
	jobRepo := new(mocks.MockImportJobRepo)
	importSvc := new(mocks.MockImportService)

	jobRepo.On("ClaimPending", mock.Anything, 2, 10*time.Minute).
		Return([]domain.ImportJob{}, nil)

	worker := service.NewImportQueueWorker(jobRepo, importSvc, workerConfig())
	runWorker(t, worker, 1500*time.Millisecond)

	jobRepo.AssertCalled(t, "ClaimPending", mock.Anything, 2, 10*time.Minute)
	importSvc.AssertNotCalled(t, "ProcessJob", mock.Anything, mock.Anything)
}

// A staleness window shorter than a job's own timeout would let one worker
// reclaim another's still-running job, so the worker widens it.
func TestImportQueueWorker_WidensTooShortStaleWindow(t *testing.T) {
	jobRepo := new(mocks.MockImportJobRepo)
	importSvc := new(mocks.MockImportService)

	cfg := workerConfig()
	cfg.StaleClaimSecs = 60

	jobRepo.On("ClaimPending", mock.Anything, 2, 10*time.Minute).
		Return([]domain.ImportJob{}, nil)

	worker := service.NewImportQueueWorker(jobRepo, importSvc, cfg)
	runWorker(t, worker, 1500*time.Millisecond)

	jobRepo.AssertCalled(t, "ClaimPending", mock.Anything, 2, 10*time.Minute)
}
