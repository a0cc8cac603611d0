package service

import (
	"context"
	"log"
	"sync"
	"time"

	"ledgerflow/internal/config"
	"ledgerflow/internal/domain"
	"ledgerflow/internal/port"
)

// jobTimeout bounds one processing attempt end-to-end.
const jobTimeout = 5 * time.Minute

// ImportQueueWorker polls the durable job queue and dispatches batches for
// processing.
type ImportQueueWorker struct {
	jobRepo       port.ImportJobRepository
	importService ImportService
	cfg           config.QueueConfig
	wg            sync.WaitGroup
}

// NewImportQueueWorker creates a new ImportQueueWorker.
func NewImportQueueWorker(jobRepo port.ImportJobRepository, importService ImportService, cfg config.QueueConfig) *ImportQueueWorker {
	return &ImportQueueWorker{
		jobRepo:       jobRepo,
		importService: importService,
		cfg:           cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight jobs have finished.
func (w *ImportQueueWorker) Start(ctx context.Context) {
	pollInterval := time.Duration(w.cfg.PollIntervalSecs) * time.Second
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	// The staleness window must outlast the per-job context timeout below,
	// or a slow job could be reclaimed while still running.
	staleAfter := time.Duration(w.cfg.StaleClaimSecs) * time.Second
	if staleAfter <= jobTimeout {
		staleAfter = 2 * jobTimeout
	}

	log.Printf("importQueueWorker: started (poll=%s, concurrency=%d, maxAttempts=%d, staleClaim=%s)",
		pollInterval, w.cfg.Concurrency, w.cfg.MaxAttempts, staleAfter)

	for {
		select {
		case <-ctx.Done():
			log.Printf("importQueueWorker: shutting down, waiting for in-flight jobs...")
			w.wg.Wait()
			log.Printf("importQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			jobs, err := w.jobRepo.ClaimPending(ctx, available, staleAfter)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("importQueueWorker: ClaimPending error: %v", err)
				continue
			}

			for i := range jobs {
				job := jobs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight jobs complete even during shutdown.
					jobCtx, cancel := context.WithTimeout(context.Background(), jobTimeout)
					defer cancel()

					log.Printf("importQueueWorker: dispatching batch %s (attempt %d/%d)",
						job.BatchID, job.Attempts, job.MaxAttempts)
					w.runJob(jobCtx, &job)
				}()
			}
		}
	}
}

func (w *ImportQueueWorker) runJob(ctx context.Context, job *domain.ImportJob) {
	err := w.importService.ProcessJob(ctx, job)
	if err == nil {
		if finishErr := w.jobRepo.Finish(ctx, job.ID, ""); finishErr != nil {
			log.Printf("importQueueWorker: failed to finish job %s: %v", job.ID, finishErr)
		}
		return
	}

	nextAttempt := time.Now().UTC().Add(w.backoff(job.Attempts))
	if releaseErr := w.jobRepo.Release(ctx, job.ID, err.Error(), nextAttempt); releaseErr != nil {
		log.Printf("importQueueWorker: failed to release job %s: %v", job.ID, releaseErr)
		return
	}
	log.Printf("importQueueWorker: job %s released, next attempt at %s", job.ID, nextAttempt.Format(time.RFC3339))
}

// backoff doubles the delay with every attempt: base, 2x, 4x, ...
func (w *ImportQueueWorker) backoff(attempts int) time.Duration {
	base := time.Duration(w.cfg.BackoffBaseSecs) * time.Second
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
	}
	return delay
}
