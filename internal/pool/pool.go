package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tabaani/jobqueue/internal/config"
	"github.com/tabaani/jobqueue/internal/events"
	"github.com/tabaani/jobqueue/internal/job"
	"github.com/tabaani/jobqueue/internal/worker"
)

// WorkerPool runs a fixed set of claim-loop workers plus a janitor that
// returns jobs with stale leases to the queue.
type WorkerPool struct {
	workers         []*worker.Worker
	jobRepo         job.JobRepoInterface
	logger          *slog.Logger
	lockDuration    time.Duration
	janitorInterval time.Duration
	wg              sync.WaitGroup
	ctx             context.Context
	cancel          context.CancelFunc
}

func NewWorkerPool(cfg *config.WorkerConfig, repo job.JobRepoInterface, pub events.Publisher, logger *slog.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		jobRepo:         repo,
		logger:          logger,
		lockDuration:    cfg.LockDuration,
		janitorInterval: cfg.JanitorInterval,
		ctx:             ctx,
		cancel:          cancel,
	}

	registry := worker.DefaultRegistry()
	retry := worker.RetryPolicy{Base: cfg.RetryBaseDelay, Max: cfg.RetryMaxDelay}

	for i := 1; i <= cfg.Count; i++ {
		p.workers = append(p.workers, worker.New(worker.Config{
			ID:           fmt.Sprintf("worker-%d-%s", i, uuid.NewString()[:8]),
			Repo:         repo,
			Registry:     registry,
			Events:       pub,
			Logger:       logger,
			Queues:       cfg.Queues,
			Retry:        retry,
			PollInterval: cfg.PollInterval,
			MaxPollDelay: cfg.MaxPollDelay,
		}))
	}
	return p
}

func (p *WorkerPool) Start() {
	for _, w := range p.workers {
		w.Start(p.ctx)
	}

	p.wg.Add(1)
	go p.janitor()

	p.logger.Info("worker pool started",
		slog.Int("workers", len(p.workers)),
		slog.Duration("lock_duration", p.lockDuration),
	)
}

// janitor recovers jobs whose worker died mid-run: anything still
// running with a lease older than twice the lock duration goes back to
// queued, attempts intact.
func (p *WorkerPool) janitor() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stuck, err := p.jobRepo.ListStuckJobs(p.ctx, p.lockDuration*2)
			if err != nil {
				p.logger.Error("failed to list stuck jobs", slog.Any("error", err))
				continue
			}
			for _, j := range stuck {
				p.logger.Warn("recovering stuck job",
					slog.Uint64("job_id", uint64(j.ID)),
					slog.String("locked_by", j.LockedBy),
				)
				if err := p.jobRepo.Release(p.ctx, j.ID); err != nil {
					p.logger.Error("failed to release stuck job",
						slog.Uint64("job_id", uint64(j.ID)),
						slog.Any("error", err),
					)
				}
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Stop drains the pool: workers are stopped first so an in-flight job
// can finish and record its outcome, and only then is the pool context
// canceled to end the janitor. Canceling first would abort the handler
// mid-run and leave the job stranded in running.
func (p *WorkerPool) Stop() {
	for _, w := range p.workers {
		w.Stop()
	}
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}
