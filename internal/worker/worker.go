package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tabaani/jobqueue/internal/events"
	"github.com/tabaani/jobqueue/internal/job"
	"github.com/tabaani/jobqueue/internal/models"
	"gorm.io/datatypes"
)

// Config carries everything a single worker needs.
type Config struct {
	ID           string
	Repo         job.JobRepoInterface
	Registry     *Registry
	Events       events.Publisher
	Logger       *slog.Logger
	Queues       []string
	Retry        RetryPolicy
	PollInterval time.Duration
	MaxPollDelay time.Duration
}

// Worker runs the claim loop: pull the next ready job off its queues,
// execute the handler for the job type, and record the outcome.
type Worker struct {
	id           string
	repo         job.JobRepoInterface
	registry     *Registry
	events       events.Publisher
	logger       *slog.Logger
	queues       []string
	retry        RetryPolicy
	pollInterval time.Duration
	maxPollDelay time.Duration
	quit         chan struct{}
	done         chan struct{}
}

func New(cfg Config) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxPollDelay < cfg.PollInterval {
		cfg.MaxPollDelay = cfg.PollInterval
	}
	return &Worker{
		id:           cfg.ID,
		repo:         cfg.Repo,
		registry:     cfg.Registry,
		events:       cfg.Events,
		logger:       cfg.Logger.With(slog.String("worker_id", cfg.ID)),
		queues:       cfg.Queues,
		retry:        cfg.Retry,
		pollInterval: cfg.PollInterval,
		maxPollDelay: cfg.MaxPollDelay,
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the claim loop. The idle delay doubles while the queues
// are empty and resets as soon as a job is claimed.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		defer close(w.done)

		currentDelay := w.pollInterval

		for {
			job := w.pullJob(ctx)

			if job != nil {
				w.process(ctx, job)
				currentDelay = w.pollInterval
			} else {
				currentDelay = min(currentDelay*2, w.maxPollDelay)
			}

			select {
			case <-time.After(currentDelay):
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the loop and waits for the in-flight job to finish.
func (w *Worker) Stop() {
	close(w.quit)
	<-w.done
}

func (w *Worker) pullJob(ctx context.Context) *models.Job {
	for _, q := range w.queues {
		job, err := w.repo.AcquireNext(ctx, q, w.id)
		if err != nil {
			w.logger.Error("failed to acquire job",
				slog.String("queue", q),
				slog.Any("error", err),
			)
			continue
		}
		if job != nil {
			return job
		}
	}
	return nil
}

func (w *Worker) process(ctx context.Context, j *models.Job) {
	logger := w.logger.With(
		slog.Uint64("job_id", uint64(j.ID)),
		slog.String("type", j.Type),
		slog.Int("attempt", j.Attempts),
	)
	logger.Info("processing job")

	handler, ok := w.registry.Lookup(j.Type)
	if !ok {
		// no handler will ever succeed, skip the retry budget
		logger.Error("no handler for job type")
		w.fail(ctx, j, "no handler registered for type "+j.Type)
		return
	}

	res, err := handler(ctx, j.Payload)
	if err != nil {
		if j.Attempts >= j.MaxRetries {
			logger.Warn("job exhausted retries",
				slog.Int("max_retries", j.MaxRetries),
				slog.Any("error", err),
			)
			w.fail(ctx, j, err.Error())
			return
		}

		delay := w.retry.Delay(j.Attempts)
		logger.Info("job will be retried",
			slog.Duration("backoff", delay),
			slog.Any("error", err),
		)

		if repoErr := w.repo.RetryLater(ctx, j.ID, time.Now().Add(delay), err.Error()); repoErr != nil {
			logger.Error("failed to requeue job", slog.Any("error", repoErr))
			return
		}

		w.publish(ctx, j, events.TypeRetried, err.Error())
		return
	}

	b, err := json.Marshal(res)
	if err != nil {
		logger.Error("failed to marshal job result", slog.Any("error", err))
		b = nil
	}

	if err := w.repo.MarkCompleted(ctx, j.ID, datatypes.JSON(b)); err != nil {
		logger.Error("failed to mark job completed", slog.Any("error", err))
		return
	}

	logger.Info("job completed")
	w.publish(ctx, j, events.TypeCompleted, "")
}

func (w *Worker) fail(ctx context.Context, j *models.Job, errMsg string) {
	if err := w.repo.MarkFailed(ctx, j.ID, errMsg); err != nil {
		w.logger.Error("failed to mark job failed",
			slog.Uint64("job_id", uint64(j.ID)),
			slog.Any("error", err),
		)
		return
	}
	w.publish(ctx, j, events.TypeFailed, errMsg)
}

func (w *Worker) publish(ctx context.Context, j *models.Job, typ events.Type, errMsg string) {
	ev := events.Event{
		JobID:    j.ID,
		Queue:    j.Queue,
		JobType:  j.Type,
		Event:    typ,
		Attempts: j.Attempts,
		Error:    errMsg,
		At:       time.Now(),
	}
	if err := w.events.Publish(ctx, ev); err != nil {
		w.logger.Warn("failed to publish job event",
			slog.Uint64("job_id", uint64(j.ID)),
			slog.String("event", string(typ)),
			slog.Any("error", err),
		)
	}
}
