package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabaani/jobqueue/internal/config"
	"github.com/tabaani/jobqueue/internal/job"
	"github.com/tabaani/jobqueue/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ job.JobRepoInterface = (*JobRepository)(nil)

// Create inserts a new job record. The insert is the whole enqueue: once
// it commits, the job is durable and the caller never waits on execution.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Get retrieves a single job record by its ID.
func (r *JobRepository) Get(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %w", err)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// List retrieves jobs belonging to a queue, oldest first. An empty status
// returns every job in the queue.
func (r *JobRepository) List(ctx context.Context, queue, status string) ([]models.Job, error) {
	var jobs []models.Job
	q := r.db.WithContext(ctx).Where("queue = ?", queue)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("id").Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// AcquireNext claims the oldest ready job on the queue for workerID and
// returns it, or (nil, nil) when the queue has no ready job. The SELECT
// runs FOR UPDATE SKIP LOCKED inside a transaction, so concurrent workers
// never claim the same row; the attempt counter is incremented as part of
// the claim so it counts executions started even across worker crashes.
func (r *JobRepository) AcquireNext(ctx context.Context, queue, workerID string) (*models.Job, error) {
	var claimed *models.Job

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.Job
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("queue = ? AND status = ? AND available_at <= ?",
				queue, string(config.JobStatusQueued), time.Now()).
			Order("id").
			First(&job).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("select next job: %w", err)
		}

		now := time.Now()
		if err := tx.Model(&models.Job{}).
			Where("id = ?", job.ID).
			Updates(map[string]any{
				"status":    string(config.JobStatusRunning),
				"attempts":  gorm.Expr("attempts + ?", 1),
				"locked_by": workerID,
				"locked_at": now,
			}).Error; err != nil {
			return fmt.Errorf("claim job: %w", err)
		}

		job.Status = string(config.JobStatusRunning)
		job.Attempts++
		job.LockedBy = workerID
		job.LockedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("acquire next: %w", err)
	}

	return claimed, nil
}

// MarkCompleted transitions a running job to completed and stores the
// handler result. The status guard keeps terminal states final: a job
// that already left running cannot be completed again.
func (r *JobRepository) MarkCompleted(ctx context.Context, id uint, result datatypes.JSON) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusRunning)).
		Updates(map[string]any{
			"status":    string(config.JobStatusCompleted),
			"result":    result,
			"error":     "",
			"locked_by": "",
			"locked_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("mark completed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return job.ErrJobNotRunning
	}
	return nil
}

// MarkFailed transitions a running job to failed, retaining the row for
// operator visibility. The same guard makes the failed transition happen
// at most once per job.
func (r *JobRepository) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusRunning)).
		Updates(map[string]any{
			"status":    string(config.JobStatusFailed),
			"error":     errMsg,
			"locked_by": "",
			"locked_at": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("mark failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return job.ErrJobNotRunning
	}
	return nil
}

// RetryLater returns a running job to the queue for another attempt after
// availableAt, recording the failure that caused the retry.
func (r *JobRepository) RetryLater(ctx context.Context, id uint, availableAt time.Time, errMsg string) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusRunning)).
		Updates(map[string]any{
			"status":       string(config.JobStatusQueued),
			"available_at": availableAt,
			"error":        errMsg,
			"locked_by":    "",
			"locked_at":    nil,
		})
	if res.Error != nil {
		return fmt.Errorf("retry later: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return job.ErrJobNotRunning
	}
	return nil
}

// Release drops a running job's lease and puts it back on the queue
// without touching the attempt counter. Used by the janitor for jobs
// whose worker went away.
func (r *JobRepository) Release(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusRunning)).
		Updates(map[string]any{
			"status":    string(config.JobStatusQueued),
			"locked_by": "",
			"locked_at": nil,
		}).Error; err != nil {
		return fmt.Errorf("release job: %w", err)
	}
	return nil
}

// ListStuckJobs returns running jobs whose lease is older than
// staleDuration.
func (r *JobRepository) ListStuckJobs(ctx context.Context, staleDuration time.Duration) ([]models.Job, error) {
	var jobs []models.Job
	cutoff := time.Now().Add(-staleDuration)
	if err := r.db.WithContext(ctx).
		Where("status = ? AND locked_at IS NOT NULL AND locked_at < ?",
			string(config.JobStatusRunning), cutoff).
		Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list stuck jobs: %w", err)
	}
	return jobs, nil
}

// Requeue puts a terminally failed job back on the queue with a fresh
// attempt budget. This is the operator-driven retry, not the worker's.
func (r *JobRepository) Requeue(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND status = ?", id, string(config.JobStatusFailed)).
		Updates(map[string]any{
			"status":       string(config.JobStatusQueued),
			"attempts":     0,
			"error":        "",
			"available_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("requeue job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return job.ErrJobNotFailed
	}
	return nil
}
