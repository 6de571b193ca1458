package job

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/tabaani/jobqueue/common"
	"github.com/tabaani/jobqueue/internal/config"
	"github.com/tabaani/jobqueue/internal/dto"
	"github.com/tabaani/jobqueue/internal/events"
	"github.com/tabaani/jobqueue/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JobService struct {
	repo   JobRepoInterface
	events events.Publisher
	logger *slog.Logger
}

func NewJobService(repo JobRepoInterface, pub events.Publisher, logger *slog.Logger) *JobService {
	return &JobService{repo: repo, events: pub, logger: logger}
}

var _ JobServiceInterface = (*JobService)(nil)

// CreateJob validates enqueue input, applies business rules, persists the
// job, and returns the created record. The call returns as soon as the
// insert commits; execution happens later on the worker tier.
func (s *JobService) CreateJob(ctx context.Context, create *dto.JobCreateDTO) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}

	if !json.Valid(create.Payload) {
		return nil, common.Errf(http.StatusBadRequest, "payload must be valid JSON")
	}

	if !slices.Contains(config.AllowedQueues, create.Queue) {
		return nil, common.NewAPIError(
			http.StatusBadRequest,
			"invalid queue",
			map[string]any{
				"provided": create.Queue,
				"allowed":  config.AllowedQueues,
			},
		)
	}

	if !slices.Contains(config.AllowedJobTypes, create.Type) {
		return nil, common.NewAPIError(
			http.StatusBadRequest,
			"invalid job type",
			map[string]any{
				"provided": create.Type,
				"allowed":  config.AllowedJobTypes,
			},
		)
	}

	switch create.Type {
	case "send_email":
		if err := validatePayload[dto.SendEmailPayload](create.Payload); err != nil {
			return nil, err
		}
	case "scan_image":
		if err := validatePayload[dto.ScanImagePayload](create.Payload); err != nil {
			return nil, err
		}
	case "send_webhook":
		if err := validatePayload[dto.SendWebhookPayload](create.Payload); err != nil {
			return nil, err
		}
	}

	maxRetries := config.DefaultMaxRetries
	if create.MaxRetries != nil {
		maxRetries = *create.MaxRetries
	}

	job := models.Job{
		Queue:       create.Queue,
		Type:        create.Type,
		Payload:     datatypes.JSON(create.Payload),
		Status:      string(config.JobStatusQueued),
		MaxRetries:  maxRetries,
		AvailableAt: time.Now(),
	}
	if create.AvailableAt != nil {
		job.AvailableAt = *create.AvailableAt
	}

	if err := s.repo.Create(ctx, &job); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, common.Errf(http.StatusRequestTimeout, "request was canceled")
		case errors.Is(err, context.DeadlineExceeded):
			return nil, common.Errf(http.StatusRequestTimeout, "request timeout")
		default:
			return nil, common.Errf(http.StatusInternalServerError, "failed to add job to database")
		}
	}

	s.publish(ctx, events.Event{
		JobID:    job.ID,
		Queue:    job.Queue,
		JobType:  job.Type,
		Event:    events.TypeEnqueued,
		Attempts: job.Attempts,
		At:       time.Now(),
	})

	return toResponseDTO(&job), nil
}

// GetJobByID retrieves a job by its ID, mapping repository errors to
// API errors.
func (s *JobService) GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.Errf(http.StatusNotFound, "job not found")
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to get job")
	}

	return toResponseDTO(job), nil
}

// ListJobs retrieves jobs for a queue, optionally filtered by status.
// Listing failed jobs is how operators find work the queue gave up on.
func (s *JobService) ListJobs(ctx context.Context, queue, status string) ([]dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	if !slices.Contains(config.AllowedQueues, queue) {
		return nil, common.NewAPIError(
			http.StatusBadRequest,
			"invalid queue",
			map[string]any{
				"provided": queue,
				"allowed":  config.AllowedQueues,
			},
		)
	}

	if status != "" && !config.ValidStatus(status) {
		return nil, common.Errf(http.StatusBadRequest, "invalid status %q", status)
	}

	jobs, err := s.repo.List(ctx, queue, status)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
		}
		return nil, common.Errf(http.StatusInternalServerError, "failed to list jobs")
	}

	dtos := make([]dto.JobResponseDTO, len(jobs))
	for i := range jobs {
		dtos[i] = *toResponseDTO(&jobs[i])
	}
	return dtos, nil
}

// RetryJob requeues a terminally failed job with a fresh attempt budget.
func (s *JobService) RetryJob(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	job, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.Errf(http.StatusNotFound, "job not found")
		}
		return common.Errf(http.StatusInternalServerError, "failed to get job")
	}

	if err := s.repo.Requeue(ctx, id); err != nil {
		if errors.Is(err, ErrJobNotFailed) {
			return common.Errf(http.StatusConflict, "job is %s, only failed jobs can be retried", job.Status)
		}
		return common.Errf(http.StatusInternalServerError, "failed to requeue job")
	}

	s.publish(ctx, events.Event{
		JobID:   job.ID,
		Queue:   job.Queue,
		JobType: job.Type,
		Event:   events.TypeEnqueued,
		At:      time.Now(),
	})

	return nil
}

// publish sends a lifecycle event without letting a broker problem fail
// the request.
func (s *JobService) publish(ctx context.Context, ev events.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish job event",
			slog.Uint64("job_id", uint64(ev.JobID)),
			slog.String("event", string(ev.Event)),
			slog.Any("error", err),
		)
	}
}

func toResponseDTO(job *models.Job) *dto.JobResponseDTO {
	return &dto.JobResponseDTO{
		ID:          job.ID,
		Queue:       job.Queue,
		Type:        job.Type,
		Payload:     json.RawMessage(job.Payload),
		Status:      job.Status,
		Attempts:    job.Attempts,
		MaxRetries:  job.MaxRetries,
		Result:      json.RawMessage(job.Result),
		Error:       job.Error,
		AvailableAt: job.AvailableAt,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}
