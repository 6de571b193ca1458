package job

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tabaani/jobqueue/common"
	"github.com/tabaani/jobqueue/internal/config"
	"github.com/tabaani/jobqueue/internal/dto"
	"github.com/tabaani/jobqueue/internal/events"
	"github.com/tabaani/jobqueue/internal/mocks"
	"github.com/tabaani/jobqueue/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestService(repo *mocks.JobRepoMock, pub *mocks.EventPublisherMock) *JobService {
	return NewJobService(repo, pub, slog.New(slog.DiscardHandler))
}

func intPtr(i int) *int { return &i }

func TestJobService_CreateJob(t *testing.T) {
	validPayload := []byte(`{"to":"guest@example.com","subject":"Booking confirmed","body":"See you soon"}`)
	invalidPayload := []byte(`{invalid json}`)

	tests := []struct {
		name        string
		dto         *dto.JobCreateDTO
		setupMocks  func(*mocks.JobRepoMock, *mocks.EventPublisherMock)
		setupCtx    func() context.Context
		wantErr     bool
		errContains string
	}{
		{
			name: "successful creation with default max retries",
			dto: &dto.JobCreateDTO{
				Queue:   "default",
				Type:    "send_email",
				Payload: validPayload,
			},
			setupMocks: func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {
				r.On("Create", mock.Anything, mock.MatchedBy(func(job *models.Job) bool {
					return job.Queue == "default" &&
						job.Type == "send_email" &&
						job.MaxRetries == 3 &&
						job.Status == string(config.JobStatusQueued) &&
						job.Attempts == 0 &&
						!job.AvailableAt.IsZero()
				})).Return(nil)
				p.On("Publish", mock.Anything, mock.MatchedBy(func(ev events.Event) bool {
					return ev.Event == events.TypeEnqueued
				})).Return(nil)
			},
		},
		{
			name: "successful creation with custom max retries",
			dto: &dto.JobCreateDTO{
				Queue:      "email",
				Type:       "send_email",
				Payload:    validPayload,
				MaxRetries: intPtr(5),
			},
			setupMocks: func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {
				r.On("Create", mock.Anything, mock.MatchedBy(func(job *models.Job) bool {
					return job.MaxRetries == 5
				})).Return(nil)
				p.On("Publish", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name: "explicit zero max retries disables the retry budget",
			dto: &dto.JobCreateDTO{
				Queue:      "email",
				Type:       "send_email",
				Payload:    validPayload,
				MaxRetries: intPtr(0),
			},
			setupMocks: func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {
				r.On("Create", mock.Anything, mock.MatchedBy(func(job *models.Job) bool {
					return job.MaxRetries == 0
				})).Return(nil)
				p.On("Publish", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name: "scheduled job keeps provided available_at",
			dto: func() *dto.JobCreateDTO {
				at := time.Now().Add(time.Hour)
				return &dto.JobCreateDTO{
					Queue:       "email",
					Type:        "send_email",
					Payload:     validPayload,
					AvailableAt: &at,
				}
			}(),
			setupMocks: func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {
				r.On("Create", mock.Anything, mock.MatchedBy(func(job *models.Job) bool {
					return job.AvailableAt.After(time.Now().Add(30 * time.Minute))
				})).Return(nil)
				p.On("Publish", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name: "publish failure does not fail the enqueue",
			dto: &dto.JobCreateDTO{
				Queue:   "email",
				Type:    "send_email",
				Payload: validPayload,
			},
			setupMocks: func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {
				r.On("Create", mock.Anything, mock.Anything).Return(nil)
				p.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
			},
		},
		{
			name: "invalid JSON payload",
			dto: &dto.JobCreateDTO{
				Queue:   "default",
				Type:    "send_email",
				Payload: invalidPayload,
			},
			setupMocks:  func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {},
			wantErr:     true,
			errContains: "payload must be valid JSON",
		},
		{
			name: "nil payload",
			dto: &dto.JobCreateDTO{
				Queue: "default",
				Type:  "send_email",
			},
			setupMocks:  func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {},
			wantErr:     true,
			errContains: "payload must be valid JSON",
		},
		{
			name: "invalid queue",
			dto: &dto.JobCreateDTO{
				Queue:   "payments",
				Type:    "send_email",
				Payload: validPayload,
			},
			setupMocks:  func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {},
			wantErr:     true,
			errContains: "invalid queue",
		},
		{
			name: "invalid job type",
			dto: &dto.JobCreateDTO{
				Queue:   "default",
				Type:    "mine_bitcoin",
				Payload: validPayload,
			},
			setupMocks:  func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {},
			wantErr:     true,
			errContains: "invalid job type",
		},
		{
			name: "email payload failing field validation",
			dto: &dto.JobCreateDTO{
				Queue:   "email",
				Type:    "send_email",
				Payload: []byte(`{"to":"not-an-email","subject":"x","body":"y"}`),
			},
			setupMocks:  func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {},
			wantErr:     true,
			errContains: "payload validation failed",
		},
		{
			name: "webhook payload failing field validation",
			dto: &dto.JobCreateDTO{
				Queue:   "webhooks",
				Type:    "send_webhook",
				Payload: []byte(`{"url":"https://example.com/hook","method":"GET","body":{},"timeout":5}`),
			},
			setupMocks:  func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {},
			wantErr:     true,
			errContains: "payload validation failed",
		},
		{
			name: "repository failure",
			dto: &dto.JobCreateDTO{
				Queue:   "default",
				Type:    "send_email",
				Payload: validPayload,
			},
			setupMocks: func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {
				r.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
			},
			wantErr:     true,
			errContains: "failed to add job to database",
		},
		{
			name: "canceled context",
			dto: &dto.JobCreateDTO{
				Queue:   "default",
				Type:    "send_email",
				Payload: validPayload,
			},
			setupMocks: func(r *mocks.JobRepoMock, p *mocks.EventPublisherMock) {},
			setupCtx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErr:     true,
			errContains: "canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.JobRepoMock)
			pub := new(mocks.EventPublisherMock)
			tt.setupMocks(repo, pub)

			ctx := context.Background()
			if tt.setupCtx != nil {
				ctx = tt.setupCtx()
			}

			service := newTestService(repo, pub)
			resp, err := service.CreateJob(ctx, tt.dto)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, tt.dto.Queue, resp.Queue)
				assert.Equal(t, string(config.JobStatusQueued), resp.Status)
			}

			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestJobService_GetJobByID(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		repo := new(mocks.JobRepoMock)
		pub := new(mocks.EventPublisherMock)
		repo.On("Get", mock.Anything, uint(7)).Return(&models.Job{
			ID:         7,
			Queue:      "email",
			Type:       "send_email",
			Payload:    datatypes.JSON([]byte(`{"to":"a@b.c"}`)),
			Status:     string(config.JobStatusCompleted),
			Attempts:   3,
			MaxRetries: 3,
			Result:     datatypes.JSON([]byte(`{"message_id":"msg_1"}`)),
			CreatedAt:  now,
		}, nil)

		resp, err := newTestService(repo, pub).GetJobByID(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, uint(7), resp.ID)
		assert.Equal(t, 3, resp.Attempts)
		assert.Equal(t, string(config.JobStatusCompleted), resp.Status)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(mocks.JobRepoMock)
		pub := new(mocks.EventPublisherMock)
		repo.On("Get", mock.Anything, uint(99)).
			Return(nil, gorm.ErrRecordNotFound)

		_, err := newTestService(repo, pub).GetJobByID(context.Background(), 99)
		require.Error(t, err)

		var apiErr common.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(mocks.JobRepoMock)
		pub := new(mocks.EventPublisherMock)
		repo.On("Get", mock.Anything, uint(7)).
			Return(nil, errors.New("connection reset"))

		_, err := newTestService(repo, pub).GetJobByID(context.Background(), 7)
		require.Error(t, err)

		var apiErr common.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	})
}

func TestJobService_ListJobs(t *testing.T) {
	t.Run("lists queue with status filter", func(t *testing.T) {
		repo := new(mocks.JobRepoMock)
		pub := new(mocks.EventPublisherMock)
		repo.On("List", mock.Anything, "email", "failed").Return([]models.Job{
			{ID: 1, Queue: "email", Status: string(config.JobStatusFailed), Error: "smtp timeout"},
			{ID: 4, Queue: "email", Status: string(config.JobStatusFailed), Error: "smtp timeout"},
		}, nil)

		jobs, err := newTestService(repo, pub).ListJobs(context.Background(), "email", "failed")
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, uint(1), jobs[0].ID)
		assert.Equal(t, "smtp timeout", jobs[0].Error)
	})

	t.Run("rejects unknown queue", func(t *testing.T) {
		repo := new(mocks.JobRepoMock)
		pub := new(mocks.EventPublisherMock)

		_, err := newTestService(repo, pub).ListJobs(context.Background(), "payments", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid queue")
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		repo := new(mocks.JobRepoMock)
		pub := new(mocks.EventPublisherMock)

		_, err := newTestService(repo, pub).ListJobs(context.Background(), "email", "pending")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid status")
	})
}

func TestJobService_RetryJob(t *testing.T) {
	t.Run("requeues a failed job", func(t *testing.T) {
		repo := new(mocks.JobRepoMock)
		pub := new(mocks.EventPublisherMock)
		repo.On("Get", mock.Anything, uint(3)).Return(&models.Job{
			ID:     3,
			Queue:  "email",
			Type:   "send_email",
			Status: string(config.JobStatusFailed),
		}, nil)
		repo.On("Requeue", mock.Anything, uint(3)).Return(nil)
		pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev events.Event) bool {
			return ev.Event == events.TypeEnqueued && ev.JobID == 3
		})).Return(nil)

		err := newTestService(repo, pub).RetryJob(context.Background(), 3)
		require.NoError(t, err)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("conflict when job is not failed", func(t *testing.T) {
		repo := new(mocks.JobRepoMock)
		pub := new(mocks.EventPublisherMock)
		repo.On("Get", mock.Anything, uint(3)).Return(&models.Job{
			ID:     3,
			Status: string(config.JobStatusCompleted),
		}, nil)
		repo.On("Requeue", mock.Anything, uint(3)).Return(ErrJobNotFailed)

		err := newTestService(repo, pub).RetryJob(context.Background(), 3)
		require.Error(t, err)

		var apiErr common.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusConflict, apiErr.Status)
	})

	t.Run("not found", func(t *testing.T) {
		repo := new(mocks.JobRepoMock)
		pub := new(mocks.EventPublisherMock)
		repo.On("Get", mock.Anything, uint(3)).Return(nil, gorm.ErrRecordNotFound)

		err := newTestService(repo, pub).RetryJob(context.Background(), 3)
		require.Error(t, err)

		var apiErr common.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	})
}
