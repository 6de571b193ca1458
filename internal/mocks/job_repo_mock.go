package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tabaani/jobqueue/internal/models"
	"gorm.io/datatypes"
)

type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Create(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *JobRepoMock) Get(ctx context.Context, id uint) (*models.Job, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) List(ctx context.Context, queue, status string) ([]models.Job, error) {
	args := m.Called(ctx, queue, status)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}

func (m *JobRepoMock) Requeue(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobRepoMock) AcquireNext(ctx context.Context, queue, workerID string) (*models.Job, error) {
	args := m.Called(ctx, queue, workerID)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) MarkCompleted(ctx context.Context, id uint, result datatypes.JSON) error {
	args := m.Called(ctx, id, result)
	return args.Error(0)
}

func (m *JobRepoMock) MarkFailed(ctx context.Context, id uint, errMsg string) error {
	args := m.Called(ctx, id, errMsg)
	return args.Error(0)
}

func (m *JobRepoMock) RetryLater(ctx context.Context, id uint, availableAt time.Time, errMsg string) error {
	args := m.Called(ctx, id, availableAt, errMsg)
	return args.Error(0)
}

func (m *JobRepoMock) Release(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobRepoMock) ListStuckJobs(ctx context.Context, staleDuration time.Duration) ([]models.Job, error) {
	args := m.Called(ctx, staleDuration)

	jobs, _ := args.Get(0).([]models.Job)
	return jobs, args.Error(1)
}
