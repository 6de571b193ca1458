package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tabaani/jobqueue/internal/dto"
)

type JobServiceMock struct {
	mock.Mock
}

func (m *JobServiceMock) CreateJob(ctx context.Context, create *dto.JobCreateDTO) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, create)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) ListJobs(ctx context.Context, queue, status string) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, queue, status)

	jobs, _ := args.Get(0).([]dto.JobResponseDTO)
	return jobs, args.Error(1)
}

func (m *JobServiceMock) RetryJob(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
