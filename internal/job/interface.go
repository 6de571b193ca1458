package job

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tabaani/jobqueue/internal/dto"
	"github.com/tabaani/jobqueue/internal/models"
	"gorm.io/datatypes"
)

// JobRepoInterface defines the contract for job repository operations.
// The producer side uses Create/Get/List/Requeue; the worker side owns
// the claim and transition methods.
type JobRepoInterface interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id uint) (*models.Job, error)
	List(ctx context.Context, queue, status string) ([]models.Job, error)
	Requeue(ctx context.Context, id uint) error

	AcquireNext(ctx context.Context, queue, workerID string) (*models.Job, error)
	MarkCompleted(ctx context.Context, id uint, result datatypes.JSON) error
	MarkFailed(ctx context.Context, id uint, errMsg string) error
	RetryLater(ctx context.Context, id uint, availableAt time.Time, errMsg string) error
	Release(ctx context.Context, id uint) error
	ListStuckJobs(ctx context.Context, staleDuration time.Duration) ([]models.Job, error)
}

// JobServiceInterface defines the contract for job business logic operations.
type JobServiceInterface interface {
	CreateJob(ctx context.Context, dto *dto.JobCreateDTO) (*dto.JobResponseDTO, error)
	GetJobByID(ctx context.Context, id uint) (*dto.JobResponseDTO, error)
	ListJobs(ctx context.Context, queue, status string) ([]dto.JobResponseDTO, error)
	RetryJob(ctx context.Context, id uint) error
}

// JobHandlerInterface defines the contract for HTTP request handlers.
type JobHandlerInterface interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	List(c *gin.Context)
	Retry(c *gin.Context)
}
