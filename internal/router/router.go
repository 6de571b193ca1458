package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tabaani/jobqueue/internal/job"
	"github.com/tabaani/jobqueue/middleware"
)

// New wires the job endpoints into a gin engine with logging, recovery
// and APIError rendering.
func New(h job.JobHandlerInterface, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.ErrorHandler())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/jobs", h.Create)
		v1.GET("/jobs/:id", h.Get)
		v1.GET("/jobs", h.List)
		v1.POST("/jobs/:id/retry", h.Retry)
	}

	return r
}
