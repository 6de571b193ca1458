package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job is a unit of deferred work. It lives in the jobs table, which is the
// durable handoff point between the API service and the worker pool.
type Job struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	Queue       string         `gorm:"type:varchar(255);not null;index:idx_jobs_claim,priority:1"`
	Type        string         `gorm:"type:varchar(255);not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb"`
	Status      string         `gorm:"type:varchar(50);not null;default:'queued';index:idx_jobs_claim,priority:2"`
	Attempts    int            `gorm:"not null;default:0"`
	MaxRetries  int            `gorm:"not null;default:3"`
	Result      datatypes.JSON `gorm:"type:jsonb"`
	Error       string         `gorm:"type:text"`
	AvailableAt time.Time      `gorm:"not null;index:idx_jobs_claim,priority:3"`
	LockedBy    string         `gorm:"type:varchar(64);not null;default:''"`
	LockedAt    *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
