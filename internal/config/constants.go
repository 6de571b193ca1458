package config

type JobStatus string

var (
	AllowedQueues                = []string{"default", "email", "media", "webhooks"}
	AllowedJobTypes              = []string{"send_email", "scan_image", "send_webhook"}
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCompleted JobStatus = "completed"
)

const DefaultMaxRetries = 3

// Terminal reports whether a job in this status is done for good.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

func ValidStatus(s string) bool {
	switch JobStatus(s) {
	case JobStatusQueued, JobStatusRunning, JobStatusFailed, JobStatusCompleted:
		return true
	}
	return false
}
