package events

import (
	"context"
	"time"
)

type Type string

const (
	TypeEnqueued  Type = "enqueued"
	TypeCompleted Type = "completed"
	TypeRetried   Type = "retried"
	TypeFailed    Type = "failed"
)

// Event describes a job lifecycle transition. Events are fan-out only;
// the queue itself never consumes them.
type Event struct {
	JobID    uint      `json:"job_id"`
	Queue    string    `json:"queue"`
	JobType  string    `json:"job_type"`
	Event    Type      `json:"event"`
	Attempts int       `json:"attempts"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// RoutingKey is the topic-exchange routing key for the event,
// e.g. "job.completed".
func (e Event) RoutingKey() string {
	return "job." + string(e.Event)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NoopPublisher is used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
