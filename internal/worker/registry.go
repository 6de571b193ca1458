package worker

import (
	"context"

	"gorm.io/datatypes"
)

// HandlerFunc executes one job attempt. The returned value is stored as
// the job result on success; a returned error triggers the retry policy.
type HandlerFunc func(ctx context.Context, payload datatypes.JSON) (any, error)

// Registry maps job types to their handlers.
type Registry struct {
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

func (r *Registry) Register(jobType string, h HandlerFunc) {
	r.handlers[jobType] = h
}

func (r *Registry) Lookup(jobType string) (HandlerFunc, bool) {
	h, ok := r.handlers[jobType]
	return h, ok
}

// DefaultRegistry returns the registry with every built-in job type.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("send_email", SendEmailHandler)
	r.Register("scan_image", ScanImageHandler)
	r.Register("send_webhook", SendWebhookHandler)
	return r
}
