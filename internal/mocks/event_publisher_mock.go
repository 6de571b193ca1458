package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tabaani/jobqueue/internal/events"
)

type EventPublisherMock struct {
	mock.Mock
}

func (m *EventPublisherMock) Publish(ctx context.Context, ev events.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *EventPublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
