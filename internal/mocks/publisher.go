package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// PublisherMock implements rabbitmq.Publisher.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *PublisherMock) PublishJSON(ctx context.Context, routingKey string, message any, headers map[string]string) error {
	args := m.Called(ctx, routingKey, message, headers)
	return args.Error(0)
}
